// Copyright 2025 TripWise
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package base defines the tool contract every external capability must
// implement: a name, declared input/output shapes, and an Execute method.
// All invocations go through the registry gateway, which validates both
// directions of the contract so callers can trust tool outputs
// unconditionally.
package base

import (
	"context"
	"fmt"
	"strings"
)

// Tool is one named external capability. Inputs and outputs are typed structs
// owned by the tool package; the declared schemas describe their JSON shape
// for gateway validation.
type Tool interface {
	// Name returns the unique registry key for this tool.
	Name() string

	// Description returns a short human-readable summary.
	Description() string

	// InputSchema declares the required shape of Execute's input.
	InputSchema() Schema

	// OutputSchema declares the shape Execute's result must satisfy.
	OutputSchema() Schema

	// Execute performs the tool's effect. It may call external services and
	// therefore fail or time out; the gateway wraps such failures. Execute is
	// only called with input that passed InputSchema validation.
	Execute(ctx context.Context, input any) (any, error)
}

// ErrToolNotFound is returned when no tool is registered under the requested
// name. This indicates a programming error, not a runtime condition.
type ErrToolNotFound struct {
	Name string
}

func (e *ErrToolNotFound) Error() string {
	return fmt.Sprintf("tool not found: %s", e.Name)
}

// ErrInvalidInput is returned when a caller supplies input violating the
// tool's declared input schema. The tool is never executed.
type ErrInvalidInput struct {
	Tool   string
	Fields []string
}

func (e *ErrInvalidInput) Error() string {
	return fmt.Sprintf("invalid input for tool %s: fields [%s]", e.Tool, strings.Join(e.Fields, ", "))
}

// ErrToolExecution wraps a failure raised while the tool's effect ran.
type ErrToolExecution struct {
	Tool  string
	Cause error
}

func (e *ErrToolExecution) Error() string {
	return fmt.Sprintf("tool %s execution failed: %v", e.Tool, e.Cause)
}

func (e *ErrToolExecution) Unwrap() error {
	return e.Cause
}

// ErrOutputViolation is returned when an executed tool produced data that
// violates its declared output schema. Side effects already performed by the
// tool are not undone; this is a last-line defense against noncompliant
// external output and must be surfaced, never swallowed.
type ErrOutputViolation struct {
	Tool   string
	Fields []string
}

func (e *ErrOutputViolation) Error() string {
	return fmt.Sprintf("tool %s output violation: fields [%s]", e.Tool, strings.Join(e.Fields, ", "))
}
