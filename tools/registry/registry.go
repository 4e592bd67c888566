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

// Package registry is the single gateway through which tools are invoked.
// Every call validates the input against the tool's declared schema before
// executing and validates the output after, so orchestration code never
// consumes unchecked external data.
package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"tripwise/platform/shared/logger"
	"tripwise/platform/tools/base"
)

var invocationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "tripwise_tool_invocations_total",
		Help: "Tool invocations through the gateway by outcome",
	},
	[]string{"tool", "outcome"},
)

// Registry holds named tools and mediates all invocations.
// Safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	tools  map[string]base.Tool
	logger *logger.Logger
}

// New creates an empty tool registry.
func New(log *logger.Logger) *Registry {
	return &Registry{
		tools:  make(map[string]base.Tool),
		logger: log,
	}
}

// Register adds a tool under its name. Registering the same name twice is an
// error; tool identity is fixed at startup.
func (r *Registry) Register(tool base.Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := tool.Name()
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool already registered: %s", name)
	}

	r.tools[name] = tool
	r.logger.Debug("", "", fmt.Sprintf("Registered tool: %s", name), map[string]any{
		"tool":        name,
		"description": tool.Description(),
	})
	return nil
}

// Get returns the tool registered under name.
func (r *Registry) Get(name string) (base.Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[name]
	return tool, ok
}

// List returns the registered tool names in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Invoke executes the named tool with the given input. The input is validated
// against the tool's input schema before Execute runs; on violation the tool
// is never executed. The output is validated against the output schema before
// being returned, so a successful Invoke always yields contract-conforming
// data.
func (r *Registry) Invoke(ctx context.Context, name string, input any) (any, error) {
	tool, ok := r.Get(name)
	if !ok {
		invocationsTotal.WithLabelValues(name, "not_found").Inc()
		return nil, &base.ErrToolNotFound{Name: name}
	}

	if bad := tool.InputSchema().Validate(input); len(bad) > 0 {
		invocationsTotal.WithLabelValues(name, "invalid_input").Inc()
		return nil, &base.ErrInvalidInput{Tool: name, Fields: bad}
	}

	start := time.Now()
	output, err := tool.Execute(ctx, input)
	if err != nil {
		r.logger.ErrorWithCause("", "", fmt.Sprintf("Tool %s failed", name), err, map[string]any{
			"tool": name,
		})
		invocationsTotal.WithLabelValues(name, "error").Inc()
		return nil, &base.ErrToolExecution{Tool: name, Cause: err}
	}

	if bad := tool.OutputSchema().Validate(output); len(bad) > 0 {
		invocationsTotal.WithLabelValues(name, "output_violation").Inc()
		return nil, &base.ErrOutputViolation{Tool: name, Fields: bad}
	}

	invocationsTotal.WithLabelValues(name, "success").Inc()
	r.logger.InfoWithDuration("", "", fmt.Sprintf("Tool %s completed", name), float64(time.Since(start).Milliseconds()), map[string]any{
		"tool": name,
	})
	return output, nil
}
