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

package base

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Kind is the JSON type a schema field must carry.
type Kind string

const (
	KindString Kind = "string"
	KindNumber Kind = "number"
	KindBool   Kind = "bool"
	KindArray  Kind = "array"
	KindObject Kind = "object"
)

// FieldSpec declares one field of a tool payload.
type FieldSpec struct {
	Name     string
	Kind     Kind
	Required bool
}

// Schema declares the JSON shape of a tool input or output. Validation is
// structural: field presence and JSON type, not value ranges. Tools own
// value-level checks.
type Schema struct {
	Fields []FieldSpec
}

// Validate checks the payload against the schema and returns the names of
// violating fields, sorted for deterministic error messages. The payload is
// converted to its JSON representation first, so any struct with matching
// json tags satisfies the schema its wire form satisfies.
func (s Schema) Validate(payload any) []string {
	m, err := toJSONMap(payload)
	if err != nil {
		return []string{"(payload)"}
	}

	var bad []string
	for _, f := range s.Fields {
		v, ok := m[f.Name]
		if !ok || v == nil {
			if f.Required {
				bad = append(bad, f.Name)
			}
			continue
		}
		if !kindMatches(f.Kind, v) {
			bad = append(bad, f.Name)
		}
	}

	sort.Strings(bad)
	return bad
}

// DecodeMap converts a JSON-map payload into a typed struct by round-tripping
// through its JSON encoding. Tools use it to accept both typed inputs and the
// map form arriving through generic dispatch.
func DecodeMap(m map[string]any, out any) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to encode payload map: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode payload: %w", err)
	}
	return nil
}

func toJSONMap(payload any) (map[string]any, error) {
	if m, ok := payload.(map[string]any); ok {
		return m, nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("payload is not a JSON object: %w", err)
	}
	return m, nil
}

func kindMatches(k Kind, v any) bool {
	switch k {
	case KindString:
		_, ok := v.(string)
		return ok
	case KindNumber:
		_, ok := v.(float64)
		return ok
	case KindBool:
		_, ok := v.(bool)
		return ok
	case KindArray:
		_, ok := v.([]any)
		return ok
	case KindObject:
		_, ok := v.(map[string]any)
		return ok
	default:
		return false
	}
}
