package metadata

import (
	"encoding/json"
	"fmt"
)

// PathStep is a sealed interface over the two kinds of event path steps.
// Only IndexStep and KeyStep implement it.
type PathStep interface {
	pathStep() // Sealed - only these types implement it
}

// IndexStep addresses a position in an ordered collection.
type IndexStep int64

func (IndexStep) pathStep() {}

// KeyStep addresses an entry in a named mapping.
type KeyStep string

func (KeyStep) pathStep() {}

// MarshalPath serializes an event path to its canonical JSON column form:
// a list of {"index": n} and {"key": "name"} steps. An empty path
// serializes to the empty string, stored as NULL.
func MarshalPath(path []PathStep) (string, error) {
	if len(path) == 0 {
		return "", nil
	}
	steps := make([]any, len(path))
	for i, step := range path {
		switch s := step.(type) {
		case IndexStep:
			steps[i] = map[string]any{"index": int64(s)}
		case KeyStep:
			steps[i] = map[string]any{"key": string(s)}
		default:
			return "", fmt.Errorf("unknown path step type: %T", step)
		}
	}
	data, err := MarshalCanonical(steps)
	if err != nil {
		return "", fmt.Errorf("marshal path: %w", err)
	}
	return string(data), nil
}

// UnmarshalPath parses the canonical column form back into a step list.
// The empty string yields nil.
func UnmarshalPath(data string) ([]PathStep, error) {
	if data == "" {
		return nil, nil
	}
	var raw []map[string]json.RawMessage
	if err := json.Unmarshal([]byte(data), &raw); err != nil {
		return nil, fmt.Errorf("unmarshal path: %w", err)
	}
	path := make([]PathStep, len(raw))
	for i, step := range raw {
		if len(step) != 1 {
			return nil, fmt.Errorf("path step %d must have exactly one variant", i)
		}
		if idx, ok := step["index"]; ok {
			var n int64
			if err := json.Unmarshal(idx, &n); err != nil {
				return nil, fmt.Errorf("path step %d index: %w", i, err)
			}
			path[i] = IndexStep(n)
			continue
		}
		if key, ok := step["key"]; ok {
			var s string
			if err := json.Unmarshal(key, &s); err != nil {
				return nil, fmt.Errorf("path step %d key: %w", i, err)
			}
			path[i] = KeyStep(s)
			continue
		}
		for variant := range step {
			return nil, fmt.Errorf("path step %d: unknown variant %q", i, variant)
		}
	}
	return path, nil
}
