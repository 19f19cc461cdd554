// Package harness runs declarative YAML scenarios against a fresh lineage
// store and snapshots the resulting store contents as canonical JSON for
// golden-file comparison.
package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/lineage/internal/metadata"
)

// Scenario is a sequence of store operations executed against an empty
// store with a deterministic clock.
type Scenario struct {
	// Name uniquely identifies this scenario; the golden file carries it.
	Name string `yaml:"name"`

	// Description explains what this scenario exercises.
	Description string `yaml:"description"`

	// Steps run in order. Node and edge steps reference earlier nodes by
	// their assigned ids, which are sequential per kind starting at 1.
	Steps []Step `yaml:"steps"`
}

// Step is a single operation. Exactly one field must be set.
type Step struct {
	CreateType        *TypeStep        `yaml:"create_type,omitempty"`
	CreateArtifact    *ArtifactStep    `yaml:"create_artifact,omitempty"`
	CreateExecution   *ExecutionStep   `yaml:"create_execution,omitempty"`
	CreateContext     *ContextStep     `yaml:"create_context,omitempty"`
	CreateEvent       *EventStep       `yaml:"create_event,omitempty"`
	CreateAssociation *AssociationStep `yaml:"create_association,omitempty"`
	CreateAttribution *AttributionStep `yaml:"create_attribution,omitempty"`
}

// TypeStep registers a type. Properties map names to "int", "double" or
// "string".
type TypeStep struct {
	Kind       string            `yaml:"kind"`
	Name       string            `yaml:"name"`
	Properties map[string]string `yaml:"properties,omitempty"`
}

// ArtifactStep creates an artifact under a previously registered type,
// referenced by name.
type ArtifactStep struct {
	Type             string         `yaml:"type"`
	URI              string         `yaml:"uri,omitempty"`
	Properties       map[string]any `yaml:"properties,omitempty"`
	CustomProperties map[string]any `yaml:"custom_properties,omitempty"`
}

// ExecutionStep creates an execution under a previously registered type.
type ExecutionStep struct {
	Type             string         `yaml:"type"`
	Properties       map[string]any `yaml:"properties,omitempty"`
	CustomProperties map[string]any `yaml:"custom_properties,omitempty"`
}

// ContextStep creates a named context under a previously registered type.
type ContextStep struct {
	Type             string         `yaml:"type"`
	Name             string         `yaml:"name"`
	Properties       map[string]any `yaml:"properties,omitempty"`
	CustomProperties map[string]any `yaml:"custom_properties,omitempty"`
}

// EventStep links an artifact and an execution by id. Type is one of
// "declared_output", "declared_input", "input", "output". The timestamp is
// always assigned by the scenario clock.
type EventStep struct {
	Artifact  int64          `yaml:"artifact"`
	Execution int64          `yaml:"execution"`
	Type      string         `yaml:"type"`
	Path      []PathStepYAML `yaml:"path,omitempty"`
}

// PathStepYAML is one event path step. Exactly one field must be set;
// index zero is expressed with key absence via the pointer.
type PathStepYAML struct {
	Index *int64  `yaml:"index,omitempty"`
	Key   *string `yaml:"key,omitempty"`
}

// AssociationStep links an execution to a context by id.
type AssociationStep struct {
	Execution int64 `yaml:"execution"`
	Context   int64 `yaml:"context"`
}

// AttributionStep links an artifact to a context by id.
type AttributionStep struct {
	Artifact int64 `yaml:"artifact"`
	Context  int64 `yaml:"context"`
}

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected to catch typos.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("parse scenario YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	for i, step := range s.Steps {
		set := 0
		if step.CreateType != nil {
			set++
		}
		if step.CreateArtifact != nil {
			set++
		}
		if step.CreateExecution != nil {
			set++
		}
		if step.CreateContext != nil {
			set++
		}
		if step.CreateEvent != nil {
			set++
		}
		if step.CreateAssociation != nil {
			set++
		}
		if step.CreateAttribution != nil {
			set++
		}
		if set != 1 {
			return fmt.Errorf("steps[%d]: exactly one operation is required, got %d", i, set)
		}
	}
	return nil
}

// parseKind maps a step's kind literal to a TypeKind.
func parseKind(kind string) (metadata.TypeKind, error) {
	switch kind {
	case "artifact":
		return metadata.KindArtifact, nil
	case "execution":
		return metadata.KindExecution, nil
	case "context":
		return metadata.KindContext, nil
	default:
		return 0, fmt.Errorf("unknown type kind %q", kind)
	}
}

// parsePropertyKind maps a schema literal to a PropertyKind.
func parsePropertyKind(kind string) (metadata.PropertyKind, error) {
	switch kind {
	case "int":
		return metadata.PropertyInt, nil
	case "double":
		return metadata.PropertyDouble, nil
	case "string":
		return metadata.PropertyString, nil
	default:
		return 0, fmt.Errorf("unknown property kind %q", kind)
	}
}

// parseEventType maps a step's event type literal to an EventType.
func parseEventType(t string) (metadata.EventType, error) {
	switch t {
	case "declared_output":
		return metadata.EventDeclaredOutput, nil
	case "declared_input":
		return metadata.EventDeclaredInput, nil
	case "input":
		return metadata.EventInput, nil
	case "output":
		return metadata.EventOutput, nil
	default:
		return 0, fmt.Errorf("unknown event type %q", t)
	}
}

// parseValue converts a YAML property literal to a typed value. YAML
// integers become ints, floats doubles, strings strings.
func parseValue(v any) (metadata.Value, error) {
	switch val := v.(type) {
	case int:
		return metadata.IntValue(val), nil
	case int64:
		return metadata.IntValue(val), nil
	case float64:
		return metadata.DoubleValue(val), nil
	case string:
		return metadata.StringValue(val), nil
	default:
		return nil, fmt.Errorf("unsupported property literal %v (%T)", v, v)
	}
}

func parseValues(raw map[string]any) (map[string]metadata.Value, error) {
	values := make(map[string]metadata.Value, len(raw))
	for name, v := range raw {
		value, err := parseValue(v)
		if err != nil {
			return nil, fmt.Errorf("property %s: %w", name, err)
		}
		values[name] = value
	}
	return values, nil
}

// parsePath converts YAML path steps to typed steps.
func parsePath(raw []PathStepYAML) ([]metadata.PathStep, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	path := make([]metadata.PathStep, len(raw))
	for i, step := range raw {
		switch {
		case step.Index != nil && step.Key == nil:
			path[i] = metadata.IndexStep(*step.Index)
		case step.Key != nil && step.Index == nil:
			path[i] = metadata.KeyStep(*step.Key)
		default:
			return nil, fmt.Errorf("path step %d: exactly one of index or key is required", i)
		}
	}
	return path, nil
}
