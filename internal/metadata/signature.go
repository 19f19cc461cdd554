package metadata

import (
	"encoding/json"
	"fmt"
)

// Signature describes the permitted shape of an execution's inputs or
// outputs. It is a sealed interface - only AnySignature, NoneSignature, and
// DictSignature implement it. The Dict case is recursive: a named mapping
// from field name to a nested Signature.
type Signature interface {
	signatureNode() // Sealed - only these types implement it
}

// AnySignature permits any artifact shape.
type AnySignature struct{}

func (AnySignature) signatureNode() {}

// NoneSignature permits no artifacts at all.
type NoneSignature struct{}

func (NoneSignature) signatureNode() {}

// DictSignature permits a named mapping of artifact shapes.
type DictSignature map[string]Signature

func (DictSignature) signatureNode() {}

// MarshalSignature serializes a signature to its canonical JSON column form:
// {"any":{}}, {"none":{}}, or {"dict":{name: <signature>, ...}}.
// A nil signature serializes to the empty string, stored as NULL.
func MarshalSignature(s Signature) (string, error) {
	if s == nil {
		return "", nil
	}
	v, err := signatureToMap(s)
	if err != nil {
		return "", err
	}
	data, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("marshal signature: %w", err)
	}
	return string(data), nil
}

func signatureToMap(s Signature) (map[string]any, error) {
	switch sig := s.(type) {
	case AnySignature:
		return map[string]any{"any": map[string]any{}}, nil
	case NoneSignature:
		return map[string]any{"none": map[string]any{}}, nil
	case DictSignature:
		fields := make(map[string]any, len(sig))
		for name, nested := range sig {
			m, err := signatureToMap(nested)
			if err != nil {
				return nil, fmt.Errorf("dict field %q: %w", name, err)
			}
			fields[name] = m
		}
		return map[string]any{"dict": fields}, nil
	default:
		return nil, fmt.Errorf("unknown signature type: %T", s)
	}
}

// UnmarshalSignature parses the canonical column form back into a
// Signature. The empty string yields nil.
func UnmarshalSignature(data string) (Signature, error) {
	if data == "" {
		return nil, nil
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(data), &raw); err != nil {
		return nil, fmt.Errorf("unmarshal signature: %w", err)
	}
	return signatureFromRaw(raw)
}

func signatureFromRaw(raw map[string]json.RawMessage) (Signature, error) {
	if len(raw) != 1 {
		return nil, fmt.Errorf("signature must have exactly one variant, got %d", len(raw))
	}
	if _, ok := raw["any"]; ok {
		return AnySignature{}, nil
	}
	if _, ok := raw["none"]; ok {
		return NoneSignature{}, nil
	}
	if fields, ok := raw["dict"]; ok {
		var inner map[string]map[string]json.RawMessage
		if err := json.Unmarshal(fields, &inner); err != nil {
			return nil, fmt.Errorf("unmarshal signature dict: %w", err)
		}
		dict := make(DictSignature, len(inner))
		for name, nested := range inner {
			sig, err := signatureFromRaw(nested)
			if err != nil {
				return nil, fmt.Errorf("dict field %q: %w", name, err)
			}
			dict[name] = sig
		}
		return dict, nil
	}
	for variant := range raw {
		return nil, fmt.Errorf("unknown signature variant %q", variant)
	}
	return nil, fmt.Errorf("empty signature")
}
