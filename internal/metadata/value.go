package metadata

import (
	"fmt"
	"strconv"
)

// PropertyKind is the declared value kind of a property in a type schema.
type PropertyKind int

const (
	// PropertyUnknown is the unset sentinel. It is never valid in a stored
	// schema; requests carrying it are rejected.
	PropertyUnknown PropertyKind = 0

	// PropertyInt declares an int64 property.
	PropertyInt PropertyKind = 1

	// PropertyDouble declares a float64 property.
	PropertyDouble PropertyKind = 2

	// PropertyString declares a string property.
	PropertyString PropertyKind = 3
)

// String returns the lowercase name of the kind.
func (k PropertyKind) String() string {
	switch k {
	case PropertyInt:
		return "int"
	case PropertyDouble:
		return "double"
	case PropertyString:
		return "string"
	default:
		return "unknown"
	}
}

// Value is a sealed interface over the three property value types.
// Only IntValue, DoubleValue, and StringValue implement it.
type Value interface {
	propertyValue() // Sealed - only these types implement it

	// Kind returns the PropertyKind this value conforms to.
	Kind() PropertyKind
}

// IntValue is an int64 property value.
type IntValue int64

func (IntValue) propertyValue() {}

// Kind returns PropertyInt.
func (IntValue) Kind() PropertyKind { return PropertyInt }

// DoubleValue is a float64 property value.
type DoubleValue float64

func (DoubleValue) propertyValue() {}

// Kind returns PropertyDouble.
func (DoubleValue) Kind() PropertyKind { return PropertyDouble }

// StringValue is a string property value.
type StringValue string

func (StringValue) propertyValue() {}

// Kind returns PropertyString.
func (StringValue) Kind() PropertyKind { return PropertyString }

// FormatValue renders a Value as the string cell stored in the backing
// column for its kind. Doubles use the shortest round-tripping form.
func FormatValue(v Value) string {
	switch val := v.(type) {
	case IntValue:
		return strconv.FormatInt(int64(val), 10)
	case DoubleValue:
		return strconv.FormatFloat(float64(val), 'g', -1, 64)
	case StringValue:
		return string(val)
	default:
		return ""
	}
}

// ParseValue reconstructs a Value of the given kind from its stored cell.
func ParseValue(kind PropertyKind, cell string) (Value, error) {
	switch kind {
	case PropertyInt:
		n, err := strconv.ParseInt(cell, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse int property %q: %w", cell, err)
		}
		return IntValue(n), nil
	case PropertyDouble:
		f, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return nil, fmt.Errorf("parse double property %q: %w", cell, err)
		}
		return DoubleValue(f), nil
	case PropertyString:
		return StringValue(cell), nil
	default:
		return nil, fmt.Errorf("cannot parse property of kind %v", kind)
	}
}
