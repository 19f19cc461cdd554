package store

import (
	"context"
	"fmt"

	"github.com/roach88/lineage/internal/metadata"
	"github.com/roach88/lineage/internal/source"
	"github.com/roach88/lineage/internal/status"
)

// propertyTable names the backing property table of one node kind.
type propertyTable struct {
	table    string
	idColumn string
}

var (
	artifactProps  = propertyTable{table: "ArtifactProperty", idColumn: "artifact_id"}
	executionProps = propertyTable{table: "ExecutionProperty", idColumn: "execution_id"}
	contextProps   = propertyTable{table: "ContextProperty", idColumn: "context_id"}
)

// writeProperties inserts the property rows of one node. Each value lands
// in the column matching its kind; the other two value columns stay NULL.
func (s *Store) writeProperties(ctx context.Context, pt propertyTable, nodeID int64, props map[string]metadata.Value, custom bool) error {
	isCustom := 0
	if custom {
		isCustom = 1
	}
	query := fmt.Sprintf(
		"INSERT INTO `%s` (`%s`, `name`, `is_custom_property`, `int_value`, `double_value`, `string_value`) VALUES (?, ?, ?, ?, ?, ?)",
		pt.table, pt.idColumn)
	for name, value := range props {
		var intCell, doubleCell, stringCell any
		switch v := value.(type) {
		case metadata.IntValue:
			intCell = int64(v)
		case metadata.DoubleValue:
			doubleCell = float64(v)
		case metadata.StringValue:
			stringCell = string(v)
		default:
			return status.InvalidArgumentf("property %s has no value", name)
		}
		if _, err := s.exec.Execute(ctx, query, nodeID, name, isCustom, intCell, doubleCell, stringCell); err != nil {
			return fmt.Errorf("write property %s: %w", name, err)
		}
	}
	return nil
}

// deleteProperties removes all property rows of one node, declared and
// custom alike. Node updates call this before rewriting.
func (s *Store) deleteProperties(ctx context.Context, pt propertyTable, nodeID int64) error {
	query := fmt.Sprintf("DELETE FROM `%s` WHERE `%s` = ?", pt.table, pt.idColumn)
	if _, err := s.exec.Execute(ctx, query, nodeID); err != nil {
		return fmt.Errorf("delete properties: %w", err)
	}
	return nil
}

// readProperties loads the declared and custom property maps of one node.
// Both maps are non-nil even when empty.
func (s *Store) readProperties(ctx context.Context, pt propertyTable, nodeID int64) (props, custom map[string]metadata.Value, err error) {
	query := fmt.Sprintf(
		"SELECT `name`, `is_custom_property`, `int_value`, `double_value`, `string_value` FROM `%s` WHERE `%s` = ?",
		pt.table, pt.idColumn)
	rs, err := s.exec.Execute(ctx, query, nodeID)
	if err != nil {
		return nil, nil, fmt.Errorf("read properties: %w", err)
	}

	props = make(map[string]metadata.Value)
	custom = make(map[string]metadata.Value)
	for _, record := range rs.Records {
		if len(record) != 5 {
			return nil, nil, status.Internalf("property row has %d columns", len(record))
		}
		name := record[0].Value
		value, err := decodePropertyCells(record[2], record[3], record[4])
		if err != nil {
			return nil, nil, fmt.Errorf("property %s: %w", name, err)
		}
		if record[1].Value == "1" {
			custom[name] = value
		} else {
			props[name] = value
		}
	}
	return props, custom, nil
}

// decodePropertyCells reconstructs a value from the three kind columns.
// Exactly one must be non-NULL.
func decodePropertyCells(intCell, doubleCell, stringCell source.Cell) (metadata.Value, error) {
	switch {
	case !intCell.Null:
		return metadata.ParseValue(metadata.PropertyInt, intCell.Value)
	case !doubleCell.Null:
		return metadata.ParseValue(metadata.PropertyDouble, doubleCell.Value)
	case !stringCell.Null:
		return metadata.ParseValue(metadata.PropertyString, stringCell.Value)
	default:
		return nil, status.Internalf("property row has no value column set")
	}
}

// validateProperties checks a property map against a type schema: every
// name must be declared and every value must match its declared kind.
func validateProperties(schema map[string]metadata.PropertyKind, props map[string]metadata.Value) error {
	for name, value := range props {
		declared, ok := schema[name]
		if !ok {
			return status.InvalidArgumentf("property %s is not declared by the type", name)
		}
		if value == nil {
			return status.InvalidArgumentf("property %s has no value", name)
		}
		if value.Kind() != declared {
			return status.InvalidArgumentf("property %s is declared %s, got %s",
				name, declared, value.Kind())
		}
	}
	return nil
}
