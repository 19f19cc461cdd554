package store

import (
	"context"
	"fmt"

	"github.com/roach88/lineage/internal/metadata"
	"github.com/roach88/lineage/internal/source"
	"github.com/roach88/lineage/internal/status"
)

// CreateType registers a new type and returns its id. Duplicate (kind,
// name) pairs are permitted; each registration yields a fresh id.
func (s *Store) CreateType(ctx context.Context, t *metadata.Type) (int64, error) {
	if t.Name == "" {
		return 0, status.InvalidArgumentf("type name must be set")
	}
	if err := validateTypeKind(t.Kind); err != nil {
		return 0, err
	}
	if err := validateSchema(t.Properties); err != nil {
		return 0, err
	}

	inputType, err := metadata.MarshalSignature(t.InputType)
	if err != nil {
		return 0, status.InvalidArgumentf("input type: %v", err)
	}
	outputType, err := metadata.MarshalSignature(t.OutputType)
	if err != nil {
		return 0, status.InvalidArgumentf("output type: %v", err)
	}

	_, err = s.exec.Execute(ctx,
		"INSERT INTO `Type` (`name`, `type_kind`, `input_type`, `output_type`) VALUES (?, ?, ?, ?)",
		t.Name, int64(t.Kind), nullableString(inputType), nullableString(outputType))
	if err != nil {
		return 0, fmt.Errorf("insert type: %w", err)
	}
	id, err := s.lastInsertID(ctx)
	if err != nil {
		return 0, err
	}

	for name, kind := range t.Properties {
		_, err := s.exec.Execute(ctx,
			"INSERT INTO `TypeProperty` (`type_id`, `name`, `data_type`) VALUES (?, ?, ?)",
			id, name, int64(kind))
		if err != nil {
			return 0, fmt.Errorf("insert type property %s: %w", name, err)
		}
	}
	return id, nil
}

// FindTypeByID returns the type with the given id and kind. A row of
// another kind does not match.
func (s *Store) FindTypeByID(ctx context.Context, id int64, kind metadata.TypeKind) (*metadata.Type, error) {
	rs, err := s.exec.Execute(ctx,
		"SELECT `id`, `name`, `type_kind`, `input_type`, `output_type` FROM `Type` WHERE `id` = ? AND `type_kind` = ?",
		id, int64(kind))
	if err != nil {
		return nil, fmt.Errorf("find type: %w", err)
	}
	if len(rs.Records) == 0 {
		return nil, status.NotFoundf("no %s type with id %d", kind, id)
	}
	return s.loadType(ctx, rs.Records[0])
}

// FindTypeByName returns the type with the given name and kind.
func (s *Store) FindTypeByName(ctx context.Context, name string, kind metadata.TypeKind) (*metadata.Type, error) {
	rs, err := s.exec.Execute(ctx,
		"SELECT `id`, `name`, `type_kind`, `input_type`, `output_type` FROM `Type` WHERE `name` = ? AND `type_kind` = ? ORDER BY `id`",
		name, int64(kind))
	if err != nil {
		return nil, fmt.Errorf("find type: %w", err)
	}
	if len(rs.Records) == 0 {
		return nil, status.NotFoundf("no %s type named %q", kind, name)
	}
	return s.loadType(ctx, rs.Records[0])
}

// FindTypes returns all types of one kind in ascending id order. The
// result is empty, never nil, when no types are registered.
func (s *Store) FindTypes(ctx context.Context, kind metadata.TypeKind) ([]metadata.Type, error) {
	rs, err := s.exec.Execute(ctx,
		"SELECT `id`, `name`, `type_kind`, `input_type`, `output_type` FROM `Type` WHERE `type_kind` = ? ORDER BY `id`",
		int64(kind))
	if err != nil {
		return nil, fmt.Errorf("find types: %w", err)
	}
	types := make([]metadata.Type, 0, len(rs.Records))
	for _, record := range rs.Records {
		t, err := s.loadType(ctx, record)
		if err != nil {
			return nil, err
		}
		types = append(types, *t)
	}
	return types, nil
}

// UpdateType merges new properties into a stored type. The stored schema
// only grows: existing properties cannot be removed or re-kinded.
//
// The stored type resolves by id when set (the name, when also set, must
// match), otherwise by name.
func (s *Store) UpdateType(ctx context.Context, t *metadata.Type) error {
	if err := validateTypeKind(t.Kind); err != nil {
		return err
	}
	if err := validateSchema(t.Properties); err != nil {
		return err
	}

	var stored *metadata.Type
	switch {
	case t.ID != 0:
		existing, err := s.FindTypeByID(ctx, t.ID, t.Kind)
		if status.IsNotFound(err) {
			return status.InvalidArgumentf("no %s type with id %d", t.Kind, t.ID)
		}
		if err != nil {
			return err
		}
		if t.Name != "" && t.Name != existing.Name {
			return status.InvalidArgumentf("type %d is named %q, not %q", t.ID, existing.Name, t.Name)
		}
		stored = existing
	case t.Name != "":
		existing, err := s.FindTypeByName(ctx, t.Name, t.Kind)
		if status.IsNotFound(err) {
			return status.InvalidArgumentf("no %s type named %q", t.Kind, t.Name)
		}
		if err != nil {
			return err
		}
		stored = existing
	default:
		return status.InvalidArgumentf("type id or name must be set")
	}

	for name, kind := range t.Properties {
		declared, ok := stored.Properties[name]
		if ok {
			if declared != kind {
				return status.AlreadyExistsf("property %s is already declared %s", name, declared)
			}
			continue
		}
		_, err := s.exec.Execute(ctx,
			"INSERT INTO `TypeProperty` (`type_id`, `name`, `data_type`) VALUES (?, ?, ?)",
			stored.ID, name, int64(kind))
		if err != nil {
			return fmt.Errorf("insert type property %s: %w", name, err)
		}
	}
	return nil
}

// loadType builds a full type from its row and property rows.
func (s *Store) loadType(ctx context.Context, record []source.Cell) (*metadata.Type, error) {
	if len(record) != 5 {
		return nil, status.Internalf("type row has %d columns", len(record))
	}
	id, err := parseID(record[0])
	if err != nil {
		return nil, err
	}
	kindCell, err := parseID(record[2])
	if err != nil {
		return nil, err
	}
	inputType, err := metadata.UnmarshalSignature(cellOrEmpty(record[3]))
	if err != nil {
		return nil, status.Internalf("type %d input type: %v", id, err)
	}
	outputType, err := metadata.UnmarshalSignature(cellOrEmpty(record[4]))
	if err != nil {
		return nil, status.Internalf("type %d output type: %v", id, err)
	}

	t := &metadata.Type{
		ID:         id,
		Kind:       metadata.TypeKind(kindCell),
		Name:       record[1].Value,
		Properties: make(map[string]metadata.PropertyKind),
		InputType:  inputType,
		OutputType: outputType,
	}

	rs, err := s.exec.Execute(ctx,
		"SELECT `name`, `data_type` FROM `TypeProperty` WHERE `type_id` = ?", id)
	if err != nil {
		return nil, fmt.Errorf("read type properties: %w", err)
	}
	for _, prop := range rs.Records {
		kind, err := parseID(prop[1])
		if err != nil {
			return nil, err
		}
		t.Properties[prop[0].Value] = metadata.PropertyKind(kind)
	}
	return t, nil
}

func validateTypeKind(kind metadata.TypeKind) error {
	switch kind {
	case metadata.KindArtifact, metadata.KindExecution, metadata.KindContext:
		return nil
	default:
		return status.InvalidArgumentf("unknown type kind %d", kind)
	}
}

// validateSchema rejects properties declared with the unset kind.
func validateSchema(schema map[string]metadata.PropertyKind) error {
	for name, kind := range schema {
		switch kind {
		case metadata.PropertyInt, metadata.PropertyDouble, metadata.PropertyString:
		default:
			return status.InvalidArgumentf("property %s has unknown kind %d", name, kind)
		}
	}
	return nil
}

// nullableString maps the empty string to SQL NULL.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// cellOrEmpty renders a nullable cell, NULL as the empty string.
func cellOrEmpty(c source.Cell) string {
	if c.Null {
		return ""
	}
	return c.Value
}
