package store

import (
	"context"
	"fmt"

	"github.com/roach88/lineage/internal/metadata"
	"github.com/roach88/lineage/internal/source"
	"github.com/roach88/lineage/internal/status"
)

// resolveSchema loads the property schema of the type a node claims.
// An unset type id is rejected before touching the backend; a type id that
// resolves to no stored type of the kind is a missing referent.
func (s *Store) resolveSchema(ctx context.Context, typeID int64, kind metadata.TypeKind) (map[string]metadata.PropertyKind, error) {
	if typeID == 0 {
		return nil, status.InvalidArgumentf("type id must be set")
	}
	t, err := s.FindTypeByID(ctx, typeID, kind)
	if err != nil {
		return nil, err
	}
	return t.Properties, nil
}

// CreateArtifact stores a new artifact and returns its id. Properties must
// conform to the owning type's schema; custom properties are free-form.
func (s *Store) CreateArtifact(ctx context.Context, a *metadata.Artifact) (int64, error) {
	schema, err := s.resolveSchema(ctx, a.TypeID, metadata.KindArtifact)
	if err != nil {
		return 0, err
	}
	if err := validateProperties(schema, a.Properties); err != nil {
		return 0, err
	}

	// The URI is stored verbatim, the empty string included, so by-URI
	// lookups stay exact string matches.
	_, err = s.exec.Execute(ctx,
		"INSERT INTO `Artifact` (`type_id`, `uri`) VALUES (?, ?)",
		a.TypeID, a.URI)
	if err != nil {
		return 0, fmt.Errorf("insert artifact: %w", err)
	}
	id, err := s.lastInsertID(ctx)
	if err != nil {
		return 0, err
	}
	if err := s.writeProperties(ctx, artifactProps, id, a.Properties, false); err != nil {
		return 0, err
	}
	if err := s.writeProperties(ctx, artifactProps, id, a.CustomProperties, true); err != nil {
		return 0, err
	}
	return id, nil
}

// UpdateArtifact replaces a stored artifact's fields and properties with
// the request's. Unlike type updates, node updates do not merge: property
// maps are replaced whole. A zero TypeID leaves the type unchanged; a
// different one is rejected.
func (s *Store) UpdateArtifact(ctx context.Context, a *metadata.Artifact) error {
	if a.ID == 0 {
		return status.InvalidArgumentf("artifact id must be set")
	}
	stored, err := s.FindArtifactByID(ctx, a.ID)
	if status.IsNotFound(err) {
		return status.InvalidArgumentf("no artifact with id %d", a.ID)
	}
	if err != nil {
		return err
	}
	if a.TypeID != 0 && a.TypeID != stored.TypeID {
		return status.InvalidArgumentf("artifact %d has type %d, cannot change to %d", a.ID, stored.TypeID, a.TypeID)
	}

	schema, err := s.resolveSchema(ctx, stored.TypeID, metadata.KindArtifact)
	if err != nil {
		return err
	}
	if err := validateProperties(schema, a.Properties); err != nil {
		return err
	}

	_, err = s.exec.Execute(ctx,
		"UPDATE `Artifact` SET `uri` = ? WHERE `id` = ?",
		a.URI, a.ID)
	if err != nil {
		return fmt.Errorf("update artifact: %w", err)
	}
	if err := s.deleteProperties(ctx, artifactProps, a.ID); err != nil {
		return err
	}
	if err := s.writeProperties(ctx, artifactProps, a.ID, a.Properties, false); err != nil {
		return err
	}
	return s.writeProperties(ctx, artifactProps, a.ID, a.CustomProperties, true)
}

// FindArtifactByID returns the artifact with the given id.
func (s *Store) FindArtifactByID(ctx context.Context, id int64) (*metadata.Artifact, error) {
	rs, err := s.exec.Execute(ctx,
		"SELECT `id`, `type_id`, `uri` FROM `Artifact` WHERE `id` = ?", id)
	if err != nil {
		return nil, fmt.Errorf("find artifact: %w", err)
	}
	if len(rs.Records) == 0 {
		return nil, status.NotFoundf("no artifact with id %d", id)
	}
	return s.loadArtifact(ctx, rs.Records[0])
}

// FindArtifacts returns every artifact in ascending id order.
func (s *Store) FindArtifacts(ctx context.Context) ([]metadata.Artifact, error) {
	return s.findArtifactsWhere(ctx,
		"SELECT `id`, `type_id`, `uri` FROM `Artifact` ORDER BY `id`")
}

// FindArtifactsByURI returns the artifacts with the given URI in ascending
// id order. The result is empty, never nil, on no match.
func (s *Store) FindArtifactsByURI(ctx context.Context, uri string) ([]metadata.Artifact, error) {
	return s.findArtifactsWhere(ctx,
		"SELECT `id`, `type_id`, `uri` FROM `Artifact` WHERE `uri` = ? ORDER BY `id`", uri)
}

// FindArtifactsByTypeID returns the artifacts of one type in ascending id
// order.
func (s *Store) FindArtifactsByTypeID(ctx context.Context, typeID int64) ([]metadata.Artifact, error) {
	return s.findArtifactsWhere(ctx,
		"SELECT `id`, `type_id`, `uri` FROM `Artifact` WHERE `type_id` = ? ORDER BY `id`", typeID)
}

func (s *Store) findArtifactsWhere(ctx context.Context, query string, args ...any) ([]metadata.Artifact, error) {
	rs, err := s.exec.Execute(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find artifacts: %w", err)
	}
	artifacts := make([]metadata.Artifact, 0, len(rs.Records))
	for _, record := range rs.Records {
		a, err := s.loadArtifact(ctx, record)
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, *a)
	}
	return artifacts, nil
}

func (s *Store) loadArtifact(ctx context.Context, record []source.Cell) (*metadata.Artifact, error) {
	if len(record) != 3 {
		return nil, status.Internalf("artifact row has %d columns", len(record))
	}
	id, err := parseID(record[0])
	if err != nil {
		return nil, err
	}
	typeID, err := parseID(record[1])
	if err != nil {
		return nil, err
	}
	props, custom, err := s.readProperties(ctx, artifactProps, id)
	if err != nil {
		return nil, err
	}
	return &metadata.Artifact{
		ID:               id,
		TypeID:           typeID,
		URI:              cellOrEmpty(record[2]),
		Properties:       props,
		CustomProperties: custom,
	}, nil
}

// CreateExecution stores a new execution and returns its id.
func (s *Store) CreateExecution(ctx context.Context, e *metadata.Execution) (int64, error) {
	schema, err := s.resolveSchema(ctx, e.TypeID, metadata.KindExecution)
	if err != nil {
		return 0, err
	}
	if err := validateProperties(schema, e.Properties); err != nil {
		return 0, err
	}

	_, err = s.exec.Execute(ctx,
		"INSERT INTO `Execution` (`type_id`) VALUES (?)", e.TypeID)
	if err != nil {
		return 0, fmt.Errorf("insert execution: %w", err)
	}
	id, err := s.lastInsertID(ctx)
	if err != nil {
		return 0, err
	}
	if err := s.writeProperties(ctx, executionProps, id, e.Properties, false); err != nil {
		return 0, err
	}
	if err := s.writeProperties(ctx, executionProps, id, e.CustomProperties, true); err != nil {
		return 0, err
	}
	return id, nil
}

// UpdateExecution replaces a stored execution's properties with the
// request's, whole.
func (s *Store) UpdateExecution(ctx context.Context, e *metadata.Execution) error {
	if e.ID == 0 {
		return status.InvalidArgumentf("execution id must be set")
	}
	stored, err := s.FindExecutionByID(ctx, e.ID)
	if status.IsNotFound(err) {
		return status.InvalidArgumentf("no execution with id %d", e.ID)
	}
	if err != nil {
		return err
	}
	if e.TypeID != 0 && e.TypeID != stored.TypeID {
		return status.InvalidArgumentf("execution %d has type %d, cannot change to %d", e.ID, stored.TypeID, e.TypeID)
	}

	schema, err := s.resolveSchema(ctx, stored.TypeID, metadata.KindExecution)
	if err != nil {
		return err
	}
	if err := validateProperties(schema, e.Properties); err != nil {
		return err
	}

	if err := s.deleteProperties(ctx, executionProps, e.ID); err != nil {
		return err
	}
	if err := s.writeProperties(ctx, executionProps, e.ID, e.Properties, false); err != nil {
		return err
	}
	return s.writeProperties(ctx, executionProps, e.ID, e.CustomProperties, true)
}

// FindExecutionByID returns the execution with the given id.
func (s *Store) FindExecutionByID(ctx context.Context, id int64) (*metadata.Execution, error) {
	rs, err := s.exec.Execute(ctx,
		"SELECT `id`, `type_id` FROM `Execution` WHERE `id` = ?", id)
	if err != nil {
		return nil, fmt.Errorf("find execution: %w", err)
	}
	if len(rs.Records) == 0 {
		return nil, status.NotFoundf("no execution with id %d", id)
	}
	return s.loadExecution(ctx, rs.Records[0])
}

// FindExecutions returns every execution in ascending id order.
func (s *Store) FindExecutions(ctx context.Context) ([]metadata.Execution, error) {
	return s.findExecutionsWhere(ctx,
		"SELECT `id`, `type_id` FROM `Execution` ORDER BY `id`")
}

// FindExecutionsByTypeID returns the executions of one type in ascending
// id order.
func (s *Store) FindExecutionsByTypeID(ctx context.Context, typeID int64) ([]metadata.Execution, error) {
	return s.findExecutionsWhere(ctx,
		"SELECT `id`, `type_id` FROM `Execution` WHERE `type_id` = ? ORDER BY `id`", typeID)
}

func (s *Store) findExecutionsWhere(ctx context.Context, query string, args ...any) ([]metadata.Execution, error) {
	rs, err := s.exec.Execute(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find executions: %w", err)
	}
	executions := make([]metadata.Execution, 0, len(rs.Records))
	for _, record := range rs.Records {
		e, err := s.loadExecution(ctx, record)
		if err != nil {
			return nil, err
		}
		executions = append(executions, *e)
	}
	return executions, nil
}

func (s *Store) loadExecution(ctx context.Context, record []source.Cell) (*metadata.Execution, error) {
	if len(record) != 2 {
		return nil, status.Internalf("execution row has %d columns", len(record))
	}
	id, err := parseID(record[0])
	if err != nil {
		return nil, err
	}
	typeID, err := parseID(record[1])
	if err != nil {
		return nil, err
	}
	props, custom, err := s.readProperties(ctx, executionProps, id)
	if err != nil {
		return nil, err
	}
	return &metadata.Execution{
		ID:               id,
		TypeID:           typeID,
		Properties:       props,
		CustomProperties: custom,
	}, nil
}

// CreateContext stores a new context and returns its id. The name is
// required and unique within the context's type.
func (s *Store) CreateContext(ctx context.Context, c *metadata.Context) (int64, error) {
	if c.Name == "" {
		return 0, status.InvalidArgumentf("context name must be set")
	}
	schema, err := s.resolveSchema(ctx, c.TypeID, metadata.KindContext)
	if err != nil {
		return 0, err
	}
	if err := validateProperties(schema, c.Properties); err != nil {
		return 0, err
	}

	rs, err := s.exec.Execute(ctx,
		"SELECT `id` FROM `Context` WHERE `type_id` = ? AND `name` = ?",
		c.TypeID, c.Name)
	if err != nil {
		return 0, fmt.Errorf("check context name: %w", err)
	}
	if len(rs.Records) > 0 {
		return 0, status.AlreadyExistsf("context named %q already exists for type %d", c.Name, c.TypeID)
	}

	_, err = s.exec.Execute(ctx,
		"INSERT INTO `Context` (`type_id`, `name`) VALUES (?, ?)",
		c.TypeID, c.Name)
	if err != nil {
		return 0, fmt.Errorf("insert context: %w", err)
	}
	id, err := s.lastInsertID(ctx)
	if err != nil {
		return 0, err
	}
	if err := s.writeProperties(ctx, contextProps, id, c.Properties, false); err != nil {
		return 0, err
	}
	if err := s.writeProperties(ctx, contextProps, id, c.CustomProperties, true); err != nil {
		return 0, err
	}
	return id, nil
}

// UpdateContext replaces a stored context's name and properties with the
// request's. The new name keeps the per-type uniqueness rule.
func (s *Store) UpdateContext(ctx context.Context, c *metadata.Context) error {
	if c.ID == 0 {
		return status.InvalidArgumentf("context id must be set")
	}
	if c.Name == "" {
		return status.InvalidArgumentf("context name must be set")
	}
	stored, err := s.FindContextByID(ctx, c.ID)
	if status.IsNotFound(err) {
		return status.InvalidArgumentf("no context with id %d", c.ID)
	}
	if err != nil {
		return err
	}
	if c.TypeID != 0 && c.TypeID != stored.TypeID {
		return status.InvalidArgumentf("context %d has type %d, cannot change to %d", c.ID, stored.TypeID, c.TypeID)
	}

	schema, err := s.resolveSchema(ctx, stored.TypeID, metadata.KindContext)
	if err != nil {
		return err
	}
	if err := validateProperties(schema, c.Properties); err != nil {
		return err
	}

	rs, err := s.exec.Execute(ctx,
		"SELECT `id` FROM `Context` WHERE `type_id` = ? AND `name` = ? AND `id` != ?",
		stored.TypeID, c.Name, c.ID)
	if err != nil {
		return fmt.Errorf("check context name: %w", err)
	}
	if len(rs.Records) > 0 {
		return status.AlreadyExistsf("context named %q already exists for type %d", c.Name, stored.TypeID)
	}

	_, err = s.exec.Execute(ctx,
		"UPDATE `Context` SET `name` = ? WHERE `id` = ?", c.Name, c.ID)
	if err != nil {
		return fmt.Errorf("update context: %w", err)
	}
	if err := s.deleteProperties(ctx, contextProps, c.ID); err != nil {
		return err
	}
	if err := s.writeProperties(ctx, contextProps, c.ID, c.Properties, false); err != nil {
		return err
	}
	return s.writeProperties(ctx, contextProps, c.ID, c.CustomProperties, true)
}

// FindContextByID returns the context with the given id.
func (s *Store) FindContextByID(ctx context.Context, id int64) (*metadata.Context, error) {
	rs, err := s.exec.Execute(ctx,
		"SELECT `id`, `type_id`, `name` FROM `Context` WHERE `id` = ?", id)
	if err != nil {
		return nil, fmt.Errorf("find context: %w", err)
	}
	if len(rs.Records) == 0 {
		return nil, status.NotFoundf("no context with id %d", id)
	}
	return s.loadContext(ctx, rs.Records[0])
}

// FindContextByTypeIDAndName returns the single context with the given
// name under the given type.
func (s *Store) FindContextByTypeIDAndName(ctx context.Context, typeID int64, name string) (*metadata.Context, error) {
	rs, err := s.exec.Execute(ctx,
		"SELECT `id`, `type_id`, `name` FROM `Context` WHERE `type_id` = ? AND `name` = ?",
		typeID, name)
	if err != nil {
		return nil, fmt.Errorf("find context: %w", err)
	}
	if len(rs.Records) == 0 {
		return nil, status.NotFoundf("no context named %q for type %d", name, typeID)
	}
	return s.loadContext(ctx, rs.Records[0])
}

// FindContexts returns every context in ascending id order.
func (s *Store) FindContexts(ctx context.Context) ([]metadata.Context, error) {
	return s.findContextsWhere(ctx,
		"SELECT `id`, `type_id`, `name` FROM `Context` ORDER BY `id`")
}

// FindContextsByTypeID returns the contexts of one type in ascending id
// order.
func (s *Store) FindContextsByTypeID(ctx context.Context, typeID int64) ([]metadata.Context, error) {
	return s.findContextsWhere(ctx,
		"SELECT `id`, `type_id`, `name` FROM `Context` WHERE `type_id` = ? ORDER BY `id`", typeID)
}

func (s *Store) findContextsWhere(ctx context.Context, query string, args ...any) ([]metadata.Context, error) {
	rs, err := s.exec.Execute(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find contexts: %w", err)
	}
	contexts := make([]metadata.Context, 0, len(rs.Records))
	for _, record := range rs.Records {
		c, err := s.loadContext(ctx, record)
		if err != nil {
			return nil, err
		}
		contexts = append(contexts, *c)
	}
	return contexts, nil
}

func (s *Store) loadContext(ctx context.Context, record []source.Cell) (*metadata.Context, error) {
	if len(record) != 3 {
		return nil, status.Internalf("context row has %d columns", len(record))
	}
	id, err := parseID(record[0])
	if err != nil {
		return nil, err
	}
	typeID, err := parseID(record[1])
	if err != nil {
		return nil, err
	}
	props, custom, err := s.readProperties(ctx, contextProps, id)
	if err != nil {
		return nil, err
	}
	return &metadata.Context{
		ID:               id,
		TypeID:           typeID,
		Name:             record[2].Value,
		Properties:       props,
		CustomProperties: custom,
	}, nil
}
