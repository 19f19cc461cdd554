package store

import (
	"context"
	"fmt"

	"github.com/roach88/lineage/internal/metadata"
	"github.com/roach88/lineage/internal/source"
	"github.com/roach88/lineage/internal/status"
)

// requireArtifact checks that an event or attribution endpoint resolves.
// A dangling endpoint id is a malformed request, not a lookup miss.
func (s *Store) requireArtifact(ctx context.Context, id int64) error {
	if id == 0 {
		return status.InvalidArgumentf("artifact id must be set")
	}
	rs, err := s.exec.Execute(ctx, "SELECT `id` FROM `Artifact` WHERE `id` = ?", id)
	if err != nil {
		return fmt.Errorf("check artifact: %w", err)
	}
	if len(rs.Records) == 0 {
		return status.InvalidArgumentf("no artifact with id %d", id)
	}
	return nil
}

func (s *Store) requireExecution(ctx context.Context, id int64) error {
	if id == 0 {
		return status.InvalidArgumentf("execution id must be set")
	}
	rs, err := s.exec.Execute(ctx, "SELECT `id` FROM `Execution` WHERE `id` = ?", id)
	if err != nil {
		return fmt.Errorf("check execution: %w", err)
	}
	if len(rs.Records) == 0 {
		return status.InvalidArgumentf("no execution with id %d", id)
	}
	return nil
}

func (s *Store) requireContext(ctx context.Context, id int64) error {
	if id == 0 {
		return status.InvalidArgumentf("context id must be set")
	}
	rs, err := s.exec.Execute(ctx, "SELECT `id` FROM `Context` WHERE `id` = ?", id)
	if err != nil {
		return fmt.Errorf("check context: %w", err)
	}
	if len(rs.Records) == 0 {
		return status.InvalidArgumentf("no context with id %d", id)
	}
	return nil
}

// CreateEvent stores a typed, positioned edge between an artifact and an
// execution. When the timestamp is unset the store's clock assigns one.
func (s *Store) CreateEvent(ctx context.Context, e *metadata.Event) (int64, error) {
	switch e.Type {
	case metadata.EventDeclaredOutput, metadata.EventDeclaredInput,
		metadata.EventInput, metadata.EventOutput:
	default:
		return 0, status.InvalidArgumentf("event type must be set")
	}
	if err := s.requireArtifact(ctx, e.ArtifactID); err != nil {
		return 0, err
	}
	if err := s.requireExecution(ctx, e.ExecutionID); err != nil {
		return 0, err
	}

	path, err := metadata.MarshalPath(e.Path)
	if err != nil {
		return 0, status.InvalidArgumentf("event path: %v", err)
	}
	millis := e.MillisecondsSinceEpoch
	if millis == 0 {
		millis = s.clock.NowMillis()
	}

	_, err = s.exec.Execute(ctx,
		"INSERT INTO `Event` (`artifact_id`, `execution_id`, `type`, `milliseconds_since_epoch`, `path`) VALUES (?, ?, ?, ?, ?)",
		e.ArtifactID, e.ExecutionID, int64(e.Type), millis, nullableString(path))
	if err != nil {
		return 0, fmt.Errorf("insert event: %w", err)
	}
	return s.lastInsertID(ctx)
}

// FindEventsByArtifact returns the events touching an artifact in creation
// order. The result is empty, never nil, when no events exist.
func (s *Store) FindEventsByArtifact(ctx context.Context, artifactID int64) ([]metadata.Event, error) {
	return s.findEventsWhere(ctx,
		"SELECT `id`, `artifact_id`, `execution_id`, `type`, `milliseconds_since_epoch`, `path` FROM `Event` WHERE `artifact_id` = ? ORDER BY `id`",
		artifactID)
}

// FindEventsByExecution returns the events touching an execution in
// creation order.
func (s *Store) FindEventsByExecution(ctx context.Context, executionID int64) ([]metadata.Event, error) {
	return s.findEventsWhere(ctx,
		"SELECT `id`, `artifact_id`, `execution_id`, `type`, `milliseconds_since_epoch`, `path` FROM `Event` WHERE `execution_id` = ? ORDER BY `id`",
		executionID)
}

func (s *Store) findEventsWhere(ctx context.Context, query string, args ...any) ([]metadata.Event, error) {
	rs, err := s.exec.Execute(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find events: %w", err)
	}
	events := make([]metadata.Event, 0, len(rs.Records))
	for _, record := range rs.Records {
		e, err := loadEvent(record)
		if err != nil {
			return nil, err
		}
		events = append(events, *e)
	}
	return events, nil
}

func loadEvent(record []source.Cell) (*metadata.Event, error) {
	if len(record) != 6 {
		return nil, status.Internalf("event row has %d columns", len(record))
	}
	id, err := parseID(record[0])
	if err != nil {
		return nil, err
	}
	artifactID, err := parseID(record[1])
	if err != nil {
		return nil, err
	}
	executionID, err := parseID(record[2])
	if err != nil {
		return nil, err
	}
	eventType, err := parseID(record[3])
	if err != nil {
		return nil, err
	}
	var millis int64
	if !record[4].Null {
		millis, err = parseID(record[4])
		if err != nil {
			return nil, err
		}
	}
	path, err := metadata.UnmarshalPath(cellOrEmpty(record[5]))
	if err != nil {
		return nil, status.Internalf("event %d path: %v", id, err)
	}
	return &metadata.Event{
		ID:                     id,
		ArtifactID:             artifactID,
		ExecutionID:            executionID,
		Type:                   metadata.EventType(eventType),
		MillisecondsSinceEpoch: millis,
		Path:                   path,
	}, nil
}

// CreateAssociation links an execution to a context. The pair is unique.
func (s *Store) CreateAssociation(ctx context.Context, a *metadata.Association) (int64, error) {
	if err := s.requireContext(ctx, a.ContextID); err != nil {
		return 0, err
	}
	if err := s.requireExecution(ctx, a.ExecutionID); err != nil {
		return 0, err
	}

	rs, err := s.exec.Execute(ctx,
		"SELECT `id` FROM `Association` WHERE `context_id` = ? AND `execution_id` = ?",
		a.ContextID, a.ExecutionID)
	if err != nil {
		return 0, fmt.Errorf("check association: %w", err)
	}
	if len(rs.Records) > 0 {
		return 0, status.AlreadyExistsf("execution %d is already associated with context %d", a.ExecutionID, a.ContextID)
	}

	_, err = s.exec.Execute(ctx,
		"INSERT INTO `Association` (`context_id`, `execution_id`) VALUES (?, ?)",
		a.ContextID, a.ExecutionID)
	if err != nil {
		return 0, fmt.Errorf("insert association: %w", err)
	}
	return s.lastInsertID(ctx)
}

// CreateAttribution links an artifact to a context. The pair is unique.
func (s *Store) CreateAttribution(ctx context.Context, a *metadata.Attribution) (int64, error) {
	if err := s.requireContext(ctx, a.ContextID); err != nil {
		return 0, err
	}
	if err := s.requireArtifact(ctx, a.ArtifactID); err != nil {
		return 0, err
	}

	rs, err := s.exec.Execute(ctx,
		"SELECT `id` FROM `Attribution` WHERE `context_id` = ? AND `artifact_id` = ?",
		a.ContextID, a.ArtifactID)
	if err != nil {
		return 0, fmt.Errorf("check attribution: %w", err)
	}
	if len(rs.Records) > 0 {
		return 0, status.AlreadyExistsf("artifact %d is already attributed to context %d", a.ArtifactID, a.ContextID)
	}

	_, err = s.exec.Execute(ctx,
		"INSERT INTO `Attribution` (`context_id`, `artifact_id`) VALUES (?, ?)",
		a.ContextID, a.ArtifactID)
	if err != nil {
		return 0, fmt.Errorf("insert attribution: %w", err)
	}
	return s.lastInsertID(ctx)
}

// FindContextsByExecution returns the contexts an execution is associated
// with, in association-creation order.
func (s *Store) FindContextsByExecution(ctx context.Context, executionID int64) ([]metadata.Context, error) {
	ids, err := s.edgeIDs(ctx,
		"SELECT `context_id` FROM `Association` WHERE `execution_id` = ? ORDER BY `id`", executionID)
	if err != nil {
		return nil, err
	}
	contexts := make([]metadata.Context, 0, len(ids))
	for _, id := range ids {
		c, err := s.FindContextByID(ctx, id)
		if err != nil {
			return nil, err
		}
		contexts = append(contexts, *c)
	}
	return contexts, nil
}

// FindContextsByArtifact returns the contexts an artifact is attributed
// to, in attribution-creation order.
func (s *Store) FindContextsByArtifact(ctx context.Context, artifactID int64) ([]metadata.Context, error) {
	ids, err := s.edgeIDs(ctx,
		"SELECT `context_id` FROM `Attribution` WHERE `artifact_id` = ? ORDER BY `id`", artifactID)
	if err != nil {
		return nil, err
	}
	contexts := make([]metadata.Context, 0, len(ids))
	for _, id := range ids {
		c, err := s.FindContextByID(ctx, id)
		if err != nil {
			return nil, err
		}
		contexts = append(contexts, *c)
	}
	return contexts, nil
}

// FindExecutionsByContext returns the executions associated with a
// context, in association-creation order.
func (s *Store) FindExecutionsByContext(ctx context.Context, contextID int64) ([]metadata.Execution, error) {
	ids, err := s.edgeIDs(ctx,
		"SELECT `execution_id` FROM `Association` WHERE `context_id` = ? ORDER BY `id`", contextID)
	if err != nil {
		return nil, err
	}
	executions := make([]metadata.Execution, 0, len(ids))
	for _, id := range ids {
		e, err := s.FindExecutionByID(ctx, id)
		if err != nil {
			return nil, err
		}
		executions = append(executions, *e)
	}
	return executions, nil
}

// FindArtifactsByContext returns the artifacts attributed to a context, in
// attribution-creation order.
func (s *Store) FindArtifactsByContext(ctx context.Context, contextID int64) ([]metadata.Artifact, error) {
	ids, err := s.edgeIDs(ctx,
		"SELECT `artifact_id` FROM `Attribution` WHERE `context_id` = ? ORDER BY `id`", contextID)
	if err != nil {
		return nil, err
	}
	artifacts := make([]metadata.Artifact, 0, len(ids))
	for _, id := range ids {
		a, err := s.FindArtifactByID(ctx, id)
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, *a)
	}
	return artifacts, nil
}

func (s *Store) edgeIDs(ctx context.Context, query string, args ...any) ([]int64, error) {
	rs, err := s.exec.Execute(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find edges: %w", err)
	}
	ids := make([]int64, 0, len(rs.Records))
	for _, record := range rs.Records {
		id, err := parseID(record[0])
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
