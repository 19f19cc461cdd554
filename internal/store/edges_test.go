package store

import (
	"context"
	"reflect"
	"testing"

	"github.com/roach88/lineage/internal/metadata"
	"github.com/roach88/lineage/internal/status"
)

// lineageFixture creates one artifact, one execution and one context with
// minimal types.
func lineageFixture(t *testing.T, s *Store) (artifactID, executionID, contextID int64) {
	t.Helper()
	artifactType := mustCreateType(t, s, &metadata.Type{Kind: metadata.KindArtifact, Name: "dataset"})
	executionType := mustCreateType(t, s, &metadata.Type{Kind: metadata.KindExecution, Name: "trainer"})
	contextType := mustCreateType(t, s, &metadata.Type{Kind: metadata.KindContext, Name: "experiment"})

	artifactID = mustCreateArtifact(t, s, &metadata.Artifact{TypeID: artifactType})
	executionID = mustCreateExecution(t, s, &metadata.Execution{TypeID: executionType})
	contextID = mustCreateContext(t, s, &metadata.Context{TypeID: contextType, Name: "run-1"})
	return artifactID, executionID, contextID
}

func TestCreateEvent_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	artifactID, executionID, _ := lineageFixture(t, s)

	path := []metadata.PathStep{metadata.IndexStep(0), metadata.KeyStep("data")}
	id, err := s.CreateEvent(ctx, &metadata.Event{
		ArtifactID:             artifactID,
		ExecutionID:            executionID,
		Type:                   metadata.EventInput,
		MillisecondsSinceEpoch: 98765,
		Path:                   path,
	})
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}

	events, err := s.FindEventsByArtifact(ctx, artifactID)
	if err != nil {
		t.Fatalf("FindEventsByArtifact: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("events = %+v", events)
	}
	got := events[0]
	if got.ID != id || got.Type != metadata.EventInput || got.MillisecondsSinceEpoch != 98765 {
		t.Errorf("event = %+v", got)
	}
	if !reflect.DeepEqual(got.Path, path) {
		t.Errorf("path = %#v, want %#v", got.Path, path)
	}

	byExecution, err := s.FindEventsByExecution(ctx, executionID)
	if err != nil {
		t.Fatalf("FindEventsByExecution: %v", err)
	}
	if !reflect.DeepEqual(byExecution, events) {
		t.Errorf("by execution = %+v", byExecution)
	}
}

func TestCreateEvent_DefaultsTimestamp(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	artifactID, executionID, _ := lineageFixture(t, s)

	_, err := s.CreateEvent(ctx, &metadata.Event{
		ArtifactID:  artifactID,
		ExecutionID: executionID,
		Type:        metadata.EventOutput,
	})
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}

	events, err := s.FindEventsByArtifact(ctx, artifactID)
	if err != nil {
		t.Fatalf("FindEventsByArtifact: %v", err)
	}
	if events[0].MillisecondsSinceEpoch != fixedNow {
		t.Errorf("timestamp = %d, want clock time %d", events[0].MillisecondsSinceEpoch, fixedNow)
	}
	if events[0].Path != nil {
		t.Errorf("path = %#v, want nil", events[0].Path)
	}
}

func TestCreateEvent_Validation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	artifactID, executionID, _ := lineageFixture(t, s)

	cases := []struct {
		name  string
		event metadata.Event
	}{
		{"unset type", metadata.Event{ArtifactID: artifactID, ExecutionID: executionID}},
		{"unset artifact", metadata.Event{ExecutionID: executionID, Type: metadata.EventInput}},
		{"unset execution", metadata.Event{ArtifactID: artifactID, Type: metadata.EventInput}},
		{"unknown artifact", metadata.Event{ArtifactID: 9999, ExecutionID: executionID, Type: metadata.EventInput}},
		{"unknown execution", metadata.Event{ArtifactID: artifactID, ExecutionID: 9999, Type: metadata.EventInput}},
	}
	for _, tc := range cases {
		event := tc.event
		if _, err := s.CreateEvent(ctx, &event); !status.IsInvalidArgument(err) {
			t.Errorf("%s: got %v, want INVALID_ARGUMENT", tc.name, err)
		}
	}
}

func TestAssociation_UniquePair(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, executionID, contextID := lineageFixture(t, s)

	if _, err := s.CreateAssociation(ctx, &metadata.Association{ExecutionID: executionID, ContextID: contextID}); err != nil {
		t.Fatalf("CreateAssociation: %v", err)
	}
	_, err := s.CreateAssociation(ctx, &metadata.Association{ExecutionID: executionID, ContextID: contextID})
	if !status.IsAlreadyExists(err) {
		t.Errorf("duplicate pair: got %v, want ALREADY_EXISTS", err)
	}

	_, err = s.CreateAssociation(ctx, &metadata.Association{ExecutionID: 9999, ContextID: contextID})
	if !status.IsInvalidArgument(err) {
		t.Errorf("unknown execution: got %v, want INVALID_ARGUMENT", err)
	}
	_, err = s.CreateAssociation(ctx, &metadata.Association{ExecutionID: executionID})
	if !status.IsInvalidArgument(err) {
		t.Errorf("unset context: got %v, want INVALID_ARGUMENT", err)
	}
}

func TestAttribution_UniquePair(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	artifactID, _, contextID := lineageFixture(t, s)

	if _, err := s.CreateAttribution(ctx, &metadata.Attribution{ArtifactID: artifactID, ContextID: contextID}); err != nil {
		t.Fatalf("CreateAttribution: %v", err)
	}
	_, err := s.CreateAttribution(ctx, &metadata.Attribution{ArtifactID: artifactID, ContextID: contextID})
	if !status.IsAlreadyExists(err) {
		t.Errorf("duplicate pair: got %v, want ALREADY_EXISTS", err)
	}
	_, err = s.CreateAttribution(ctx, &metadata.Attribution{ArtifactID: 9999, ContextID: contextID})
	if !status.IsInvalidArgument(err) {
		t.Errorf("unknown artifact: got %v, want INVALID_ARGUMENT", err)
	}
}

func TestTraversals(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	artifactID, executionID, contextID := lineageFixture(t, s)

	contextType := mustCreateType(t, s, &metadata.Type{Kind: metadata.KindContext, Name: "pipeline"})
	secondContext := mustCreateContext(t, s, &metadata.Context{TypeID: contextType, Name: "nightly"})

	if _, err := s.CreateAssociation(ctx, &metadata.Association{ExecutionID: executionID, ContextID: contextID}); err != nil {
		t.Fatalf("CreateAssociation: %v", err)
	}
	if _, err := s.CreateAssociation(ctx, &metadata.Association{ExecutionID: executionID, ContextID: secondContext}); err != nil {
		t.Fatalf("CreateAssociation: %v", err)
	}
	if _, err := s.CreateAttribution(ctx, &metadata.Attribution{ArtifactID: artifactID, ContextID: secondContext}); err != nil {
		t.Fatalf("CreateAttribution: %v", err)
	}

	contexts, err := s.FindContextsByExecution(ctx, executionID)
	if err != nil {
		t.Fatalf("FindContextsByExecution: %v", err)
	}
	if len(contexts) != 2 || contexts[0].ID != contextID || contexts[1].ID != secondContext {
		t.Errorf("contexts = %+v", contexts)
	}

	contexts, err = s.FindContextsByArtifact(ctx, artifactID)
	if err != nil {
		t.Fatalf("FindContextsByArtifact: %v", err)
	}
	if len(contexts) != 1 || contexts[0].ID != secondContext {
		t.Errorf("contexts = %+v", contexts)
	}

	executions, err := s.FindExecutionsByContext(ctx, contextID)
	if err != nil {
		t.Fatalf("FindExecutionsByContext: %v", err)
	}
	if len(executions) != 1 || executions[0].ID != executionID {
		t.Errorf("executions = %+v", executions)
	}

	artifacts, err := s.FindArtifactsByContext(ctx, secondContext)
	if err != nil {
		t.Fatalf("FindArtifactsByContext: %v", err)
	}
	if len(artifacts) != 1 || artifacts[0].ID != artifactID {
		t.Errorf("artifacts = %+v", artifacts)
	}

	// Traversals with no edges are empty, not errors.
	empty, err := s.FindArtifactsByContext(ctx, contextID)
	if err != nil {
		t.Fatalf("FindArtifactsByContext: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Errorf("artifacts = %#v, want empty non-nil slice", empty)
	}
}

func TestPerKindIDsStartAtOne(t *testing.T) {
	s := newTestStore(t)
	artifactID, executionID, contextID := lineageFixture(t, s)

	// Nodes of different kinds live in separate tables, so each sequence
	// starts at 1 independently.
	if artifactID != 1 || executionID != 1 || contextID != 1 {
		t.Errorf("ids = %d/%d/%d, want 1/1/1", artifactID, executionID, contextID)
	}
}
