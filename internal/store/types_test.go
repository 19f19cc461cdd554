package store

import (
	"context"
	"reflect"
	"testing"

	"github.com/roach88/lineage/internal/metadata"
	"github.com/roach88/lineage/internal/status"
)

func TestCreateType_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id := mustCreateType(t, s, &metadata.Type{
		Kind: metadata.KindArtifact,
		Name: "dataset",
		Properties: map[string]metadata.PropertyKind{
			"rows":   metadata.PropertyInt,
			"ratio":  metadata.PropertyDouble,
			"format": metadata.PropertyString,
		},
	})
	if id == 0 {
		t.Fatal("expected a nonzero type id")
	}

	got, err := s.FindTypeByID(ctx, id, metadata.KindArtifact)
	if err != nil {
		t.Fatalf("FindTypeByID: %v", err)
	}
	if got.Name != "dataset" || got.Kind != metadata.KindArtifact {
		t.Errorf("got type %+v", got)
	}
	want := map[string]metadata.PropertyKind{
		"rows":   metadata.PropertyInt,
		"ratio":  metadata.PropertyDouble,
		"format": metadata.PropertyString,
	}
	if !reflect.DeepEqual(got.Properties, want) {
		t.Errorf("properties = %v, want %v", got.Properties, want)
	}
}

func TestCreateType_Validation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateType(ctx, &metadata.Type{Kind: metadata.KindArtifact})
	if !status.IsInvalidArgument(err) {
		t.Errorf("empty name: got %v, want INVALID_ARGUMENT", err)
	}

	_, err = s.CreateType(ctx, &metadata.Type{Name: "nameless_kind"})
	if !status.IsInvalidArgument(err) {
		t.Errorf("unset kind: got %v, want INVALID_ARGUMENT", err)
	}

	_, err = s.CreateType(ctx, &metadata.Type{
		Kind:       metadata.KindArtifact,
		Name:       "bad_schema",
		Properties: map[string]metadata.PropertyKind{"p": metadata.PropertyUnknown},
	})
	if !status.IsInvalidArgument(err) {
		t.Errorf("unknown property kind: got %v, want INVALID_ARGUMENT", err)
	}
}

func TestCreateType_DuplicateNameYieldsFreshID(t *testing.T) {
	s := newTestStore(t)

	first := mustCreateType(t, s, &metadata.Type{Kind: metadata.KindArtifact, Name: "dataset"})
	second := mustCreateType(t, s, &metadata.Type{Kind: metadata.KindArtifact, Name: "dataset"})
	if first == second {
		t.Errorf("duplicate registration reused id %d", first)
	}
}

func TestCreateType_SameNameAcrossKinds(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	artifactID := mustCreateType(t, s, &metadata.Type{Kind: metadata.KindArtifact, Name: "shared"})
	executionID := mustCreateType(t, s, &metadata.Type{Kind: metadata.KindExecution, Name: "shared"})
	if artifactID == executionID {
		t.Fatalf("both kinds got id %d", artifactID)
	}

	gotArtifact, err := s.FindTypeByName(ctx, "shared", metadata.KindArtifact)
	if err != nil {
		t.Fatalf("FindTypeByName artifact: %v", err)
	}
	if gotArtifact.ID != artifactID || gotArtifact.Kind != metadata.KindArtifact {
		t.Errorf("artifact lookup = %+v, want id %d", gotArtifact, artifactID)
	}

	gotExecution, err := s.FindTypeByName(ctx, "shared", metadata.KindExecution)
	if err != nil {
		t.Fatalf("FindTypeByName execution: %v", err)
	}
	if gotExecution.ID != executionID || gotExecution.Kind != metadata.KindExecution {
		t.Errorf("execution lookup = %+v, want id %d", gotExecution, executionID)
	}
}

func TestCreateType_Signatures(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id := mustCreateType(t, s, &metadata.Type{
		Kind: metadata.KindExecution,
		Name: "trainer",
		InputType: metadata.DictSignature{
			"data":   metadata.AnySignature{},
			"config": metadata.DictSignature{"seed": metadata.AnySignature{}},
		},
		OutputType: metadata.NoneSignature{},
	})

	got, err := s.FindTypeByID(ctx, id, metadata.KindExecution)
	if err != nil {
		t.Fatalf("FindTypeByID: %v", err)
	}
	wantInput := metadata.DictSignature{
		"data":   metadata.AnySignature{},
		"config": metadata.DictSignature{"seed": metadata.AnySignature{}},
	}
	if !reflect.DeepEqual(got.InputType, wantInput) {
		t.Errorf("input type = %#v", got.InputType)
	}
	if !reflect.DeepEqual(got.OutputType, metadata.NoneSignature{}) {
		t.Errorf("output type = %#v", got.OutputType)
	}
}

func TestCreateType_AbsentSignaturesStayNil(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id := mustCreateType(t, s, &metadata.Type{Kind: metadata.KindExecution, Name: "oneshot"})
	got, err := s.FindTypeByID(ctx, id, metadata.KindExecution)
	if err != nil {
		t.Fatalf("FindTypeByID: %v", err)
	}
	if got.InputType != nil || got.OutputType != nil {
		t.Errorf("signatures = %#v / %#v, want nil", got.InputType, got.OutputType)
	}
}

func TestFindType_KindScoped(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id := mustCreateType(t, s, &metadata.Type{Kind: metadata.KindArtifact, Name: "shared_name"})

	if _, err := s.FindTypeByID(ctx, id, metadata.KindExecution); !status.IsNotFound(err) {
		t.Errorf("cross-kind id lookup: got %v, want NOT_FOUND", err)
	}
	if _, err := s.FindTypeByName(ctx, "shared_name", metadata.KindContext); !status.IsNotFound(err) {
		t.Errorf("cross-kind name lookup: got %v, want NOT_FOUND", err)
	}
	if _, err := s.FindTypeByName(ctx, "shared_name", metadata.KindArtifact); err != nil {
		t.Errorf("same-kind name lookup: %v", err)
	}
}

func TestFindTypes_ReturnsAllOfKind(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustCreateType(t, s, &metadata.Type{Kind: metadata.KindArtifact, Name: "a1"})
	mustCreateType(t, s, &metadata.Type{Kind: metadata.KindExecution, Name: "e1"})
	mustCreateType(t, s, &metadata.Type{Kind: metadata.KindArtifact, Name: "a2"})

	got, err := s.FindTypes(ctx, metadata.KindArtifact)
	if err != nil {
		t.Fatalf("FindTypes: %v", err)
	}
	if len(got) != 2 || got[0].Name != "a1" || got[1].Name != "a2" {
		t.Errorf("artifact types = %+v", got)
	}

	empty, err := s.FindTypes(ctx, metadata.KindContext)
	if err != nil {
		t.Fatalf("FindTypes: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Errorf("context types = %#v, want empty non-nil slice", empty)
	}
}

func TestUpdateType_AdditiveMerge(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id := mustCreateType(t, s, &metadata.Type{
		Kind:       metadata.KindArtifact,
		Name:       "dataset",
		Properties: map[string]metadata.PropertyKind{"rows": metadata.PropertyInt},
	})

	err := s.UpdateType(ctx, &metadata.Type{
		ID:   id,
		Kind: metadata.KindArtifact,
		Properties: map[string]metadata.PropertyKind{
			"rows":   metadata.PropertyInt, // unchanged, tolerated
			"format": metadata.PropertyString,
		},
	})
	if err != nil {
		t.Fatalf("UpdateType: %v", err)
	}

	got, err := s.FindTypeByID(ctx, id, metadata.KindArtifact)
	if err != nil {
		t.Fatalf("FindTypeByID: %v", err)
	}
	want := map[string]metadata.PropertyKind{
		"rows":   metadata.PropertyInt,
		"format": metadata.PropertyString,
	}
	if !reflect.DeepEqual(got.Properties, want) {
		t.Errorf("properties = %v, want %v", got.Properties, want)
	}
}

func TestUpdateType_KindConflict(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id := mustCreateType(t, s, &metadata.Type{
		Kind:       metadata.KindArtifact,
		Name:       "dataset",
		Properties: map[string]metadata.PropertyKind{"rows": metadata.PropertyInt},
	})

	err := s.UpdateType(ctx, &metadata.Type{
		ID:         id,
		Kind:       metadata.KindArtifact,
		Properties: map[string]metadata.PropertyKind{"rows": metadata.PropertyString},
	})
	if !status.IsAlreadyExists(err) {
		t.Errorf("re-kinding a property: got %v, want ALREADY_EXISTS", err)
	}
}

func TestUpdateType_Resolution(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id := mustCreateType(t, s, &metadata.Type{Kind: metadata.KindArtifact, Name: "dataset"})

	// By name only.
	err := s.UpdateType(ctx, &metadata.Type{
		Kind:       metadata.KindArtifact,
		Name:       "dataset",
		Properties: map[string]metadata.PropertyKind{"rows": metadata.PropertyInt},
	})
	if err != nil {
		t.Fatalf("UpdateType by name: %v", err)
	}

	// Id takes precedence; a mismatched name is rejected.
	err = s.UpdateType(ctx, &metadata.Type{ID: id, Kind: metadata.KindArtifact, Name: "other"})
	if !status.IsInvalidArgument(err) {
		t.Errorf("mismatched name: got %v, want INVALID_ARGUMENT", err)
	}

	// Unresolvable id.
	err = s.UpdateType(ctx, &metadata.Type{ID: 9999, Kind: metadata.KindArtifact})
	if !status.IsInvalidArgument(err) {
		t.Errorf("unknown id: got %v, want INVALID_ARGUMENT", err)
	}

	// Unresolvable name.
	err = s.UpdateType(ctx, &metadata.Type{Kind: metadata.KindArtifact, Name: "missing"})
	if !status.IsInvalidArgument(err) {
		t.Errorf("unknown name: got %v, want INVALID_ARGUMENT", err)
	}

	// Neither id nor name.
	err = s.UpdateType(ctx, &metadata.Type{Kind: metadata.KindArtifact})
	if !status.IsInvalidArgument(err) {
		t.Errorf("no selector: got %v, want INVALID_ARGUMENT", err)
	}
}

func TestType_UnicodeNames(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id := mustCreateType(t, s, &metadata.Type{
		Kind:       metadata.KindArtifact,
		Name:       "数据集",
		Properties: map[string]metadata.PropertyKind{"序列": metadata.PropertyInt},
	})

	got, err := s.FindTypeByName(ctx, "数据集", metadata.KindArtifact)
	if err != nil {
		t.Fatalf("FindTypeByName: %v", err)
	}
	if got.ID != id {
		t.Errorf("id = %d, want %d", got.ID, id)
	}
	if got.Properties["序列"] != metadata.PropertyInt {
		t.Errorf("properties = %v", got.Properties)
	}
}
