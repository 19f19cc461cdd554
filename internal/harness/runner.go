package harness

import (
	"context"
	"fmt"

	"github.com/roach88/lineage/internal/metadata"
	"github.com/roach88/lineage/internal/migrate"
	"github.com/roach88/lineage/internal/query"
	"github.com/roach88/lineage/internal/source"
	"github.com/roach88/lineage/internal/store"
	"github.com/roach88/lineage/internal/testutil"
)

// clockBase pins scenario event timestamps: the first event gets base+1.
const clockBase = int64(1700000000000)

// Result holds a scenario's canonical store snapshot.
type Result struct {
	Snapshot []byte
}

// Run executes a scenario against a fresh in-memory store and snapshots
// the final store contents.
func Run(scenario *Scenario) (*Result, error) {
	src, err := source.OpenSQLite(":memory:", nil)
	if err != nil {
		return nil, fmt.Errorf("open scenario store: %w", err)
	}
	defer src.Close()

	cfg, err := query.SQLite()
	if err != nil {
		return nil, err
	}
	ctx := context.Background()
	engine, err := migrate.New(src, cfg, nil)
	if err != nil {
		return nil, err
	}
	if err := engine.InitIfNotExists(ctx, false); err != nil {
		return nil, err
	}

	s := store.NewWithClock(src, testutil.NewTickingClock(clockBase))
	for i, step := range scenario.Steps {
		if err := runStep(ctx, s, &step); err != nil {
			return nil, fmt.Errorf("steps[%d]: %w", i, err)
		}
	}

	snapshot, err := snapshotStore(ctx, s, scenario.Name)
	if err != nil {
		return nil, err
	}
	return &Result{Snapshot: snapshot}, nil
}

func runStep(ctx context.Context, s *store.Store, step *Step) error {
	switch {
	case step.CreateType != nil:
		return runCreateType(ctx, s, step.CreateType)
	case step.CreateArtifact != nil:
		return runCreateArtifact(ctx, s, step.CreateArtifact)
	case step.CreateExecution != nil:
		return runCreateExecution(ctx, s, step.CreateExecution)
	case step.CreateContext != nil:
		return runCreateContext(ctx, s, step.CreateContext)
	case step.CreateEvent != nil:
		return runCreateEvent(ctx, s, step.CreateEvent)
	case step.CreateAssociation != nil:
		_, err := s.CreateAssociation(ctx, &metadata.Association{
			ExecutionID: step.CreateAssociation.Execution,
			ContextID:   step.CreateAssociation.Context,
		})
		return err
	case step.CreateAttribution != nil:
		_, err := s.CreateAttribution(ctx, &metadata.Attribution{
			ArtifactID: step.CreateAttribution.Artifact,
			ContextID:  step.CreateAttribution.Context,
		})
		return err
	default:
		return fmt.Errorf("empty step")
	}
}

func runCreateType(ctx context.Context, s *store.Store, step *TypeStep) error {
	kind, err := parseKind(step.Kind)
	if err != nil {
		return err
	}
	schema := make(map[string]metadata.PropertyKind, len(step.Properties))
	for name, literal := range step.Properties {
		propertyKind, err := parsePropertyKind(literal)
		if err != nil {
			return fmt.Errorf("property %s: %w", name, err)
		}
		schema[name] = propertyKind
	}
	_, err = s.CreateType(ctx, &metadata.Type{Kind: kind, Name: step.Name, Properties: schema})
	return err
}

func runCreateArtifact(ctx context.Context, s *store.Store, step *ArtifactStep) error {
	t, err := s.FindTypeByName(ctx, step.Type, metadata.KindArtifact)
	if err != nil {
		return err
	}
	props, err := parseValues(step.Properties)
	if err != nil {
		return err
	}
	custom, err := parseValues(step.CustomProperties)
	if err != nil {
		return err
	}
	_, err = s.CreateArtifact(ctx, &metadata.Artifact{
		TypeID:           t.ID,
		URI:              step.URI,
		Properties:       props,
		CustomProperties: custom,
	})
	return err
}

func runCreateExecution(ctx context.Context, s *store.Store, step *ExecutionStep) error {
	t, err := s.FindTypeByName(ctx, step.Type, metadata.KindExecution)
	if err != nil {
		return err
	}
	props, err := parseValues(step.Properties)
	if err != nil {
		return err
	}
	custom, err := parseValues(step.CustomProperties)
	if err != nil {
		return err
	}
	_, err = s.CreateExecution(ctx, &metadata.Execution{
		TypeID:           t.ID,
		Properties:       props,
		CustomProperties: custom,
	})
	return err
}

func runCreateContext(ctx context.Context, s *store.Store, step *ContextStep) error {
	t, err := s.FindTypeByName(ctx, step.Type, metadata.KindContext)
	if err != nil {
		return err
	}
	props, err := parseValues(step.Properties)
	if err != nil {
		return err
	}
	custom, err := parseValues(step.CustomProperties)
	if err != nil {
		return err
	}
	_, err = s.CreateContext(ctx, &metadata.Context{
		TypeID:           t.ID,
		Name:             step.Name,
		Properties:       props,
		CustomProperties: custom,
	})
	return err
}

func runCreateEvent(ctx context.Context, s *store.Store, step *EventStep) error {
	eventType, err := parseEventType(step.Type)
	if err != nil {
		return err
	}
	path, err := parsePath(step.Path)
	if err != nil {
		return err
	}
	_, err = s.CreateEvent(ctx, &metadata.Event{
		ArtifactID:  step.Artifact,
		ExecutionID: step.Execution,
		Type:        eventType,
		Path:        path,
	})
	return err
}
