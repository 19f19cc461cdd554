package harness

import (
	"context"

	"github.com/roach88/lineage/internal/metadata"
	"github.com/roach88/lineage/internal/store"
)

// snapshotStore renders the full store contents as canonical JSON. Node
// lists are id-ordered and contexts embed their association and
// attribution endpoints, so equal stores snapshot byte-identically.
func snapshotStore(ctx context.Context, s *store.Store, scenarioName string) ([]byte, error) {
	types := make([]any, 0)
	for _, kind := range []metadata.TypeKind{metadata.KindArtifact, metadata.KindExecution, metadata.KindContext} {
		found, err := s.FindTypes(ctx, kind)
		if err != nil {
			return nil, err
		}
		for _, t := range found {
			types = append(types, typeMap(&t))
		}
	}

	artifacts, err := s.FindArtifacts(ctx)
	if err != nil {
		return nil, err
	}
	artifactList := make([]any, 0, len(artifacts))
	events := make([]any, 0)
	for _, a := range artifacts {
		artifactList = append(artifactList, artifactMap(&a))
		found, err := s.FindEventsByArtifact(ctx, a.ID)
		if err != nil {
			return nil, err
		}
		for _, e := range found {
			events = append(events, eventMap(&e))
		}
	}

	executions, err := s.FindExecutions(ctx)
	if err != nil {
		return nil, err
	}
	executionList := make([]any, 0, len(executions))
	for _, e := range executions {
		executionList = append(executionList, map[string]any{
			"id":                e.ID,
			"type_id":           e.TypeID,
			"properties":        valueMap(e.Properties),
			"custom_properties": valueMap(e.CustomProperties),
		})
	}

	contexts, err := s.FindContexts(ctx)
	if err != nil {
		return nil, err
	}
	contextList := make([]any, 0, len(contexts))
	for _, c := range contexts {
		entry := map[string]any{
			"id":                c.ID,
			"type_id":           c.TypeID,
			"name":              c.Name,
			"properties":        valueMap(c.Properties),
			"custom_properties": valueMap(c.CustomProperties),
		}
		linkedExecutions, err := s.FindExecutionsByContext(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		executionIDs := make([]any, 0, len(linkedExecutions))
		for _, e := range linkedExecutions {
			executionIDs = append(executionIDs, e.ID)
		}
		entry["executions"] = executionIDs

		linkedArtifacts, err := s.FindArtifactsByContext(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		artifactIDs := make([]any, 0, len(linkedArtifacts))
		for _, a := range linkedArtifacts {
			artifactIDs = append(artifactIDs, a.ID)
		}
		entry["artifacts"] = artifactIDs
		contextList = append(contextList, entry)
	}

	return metadata.MarshalCanonical(map[string]any{
		"scenario":   scenarioName,
		"types":      types,
		"artifacts":  artifactList,
		"executions": executionList,
		"contexts":   contextList,
		"events":     events,
	})
}

func typeMap(t *metadata.Type) map[string]any {
	schema := make(map[string]any, len(t.Properties))
	for name, kind := range t.Properties {
		schema[name] = kind.String()
	}
	entry := map[string]any{
		"id":         t.ID,
		"kind":       t.Kind.String(),
		"name":       t.Name,
		"properties": schema,
	}
	if input, err := metadata.MarshalSignature(t.InputType); err == nil && input != "" {
		entry["input_type"] = input
	}
	if output, err := metadata.MarshalSignature(t.OutputType); err == nil && output != "" {
		entry["output_type"] = output
	}
	return entry
}

func artifactMap(a *metadata.Artifact) map[string]any {
	entry := map[string]any{
		"id":                a.ID,
		"type_id":           a.TypeID,
		"properties":        valueMap(a.Properties),
		"custom_properties": valueMap(a.CustomProperties),
	}
	if a.URI != "" {
		entry["uri"] = a.URI
	}
	return entry
}

func eventMap(e *metadata.Event) map[string]any {
	entry := map[string]any{
		"id":                       e.ID,
		"artifact_id":              e.ArtifactID,
		"execution_id":             e.ExecutionID,
		"type":                     e.Type.String(),
		"milliseconds_since_epoch": e.MillisecondsSinceEpoch,
	}
	if len(e.Path) > 0 {
		steps := make([]any, len(e.Path))
		for i, step := range e.Path {
			switch s := step.(type) {
			case metadata.IndexStep:
				steps[i] = map[string]any{"index": int64(s)}
			case metadata.KeyStep:
				steps[i] = map[string]any{"key": string(s)}
			}
		}
		entry["path"] = steps
	}
	return entry
}

func valueMap(values map[string]metadata.Value) map[string]any {
	entry := make(map[string]any, len(values))
	for name, v := range values {
		entry[name] = v
	}
	return entry
}
