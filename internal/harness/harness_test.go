package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadScenario_RejectsUnknownFields(t *testing.T) {
	path := writeScenario(t, `
name: typo
description: a misspelled key must not be silently dropped
step:
  - create_type: {kind: artifact, name: dataset}
`)
	_, err := LoadScenario(path)
	assert.Error(t, err)
}

func TestLoadScenario_RequiresExactlyOneOperation(t *testing.T) {
	path := writeScenario(t, `
name: two-ops
steps:
  - create_type: {kind: artifact, name: dataset}
    create_execution: {type: trainer}
`)
	_, err := LoadScenario(path)
	assert.Error(t, err)

	path = writeScenario(t, `
name: empty-step
steps:
  - {}
`)
	_, err = LoadScenario(path)
	assert.Error(t, err)
}

func TestRun_FailsOnUnknownTypeReference(t *testing.T) {
	scenario := &Scenario{
		Name: "bad-ref",
		Steps: []Step{
			{CreateArtifact: &ArtifactStep{Type: "never-registered"}},
		},
	}
	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "steps[0]")
}

func TestRun_FailsOnBadEventType(t *testing.T) {
	scenario := &Scenario{
		Name: "bad-event",
		Steps: []Step{
			{CreateEvent: &EventStep{Artifact: 1, Execution: 1, Type: "sideways"}},
		},
	}
	_, err := Run(scenario)
	assert.Error(t, err)
}

func TestScenario_TrainingRunGolden(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", "training-run.yaml"))
	require.NoError(t, err)

	require.NoError(t, RunWithGolden(t, scenario))
}

func TestRun_SnapshotIsDeterministic(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", "training-run.yaml"))
	require.NoError(t, err)

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)
	assert.Equal(t, string(first.Snapshot), string(second.Snapshot))
}
