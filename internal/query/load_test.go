package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLite_LoadsAndValidates(t *testing.T) {
	cfg, err := SQLite()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Backend)
	assert.Equal(t, int64(3), cfg.MaxVersion())
	assert.Equal(t, "LineageEnv", cfg.SchemaVersion.Table)
	assert.Equal(t, []string{
		"Type", "TypeProperty",
		"Artifact", "ArtifactProperty",
		"Execution", "ExecutionProperty",
		"Context", "ContextProperty",
		"Event", "Association", "Attribution",
	}, cfg.TableNames())
}

func TestSQLite_MigrationShape(t *testing.T) {
	cfg, err := SQLite()
	require.NoError(t, err)

	for v := int64(1); v <= cfg.MaxVersion(); v++ {
		scheme, ok := cfg.Migrations[v]
		require.True(t, ok, "missing migration %d", v)
		assert.NotEmpty(t, scheme.Upgrade)
		assert.NotEmpty(t, scheme.Downgrade)
	}

	// Every step declares an upgrade fixture.
	for v := int64(1); v <= cfg.MaxVersion(); v++ {
		require.NotNil(t, cfg.Migrations[v].UpgradeVerification, "migration %d", v)
		assert.NotEmpty(t, cfg.Migrations[v].UpgradeVerification.Checks)
	}
}

func TestLoad_RejectsBadCUE(t *testing.T) {
	_, err := Load([]byte(`backend: 42`))
	assert.Error(t, err)
}

func TestLoad_RejectsIncomplete(t *testing.T) {
	_, err := Load([]byte(`backend: "sqlite"`))
	assert.Error(t, err)
}

func TestValidate_NonContiguousMigrations(t *testing.T) {
	cfg, err := SQLite()
	require.NoError(t, err)

	delete(cfg.Migrations, 2)
	assert.Error(t, Validate(cfg))
}

func TestValidate_DuplicateTable(t *testing.T) {
	cfg, err := SQLite()
	require.NoError(t, err)

	cfg.Tables = append(cfg.Tables, cfg.Tables[0])
	assert.Error(t, Validate(cfg))
}

func TestValidate_EmptyUpgrade(t *testing.T) {
	cfg, err := SQLite()
	require.NoError(t, err)

	scheme := cfg.Migrations[1]
	scheme.Upgrade = nil
	cfg.Migrations[1] = scheme
	assert.Error(t, Validate(cfg))
}
