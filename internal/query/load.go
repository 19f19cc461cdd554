package query

import (
	_ "embed"
	"fmt"
	"strconv"

	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/lineage/internal/status"
)

//go:embed sqlite.cue
var sqliteConfig []byte

// SQLite compiles and validates the embedded SQLite configuration.
func SQLite() (*Config, error) {
	return Load(sqliteConfig)
}

// rawConfig is the staging shape decoded from CUE. Migration schemes are
// keyed by their decimal version label and converted after decoding.
type rawConfig struct {
	Backend       string                     `json:"backend"`
	TableExists   string                     `json:"table_exists"`
	SchemaVersion SchemaVersionQueries       `json:"schema_version"`
	Tables        []Table                    `json:"tables"`
	Migrations    map[string]MigrationScheme `json:"migrations"`
}

// Load compiles a CUE configuration document into a validated Config.
func Load(src []byte) (*Config, error) {
	ctx := cuecontext.New()
	value := ctx.CompileBytes(src)
	if err := value.Err(); err != nil {
		return nil, status.Internalf("compile query config: %v", err)
	}
	if err := value.Validate(); err != nil {
		return nil, status.Internalf("validate query config: %v", err)
	}

	var raw rawConfig
	if err := value.Decode(&raw); err != nil {
		return nil, status.Internalf("decode query config: %v", err)
	}

	cfg := &Config{
		Backend:       raw.Backend,
		TableExists:   raw.TableExists,
		SchemaVersion: raw.SchemaVersion,
		Tables:        raw.Tables,
		Migrations:    make(map[int64]MigrationScheme, len(raw.Migrations)),
	}
	for label, scheme := range raw.Migrations {
		version, err := strconv.ParseInt(label, 10, 64)
		if err != nil {
			return nil, status.Internalf("migration version %q: %v", label, err)
		}
		cfg.Migrations[version] = scheme
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("query config: %w", err)
	}
	return cfg, nil
}
