// Package query holds the per-backend declarative configuration of the
// lineage store: the head schema DDL, the table-existence probe, the
// schema-version bookkeeping statements, and the ordered migration step
// table with optional verification fixtures.
//
// The configuration is data, not behavior: it is compiled from an embedded
// CUE file at startup and handed to the store and the migration engine as a
// parameter. Backends vary by supplying a different file.
package query

// Config is the full per-backend configuration.
type Config struct {
	// Backend names the SQL dialect this configuration targets.
	Backend string `json:"backend"`

	// TableExists is a one-parameter query returning a single count cell:
	// nonzero when the named table exists.
	TableExists string `json:"table_exists"`

	// SchemaVersion holds the bookkeeping statements for the persisted
	// schema version singleton.
	SchemaVersion SchemaVersionQueries `json:"schema_version"`

	// Tables is the head schema: one create statement per core table, in
	// creation order. The probe checks each table's presence by name.
	Tables []Table `json:"tables"`

	// Migrations maps schema version v to the step transforming v-1 to v
	// (forward) and v to v-1 (backward). Versions must be contiguous from 1
	// to the library version.
	Migrations map[int64]MigrationScheme `json:"-"`
}

// SchemaVersionQueries are the statements maintaining the version singleton.
type SchemaVersionQueries struct {
	Table  string `json:"table"`
	Create string `json:"create"`
	Read   string `json:"read"`
	Clear  string `json:"clear"`
	Insert string `json:"insert"`
}

// Table pairs a core table name with its head-schema create statement.
type Table struct {
	Name   string `json:"name"`
	Create string `json:"create"`
}

// MigrationScheme is one reversible migration step.
type MigrationScheme struct {
	// Upgrade transforms version v-1 to v, in order.
	Upgrade []string `json:"upgrade"`

	// Downgrade transforms version v to v-1, in order.
	Downgrade []string `json:"downgrade"`

	// UpgradeVerification, when present, carries setup queries valid at
	// v-1 and check queries valid at v and later.
	UpgradeVerification *Verification `json:"upgrade_verification,omitempty"`

	// DowngradeVerification, when present, carries setup queries valid at
	// v and check queries valid at v-1.
	DowngradeVerification *Verification `json:"downgrade_verification,omitempty"`
}

// Verification is a migration fixture: setup statements establishing a
// pre-migration state, and boolean check queries that must each return
// exactly one row whose single cell parses as true.
type Verification struct {
	Setup  []string `json:"setup"`
	Checks []string `json:"checks"`
}

// TableNames returns the head table names in declaration order.
func (c *Config) TableNames() []string {
	names := make([]string, len(c.Tables))
	for i, t := range c.Tables {
		names[i] = t.Name
	}
	return names
}

// MaxVersion returns the highest migration version in the configuration,
// or 0 when no migrations are declared.
func (c *Config) MaxVersion() int64 {
	var max int64
	for v := range c.Migrations {
		if v > max {
			max = v
		}
	}
	return max
}
