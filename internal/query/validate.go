package query

import "github.com/roach88/lineage/internal/status"

// Validate checks the structural invariants of a configuration: the probe
// and version bookkeeping statements are present, every table has a name
// and a create statement, and migration versions are contiguous from 1 with
// nonempty upgrade and downgrade query lists.
func Validate(cfg *Config) error {
	if cfg.Backend == "" {
		return status.Internalf("backend is empty")
	}
	if cfg.TableExists == "" {
		return status.Internalf("table_exists query is empty")
	}
	sv := cfg.SchemaVersion
	if sv.Table == "" || sv.Create == "" || sv.Read == "" || sv.Clear == "" || sv.Insert == "" {
		return status.Internalf("schema_version queries are incomplete")
	}
	if len(cfg.Tables) == 0 {
		return status.Internalf("no tables declared")
	}
	seen := make(map[string]bool, len(cfg.Tables))
	for _, t := range cfg.Tables {
		if t.Name == "" || t.Create == "" {
			return status.Internalf("table declaration is incomplete")
		}
		if seen[t.Name] {
			return status.Internalf("table %s declared twice", t.Name)
		}
		seen[t.Name] = true
	}

	max := cfg.MaxVersion()
	for v := int64(1); v <= max; v++ {
		scheme, ok := cfg.Migrations[v]
		if !ok {
			return status.Internalf("migration versions are not contiguous: missing %d", v)
		}
		if len(scheme.Upgrade) == 0 {
			return status.Internalf("migration %d has no upgrade queries", v)
		}
		if len(scheme.Downgrade) == 0 {
			return status.Internalf("migration %d has no downgrade queries", v)
		}
		if err := validateVerification(v, scheme.UpgradeVerification); err != nil {
			return err
		}
		if err := validateVerification(v, scheme.DowngradeVerification); err != nil {
			return err
		}
	}
	if int64(len(cfg.Migrations)) != max {
		return status.Internalf("migration versions below 1 are not allowed")
	}
	return nil
}

func validateVerification(version int64, v *Verification) error {
	if v == nil {
		return nil
	}
	if len(v.Checks) == 0 {
		return status.Internalf("migration %d verification has no checks", version)
	}
	return nil
}
