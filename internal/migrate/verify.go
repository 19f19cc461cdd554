package migrate

import (
	"context"
	"fmt"
	"strconv"

	"github.com/roach88/lineage/internal/query"
	"github.com/roach88/lineage/internal/status"
)

// HasUpgradeVerification reports whether step version declares an upgrade
// fixture.
func (e *Engine) HasUpgradeVerification(version int64) bool {
	return e.cfg.Migrations[version].UpgradeVerification != nil
}

// HasDowngradeVerification reports whether step version declares a
// downgrade fixture.
func (e *Engine) HasDowngradeVerification(version int64) bool {
	return e.cfg.Migrations[version].DowngradeVerification != nil
}

// SetupForUpgrade establishes the pre-migration state of step version's
// upgrade fixture. The database must be at the layout of version-1 or an
// ancestor whose tables still exist.
func (e *Engine) SetupForUpgrade(ctx context.Context, version int64) error {
	return e.runSetup(ctx, version, e.cfg.Migrations[version].UpgradeVerification)
}

// VerifyUpgrade runs the check queries of step version's upgrade fixture.
func (e *Engine) VerifyUpgrade(ctx context.Context, version int64) error {
	return e.runChecks(ctx, version, e.cfg.Migrations[version].UpgradeVerification)
}

// SetupForDowngrade establishes the state of step version's downgrade
// fixture. Run it while the database is still at version, before
// downgrading past it.
func (e *Engine) SetupForDowngrade(ctx context.Context, version int64) error {
	return e.runSetup(ctx, version, e.cfg.Migrations[version].DowngradeVerification)
}

// VerifyDowngrade runs the check queries of step version's downgrade
// fixture. Run it once the database has reached version-1.
func (e *Engine) VerifyDowngrade(ctx context.Context, version int64) error {
	return e.runChecks(ctx, version, e.cfg.Migrations[version].DowngradeVerification)
}

func (e *Engine) runSetup(ctx context.Context, version int64, v *query.Verification) error {
	if v == nil {
		return status.NotFoundf("migration %d declares no verification", version)
	}
	for i, q := range v.Setup {
		if _, err := e.exec.Execute(ctx, q); err != nil {
			return fmt.Errorf("verification setup %d query %d: %w", version, i, err)
		}
	}
	return nil
}

// runChecks executes each check query and requires a single boolean true
// cell. Anything else means the migration left the store in a shape the
// fixture does not recognize.
func (e *Engine) runChecks(ctx context.Context, version int64, v *query.Verification) error {
	if v == nil {
		return status.NotFoundf("migration %d declares no verification", version)
	}
	for i, q := range v.Checks {
		rs, err := e.exec.Execute(ctx, q)
		if err != nil {
			return fmt.Errorf("verification check %d query %d: %w", version, i, err)
		}
		if len(rs.Records) != 1 || len(rs.Records[0]) != 1 {
			return status.Internalf("verification check %d query %d returned %d rows", version, i, len(rs.Records))
		}
		ok, err := strconv.ParseBool(rs.Records[0][0].Value)
		if err != nil {
			return status.Internalf("verification check %d query %d returned non-boolean %q", version, i, rs.Records[0][0].Value)
		}
		if !ok {
			return status.Internalf("verification check %d query %d failed", version, i)
		}
	}
	return nil
}
