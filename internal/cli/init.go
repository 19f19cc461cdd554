package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/lineage/internal/migrate"
)

// InitOptions holds flags for the init command.
type InitOptions struct {
	*RootOptions
	DB      string
	Upgrade bool
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create or migrate the store schema",
		Long: `Create the store schema on a new database, or bring an existing
store to this build's schema version.

An older store is only migrated forward when --upgrade is given; each
migration step is persisted as it completes.

Example:
  lineage init --db lineage.db --upgrade`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "path to the store database (required)")
	cmd.Flags().BoolVar(&opts.Upgrade, "upgrade", false, "migrate an older store forward")
	cmd.MarkFlagRequired("db")

	return cmd
}

func runInit(opts *InitOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	src, engine, err := openEngine(opts.DB, opts.logger())
	if err != nil {
		return err
	}
	defer src.Close()

	if err := engine.InitIfNotExists(ctx, opts.Upgrade); err != nil {
		return WrapExitError(ExitFailure, "initialize store", err)
	}

	f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	return f.Success(
		map[string]any{"db": opts.DB, "schema_version": migrate.LibraryVersion},
		func(w io.Writer) {
			fmt.Fprintf(w, "%s is at schema version %d\n", opts.DB, migrate.LibraryVersion)
		},
	)
}
