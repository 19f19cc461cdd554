package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// DowngradeOptions holds flags for the downgrade command.
type DowngradeOptions struct {
	*RootOptions
	DB string
	To int64
}

// NewDowngradeCommand creates the downgrade command.
func NewDowngradeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DowngradeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "downgrade",
		Short: "Roll the store schema back to an older version",
		Long: `Roll the store schema back to an older version, one reversible step
at a time. Data that only exists in newer schema versions is dropped.

Version 0 is the layout that predates schema version tracking.

Example:
  lineage downgrade --db lineage.db --to 2`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDowngrade(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "path to the store database (required)")
	cmd.Flags().Int64Var(&opts.To, "to", -1, "target schema version (required)")
	cmd.MarkFlagRequired("db")
	cmd.MarkFlagRequired("to")

	return cmd
}

func runDowngrade(opts *DowngradeOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	src, engine, err := openEngine(opts.DB, opts.logger())
	if err != nil {
		return err
	}
	defer src.Close()

	if err := engine.Downgrade(ctx, opts.To); err != nil {
		return WrapExitError(ExitFailure, "downgrade store", err)
	}

	f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	return f.Success(
		map[string]any{"db": opts.DB, "schema_version": opts.To},
		func(w io.Writer) {
			fmt.Fprintf(w, "%s is at schema version %d\n", opts.DB, opts.To)
		},
	)
}
