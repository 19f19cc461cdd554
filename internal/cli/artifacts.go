package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/lineage/internal/metadata"
)

// ArtifactsOptions holds flags for the artifacts command.
type ArtifactsOptions struct {
	*RootOptions
	DB  string
	URI string
}

// NewArtifactsCommand creates the artifacts command.
func NewArtifactsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ArtifactsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "artifacts",
		Short: "List stored artifacts",
		Long: `List stored artifacts, optionally filtered by URI.

Example:
  lineage artifacts --db lineage.db --uri s3://bucket/model`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runArtifacts(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "path to the store database (required)")
	cmd.Flags().StringVar(&opts.URI, "uri", "", "only artifacts with this URI")
	cmd.MarkFlagRequired("db")

	return cmd
}

func runArtifacts(opts *ArtifactsOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	src, s, err := openStore(ctx, opts.DB, opts.logger())
	if err != nil {
		return err
	}
	defer src.Close()

	var artifacts []metadata.Artifact
	if opts.URI != "" {
		artifacts, err = s.FindArtifactsByURI(ctx, opts.URI)
	} else {
		artifacts, err = s.FindArtifacts(ctx)
	}
	if err != nil {
		return WrapExitError(ExitFailure, "list artifacts", err)
	}

	data := make([]map[string]any, 0, len(artifacts))
	for _, a := range artifacts {
		data = append(data, map[string]any{
			"id":      a.ID,
			"type_id": a.TypeID,
			"uri":     a.URI,
		})
	}

	f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	return f.Success(data, func(w io.Writer) {
		for _, a := range artifacts {
			fmt.Fprintf(w, "%d\t%d\t%s\n", a.ID, a.TypeID, a.URI)
		}
	})
}
