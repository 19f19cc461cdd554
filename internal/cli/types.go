package cli

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/roach88/lineage/internal/metadata"
)

// TypesOptions holds flags for the types command.
type TypesOptions struct {
	*RootOptions
	DB   string
	Kind string
}

// NewTypesCommand creates the types command.
func NewTypesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TypesOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "types",
		Short: "List registered types of one kind",
		Long: `List the registered types of one node kind with their property
schemas.

Example:
  lineage types --db lineage.db --kind artifact`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTypes(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "path to the store database (required)")
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "type kind: artifact, execution or context (required)")
	cmd.MarkFlagRequired("db")
	cmd.MarkFlagRequired("kind")

	return cmd
}

func runTypes(opts *TypesOptions, cmd *cobra.Command) error {
	kind, err := kindFromFlag(opts.Kind)
	if err != nil {
		return WrapExitError(ExitCommandError, "parse --kind", err)
	}

	ctx := cmd.Context()
	src, s, err := openStore(ctx, opts.DB, opts.logger())
	if err != nil {
		return err
	}
	defer src.Close()

	types, err := s.FindTypes(ctx, kind)
	if err != nil {
		return WrapExitError(ExitFailure, "list types", err)
	}

	data := make([]map[string]any, 0, len(types))
	for _, t := range types {
		schema := make(map[string]string, len(t.Properties))
		for name, propertyKind := range t.Properties {
			schema[name] = propertyKind.String()
		}
		data = append(data, map[string]any{
			"id":         t.ID,
			"kind":       t.Kind.String(),
			"name":       t.Name,
			"properties": schema,
		})
	}

	f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	return f.Success(data, func(w io.Writer) {
		for _, t := range types {
			fmt.Fprintf(w, "%d\t%s\n", t.ID, t.Name)
			names := make([]string, 0, len(t.Properties))
			for name := range t.Properties {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Fprintf(w, "\t%s: %s\n", name, t.Properties[name])
			}
		}
	})
}

// kindFromFlag parses the --kind flag value.
func kindFromFlag(kind string) (metadata.TypeKind, error) {
	switch kind {
	case "artifact":
		return metadata.KindArtifact, nil
	case "execution":
		return metadata.KindExecution, nil
	case "context":
		return metadata.KindContext, nil
	default:
		return 0, fmt.Errorf("unknown kind %q: must be artifact, execution or context", kind)
	}
}
