package commands

import (
	"context"
	"fmt"

	"github.com/DrSkyle/kinship/pkg/app"
	"github.com/DrSkyle/kinship/pkg/export"
	"github.com/spf13/cobra"
)

func newExportCmd(opts *rootOptions) *cobra.Command {
	var (
		exp          expandOptions
		dest, format string
	)
	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Export a tree snapshot (JSON, YAML, text)",
		Long: `Build the tree of a person and write it to a local directory or an S3
location (s3://bucket/prefix).

Default destination and format come from the export section of the config.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg(args, 0)
			if err != nil {
				return err
			}
			if format == "" {
				format = opts.cfg.Export.Format
			}
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			return opts.run(cmd, func(ctx context.Context, a *app.App) error {
				root, err := exp.build(ctx, a.NewSession(), id)
				if err != nil {
					return err
				}
				exporter, err := a.Exporter(ctx, dest)
				if err != nil {
					return err
				}
				key, err := exporter.Export(ctx, root, f)
				if err != nil {
					return fmt.Errorf("export failed: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "[SUCCESS] Exported %d people to %s\n", root.Len(), key)
				return nil
			})
		},
	}
	exp.register(cmd)
	cmd.Flags().StringVar(&dest, "dest", "", "Local directory or s3://bucket/prefix")
	cmd.Flags().StringVar(&format, "format", "", "Output format: json, yaml or text")
	return cmd
}
