package cmd

import (
	"context"
	"fmt"

	"kindle-sync/feature/library/export"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Flags for the export command
	exportFormat string
	exportDir    string
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export [asin]",
	Short: "Export highlights to files",
	Long: `Exports stored highlights to one file per book. Hidden highlights
are excluded.

Examples:
  # Export everything as Markdown
  kindle-sync export --dir ./exports

  # Export one book as JSON
  kindle-sync export B001ABC123 --format json --dir ./exports`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup()
		if err != nil {
			return err
		}
		defer e.log.Sync()
		ctx := context.Background()

		format, err := export.ParseFormat(exportFormat)
		if err != nil {
			return err
		}

		dir := exportDir
		if dir == "" {
			// Fall back to the remembered directory, then the default.
			if dir, err = e.store.ExportDirectory(ctx); err != nil {
				return err
			}
			if dir == "" {
				dir = "exports"
			}
		}

		exporter := e.feature.Service().Exporter()

		if len(args) == 1 {
			path, err := exporter.Book(ctx, args[0], format, dir)
			if err != nil {
				return err
			}
			fmt.Println(path)
		} else {
			paths, err := exporter.All(ctx, format, dir)
			if err != nil {
				return err
			}
			for _, p := range paths {
				fmt.Println(p)
			}
		}

		if err := e.store.SetExportDirectory(ctx, dir); err != nil {
			e.log.Warn("Failed to remember export directory", zap.Error(err))
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "markdown", "Export format: markdown, json or csv")
	exportCmd.Flags().StringVar(&exportDir, "dir", "", "Output directory (defaults to the last used one)")

	RootCmd.AddCommand(exportCmd)
}
