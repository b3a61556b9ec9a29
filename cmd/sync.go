package cmd

import (
	"context"
	"fmt"

	"kindle-sync/feature/library/sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Flags for the sync command
	fullSync  bool
	syncASINs []string
)

// syncCmd represents the sync command
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync books and highlights from Amazon",
	Long: `Fetches your Kindle library and reconciles it into the local database.

By default the run is incremental: books whose last-annotated date has
not moved since the previous run are skipped.

Examples:
  # Incremental sync
  kindle-sync sync

  # Re-fetch every book
  kindle-sync sync --full

  # Sync specific books only
  kindle-sync sync --asin B001ABC123 --asin B002DEF456`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().BoolVar(&fullSync, "full", false, "Fetch highlights for every book, ignoring annotation dates")
	syncCmd.Flags().StringArrayVar(&syncASINs, "asin", nil, "Restrict the run to the given ASIN (repeatable)")

	RootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	defer e.log.Sync()

	mode := sync.ModeIncremental
	if fullSync {
		mode = sync.ModeFull
	}

	result, err := e.feature.Service().Sync(context.Background(), sync.Options{
		Mode:  mode,
		ASINs: syncASINs,
	})
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	e.log.Info("Sync complete",
		zap.String("status", string(result.Status)),
		zap.Int("books_synced", result.BooksSynced),
		zap.Int("books_skipped", result.BooksSkipped),
		zap.Int("highlights_new", result.HighlightsNew),
		zap.Int("highlights_updated", result.HighlightsUpdated),
		zap.Int("highlights_deleted", result.HighlightsDeleted),
		zap.String("duration", result.Duration),
	)

	for _, be := range result.Errors {
		e.log.Warn("Book failed",
			zap.String("asin", be.ASIN),
			zap.String("title", be.Title),
			zap.String("error", be.Err),
		)
	}
	return nil
}
