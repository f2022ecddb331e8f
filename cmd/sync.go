package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// syncCmd runs one pull/merge/push cycle and exits.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one sync cycle against the shared bucket",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newAppContext()
		if err != nil {
			return fmt.Errorf("failed to initialize: %w", err)
		}
		defer app.close()

		if app.syncer == nil {
			return fmt.Errorf("sync is disabled in configuration")
		}

		report, err := app.syncer.Sync(context.Background())
		if err != nil {
			return err
		}

		app.logger.Info("sync finished",
			zap.Int("segments_downloaded", report.SegmentsDownloaded),
			zap.Int("entries_replayed", report.EntriesReplayed),
			zap.Int("entries_skipped", report.EntriesSkipped),
			zap.Int("entries_uploaded", report.EntriesUploaded))
		return nil
	},
}

func init() {
	RootCmd.AddCommand(syncCmd)
}
