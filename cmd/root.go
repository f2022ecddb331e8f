package cmd

import (
	"fmt"
	"os"

	"github.com/vonnieda/dimple/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "dimple",
	Short: "Dimple music library engine",
	Long: `Dimple aggregates music metadata from external providers and local
imports into one canonical library, and keeps that library in sync across
your devices through a shared object-storage bucket.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		// Console format with debug level gives readable CLI error output
		// (ISO8601 timestamps instead of epoch).
		cfg := &logger.Config{
			Level:  "debug",
			Format: "console",
		}

		l, logErr := logger.New(cfg)
		if logErr == nil {
			l.Error("command failed", zap.Error(err))
			_ = l.Sync()
		} else {
			// Absolute fallback if logger creation fails (rare)
			fmt.Println(err)
		}
		os.Exit(1)
	}
}
