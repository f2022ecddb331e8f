package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vonnieda/dimple/feature/library"
)

var searchMode string

// searchCmd answers a free-text query from providers and the local store.
var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the library and configured providers",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newAppContext()
		if err != nil {
			return fmt.Errorf("failed to initialize: %w", err)
		}
		defer app.close()

		mode, err := library.ParseNetworkMode(searchMode)
		if err != nil {
			return err
		}

		results, err := app.librarian.Search(context.Background(), strings.Join(args, " "), mode)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	},
}

func init() {
	searchCmd.Flags().StringVar(&searchMode, "mode", "online", "network mode (online, offline, force)")
	RootCmd.AddCommand(searchCmd)
}
