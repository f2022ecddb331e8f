package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vonnieda/dimple/core/model"
	"github.com/vonnieda/dimple/feature/library"
)

var fetchMode string

// fetchCmd loads a single entity by kind and key, consulting providers
// when the network mode allows.
var fetchCmd = &cobra.Command{
	Use:   "fetch <kind> <key>",
	Short: "Fetch a single entity by kind and key",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newAppContext()
		if err != nil {
			return fmt.Errorf("failed to initialize: %w", err)
		}
		defer app.close()

		mode, err := library.ParseNetworkMode(fetchMode)
		if err != nil {
			return err
		}

		e, err := model.New(model.Kind(args[0]))
		if err != nil {
			return err
		}
		e.SetEntityKey(args[1])

		got, err := app.librarian.Fetch(context.Background(), e, mode)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(got)
	},
}

func init() {
	fetchCmd.Flags().StringVar(&fetchMode, "mode", "online", "network mode (online, offline, force)")
	RootCmd.AddCommand(fetchCmd)
}
