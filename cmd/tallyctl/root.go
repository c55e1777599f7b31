package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/yungbote/tally-backend/internal/app"
)

var actor string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "tallyctl",
		Short:         "Operate a tally ledger directly against its storage",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&actor, "actor", "cli", "Actor recorded in the admin audit trail")

	root.AddCommand(
		newCountCmd(),
		newAttemptCmd(),
		newBootstrapCmd(),
		newForceSetCmd(),
		newDeleteCmd(),
		newDeleteRefCmd(),
		newSetTotalCmd(),
		newRecalcCmd(),
		newTopCmd(),
		newRankCmd(),
		newWindowCmd(),
		newRecentCmd(),
		newAuditCmd(),
		newTokenCmd(),
		newWatchCmd(),
	)
	return root
}

// withApp opens every backend for the duration of one command.
func withApp(cmd *cobra.Command, fn func(a *app.App) error) error {
	a, err := app.New(cmd.Context())
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer a.Close()
	return fn(a)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
