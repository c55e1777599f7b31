package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/yungbote/tally-backend/internal/app"
	types "github.com/yungbote/tally-backend/internal/domain"
	httpMW "github.com/yungbote/tally-backend/internal/http/middleware"
)

func newTokenCmd() *cobra.Command {
	var (
		role string
		ttl  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token <subject>",
		Short: "Sign an API token with API_JWT_SECRET",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			secret := os.Getenv("API_JWT_SECRET")
			if secret == "" {
				return fmt.Errorf("API_JWT_SECRET is not set")
			}
			if role != httpMW.RoleAdmin && role != httpMW.RoleConnector {
				return fmt.Errorf("role must be %q or %q", httpMW.RoleAdmin, httpMW.RoleConnector)
			}
			tok, err := httpMW.SignToken(secret, args[0], role, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&role, "role", httpMW.RoleConnector, "Token role: admin or connector")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime (0 for no expiry)")
	return cmd
}

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Stream ledger events from the Redis channel",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(a *app.App) error {
				out := cmd.OutOrStdout()
				err := a.Subscribe(cmd.Context(), func(ev types.LedgerEvent) {
					_ = printJSON(out, ev)
				})
				if err != nil {
					return err
				}
				<-cmd.Context().Done()
				return nil
			})
		},
	}
}
