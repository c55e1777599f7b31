package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/yungbote/tally-backend/internal/app"
)

func newTopCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "top",
		Short: "Print the leaderboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(a *app.App) error {
				rows, err := a.Services.Stats.TopContributors(cmd.Context(), limit)
				if err != nil {
					return err
				}
				for i, c := range rows {
					name := c.Name()
					if name == "" {
						name = c.ContributorID
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%3d  %-32s %d\n", i+1, name, c.TotalCount)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "Number of contributors to show")
	return cmd
}

func newRankCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rank <contributor>",
		Short: "Print a contributor's total, rank and share",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app.App) error {
				st, err := a.Services.Stats.ContributorStats(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), st)
			})
		},
	}
}

func newWindowCmd() *cobra.Command {
	var (
		since time.Duration
		limit int
	)
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarise counts in a trailing time window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			end := time.Now().UTC()
			return withApp(cmd, func(a *app.App) error {
				ws, err := a.Services.Stats.StatsForWindow(cmd.Context(), end.Add(-since), end, limit)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), ws)
			})
		},
	}
	cmd.Flags().DurationVar(&since, "since", 24*time.Hour, "Window length ending now")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum contributors listed (0 for all)")
	return cmd
}

func newRecentCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "recent",
		Short: "Print the newest ledger records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(a *app.App) error {
				recs, err := a.Services.Stats.Recent(cmd.Context(), limit)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), recs)
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 15, "Number of records")
	return cmd
}

func newAuditCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Print the newest admin audit entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(a *app.App) error {
				entries, err := a.Services.Stats.AuditLog(cmd.Context(), limit)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), entries)
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Number of entries")
	return cmd
}
