package main

import (
	"github.com/spf13/cobra"

	"github.com/yungbote/tally-backend/internal/app"
	"github.com/yungbote/tally-backend/internal/services"
)

type seedFlags struct {
	contributor string
	name        string
}

func (f *seedFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.contributor, "contributor", "", "Contributor credited with the seed record")
	cmd.Flags().StringVar(&f.name, "name", "", "Display name for the contributor")
}

func (f *seedFlags) request(n int64) services.SeedRequest {
	req := services.SeedRequest{Number: n, ContributorID: f.contributor, Actor: actor}
	if f.name != "" {
		req.ContributorName = &f.name
	}
	return req
}

func newBootstrapCmd() *cobra.Command {
	var f seedFlags
	cmd := &cobra.Command{
		Use:   "bootstrap <number>",
		Short: "Seed an empty ledger at a starting number",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := parseNumber(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, func(a *app.App) error {
				rec, err := a.Services.Counter.Bootstrap(cmd.Context(), f.request(n))
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), rec)
			})
		},
	}
	f.bind(cmd)
	return cmd
}

func newForceSetCmd() *cobra.Command {
	var f seedFlags
	cmd := &cobra.Command{
		Use:   "force-set <number>",
		Short: "Move the count to a number, discarding records above it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := parseNumber(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, func(a *app.App) error {
				res, err := a.Services.Counter.ForceSet(cmd.Context(), f.request(n))
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), map[string]any{
					"record":  res.Record,
					"removed": res.Removed,
					"rebuilt": res.Rebuilt,
				})
			})
		},
	}
	f.bind(cmd)
	return cmd
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <number>",
		Short: "Remove the record holding a sequence number",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := parseNumber(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, func(a *app.App) error {
				rec, err := a.Services.Counter.DeleteBySeq(cmd.Context(), n, actor)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), rec)
			})
		},
	}
}

func newDeleteRefCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-ref <ref>",
		Short: "Remove the record created from an external reference",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app.App) error {
				rec, err := a.Services.Counter.DeleteByRef(cmd.Context(), args[0], actor)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), rec)
			})
		},
	}
}

func newSetTotalCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-total <contributor> <total>",
		Short: "Overwrite a contributor's total, by id or display name",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			total, err := parseNumber(args[1])
			if err != nil {
				return err
			}
			return withApp(cmd, func(a *app.App) error {
				c, err := a.Services.Counter.SetContributorTotal(cmd.Context(), args[0], total, actor)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), c)
			})
		},
	}
}

func newRecalcCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recalc",
		Short: "Rebuild every contributor total from the ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(a *app.App) error {
				res, err := a.Services.Counter.RecalculateAll(cmd.Context(), actor)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), map[string]any{
					"rebuilt": res.Rebuilt,
					"pruned":  res.Pruned,
				})
			})
		},
	}
}
