package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/yungbote/tally-backend/internal/app"
	"github.com/yungbote/tally-backend/internal/services"
)

func newCountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Print the current count and goal progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(a *app.App) error {
				p, err := a.Services.Stats.Progress(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), p)
			})
		},
	}
}

func newAttemptCmd() *cobra.Command {
	var (
		contributor string
		name        string
		ref         string
		evidence    bool
	)
	cmd := &cobra.Command{
		Use:   "attempt <number>",
		Short: "Submit a counting attempt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := parseNumber(args[0])
			if err != nil {
				return err
			}
			in := services.AttemptInput{
				Number:        n,
				ContributorID: contributor,
				HasEvidence:   evidence,
			}
			if name != "" {
				in.ContributorName = &name
			}
			if ref != "" {
				in.ExternalRef = &ref
			}
			return withApp(cmd, func(a *app.App) error {
				res, err := a.Services.Counter.Attempt(cmd.Context(), in)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			})
		},
	}
	cmd.Flags().StringVar(&contributor, "contributor", "", "Contributor id")
	cmd.Flags().StringVar(&name, "name", "", "Contributor display name")
	cmd.Flags().StringVar(&ref, "ref", "", "External reference used for idempotency")
	cmd.Flags().BoolVar(&evidence, "evidence", false, "Whether the message carried proof of work")
	_ = cmd.MarkFlagRequired("contributor")
	return cmd
}

func parseNumber(s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return n, nil
}
