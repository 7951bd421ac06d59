package cli

import (
	"context"

	"github.com/spf13/cobra"
)

func addFunnels(topLevel *cobra.Command, opts *Options) {
	topLevel.AddCommand(&cobra.Command{
		Use:   "funnels",
		Short: "List saved funnels, most recently updated first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.run(cmd.Context(), func(ctx context.Context, e *env) error {
				funnels, err := e.funnels.ListFunnels(ctx)
				if err != nil {
					return err
				}
				(&Printer{Out: cmd.OutOrStdout()}).Funnels(funnels)
				return nil
			})
		},
	})
}

func addShow(topLevel *cobra.Command, opts *Options) {
	topLevel.AddCommand(&cobra.Command{
		Use:   "show <funnel-id>",
		Short: "Show the timeline and cadence of a saved funnel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd.Context(), func(ctx context.Context, e *env) error {
				c, _, err := e.composer(ctx, args[0])
				if err != nil {
					return err
				}

				p := &Printer{Out: cmd.OutOrStdout()}
				p.Details(c.Details())
				p.Timeline(c.State())
				return nil
			})
		},
	})
}
