package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/mikey/newsletter-funnels/internal/core"
)

func addPool(topLevel *cobra.Command, opts *Options) {
	var funnelID string
	criteria := core.FilterCriteria{}

	cmd := &cobra.Command{
		Use:   "pool",
		Short: "List captured emails that can still be added to a funnel",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.run(cmd.Context(), func(ctx context.Context, e *env) error {
				c, _, err := e.composer(ctx, funnelID)
				if err != nil {
					return err
				}
				c.SetFilterCriteria(criteria)

				p := &Printer{Out: cmd.OutOrStdout()}
				p.Pool(c.State().AvailableItems)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&criteria.Text, "search", "", "match subject or sender, ignoring case")
	cmd.Flags().StringVar(&criteria.SenderEmail, "sender", core.FilterAll, "only emails from this sender address")
	cmd.Flags().StringVar(&criteria.Category, "category", core.FilterAll, "only emails in this category")
	cmd.Flags().StringVar(&funnelID, "funnel", "", "exclude emails already on this funnel")
	topLevel.AddCommand(cmd)
}

func addSenders(topLevel *cobra.Command, opts *Options) {
	topLevel.AddCommand(&cobra.Command{
		Use:   "senders",
		Short: "List the senders present in the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.run(cmd.Context(), func(ctx context.Context, e *env) error {
				items, err := e.catalog.ListItems(ctx)
				if err != nil {
					return err
				}
				(&Printer{Out: cmd.OutOrStdout()}).Senders(core.UniqueSenders(items))
				return nil
			})
		},
	})
}

func addCategories(topLevel *cobra.Command, opts *Options) {
	topLevel.AddCommand(&cobra.Command{
		Use:   "categories",
		Short: "List the categories present in the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.run(cmd.Context(), func(ctx context.Context, e *env) error {
				items, err := e.catalog.ListItems(ctx)
				if err != nil {
					return err
				}
				(&Printer{Out: cmd.OutOrStdout()}).Categories(core.Categories(items))
				return nil
			})
		},
	})
}
