package cli

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// New creates the funnel-builder root command
func New() *cobra.Command {
	opts := &Options{}

	cmd := &cobra.Command{
		Use:           "funnel-builder",
		Short:         "Arrange captured competitor newsletters into funnel timelines.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.SetOut(color.Output)
	opts.AddFlags(cmd.PersistentFlags())

	AddCommands(cmd, opts)
	return cmd
}

// AddCommands attaches every subcommand to topLevel
func AddCommands(topLevel *cobra.Command, opts *Options) {
	addPool(topLevel, opts)
	addSenders(topLevel, opts)
	addCategories(topLevel, opts)
	addFunnels(topLevel, opts)
	addShow(topLevel, opts)
	addCompose(topLevel, opts)
}
