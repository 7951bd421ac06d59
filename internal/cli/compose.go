package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func addCompose(topLevel *cobra.Command, opts *Options) {
	var funnelID, file string

	cmd := &cobra.Command{
		Use:   "compose",
		Short: "Build or edit a funnel from a script of timeline commands",
		Long: `Reads one command per line from --file or stdin:

  filter text|sender|category <value>   filter reset
  append <id>          insert <id> <before-id>
  remove <id>          move <id> <position>
  drag <id> [target]   over <target>   drop <target>   cancel
  clear                pool            show
  name <text>          description <text>   color <hex>
  submit

A drop target is an item id, "timeline" for the empty timeline, or "-" for outside.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var in io.Reader = cmd.InOrStdin()
			if file != "" {
				f, err := os.Open(file)
				if err != nil {
					return fmt.Errorf("failed to open script: %w", err)
				}
				defer f.Close()
				in = f
			}

			return opts.run(cmd.Context(), func(ctx context.Context, e *env) error {
				c, funnel, err := e.composer(ctx, funnelID)
				if err != nil {
					return err
				}

				script := &Script{
					Composer: c,
					Funnels:  e.funnels,
					Printer:  &Printer{Out: cmd.OutOrStdout()},
					Logger:   e.logger,
					Funnel:   funnel,
				}
				return script.Run(ctx, in)
			})
		},
	}
	cmd.Flags().StringVar(&funnelID, "funnel", "", "id of a saved funnel to edit")
	cmd.Flags().StringVarP(&file, "file", "f", "", "script file (stdin when empty)")
	topLevel.AddCommand(cmd)
}
