package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/cardflow/internal/cli"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <flow>",
	Short: "Report broken links, empty content and unreachable cards",
	Long: `Builds the flow graph and lists the issues of every card.
With --entry, cards that cannot be reached from the entry card are listed too.
With --watch, a flow file is validated again every time it is saved.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		entry, _ := cmd.Flags().GetString("entry")
		watch, _ := cmd.Flags().GetBool("watch")

		return withTarget(cmd, args[0], func(ctx context.Context, app *cli.App, target cli.Target) error {
			if !watch {
				return app.Validate(ctx, target, entry)
			}
			file, ok := target.(*cli.FileTarget)
			if !ok {
				return fmt.Errorf("--watch needs a flow file, got %q", args[0])
			}

			sc := cli.NewSignalContext(ctx)
			defer sc.Cancel()

			return app.Watch(sc, file.Path, func() {
				fmt.Fprintf(cmd.OutOrStdout(), "\n--- %s ---\n", file.Path)
				if err := app.Validate(sc, target, entry); err != nil && !errors.Is(err, cli.ErrIssuesFound) {
					fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
				}
			})
		})
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().String("entry", "", "Entry card id for the reachability check")
	validateCmd.Flags().Bool("watch", false, "Validate again whenever the flow file changes")
}
