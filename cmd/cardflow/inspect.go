package main

import (
	"context"

	"github.com/aretw0/cardflow/internal/cli"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph <flow>",
	Short: "Export the flow as a Mermaid diagram",
	Long:  `Outputs a Mermaid flowchart of the cards and their links. Links to missing cards are drawn dashed.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		focus, _ := cmd.Flags().GetString("focus")
		issues, _ := cmd.Flags().GetBool("issues")
		return withTarget(cmd, args[0], func(ctx context.Context, app *cli.App, t cli.Target) error {
			return app.Graph(ctx, t, focus, issues)
		})
	},
}

var edgesCmd = &cobra.Command{
	Use:   "edges <flow> <card>",
	Short: "List the cards a card links to and the cards linking to it",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTarget(cmd, args[0], func(ctx context.Context, app *cli.App, t cli.Target) error {
			return app.Edges(ctx, t, args[1])
		})
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <flow> [query]",
	Short: "Find cards whose id, name or content contains the query",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var query string
		if len(args) > 1 {
			query = args[1]
		}
		return withTarget(cmd, args[0], func(ctx context.Context, app *cli.App, t cli.Target) error {
			return app.Search(ctx, t, query)
		})
	},
}

func init() {
	rootCmd.AddCommand(graphCmd, edgesCmd, searchCmd)
	graphCmd.Flags().String("focus", "", "Highlight the links of this card")
	graphCmd.Flags().Bool("issues", false, "Highlight cards with issues")
}
