package main

import (
	"context"

	"github.com/aretw0/cardflow/internal/cli"
	"github.com/spf13/cobra"
)

var renameCmd = &cobra.Command{
	Use:   "rename <flow> <old-id> <new-id>",
	Short: "Repoint every link to a card id at another id",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTarget(cmd, args[0], func(ctx context.Context, app *cli.App, t cli.Target) error {
			return app.Rename(ctx, t, args[1], args[2])
		})
	},
}

var addCmd = &cobra.Command{
	Use:   "add <flow> <type> [name]",
	Short: "Append a card with default content and print its id",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		var name string
		if len(args) > 2 {
			name = args[2]
		}
		return withTarget(cmd, args[0], func(ctx context.Context, app *cli.App, t cli.Target) error {
			return app.AddCard(ctx, t, args[1], name)
		})
	},
}

var removeCmd = &cobra.Command{
	Use:   "remove <flow> <card>",
	Short: "Delete a card; links to it are left for validate to report",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTarget(cmd, args[0], func(ctx context.Context, app *cli.App, t cli.Target) error {
			return app.RemoveCard(ctx, t, args[1])
		})
	},
}

var linkCmd = &cobra.Command{
	Use:   "link <flow> <card> <destination>",
	Short: "Point a link field of a card at another card",
	Long:  `Sets a reference field (next_id by default) and prints the issues left on the card.`,
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		field, _ := cmd.Flags().GetString("field")
		return withTarget(cmd, args[0], func(ctx context.Context, app *cli.App, t cli.Target) error {
			return app.Link(ctx, t, args[1], field, args[2])
		})
	},
}

var setCmd = &cobra.Command{
	Use:   "set <flow> <card> <field> <value>",
	Short: "Change a content field of a card",
	Long:  `Stores the value as a string, or decodes it as JSON with --json, and prints the issues left on the card.`,
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		return withTarget(cmd, args[0], func(ctx context.Context, app *cli.App, t cli.Target) error {
			return app.SetField(ctx, t, args[1], args[2], args[3], asJSON)
		})
	},
}

func init() {
	rootCmd.AddCommand(renameCmd, addCmd, removeCmd, linkCmd, setCmd)
	linkCmd.Flags().String("field", "next_id", "Reference field to set")
	setCmd.Flags().Bool("json", false, "Decode the value as JSON")
}
