package main

import (
	"github.com/aretw0/cardflow/internal/cli"
	"github.com/aretw0/cardflow/pkg/flowfile"
	"github.com/spf13/cobra"
)

var newCmd = &cobra.Command{
	Use:   "new <file-or-id>",
	Short: "Create a starter flow",
	Long:  `Writes a welcome message linked to an end card, either to a new flow file or to the store.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if flowfile.IsFlowFile(args[0]) {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return newApp(cmd, newLogger(cmd, cfg)).CreateFile(args[0])
		}
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.close()
		return e.app.CreateStored(cmd.Context(), sessions(e), args[0])
	},
}

var typesCmd = &cobra.Command{
	Use:   "types",
	Short: "List the card types that can be added",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		(&cli.App{Out: cmd.OutOrStdout()}).Types()
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the flows in the store",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.close()
		return e.app.List(cmd.Context(), sessions(e))
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file> <id>",
	Short: "Copy a flow file into the store",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.close()
		return e.app.Import(cmd.Context(), sessions(e), args[0], args[1])
	},
}

var exportCmd = &cobra.Command{
	Use:   "export <id> <file>",
	Short: "Write a stored flow to a flow file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.close()
		return e.app.Export(cmd.Context(), sessions(e), args[0], args[1])
	},
}

func init() {
	rootCmd.AddCommand(newCmd, typesCmd, listCmd, importCmd, exportCmd)
}
