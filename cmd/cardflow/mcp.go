package main

import (
	"log"
	"os"

	"github.com/aretw0/cardflow/internal/cli"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes the stored flows as MCP tools, so agents can list issues,
follow links and relink cards.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP when --sse is given an address.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("sse")

		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.close()

		if addr == "" {
			// Ensure logs don't corrupt JSON-RPC on Stdout
			log.SetOutput(os.Stderr)
		}

		sc := cli.NewSignalContext(cmd.Context())
		defer sc.Cancel()

		e.logger.Info("starting MCP server", "sse", addr != "")
		return cli.ServeMCP(sc, e.backend, e.logger, addr)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().String("sse", "", "Serve over SSE on this address instead of stdio")
}
