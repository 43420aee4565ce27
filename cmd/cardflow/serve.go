package main

import (
	"os"

	"github.com/aretw0/cardflow/internal/cli"
	"github.com/aretw0/cardflow/internal/presentation/tui"
	"github.com/aretw0/cardflow/pkg/observability"
	"github.com/aretw0/cardflow/pkg/session"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP editing API",
	Long: `Exposes the stored flows over a JSON API, with change events over SSE
and Prometheus metrics on /metrics.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.close()

		if tui.IsTerminal(os.Stdout) {
			tui.PrintBanner(cmd.OutOrStdout())
		}

		sc := cli.NewSignalContext(cmd.Context())
		defer sc.Cancel()

		if err := cli.Serve(sc, e.cfg, e.backend, e.logger); err != nil {
			return err
		}
		if sig := sc.Signal(); sig != nil {
			e.logger.Info("server stopped", "signal", sig.String())
		}
		return nil
	},
}

// sessions builds a session manager over the opened store.
func sessions(e *env) *session.Manager {
	return cli.NewSessions(e.backend, e.logger, observability.LoggingHooks(e.logger))
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Address to listen on (default :8080)")
}
