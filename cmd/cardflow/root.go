package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/cardflow/internal/cli"
	"github.com/aretw0/cardflow/internal/config"
	"github.com/aretw0/cardflow/internal/presentation/tui"
	"github.com/aretw0/cardflow/pkg/observability"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "cardflow",
	Short: "Cardflow edits and validates card based conversation flows",
	Long: `Cardflow loads flows of cards (messages, menus, webhooks, end cards),
reports broken links and empty content, and edits them from the terminal,
over HTTP or through MCP tools.

A flow argument is either a flow file (.json, .yaml, .yml) or the id of a
flow in the configured store.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "Config file (default ./"+config.DefaultFile+")")
	rootCmd.PersistentFlags().String("store", "", "Flow store: memory, file, redis, loam or sqlite")
	rootCmd.PersistentFlags().String("dir", "", "Directory of the file and loam stores")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
}

// loadConfig reads the config file and environment, then applies the
// persistent flags that were set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("store") {
		cfg.Store.Driver, _ = cmd.Flags().GetString("store")
	}
	if cmd.Flags().Changed("dir") {
		cfg.Store.Dir, _ = cmd.Flags().GetString("dir")
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel, _ = cmd.Flags().GetString("log-level")
	}
	if f := cmd.Flags().Lookup("addr"); f != nil && f.Changed {
		cfg.Addr = f.Value.String()
	}
	return cfg, cfg.Validate()
}

func newLogger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	debug, _ := cmd.Flags().GetBool("debug")
	return cli.CreateLogger(cfg.LogLevel, debug)
}

func newApp(cmd *cobra.Command, logger *slog.Logger) *cli.App {
	return &cli.App{
		Out:    cmd.OutOrStdout(),
		Logger: logger,
		Styled: tui.IsTerminal(os.Stdout),
	}
}

// env bundles what a command needs to reach the configured store.
type env struct {
	cfg     *config.Config
	logger  *slog.Logger
	app     *cli.App
	backend *cli.Backend
}

// setup loads the config and opens the store. The caller must call close.
func setup(cmd *cobra.Command) (*env, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger := newLogger(cmd, cfg)
	b, err := cli.OpenBackend(cmd.Context(), cfg.Store, logger)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, logger: logger, app: newApp(cmd, logger), backend: b}, nil
}

func (e *env) close() {
	if err := e.backend.Close(); err != nil {
		e.logger.Warn("failed to close store", "err", err)
	}
}

// withTarget resolves ref and runs fn against it. The store is opened only
// when ref is not a flow file.
func withTarget(cmd *cobra.Command, ref string, fn func(context.Context, *cli.App, cli.Target) error) error {
	if target, err := cli.ResolveTarget(ref, nil); err == nil {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger := newLogger(cmd, cfg)
		return fn(cmd.Context(), newApp(cmd, logger), target)
	}

	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	mgr := cli.NewSessions(e.backend, e.logger, observability.LoggingHooks(e.logger))
	target, err := cli.ResolveTarget(ref, mgr)
	if err != nil {
		return err
	}
	return fn(cmd.Context(), e.app, target)
}
