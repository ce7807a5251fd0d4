package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/oriys/nimap/internal/config"
	"github.com/oriys/nimap/internal/logging"
	"github.com/oriys/nimap/internal/metrics"
	"github.com/oriys/nimap/internal/observability"
	"github.com/spf13/cobra"
)

// app carries the state shared by all subcommands of one invocation.
type app struct {
	configFile string
	logLevel   string
	logFormat  string

	cfg    *config.Config
	runLog *logging.Logger
	stdout io.Writer
	stderr io.Writer
}

func newApp() *app {
	return &app{stdout: os.Stdout, stderr: os.Stderr}
}

func main() {
	a := newApp()
	err := newRootCmd(a).Execute()
	a.close()
	if err != nil {
		fmt.Fprintln(os.Stderr, "nimap:", err)
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	opts := &generateOptions{}

	rootCmd := &cobra.Command{
		Use:   "nimap",
		Short: "Build ni manifests of directory trees",
		Long: "nimap hashes every file under a directory and writes sha-256-map.txt, " +
			"mapping RFC 6920 ni identifiers to file paths.\n" +
			"Run without a subcommand it is the same as 'nimap generate'.",
		Version:       observability.Version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runGenerate(cmd, opts)
		},
	}
	addGenerateFlags(rootCmd, opts)

	rootCmd.PersistentFlags().StringVarP(&a.configFile, "config", "c", "", "Config file (YAML)")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&a.logFormat, "log-format", "", "Log format (text, json)")

	rootCmd.SetOut(a.stdout)
	rootCmd.SetErr(a.stderr)

	rootCmd.AddCommand(
		generateCmd(a),
		verifyCmd(a),
		resolveCmd(a),
		uriCmd(a),
		serveCmd(a),
	)
	return rootCmd
}

// setup loads the configuration and brings up logging, tracing and metrics.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configFile)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Log.Format = a.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	logging.InitStructuredTo(a.stderr, cfg.Log.Format, cfg.Log.Level)

	var console io.Writer = a.stderr
	if logging.Level() > slog.LevelInfo {
		console = nil
	}
	a.runLog = logging.NewLogger(console)
	if cfg.Log.RunLog != "" {
		if err := a.runLog.SetOutput(cfg.Log.RunLog); err != nil {
			return fmt.Errorf("open run log: %w", err)
		}
	}

	if err := observability.Init(cmd.Context(), cfg.Tracing); err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}

	metrics.InitPrometheus(cfg.Metrics.Namespace, nil, cmd.Name() == "serve")
	return nil
}

func (a *app) close() {
	if a.runLog != nil {
		a.runLog.Close()
	}
	if err := observability.Shutdown(context.Background()); err != nil {
		logging.Op().Warn("tracing shutdown failed", "error", err)
	}
}

// writeMetrics dumps the metrics to the configured textfile, if any.
func (a *app) writeMetrics(path string) {
	if path == "" {
		return
	}
	if err := metrics.WriteTextfile(path); err != nil {
		logging.Op().Warn("write metrics textfile failed", "path", path, "error", err)
	}
}
