package main

import (
	"github.com/oriys/nimap/internal/logging"
	"github.com/oriys/nimap/internal/manifest"
	"github.com/oriys/nimap/internal/observability"
	"github.com/oriys/nimap/internal/output"
	"github.com/spf13/cobra"
)

type generateOptions struct {
	root        string
	output      string
	exclude     []string
	metricsFile string
	format      string
}

func addGenerateFlags(cmd *cobra.Command, opts *generateOptions) {
	cmd.Flags().StringVarP(&opts.root, "root", "r", "", "Directory to hash (default from config, \".\")")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Manifest file (default from config, sha-256-map.txt)")
	cmd.Flags().StringSliceVar(&opts.exclude, "exclude", nil, "Directory names never descended into (default .git,.svn)")
	cmd.Flags().StringVar(&opts.metricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile after the run")
	cmd.Flags().StringVar(&opts.format, "format", "", "Print a run summary to stdout (table, json, yaml)")
}

func generateCmd(a *app) *cobra.Command {
	opts := &generateOptions{}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write the ni manifest of a directory tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runGenerate(cmd, opts)
		},
	}
	addGenerateFlags(cmd, opts)
	return cmd
}

func (a *app) runGenerate(cmd *cobra.Command, opts *generateOptions) error {
	mc := a.cfg.Manifest
	if opts.root != "" {
		mc.Root = opts.root
	}
	if opts.output != "" {
		mc.Output = opts.output
	}
	if cmd.Flags().Changed("exclude") {
		mc.Exclude = opts.exclude
	}
	metricsFile := a.cfg.Metrics.Textfile
	if opts.metricsFile != "" {
		metricsFile = opts.metricsFile
	}

	var printer *output.Printer
	if opts.format != "" {
		f, err := output.ParseFormat(opts.format)
		if err != nil {
			return err
		}
		printer = output.NewPrinter(f)
		printer.SetWriter(a.stdout)
	}

	ctx := observability.ContextFromEnv(cmd.Context())
	sum, err := manifest.Generate(ctx, manifest.Options{
		Root:    mc.Root,
		Output:  mc.Output,
		Exclude: mc.Exclude,
	})

	entry := &logging.RunLog{
		RunID:      sum.RunID,
		Command:    "generate",
		Root:       mc.Root,
		Manifest:   mc.Output,
		Files:      sum.Files,
		Bytes:      sum.Bytes,
		Pruned:     sum.Pruned,
		DurationMs: sum.Duration.Milliseconds(),
		Success:    err == nil,
	}
	if err != nil {
		entry.Error = err.Error()
	}
	if lerr := a.runLog.Log(entry); lerr != nil {
		logging.Op().Warn("write run log failed", "error", lerr)
	}
	a.writeMetrics(metricsFile)

	if err != nil {
		return err
	}
	if printer != nil {
		return printer.PrintSummary(mc.Output, sum)
	}
	return nil
}
