package main

import (
	"errors"
	"fmt"

	"github.com/oriys/nimap/internal/logging"
	"github.com/oriys/nimap/internal/manifest"
	"github.com/oriys/nimap/internal/observability"
	"github.com/oriys/nimap/internal/output"
	"github.com/spf13/cobra"
)

// errUnclean is returned after the report has been printed.
var errUnclean = errors.New("manifest does not match the tree")

func verifyCmd(a *app) *cobra.Command {
	var (
		root         string
		manifestPath string
		exclude      []string
		format       string
	)

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check a directory tree against its manifest",
		Long: "Re-hash every file listed in the manifest and report modified, missing " +
			"and untracked files. Exits non-zero unless every file matches.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := output.ParseFormat(format)
			if err != nil {
				return err
			}
			mc := a.cfg.Manifest
			if root != "" {
				mc.Root = root
			}
			if manifestPath != "" {
				mc.Output = manifestPath
			}
			if cmd.Flags().Changed("exclude") {
				mc.Exclude = exclude
			}

			entries, err := manifest.ReadFile(mc.Output)
			if err != nil {
				return err
			}

			ctx := observability.ContextFromEnv(cmd.Context())
			rep, err := manifest.Verify(ctx, mc.Root, entries, manifest.VerifyOptions{
				Exclude:  mc.Exclude,
				Manifest: mc.Output,
			})

			entry := &logging.RunLog{
				Command:  "verify",
				Root:     mc.Root,
				Manifest: mc.Output,
				Files:    len(entries),
				Success:  err == nil && rep.Clean(),
			}
			switch {
			case err != nil:
				entry.Error = err.Error()
			case !rep.Clean():
				entry.Error = fmt.Sprintf("%d of %d results need attention",
					len(rep.Results)-rep.Counts[manifest.StatusOK], len(rep.Results))
			}
			if lerr := a.runLog.Log(entry); lerr != nil {
				logging.Op().Warn("write run log failed", "error", lerr)
			}
			a.writeMetrics(a.cfg.Metrics.Textfile)
			if err != nil {
				return err
			}

			printer := output.NewPrinter(f)
			printer.SetWriter(a.stdout)
			if err := printer.PrintVerifyReport(rep); err != nil {
				return err
			}
			if !rep.Clean() {
				return errUnclean
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&root, "root", "r", "", "Directory the manifest describes")
	cmd.Flags().StringVarP(&manifestPath, "manifest", "m", "", "Manifest to check (default sha-256-map.txt)")
	cmd.Flags().StringSliceVar(&exclude, "exclude", nil, "Directory names ignored when looking for untracked files")
	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format (table, json, yaml)")
	return cmd
}
