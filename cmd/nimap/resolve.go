package main

import (
	"fmt"

	"github.com/oriys/nimap/internal/manifest"
	"github.com/oriys/nimap/internal/nihash"
	"github.com/oriys/nimap/internal/output"
	"github.com/spf13/cobra"
)

func resolveCmd(a *app) *cobra.Command {
	var (
		manifestPath string
		format       string
	)

	cmd := &cobra.Command{
		Use:   "resolve <key>...",
		Short: "Look up the paths holding content",
		Long: "Resolve each key to the manifest paths holding that content. A key may be " +
			"a bare identifier, an ni URI, a /.well-known/ni path, a CID or a multibase multihash.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := output.ParseFormat(format)
			if err != nil {
				return err
			}
			if manifestPath == "" {
				manifestPath = a.cfg.Manifest.Output
			}
			ix, err := manifest.LoadIndex(manifestPath)
			if err != nil {
				return err
			}

			rows := make([]output.Resolution, 0, len(args))
			unresolved := 0
			for _, key := range args {
				row := output.Resolution{Key: key}
				id, err := nihash.Resolve(key)
				if err != nil {
					row.Error = err.Error()
					unresolved++
				} else {
					row.ID = id
					row.Paths = ix.Paths(id)
					if len(row.Paths) == 0 {
						unresolved++
					}
				}
				rows = append(rows, row)
			}

			printer := output.NewPrinter(f)
			printer.SetWriter(a.stdout)
			if err := printer.PrintResolutions(rows); err != nil {
				return err
			}
			if unresolved > 0 {
				return fmt.Errorf("%d of %d keys not resolved", unresolved, len(args))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&manifestPath, "manifest", "m", "", "Manifest to search (default sha-256-map.txt)")
	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format (table, json, yaml)")
	return cmd
}
