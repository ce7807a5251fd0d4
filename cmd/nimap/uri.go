package main

import (
	"fmt"
	"os"

	"github.com/oriys/nimap/internal/nihash"
	"github.com/oriys/nimap/internal/output"
	"github.com/spf13/cobra"
)

func uriCmd(a *app) *cobra.Command {
	var (
		authority string
		format    string
	)

	cmd := &cobra.Command{
		Use:   "uri <file>...",
		Short: "Print the ni URI, well-known path and CID of files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := output.ParseFormat(format)
			if err != nil {
				return err
			}
			if authority == "" {
				authority = a.cfg.Server.Authority
			}

			rows := make([]output.URIInfo, 0, len(args))
			for _, name := range args {
				row, err := describeFile(name, authority)
				if err != nil {
					return err
				}
				rows = append(rows, row)
			}

			printer := output.NewPrinter(f)
			printer.SetWriter(a.stdout)
			return printer.PrintURIs(rows)
		},
	}

	cmd.Flags().StringVar(&authority, "authority", "", "Authority (host) to put in the ni URI")
	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format (table, json, yaml)")
	return cmd
}

func describeFile(name, authority string) (output.URIInfo, error) {
	content, err := os.ReadFile(name)
	if err != nil {
		return output.URIInfo{}, fmt.Errorf("read %s: %w", name, err)
	}
	id := nihash.Encode(content)
	c, err := nihash.CID(id)
	if err != nil {
		return output.URIInfo{}, err
	}
	digest, err := nihash.ContentDigest(id)
	if err != nil {
		return output.URIInfo{}, err
	}
	return output.URIInfo{
		File:      name,
		ID:        id,
		URI:       nihash.FormatURI(authority, id),
		WellKnown: nihash.WellKnownPath(id),
		CID:       c.String(),
		Digest:    digest,
	}, nil
}
