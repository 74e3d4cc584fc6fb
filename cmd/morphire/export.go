package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"morphire/internal/api"
	"morphire/internal/config"
	"morphire/internal/format"
)

func newExportCmd(cfg *config.Config, opts *globalOptions) *cobra.Command {
	var outputPath, formatName string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export your whole document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.json && cmd.Flags().Changed("format") && formatName != "json" {
				return fmt.Errorf("--json conflicts with --format %s", formatName)
			}
			formatter, err := format.ForName(formatName)
			if err != nil {
				return err
			}
			return withClient(cfg, opts, func(client *api.Client) error {
				doc, err := client.GetDocument(cmd.Context())
				if err != nil {
					return err
				}

				var w io.Writer = stdout
				if outputPath != "" {
					f, err := os.OpenFile(outputPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
					if err != nil {
						return err
					}
					defer f.Close()
					w = f
				}
				return formatter.Write(w, doc)
			})
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVarP(&formatName, "format", "f", "json", "output format: json or yaml")
	return cmd
}
