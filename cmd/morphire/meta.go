package main

import (
	"github.com/spf13/cobra"

	"morphire/internal/api"
	"morphire/internal/config"
)

func newSummaryCmd(cfg *config.Config, opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show job counts, earnings and reputation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, opts, func(client *api.Client) error {
				summary, err := client.GetSummary(cmd.Context())
				if err != nil {
					return err
				}
				return writeOutput(opts, summary, func() error { return writeSummary(summary) })
			})
		},
	}
}

func newInfoCmd(cfg *config.Config, opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show server backends",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cleanup, err := ensureServer(cfg)
			if err != nil {
				return err
			}
			if cleanup != nil {
				defer cleanup()
			}
			info, err := api.NewClient(cfg.APIURL, "").GetInfo(cmd.Context())
			if err != nil {
				return err
			}
			return writeOutput(opts, info, func() error {
				return writePlain("version: %s\nstore: %s\ncontent_address: %s\nwebhook: %t\naccess_gate: %t\n",
					info.DocumentVersion, info.StoreBackend, info.ContentAddress, info.Webhook, info.AccessGate)
			})
		},
	}
}

func newIdentityCmd(cfg *config.Config, opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "identity",
		Short: "Inspect identity storage",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "key",
		Short: "Show the storage key derived from your identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, opts, func(client *api.Client) error {
				key, err := client.IdentityKey(cmd.Context())
				if err != nil {
					return err
				}
				return writeOutput(opts, key, func() error {
					return writePlain("storage_key: %s\nfile_name: %s\n", key.StorageKey, key.FileName)
				})
			})
		},
	})
	return cmd
}
