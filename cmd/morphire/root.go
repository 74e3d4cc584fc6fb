package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"morphire/internal/config"
)

const identityEnvKey = "MORPHIRE_IDENTITY"

// globalOptions carries the persistent flags shared by every command.
type globalOptions struct {
	json     bool
	identity string
	logLevel string
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:           "morphire",
		Short:         "Morphire is a per-identity job board and ledger for agents",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			warning, err := configureLoggerForCLI(opts.logLevel, cfg.LogLevel)
			if err != nil {
				return err
			}
			if warning != "" {
				fmt.Fprintln(os.Stderr, warning)
			}
			return nil
		},
	}

	cmd.Version = version
	cmd.PersistentFlags().BoolVar(&opts.json, "json", false, "output JSON")
	cmd.PersistentFlags().StringVar(&opts.identity, "identity", os.Getenv(identityEnvKey), "caller wallet identity (env "+identityEnvKey+")")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	cmd.AddCommand(
		newSrvCmd(cfg),
		newInfoCmd(cfg, opts),
		newJobCmd(cfg, opts),
		newProfileCmd(cfg, opts),
		newSummaryCmd(cfg, opts),
		newIdentityCmd(cfg, opts),
		newExportCmd(cfg, opts),
		newConfigCmd(cfg),
		newAccessCmd(),
		newMigrateCmd(cfg, opts),
	)

	return cmd
}
