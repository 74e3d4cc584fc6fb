package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"morphire/internal/auth"
	"morphire/internal/config"
)

const accessHashKey = "access.passphrase_hash"

func newAccessCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "access",
		Short: "Manage the server access passphrase",
	}
	cmd.AddCommand(newAccessHashCmd())
	return cmd
}

func newAccessHashCmd() *cobra.Command {
	var save bool

	cmd := &cobra.Command{
		Use:   "hash [passphrase]",
		Short: "Hash a passphrase for access.passphrase_hash (reads stdin when omitted)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			passphrase, err := passphraseFromArgs(args)
			if err != nil {
				return err
			}
			hash, err := auth.HashPassphrase(passphrase)
			if err != nil {
				return err
			}
			if !save {
				return writePlain("%s\n", hash)
			}
			path, err := config.GlobalPath()
			if err != nil {
				return err
			}
			if err := config.SetKey(path, accessHashKey, hash); err != nil {
				return err
			}
			return writePlain("saved %s to %s\n", accessHashKey, path)
		},
	}

	cmd.Flags().BoolVar(&save, "save", false, "write the hash to the global config")
	return cmd
}

func passphraseFromArgs(args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read passphrase: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
