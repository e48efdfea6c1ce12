package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"tolk/internal/config"
	"tolk/internal/translate"
)

// storeAPIKey is replaced in tests so the system keyring is never touched.
var storeAPIKey = translate.StoreAPIKey

func newKeyringCommand() *cobra.Command {
	keyringCmd := &cobra.Command{
		Use:         "keyring",
		Short:       "Manage API keys in the system keyring",
		Annotations: map[string]string{"skipConfigLoad": "true"},
	}

	keyringCmd.AddCommand(&cobra.Command{
		Use:   "set [backend]",
		Short: "Store an API key read from stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			backend := config.BackendLLM
			if len(args) == 1 {
				backend = strings.ToLower(strings.TrimSpace(args[0]))
			}
			reader := bufio.NewReader(cmd.InOrStdin())
			secret, err := reader.ReadString('\n')
			if err != nil && secret == "" {
				return fmt.Errorf("read api key: %w", err)
			}
			secret = strings.TrimSpace(secret)
			if secret == "" {
				return errors.New("api key is empty")
			}
			if err := storeAPIKey(backend, secret); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stored API key for %s in the system keyring\n", backend)
			fmt.Fprintln(cmd.OutOrStdout(), "Set keyring = true under [model] to use it.")
			return nil
		},
	})
	return keyringCmd
}
