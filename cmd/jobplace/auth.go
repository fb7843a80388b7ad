package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/zalando/go-keyring"

	"github.com/feiskyer/jobplace"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage API keys stored in the OS keychain",
}

var authSetCmd = &cobra.Command{
	Use:   "set NAME",
	Short: "Store a key (NAME is openai or gplaces); the value is read from stdin",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		account, err := jobplace.KeyringAccount(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Enter %s key: ", account)
		value, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && value == "" {
			return fmt.Errorf("read key: %w", err)
		}
		if err := jobplace.SetSecret(account, strings.TrimSpace(value)); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "stored %s key in keychain\n", account)
		return nil
	},
}

var authDeleteCmd = &cobra.Command{
	Use:   "delete NAME",
	Short: "Remove a stored key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		account, err := jobplace.KeyringAccount(args[0])
		if err != nil {
			return err
		}
		if err := jobplace.DeleteSecret(account); err != nil {
			if errors.Is(err, keyring.ErrNotFound) {
				return fmt.Errorf("no %s key stored", account)
			}
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %s key\n", account)
		return nil
	},
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show where each key comes from",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := jobplace.LoadDotEnv(envFile); err != nil {
			return err
		}
		for _, k := range []struct{ env, account string }{
			{jobplace.EnvOpenAIKey, jobplace.KeyringOpenAI},
			{jobplace.EnvPlacesKey, jobplace.KeyringPlaces},
		} {
			source := "missing"
			if os.Getenv(k.env) != "" {
				source = "environment"
			} else if _, err := jobplace.GetSecret(k.account); err == nil {
				source = "keychain"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%-16s %s\n", k.env, source)
		}
		return nil
	},
}

func init() {
	authCmd.AddCommand(authSetCmd, authDeleteCmd, authStatusCmd)
	rootCmd.AddCommand(authCmd)
}
