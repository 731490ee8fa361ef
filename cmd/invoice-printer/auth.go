package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mikey/invoice-printer/internal/config"
	"github.com/mikey/invoice-printer/internal/factory"
)

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize Gmail access and store the OAuth token",
		Args:  cobra.NoArgs,
		RunE:  runGmailAuth,
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "imap",
		Short: "Store the IMAP password in the system keyring",
		Args:  cobra.NoArgs,
		RunE:  runIMAPAuth,
	})
	return cmd
}

func readLine(cmd *cobra.Command) (string, error) {
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func runGmailAuth(cmd *cobra.Command, _ []string) error {
	container, err := buildContainer(cmd)
	if err != nil {
		return err
	}

	return container.Invoke(func(logger *zap.Logger, creds *factory.CredentialFactory) error {
		defer logger.Sync()

		auth, err := creds.CreateAuthorizer()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Authorize this app by visiting this url:\n%s\n", auth.AuthCodeURL(uuid.NewString()))
		fmt.Fprint(out, "Enter the code from that page here: ")
		code, err := readLine(cmd)
		if err != nil {
			return err
		}
		if code == "" {
			return fmt.Errorf("no authorization code entered")
		}

		if _, err := auth.Exchange(cmd.Context(), code); err != nil {
			return err
		}
		fmt.Fprintln(out, "Token stored")
		return nil
	})
}

func runIMAPAuth(cmd *cobra.Command, _ []string) error {
	container, err := buildContainer(cmd)
	if err != nil {
		return err
	}

	return container.Invoke(func(cfg *config.Config, logger *zap.Logger, creds *factory.CredentialFactory) error {
		defer logger.Sync()

		secrets, err := creds.CreateSecrets()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "IMAP password for %s: ", cfg.GetIMAP().Username)
		password, err := readLine(cmd)
		if err != nil {
			return err
		}
		if password == "" {
			return fmt.Errorf("empty password")
		}

		if err := secrets.Set(cfg.GetCredentials().IMAPPasswordKey, password); err != nil {
			return err
		}
		fmt.Fprintln(out, "Password stored")
		return nil
	})
}
