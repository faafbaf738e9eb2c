package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/swiss-ai/dsl25-7-center-bot/internal/adapters/driving/oauth"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage OAuth credentials",
	Long: `Authorize centerbot against external providers.

Examples:
  # Run the Google Drive consent flow with stored credentials
  centerbot auth gdrive

  # Provide the OAuth app credentials inline
  centerbot auth gdrive --client-id "xxx" --client-secret "yyy"`,
}

var authGDriveCmd = &cobra.Command{
	Use:   "gdrive",
	Short: "Authorize Google Drive access",
	Long: `Run the Google Drive OAuth consent flow.

Opens a browser window for Google's consent screen and stores the
resulting refresh token in the configuration file. Requires an OAuth
client ID and secret from the Google Cloud console; pass them via flags
or configure them in the [gdrive] section beforehand.`,
	RunE: runAuthGDrive,
}

var (
	authClientID     string
	authClientSecret string
)

// Swappable in tests.
var authorizeGDrive = oauth.AuthorizeGDrive

func init() {
	authGDriveCmd.Flags().StringVar(
		&authClientID, "client-id", "", "OAuth client ID (defaults to the configured value)")
	authGDriveCmd.Flags().StringVar(
		&authClientSecret, "client-secret", "", "OAuth client secret (defaults to the configured value)")

	authCmd.AddCommand(authGDriveCmd)
	rootCmd.AddCommand(authCmd)
}

func runAuthGDrive(cmd *cobra.Command, _ []string) error {
	if credentialStore == nil {
		return errors.New("credential store not configured")
	}

	clientID, clientSecret := authClientID, authClientSecret
	if clientID == "" || clientSecret == "" {
		storedID, storedSecret := credentialStore.GDriveCredentials()
		if clientID == "" {
			clientID = storedID
		}
		if clientSecret == "" {
			clientSecret = storedSecret
		}
	}
	if clientID == "" || clientSecret == "" {
		return errors.New("no Google OAuth credentials configured, pass --client-id and --client-secret")
	}

	openURL := func(url string) error {
		cmd.Println("Opening browser for Google consent...")
		if err := oauth.OpenBrowser(url); err != nil {
			cmd.Printf("Could not open a browser. Visit this URL to authorize:\n\n  %s\n\n", url)
		}
		return nil
	}

	result, err := authorizeGDrive(context.Background(), clientID, clientSecret, openURL)
	if err != nil {
		return fmt.Errorf("authorization failed: %w", err)
	}

	if err := credentialStore.SetGDriveCredentials(clientID, clientSecret, result.RefreshToken); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}

	cmd.Println("Google Drive authorized. Refresh token saved.")
	cmd.Println("Run 'centerbot sync' to index your Drive documents.")
	return nil
}
