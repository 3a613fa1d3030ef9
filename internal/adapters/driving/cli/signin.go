package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var signinCmd = &cobra.Command{
	Use:   "signin [token]",
	Short: "Sign in with a sign-in token",
	Long: `Exchanges a sign-in token issued by your backend for a user session
and configures the SDK in token mode. The token is read from the argument
or a prompt.

An active API-key session is migrated. Signing in again as the same user
is a no-op; a token for a different user is rejected until 'vitalsync
cleanup' is run.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSignin,
}

func init() {
	f := signinCmd.Flags()
	f.IntVar(&configureBackfillDays, "backfill-days", 0, "days of history to backfill (max 90)")
	f.StringVar(&configurePushMode, "push-mode", "", "automatic or manual")
	f.BoolVar(&configureBackgroundDelivery, "background-delivery", false, "sync automatically when the health store changes")
	rootCmd.AddCommand(signinCmd)
}

func runSignin(cmd *cobra.Command, args []string) error {
	if err := requireClient(); err != nil {
		return err
	}

	_, cfg, err := sessionOptions(cmd)
	if err != nil {
		return err
	}

	var token string
	if len(args) > 0 {
		token = strings.TrimSpace(args[0])
	} else {
		cmd.Print("Sign-in token: ")
		token = readSecret()
		cmd.Println()
	}
	if token == "" {
		return fmt.Errorf("sign-in token is required")
	}

	result, err := client.SignIn(cmd.Context(), token, cfg)
	if err != nil {
		return fmt.Errorf("sign in failed: %w", err)
	}

	cmd.Printf("Signed in as %s (%s).\n", result.UserID, result.Environment)
	return nil
}
