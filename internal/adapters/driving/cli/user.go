package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/youngmin9/vitalsync/internal/core/domain"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Show or set the current user",
	Args:  cobra.NoArgs,
	RunE:  runUserShow,
}

var userSetCmd = &cobra.Command{
	Use:   "set <user-id>",
	Short: "Set the user for an API-key session",
	Long: `Sets the user the API-key session syncs for. Switching to a
different user resets all sync progress. Signed-in sessions take the user
from the sign-in token instead.`,
	Args: cobra.ExactArgs(1),
	RunE: runUserSet,
}

func init() {
	userCmd.AddCommand(userSetCmd)
	rootCmd.AddCommand(userCmd)
}

func runUserShow(cmd *cobra.Command, _ []string) error {
	if err := requireClient(); err != nil {
		return err
	}

	id, err := client.UserID(cmd.Context())
	if errors.Is(err, domain.ErrNotConfigured) {
		cmd.Println("Not configured. Run 'vitalsync configure' or 'vitalsync signin'.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read user: %w", err)
	}
	if id == "" {
		cmd.Println("No user set.")
		return nil
	}
	cmd.Println(id)
	return nil
}

func runUserSet(cmd *cobra.Command, args []string) error {
	if err := requireClient(); err != nil {
		return err
	}

	mode, ok := client.ActiveMode()
	if !ok {
		return errors.New("not configured: run 'vitalsync configure' first")
	}
	if mode.Kind() != domain.AuthModeAPIKey {
		return errors.New("the user of a signed-in session comes from its sign-in token")
	}

	if err := client.SetUserID(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to set user: %w", err)
	}
	cmd.Printf("User set to %s.\n", args[0])
	return nil
}
