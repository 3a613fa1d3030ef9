package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/youngmin9/vitalsync/internal/core/domain"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show session and sync progress",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if err := requireClient(); err != nil {
		return err
	}
	ctx := cmd.Context()

	mode, ok := client.ActiveMode()
	if !ok {
		cmd.Println("Not configured. Run 'vitalsync configure' or 'vitalsync signin'.")
		return nil
	}
	cmd.Printf("Mode:        %s\n", mode.Kind())
	cmd.Printf("Environment: %s\n", mode.Env())

	user, err := client.UserID(ctx)
	switch {
	case errors.Is(err, domain.ErrReauthenticationRequired):
		cmd.Println("User:        (sign in again)")
	case err != nil:
		return fmt.Errorf("failed to read user: %w", err)
	case user == "":
		cmd.Println("User:        (not set)")
	default:
		cmd.Printf("User:        %s\n", user)
	}

	cmd.Println()
	cmd.Println("Last synced:")
	for _, r := range domain.AllResources() {
		at, found, err := client.LastSynced(ctx, r)
		if err != nil {
			return fmt.Errorf("failed to read sync state: %w", err)
		}
		if !found {
			continue
		}
		cmd.Printf("  %-32s %s\n", r, at.Local().Format(time.DateTime))
	}
	return nil
}
