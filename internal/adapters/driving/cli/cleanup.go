package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cleanupYes bool

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Sign out and erase all stored state",
	Long: `Signs out, erases the stored configuration, user and session, and
resets all sync progress. The next sync after configuring again starts
with a full historical backfill.`,
	Args: cobra.NoArgs,
	RunE: runCleanup,
}

func init() {
	cleanupCmd.Flags().BoolVarP(&cleanupYes, "yes", "y", false, "do not ask for confirmation")
	rootCmd.AddCommand(cleanupCmd)
}

func runCleanup(cmd *cobra.Command, _ []string) error {
	if err := requireClient(); err != nil {
		return err
	}

	if !cleanupYes {
		cmd.Print("This erases all stored credentials and sync progress. Continue? [y/N]: ")
		if !confirm(readLine()) {
			cmd.Println("Aborted.")
			return nil
		}
	}

	if err := client.CleanUp(cmd.Context()); err != nil {
		return fmt.Errorf("cleanup failed: %w", err)
	}
	cmd.Println("All stored state erased.")
	return nil
}
