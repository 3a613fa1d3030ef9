package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/youngmin9/vitalsync/internal/core/domain"
)

var syncCmd = &cobra.Command{
	Use:   "sync [resource...]",
	Short: "Synchronise health data",
	Long: `Reads new records from the health store and pushes them to the API.
If resources are given, only those are synchronised, in the order given.
Otherwise every permitted resource is synchronised.

The first sync of a resource backfills history; later syncs only send
records added since the previous one.`,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	if err := requireClient(); err != nil {
		return err
	}

	resources, err := parseResources(args)
	if err != nil {
		return err
	}

	statuses, unsubscribe := client.Status()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for s := range statuses {
			printStatus(cmd, s)
		}
	}()

	if len(resources) == 0 {
		cmd.Println("Synchronising all permitted resources...")
		err = client.SyncAll(cmd.Context())
	} else {
		err = client.Sync(cmd.Context(), resources...)
	}

	unsubscribe()
	<-done

	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}
	return nil
}

func printStatus(cmd *cobra.Command, s domain.SyncStatus) {
	switch s.(type) {
	case domain.FailedSyncing:
		cmd.PrintErrln("  " + domain.DescribeStatus(s))
	case domain.SyncingCompleted:
		cmd.Println("Done.")
	default:
		cmd.Println("  " + domain.DescribeStatus(s))
	}
}
