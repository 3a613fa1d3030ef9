// Package cli implements the vitalsync command tree.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/youngmin9/vitalsync/internal/core/domain"
	"github.com/youngmin9/vitalsync/internal/core/ports/driving"
	"github.com/youngmin9/vitalsync/internal/logger"
)

// version is set at build time.
var version = "dev"

var (
	client          driving.Client
	settingsService driving.SettingsService
	verbose         bool
)

var rootCmd = &cobra.Command{
	Use:   "vitalsync",
	Short: "Sync health data to the vitalsync API",
	Long: `vitalsync reads health records from a local health store, tracks
per-resource sync progress and pushes new data to the remote API.

Configure a session with an API key or sign in with a sign-in token, grant
read permissions, then run sync or watch.`,
	SilenceUsage: true,
	PersistentPreRun: func(*cobra.Command, []string) {
		if verbose {
			logger.SetVerbose(true)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// SetClient sets the SDK client used by every command.
func SetClient(c driving.Client) {
	client = c
}

// SetSettingsService sets the host settings service.
func SetSettingsService(s driving.SettingsService) {
	settingsService = s
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func requireClient() error {
	if client == nil {
		return errors.New("client not configured")
	}
	return nil
}

// hostSettings returns the stored host settings, or defaults when no
// settings service is wired.
func hostSettings() (domain.HostSettings, error) {
	if settingsService == nil {
		return domain.DefaultHostSettings(), nil
	}
	return settingsService.Get()
}
