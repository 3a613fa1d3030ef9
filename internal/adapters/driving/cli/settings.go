package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/youngmin9/vitalsync/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage host settings",
	Long: `View and change the settings used when configuring a session and
when locating local data.

Keys:
  storage.data_dir           - directory of the encrypted state database
  health.dir                 - directory of the health store
  api.environment            - stage-region, e.g. sandbox-us or production-eu
  sync.push_mode             - automatic or manual
  sync.backfill_days         - days of history on first sync (max 90)
  sync.background_delivery   - sync automatically on changes
  logs.enabled               - write diagnostic logs`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	Args:  cobra.NoArgs,
	RunE:  runSettingsShow,
}

var settingsGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print one setting",
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsGet,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one setting",
	Args:  cobra.ExactArgs(2),
	RunE:  runSettingsSet,
}

var settingsResetCmd = &cobra.Command{
	Use:   "reset <key>",
	Short: "Restore the default of one setting",
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsReset,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsGetCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsResetCmd)
	rootCmd.AddCommand(settingsCmd)
}

func requireSettings() error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	return nil
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if err := requireSettings(); err != nil {
		return err
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	for _, key := range domain.SettingKeys() {
		value, stored, err := settingsService.Lookup(key)
		if err != nil {
			return fmt.Errorf("failed to get settings: %w", err)
		}
		if value == "" {
			value = "(not set)"
		}
		suffix := ""
		if !stored {
			suffix = " (default)"
		}
		cmd.Printf("  %-26s %s%s\n", key, value, suffix)
	}
	if path := settingsService.Path(); path != "" {
		cmd.Println()
		cmd.Printf("Config file: %s\n", path)
	}
	return nil
}

func runSettingsGet(cmd *cobra.Command, args []string) error {
	if err := requireSettings(); err != nil {
		return err
	}
	value, _, err := settingsService.Lookup(args[0])
	if err != nil {
		return err
	}
	cmd.Println(value)
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if err := requireSettings(); err != nil {
		return err
	}
	if err := settingsService.Set(args[0], args[1]); err != nil {
		return err
	}
	cmd.Printf("%s set to %s.\n", args[0], args[1])
	return nil
}

func runSettingsReset(cmd *cobra.Command, args []string) error {
	if err := requireSettings(); err != nil {
		return err
	}
	if err := settingsService.Reset(args[0]); err != nil {
		return err
	}
	cmd.Printf("%s reset to default.\n", args[0])
	return nil
}
