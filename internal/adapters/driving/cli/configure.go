package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/youngmin9/vitalsync/internal/core/domain"
)

var (
	configureAPIKey             string
	configureEnv                string
	configureBackfillDays       int
	configurePushMode           string
	configureBackgroundDelivery bool
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Configure an API-key session",
	Long: `Configures the SDK with a static API key. The key is read from
--api-key, the VITALSYNC_API_KEY environment variable, or a prompt.

Environment, backfill window, push mode and background delivery default to
the host settings (see 'vitalsync settings'). Switching from a signed-in
session to an API key requires 'vitalsync cleanup' first.`,
	Args: cobra.NoArgs,
	RunE: runConfigure,
}

func init() {
	f := configureCmd.Flags()
	f.StringVar(&configureAPIKey, "api-key", "", "API key (prompted when omitted)")
	f.StringVar(&configureEnv, "env", "", "environment as stage-region, e.g. sandbox-eu")
	f.IntVar(&configureBackfillDays, "backfill-days", 0, "days of history to backfill (max 90)")
	f.StringVar(&configurePushMode, "push-mode", "", "automatic or manual")
	f.BoolVar(&configureBackgroundDelivery, "background-delivery", false, "sync automatically when the health store changes")
	rootCmd.AddCommand(configureCmd)
}

func runConfigure(cmd *cobra.Command, _ []string) error {
	if err := requireClient(); err != nil {
		return err
	}

	env, cfg, err := sessionOptions(cmd)
	if err != nil {
		return err
	}

	key := configureAPIKey
	if key == "" {
		key = os.Getenv("VITALSYNC_API_KEY")
	}
	if key == "" {
		cmd.Print("API key: ")
		key = readSecret()
		cmd.Println()
	}

	mode := domain.APIKeyMode{Key: key, Environment: env}
	if err := client.Configure(cmd.Context(), mode, cfg); err != nil {
		return fmt.Errorf("configure failed: %w", err)
	}

	cmd.Printf("Configured API key %s for %s.\n", maskAPIKey(key), env)
	cmd.Printf("Backfill: %d days, push mode: %s, background delivery: %t\n",
		cfg.BackfillDays, cfg.PushMode, cfg.BackgroundDeliveryEnabled)
	return nil
}

// sessionOptions merges the host settings with any flags the user passed.
func sessionOptions(cmd *cobra.Command) (domain.Environment, domain.Configuration, error) {
	settings, err := hostSettings()
	if err != nil {
		return domain.Environment{}, domain.Configuration{}, fmt.Errorf("load settings: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("env") {
		env, err := domain.ParseEnvironmentName(configureEnv)
		if err != nil {
			return domain.Environment{}, domain.Configuration{}, err
		}
		settings.Environment = env
	}
	if flags.Changed("backfill-days") {
		settings.BackfillDays = configureBackfillDays
	}
	if flags.Changed("push-mode") {
		mode, err := domain.ParsePushMode(configurePushMode)
		if err != nil {
			return domain.Environment{}, domain.Configuration{}, err
		}
		settings.PushMode = mode
	}
	if flags.Changed("background-delivery") {
		settings.BackgroundDelivery = configureBackgroundDelivery
	}

	return settings.Environment, settings.Configuration(), nil
}
