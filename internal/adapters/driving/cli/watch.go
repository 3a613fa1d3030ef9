package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime/debug"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/youngmin9/vitalsync/internal/adapters/driving/tui"
	"github.com/youngmin9/vitalsync/internal/core/domain"
	"github.com/youngmin9/vitalsync/internal/core/ports/driving"
)

var (
	watchTUI          bool
	watchTokenCommand string
	watchInterval     time.Duration
)

// newScheduler builds the periodic sync scheduler used by watch --interval.
var newScheduler func(domain.SchedulerConfig) driving.Scheduler

// SetSchedulerFactory sets the constructor for periodic sync schedulers.
func SetSchedulerFactory(f func(domain.SchedulerConfig) driving.Scheduler) {
	newScheduler = f
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow background sync activity",
	Long: `Keeps the process running so background delivery can sync resources
as the health store changes, and prints every status event until
interrupted.

With --tui an interactive dashboard is shown instead. It lists every
resource with its last sync time and lets you trigger syncs:
  ↑/k, ↓/j - Select resource
  Enter/s  - Sync selected resource
  a        - Sync all resources
  c        - Clear event log
  ?        - Toggle help
  q        - Quit

With --token-command, signed-in sessions whose refresh token expired are
renewed by running the command and using its output as a new sign-in
token. The current user id is passed in VITALSYNC_USER_ID.

With --interval, every permitted resource is also synced on that
interval, e.g. --interval 30m.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchTUI, "tui", false, "show the interactive dashboard")
	watchCmd.Flags().StringVar(&watchTokenCommand, "token-command", "", "shell command printing a fresh sign-in token")
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 0, "also sync everything on this interval (min 1m)")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	if err := requireClient(); err != nil {
		return err
	}

	if watchTokenCommand != "" {
		client.ObserveReauthentication(commandTokenFetcher(watchTokenCommand))
		defer client.ObserveReauthentication(nil)
	}

	if watchInterval > 0 {
		stop, err := startScheduler(cmd)
		if err != nil {
			return err
		}
		defer stop()
	}

	if watchTUI {
		return runDashboard(cmd.Context())
	}

	statuses, unsubscribe := client.Status()
	defer unsubscribe()

	cmd.Println("Watching for changes. Press Ctrl+C to stop.")
	for {
		select {
		case <-cmd.Context().Done():
			return nil
		case s, ok := <-statuses:
			if !ok {
				return nil
			}
			printStatus(cmd, s)
		}
	}
}

// startScheduler runs a periodic sync in the background and returns a
// function that stops it.
func startScheduler(cmd *cobra.Command) (func(), error) {
	if newScheduler == nil {
		return nil, errors.New("periodic sync is not available")
	}
	cfg := domain.SchedulerConfig{Enabled: true, Interval: watchInterval}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	sched := newScheduler(cfg)
	go func() {
		if err := sched.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			cmd.PrintErrf("scheduler stopped: %v\n", err)
		}
	}()
	cmd.Printf("Syncing every %s.\n", watchInterval)

	return func() {
		cancel()
		if err := sched.Stop(); err != nil {
			cmd.PrintErrf("scheduler stop error: %v\n", err)
		}
	}, nil
}

func runDashboard(ctx context.Context) error {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	app, err := tui.NewApp(&tui.Ports{Client: client})
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}
	app.WithContext(ctx)
	defer app.Close()

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// commandTokenFetcher runs command through the shell and returns its
// trimmed standard output as the sign-in token.
func commandTokenFetcher(command string) driving.TokenFetcher {
	return func(ctx context.Context, userID string) (string, error) {
		c := exec.CommandContext(ctx, "sh", "-c", command)
		c.Env = append(os.Environ(), "VITALSYNC_USER_ID="+userID)
		c.Stderr = os.Stderr
		out, err := c.Output()
		if err != nil {
			return "", fmt.Errorf("token command failed: %w", err)
		}
		return strings.TrimSpace(string(out)), nil
	}
}
