package cli

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/youngmin9/vitalsync/internal/adapters/driven/storage/memory"
	"github.com/youngmin9/vitalsync/internal/core/domain"
	"github.com/youngmin9/vitalsync/internal/core/ports/driving"
	"github.com/youngmin9/vitalsync/internal/core/services"
)

// fakeClient records calls and replays canned results.
type fakeClient struct {
	mu sync.Mutex

	mode   domain.AuthMode
	userID string

	configureErr error
	signInErr    error
	userErr      error
	syncErr      error
	writeErr     error
	cleanupErr   error

	permissionOutcome domain.PermissionOutcome
	lastSynced        map[domain.Resource]time.Time

	// emitted on every Sync/SyncAll call
	statuses []domain.SyncStatus
	// queued on every new subscription
	pending []domain.SyncStatus

	configured  []domain.AuthMode
	configs     []domain.Configuration
	signInToken string
	setUser     string
	synced      [][]domain.Resource
	syncAll     int
	readReq     []domain.Resource
	writeReq    []domain.WritableResource
	writes      []domain.WriteInput
	writeStart  time.Time
	writeEnd    time.Time
	cleanedUp   bool
	fetchers    []driving.TokenFetcher

	subscribers []chan domain.SyncStatus
}

var _ driving.Client = (*fakeClient)(nil)

func newFakeClient() *fakeClient {
	return &fakeClient{
		permissionOutcome: domain.PermissionGranted(),
		lastSynced:        map[domain.Resource]time.Time{},
	}
}

func (f *fakeClient) Configure(_ context.Context, mode domain.AuthMode, cfg domain.Configuration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.configured = append(f.configured, mode)
	f.configs = append(f.configs, cfg)
	if f.configureErr != nil {
		return f.configureErr
	}
	f.mode = mode
	return nil
}

func (f *fakeClient) Restore(context.Context) (bool, error) {
	return f.mode != nil, nil
}

func (f *fakeClient) SignIn(_ context.Context, token string, cfg domain.Configuration) (domain.SignInResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signInToken = token
	f.configs = append(f.configs, cfg)
	if f.signInErr != nil {
		return domain.SignInResult{}, f.signInErr
	}
	env := domain.Environment{Stage: domain.StageSandbox, Region: domain.RegionEU}
	f.mode = domain.JWTMode{Environment: env}
	f.userID = "user-from-token"
	return domain.SignInResult{UserID: f.userID, Environment: env}, nil
}

func (f *fakeClient) SetUserID(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setUser = userID
	f.userID = userID
	return nil
}

func (f *fakeClient) ActiveMode() (domain.AuthMode, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mode, f.mode != nil
}

func (f *fakeClient) LastSynced(_ context.Context, r domain.Resource) (time.Time, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	at, ok := f.lastSynced[r]
	return at, ok, nil
}

func (f *fakeClient) UserID(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.userErr != nil {
		return "", f.userErr
	}
	if f.mode == nil {
		return "", domain.ErrNotConfigured
	}
	return f.userID, nil
}

func (f *fakeClient) RequestPermissions(_ context.Context, read []domain.Resource, write []domain.WritableResource) domain.PermissionOutcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readReq = read
	f.writeReq = write
	return f.permissionOutcome
}

func (f *fakeClient) SyncAll(context.Context) error {
	f.mu.Lock()
	f.syncAll++
	f.mu.Unlock()
	f.emit()
	return f.syncErr
}

func (f *fakeClient) Sync(_ context.Context, resources ...domain.Resource) error {
	f.mu.Lock()
	f.synced = append(f.synced, resources)
	f.mu.Unlock()
	f.emit()
	return f.syncErr
}

func (f *fakeClient) emit() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.statuses {
		for _, ch := range f.subscribers {
			ch <- s
		}
	}
}

func (f *fakeClient) Status() (<-chan domain.SyncStatus, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan domain.SyncStatus, 64)
	for _, s := range f.pending {
		ch <- s
	}
	f.subscribers = append(f.subscribers, ch)

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			for i, sub := range f.subscribers {
				if sub == ch {
					f.subscribers = append(f.subscribers[:i], f.subscribers[i+1:]...)
					break
				}
			}
			close(ch)
		})
	}
}

func (f *fakeClient) ObserveReauthentication(fetcher driving.TokenFetcher) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchers = append(f.fetchers, fetcher)
}

func (f *fakeClient) Write(_ context.Context, input domain.WriteInput, start, end time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = append(f.writes, input)
	f.writeStart = start
	f.writeEnd = end
	return f.writeErr
}

func (f *fakeClient) CleanUp(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleanedUp = true
	if f.cleanupErr == nil {
		f.mode = nil
		f.userID = ""
	}
	return f.cleanupErr
}

func (f *fakeClient) Close() {}

func (f *fakeClient) subscriberCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subscribers)
}

func sandboxUS() domain.Environment {
	return domain.Environment{Stage: domain.StageSandbox, Region: domain.RegionUS}
}

// withClient installs c for the duration of the test.
func withClient(t *testing.T, c driving.Client) {
	t.Helper()
	prev := client
	client = c
	t.Cleanup(func() { client = prev })
}

// withSettings installs a settings service over an in-memory store.
func withSettings(t *testing.T) *services.SettingsService {
	t.Helper()
	svc := services.NewSettingsService(memory.NewConfigStore())
	prev := settingsService
	settingsService = svc
	t.Cleanup(func() { settingsService = prev })
	return svc
}

// withStdin feeds input to prompts.
func withStdin(t *testing.T, input string) {
	t.Helper()
	prev := stdin
	stdin = strings.NewReader(input)
	t.Cleanup(func() { stdin = prev })
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return runCommandContext(t, context.Background(), args...)
}

// runCommandContext executes the root command with fresh flag values and
// returns everything written to stdout and stderr.
func runCommandContext(t *testing.T, ctx context.Context, args ...string) (string, error) {
	t.Helper()

	resetCommand(rootCmd, ctx)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.ExecuteContext(ctx)
	return buf.String(), err
}

func resetCommand(cmd *cobra.Command, ctx context.Context) {
	cmd.SetContext(ctx)
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	})
	for _, sub := range cmd.Commands() {
		resetCommand(sub, ctx)
	}
}
