package services

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"

	"github.com/youngmin9/vitalsync/internal/broadcast"
	"github.com/youngmin9/vitalsync/internal/core/domain"
	"github.com/youngmin9/vitalsync/internal/core/ports/driven"
	"github.com/youngmin9/vitalsync/internal/core/ports/driving"
	"github.com/youngmin9/vitalsync/internal/logger"
	"github.com/youngmin9/vitalsync/internal/promise"
)

// Ensure Client implements the interface.
var _ driving.Client = (*Client)(nil)

// ClientConfig holds the collaborators a Client is built from.
type ClientConfig struct {
	SecureStore driven.SecureStore
	SyncStore   driven.SyncStateStore
	Health      driven.HealthStore

	// Session is the rotating-token strategy used in JWT mode. Optional;
	// without it SignIn and JWT configuration fail with ErrNotConfigured.
	Session driven.SessionAuth

	// StaticAuth builds the API-key strategy.
	StaticAuth func(apiKey string) driven.AuthStrategy

	// NewAPIClient builds the transport for an environment.
	NewAPIClient func(env domain.Environment, auth driven.AuthStrategy) driven.APIClient

	// Now and Location override the clock and local time zone. Optional.
	Now      func() time.Time
	Location *time.Location
}

// Client is the SDK context object. The application entry point owns it
// and passes it to whatever needs the host-facing operations.
type Client struct {
	deps ClientConfig

	session      *promise.Promise[*Session]
	statuses     *broadcast.Broadcaster[domain.SyncStatus]
	sources      *ConnectedSources
	orchestrator *SyncOrchestrator
	delivery     *DeliveryLoop
	reauth       *ReauthenticationMonitor

	// mu serialises configuration changes.
	mu sync.Mutex

	lifetime context.Context
	shutdown context.CancelFunc
}

// NewClient creates an unconfigured client. Syncs wait until Configure,
// SignIn or Restore supplies a session.
func NewClient(cfg ClientConfig) *Client {
	if cfg.SecureStore == nil || cfg.SyncStore == nil || cfg.Health == nil ||
		cfg.StaticAuth == nil || cfg.NewAPIClient == nil {
		panic(errors.AssertionFailedf("services: incomplete client config"))
	}

	lifetime, shutdown := context.WithCancel(context.Background())
	c := &Client{
		deps:     cfg,
		session:  promise.New[*Session](),
		statuses: broadcast.New[domain.SyncStatus](),
		sources:  NewConnectedSources(),
		lifetime: lifetime,
		shutdown: shutdown,
	}

	c.orchestrator = NewSyncOrchestrator(c.session, cfg.Health, cfg.SyncStore, c.sources, c.statuses)
	if cfg.Now != nil || cfg.Location != nil {
		now, loc := cfg.Now, cfg.Location
		if now == nil {
			now = time.Now
		}
		if loc == nil {
			loc = time.Local
		}
		c.orchestrator.WithClock(now, loc)
	}
	c.delivery = NewDeliveryLoop(cfg.Health, NewChangeObserver(cfg.Health), c.orchestrator)
	c.reauth = newReauthenticationMonitor(c)
	return c
}

// Orchestrator returns the sync orchestrator.
func (c *Client) Orchestrator() *SyncOrchestrator {
	return c.orchestrator
}

// ConnectedSources returns the connected-source cache.
func (c *Client) ConnectedSources() *ConnectedSources {
	return c.sources
}

// ==================== Configuration ====================

// Configure activates a session for mode. Reconfiguring with the same auth
// mode replaces the configuration; switching mode requires CleanUp first.
func (c *Client) Configure(ctx context.Context, mode domain.AuthMode, cfg domain.Configuration) error {
	if err := validateMode(mode); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	active, err := c.activeModeKind(ctx)
	if err != nil {
		return err
	}
	if active != "" && active != mode.Kind() {
		return errors.WithHint(
			errors.Wrapf(domain.ErrAuthModeMismatch, "active mode %s, requested %s", active, mode.Kind()),
			"call CleanUp before switching auth mode",
		)
	}
	return c.configureLocked(ctx, mode, cfg, true)
}

// Restore reactivates the session persisted by an earlier Configure or
// SignIn. Returns false when nothing usable was persisted.
func (c *Client) Restore(ctx context.Context) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	secrets, found, err := readSecret[coreSecrets](ctx, c.deps.SecureStore, keyCoreSecrets)
	if err != nil || !found {
		return false, err
	}
	if secrets.APIVersion != coreAPIVersion {
		logger.Warn("restore: ignoring configuration written by api version %q", secrets.APIVersion)
		return false, nil
	}
	mode, err := secrets.Strategy.authMode()
	if err == nil {
		err = validateMode(mode)
	}
	if err != nil {
		logger.Warn("restore: ignoring persisted strategy: %v", err)
		return false, nil
	}

	if err := c.configureLocked(ctx, mode, secrets.Configuration, false); err != nil {
		return false, err
	}
	return true, nil
}

func validateMode(mode domain.AuthMode) error {
	if mode == nil {
		return errors.Wrap(domain.ErrInvalidInput, "auth mode is required")
	}
	if !mode.Env().IsValid() {
		return errors.Wrapf(domain.ErrInvalidInput, "unknown environment %s", mode.Env())
	}
	if m, ok := mode.(domain.APIKeyMode); ok && m.Key == "" {
		return errors.Wrap(domain.ErrInvalidInput, "api key is empty")
	}
	return nil
}

// activeModeKind returns the mode of the live session, falling back to the
// persisted one, or "" if neither exists.
func (c *Client) activeModeKind(ctx context.Context) (domain.AuthModeKind, error) {
	if sess, ok := c.session.Peek(); ok {
		return sess.Mode.Kind(), nil
	}
	secrets, found, err := readSecret[coreSecrets](ctx, c.deps.SecureStore, keyCoreSecrets)
	if err != nil || !found {
		return "", err
	}
	return secrets.Strategy.Mode, nil
}

func (c *Client) configureLocked(ctx context.Context, mode domain.AuthMode, cfg domain.Configuration, persist bool) error {
	cfg = cfg.Normalised()
	logger.SetEnabled(cfg.LogsEnabled)

	var (
		auth    driven.AuthStrategy
		resolve func(context.Context) (string, error)
	)
	switch m := mode.(type) {
	case domain.APIKeyMode:
		auth = c.deps.StaticAuth(m.Key)
		resolve = c.apiKeyUserID
	case domain.JWTMode:
		if c.deps.Session == nil {
			return errors.Wrap(domain.ErrNotConfigured, "jwt mode needs a session strategy")
		}
		auth = c.deps.Session
		resolve = c.deps.Session.CurrentUserID
	default:
		panic(errors.AssertionFailedf("unhandled auth mode %T", mode))
	}

	if persist {
		secrets := coreSecrets{
			Configuration: cfg,
			APIVersion:    coreAPIVersion,
			Strategy:      strategyFromMode(mode),
		}
		if err := writeSecret(ctx, c.deps.SecureStore, keyCoreSecrets, secrets); err != nil {
			return err
		}
	}

	sess := &Session{
		Mode:        mode,
		Config:      cfg,
		Auth:        auth,
		API:         c.deps.NewAPIClient(mode.Env(), auth),
		ResolveUser: resolve,
	}
	c.session.Reset()
	c.session.Set(sess)
	logger.Info("configured %s mode for %s", mode.Kind(), mode.Env())

	if cfg.BackgroundDeliveryEnabled {
		c.startDelivery(ctx)
	} else {
		c.delivery.Stop()
	}
	return nil
}

// ==================== Identity ====================

// SignIn exchanges a host-issued sign-in token for a user session and
// configures JWT mode. An active API-key session is migrated.
func (c *Client) SignIn(ctx context.Context, signInToken string, cfg domain.Configuration) (domain.SignInResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.signInLocked(ctx, signInToken, cfg)
}

func (c *Client) signInLocked(ctx context.Context, signInToken string, cfg domain.Configuration) (domain.SignInResult, error) {
	if c.deps.Session == nil {
		return domain.SignInResult{}, errors.Wrap(domain.ErrNotConfigured, "no session strategy")
	}

	active, err := c.activeModeKind(ctx)
	if err != nil {
		return domain.SignInResult{}, err
	}
	previousUser := ""
	if active == domain.AuthModeAPIKey {
		if previousUser, err = c.apiKeyUserID(ctx); err != nil {
			return domain.SignInResult{}, err
		}
	}

	result, err := c.deps.Session.SignIn(ctx, signInToken)
	if err != nil {
		return domain.SignInResult{}, errors.Wrap(err, "sign in")
	}

	if active == domain.AuthModeAPIKey {
		if err := c.deps.SecureStore.Clean(ctx, keyUserID); err != nil {
			return domain.SignInResult{}, errors.Wrap(err, "clean api-key user")
		}
		if previousUser != "" && previousUser != result.UserID {
			if err := c.resetSyncState(ctx); err != nil {
				return domain.SignInResult{}, err
			}
		}
		logger.Info("migrated API-key session to user %s", result.UserID)
	}

	if err := c.configureLocked(ctx, domain.JWTMode{Environment: result.Environment}, cfg, true); err != nil {
		return domain.SignInResult{}, err
	}
	return result, nil
}

// SetUserID sets the API-key mode user. A different user than the stored
// one resets sync state and the connected-source cache.
//
// Calling it before Configure or in JWT mode is a programming error and
// panics.
func (c *Client) SetUserID(ctx context.Context, userID string) error {
	sess, ok := c.session.Peek()
	if !ok {
		panic(errors.AssertionFailedf("SetUserID called before Configure"))
	}
	if sess.Mode.Kind() != domain.AuthModeAPIKey {
		panic(errors.AssertionFailedf("SetUserID requires api-key mode, active mode is %s", sess.Mode.Kind()))
	}
	if _, err := uuid.Parse(userID); err != nil {
		return errors.Wrapf(domain.ErrInvalidInput, "user id %q is not a UUID", userID)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	previous, err := c.apiKeyUserID(ctx)
	if err != nil {
		return err
	}
	if previous == userID {
		return nil
	}
	if previous != "" {
		logger.Info("user changed from %s to %s, resetting sync state", previous, userID)
		if err := c.resetSyncState(ctx); err != nil {
			return err
		}
	}
	return writeSecret(ctx, c.deps.SecureStore, keyUserID, userID)
}

// UserID returns the authoritative user for the active mode, or "" if
// none is set yet.
func (c *Client) UserID(ctx context.Context) (string, error) {
	sess, ok := c.session.Peek()
	if !ok {
		return "", domain.ErrNotConfigured
	}
	return sess.ResolveUser(ctx)
}

func (c *Client) apiKeyUserID(ctx context.Context) (string, error) {
	id, _, err := readSecret[string](ctx, c.deps.SecureStore, keyUserID)
	return id, err
}

func (c *Client) resetSyncState(ctx context.Context) error {
	c.sources.Flush()
	if err := c.deps.SyncStore.Clean(ctx); err != nil {
		return errors.Wrap(err, "clean sync state")
	}
	return nil
}

// ==================== Permissions & background delivery ====================

// RequestPermissions asks for access. On success with background delivery
// enabled, the delivery loop is reinstalled for the permitted resources.
func (c *Client) RequestPermissions(
	ctx context.Context,
	read []domain.Resource,
	write []domain.WritableResource,
) domain.PermissionOutcome {
	if !c.deps.Health.IsAvailable() {
		return domain.PlatformUnavailable()
	}

	if err := c.deps.Health.RequestAuthorization(ctx, read, write); err != nil {
		logger.Warn("permissions: request failed: %v", err)
		var authErr *domain.AuthorizationError
		if errors.As(err, &authErr) {
			return domain.PermissionFailed(authErr.Reason)
		}
		return domain.PermissionFailed(err.Error())
	}

	if sess, ok := c.session.Peek(); ok && sess.Config.BackgroundDeliveryEnabled {
		c.startDelivery(ctx)
	}
	return domain.PermissionGranted()
}

func (c *Client) startDelivery(ctx context.Context) {
	resources, err := c.deps.Health.PermittedResources(ctx)
	if err != nil {
		logger.Warn("background delivery: list permitted resources: %v", err)
		return
	}
	c.delivery.Start(c.lifetime, resources)
}

// ObserveReauthentication starts the reauthentication monitor with fetcher,
// replacing any running one. A nil fetcher stops it.
func (c *Client) ObserveReauthentication(fetcher driving.TokenFetcher) {
	if fetcher == nil {
		c.reauth.Stop()
		return
	}
	c.reauth.Start(c.lifetime, fetcher)
}

// ==================== Sync ====================

// ActiveMode returns the auth mode of the live session.
func (c *Client) ActiveMode() (domain.AuthMode, bool) {
	sess, ok := c.session.Peek()
	if !ok {
		return nil, false
	}
	return sess.Mode, true
}

// LastSynced returns when resource was last synced, if ever.
func (c *Client) LastSynced(ctx context.Context, resource domain.Resource) (time.Time, bool, error) {
	return c.orchestrator.LastSynced(ctx, resource)
}

// SyncAll synchronises every permitted resource.
func (c *Client) SyncAll(ctx context.Context) error {
	if !c.deps.Health.IsAvailable() {
		return domain.ErrPlatformUnavailable
	}
	resources, err := c.deps.Health.PermittedResources(ctx)
	if err != nil {
		return errors.Wrap(err, "list permitted resources")
	}
	domain.SortResources(resources)
	return c.orchestrator.SyncResources(ctx, resources)
}

// Sync synchronises the given resources sequentially.
func (c *Client) Sync(ctx context.Context, resources ...domain.Resource) error {
	return c.orchestrator.SyncResources(ctx, resources)
}

// Status subscribes to status events.
func (c *Client) Status() (<-chan domain.SyncStatus, func()) {
	return c.orchestrator.Status()
}

// Write stores a value in the platform store.
func (c *Client) Write(ctx context.Context, input domain.WriteInput, start, end time.Time) error {
	if !c.deps.Health.IsAvailable() {
		return domain.ErrPlatformUnavailable
	}
	if _, err := domain.ParseWritableResource(string(input.Resource)); err != nil {
		return err
	}
	if end.Before(start) {
		return errors.Wrap(domain.ErrInvalidInput, "end before start")
	}
	if err := c.deps.Health.Write(ctx, input, start, end); err != nil {
		return errors.Wrapf(err, "write %s", input.Resource)
	}
	return nil
}

// ==================== Tear-down ====================

// CleanUp stops background delivery, signs out and erases every persisted
// entry. The client can be configured again afterwards.
func (c *Client) CleanUp(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.delivery.Stop()

	var result *multierror.Error
	if c.deps.Session != nil {
		if err := c.deps.Session.SignOut(ctx); err != nil {
			result = multierror.Append(result, errors.Wrap(err, "sign out"))
		}
	}
	for _, key := range []string{keyCoreSecrets, keyUserID} {
		if err := c.deps.SecureStore.Clean(ctx, key); err != nil {
			result = multierror.Append(result, errors.Wrapf(err, "clean %s", key))
		}
	}
	if err := c.resetSyncState(ctx); err != nil {
		result = multierror.Append(result, err)
	}
	c.session.Reset()

	logger.Info("cleaned up")
	return result.ErrorOrNil()
}

// Close stops background work and closes status subscriptions.
func (c *Client) Close() {
	c.reauth.Stop()
	c.delivery.Stop()
	c.shutdown()
	c.statuses.Close()
}

// ==================== Reauthentication target ====================

func (c *Client) apiKeyUser(ctx context.Context) string {
	sess, ok := c.session.Peek()
	if !ok || sess.Mode.Kind() != domain.AuthModeAPIKey {
		return ""
	}
	id, err := c.apiKeyUserID(ctx)
	if err != nil {
		logger.Warn("reauth: read api-key user: %v", err)
	}
	return id
}

func (c *Client) sessionUser(ctx context.Context) string {
	if c.deps.Session == nil {
		return ""
	}
	id, err := c.deps.Session.CurrentUserID(ctx)
	if err != nil {
		logger.Warn("reauth: read session user: %v", err)
	}
	return id
}

func (c *Client) needsReauthentication(ctx context.Context) bool {
	sess, ok := c.session.Peek()
	if !ok || sess.Mode.Kind() != domain.AuthModeJWT || c.deps.Session == nil {
		return false
	}
	return c.deps.Session.NeedsReauthentication(ctx)
}

func (c *Client) signInWithToken(ctx context.Context, token string) error {
	cfg := domain.DefaultConfiguration()
	if sess, ok := c.session.Peek(); ok {
		cfg = sess.Config
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.signInLocked(ctx, token, cfg)
	return err
}

func (c *Client) reauthenticationRequests() (<-chan struct{}, func()) {
	if c.deps.Session == nil {
		return nil, func() {}
	}
	return c.deps.Session.ReauthenticationRequests()
}
