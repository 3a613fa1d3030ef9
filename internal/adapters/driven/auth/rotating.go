package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"

	"github.com/youngmin9/vitalsync/internal/broadcast"
	"github.com/youngmin9/vitalsync/internal/core/domain"
	"github.com/youngmin9/vitalsync/internal/core/ports/driven"
	"github.com/youngmin9/vitalsync/internal/logger"
)

const (
	// keyJWTAuth is the secure-store entry holding the user session.
	keyJWTAuth = "jwt_auth"

	tokenPath = "/v2/auth/token"

	// refreshLeeway is how long before expiry the access token is renewed.
	refreshLeeway = 60 * time.Second
)

// Ensure RotatingToken implements the SessionAuth interface.
var _ driven.SessionAuth = (*RotatingToken)(nil)

// session is the persisted form of a signed-in user.
type session struct {
	UserID       string             `json:"user_id"`
	AccessToken  string             `json:"access_token"`
	RefreshToken string             `json:"refresh_token"`
	TokenType    string             `json:"token_type,omitempty"`
	Expiry       time.Time          `json:"expiry,omitempty"`
	Environment  domain.Environment `json:"environment"`
	Exhausted    bool               `json:"exhausted,omitempty"`
}

func (s *session) tokens() domain.TokenPair {
	return domain.TokenPair{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		TokenType:    s.TokenType,
		Expiry:       s.Expiry,
	}
}

// RotatingToken provides per-user access tokens with automatic refresh.
// The session survives restarts through the secure store.
type RotatingToken struct {
	store     driven.SecureStore
	exchanger driven.TokenExchanger

	httpClient *http.Client
	baseURL    string
	now        func() time.Time

	requests *broadcast.Broadcaster[struct{}]
	group    singleflight.Group

	mu      sync.Mutex
	loaded  bool
	current *session
}

// RotatingOption configures a RotatingToken.
type RotatingOption func(*RotatingToken)

// WithHTTPClient sets the client used for the refresh grant.
func WithHTTPClient(c *http.Client) RotatingOption {
	return func(r *RotatingToken) { r.httpClient = c }
}

// WithBaseURL overrides the environment base URL of the token endpoint.
func WithBaseURL(url string) RotatingOption {
	return func(r *RotatingToken) { r.baseURL = strings.TrimRight(url, "/") }
}

// WithClock sets the time source used for expiry checks.
func WithClock(now func() time.Time) RotatingOption {
	return func(r *RotatingToken) { r.now = now }
}

// NewRotatingToken creates a session strategy backed by store.
func NewRotatingToken(store driven.SecureStore, exchanger driven.TokenExchanger, opts ...RotatingOption) *RotatingToken {
	r := &RotatingToken{
		store:      store,
		exchanger:  exchanger,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		now:        time.Now,
		requests:   broadcast.New[struct{}](),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Kind returns AuthModeJWT.
func (*RotatingToken) Kind() domain.AuthModeKind {
	return domain.AuthModeJWT
}

// Credential returns a bearer token, refreshing it first when it is within
// a minute of expiry.
func (r *RotatingToken) Credential(ctx context.Context) (domain.Credential, error) {
	sess, err := r.snapshot(ctx)
	if err != nil {
		return domain.Credential{}, err
	}
	if sess == nil || sess.Exhausted {
		return domain.Credential{}, r.stale()
	}

	if sess.tokens().IsExpired(r.now(), refreshLeeway) {
		if err := r.renew(ctx, false); err != nil {
			return domain.Credential{}, err
		}
		if sess, err = r.snapshot(ctx); err != nil {
			return domain.Credential{}, err
		}
		if sess == nil || sess.Exhausted {
			return domain.Credential{}, r.stale()
		}
	}

	tokenType := sess.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}
	return domain.Credential{Header: "Authorization", Value: tokenType + " " + sess.AccessToken}, nil
}

// CurrentUserID returns the signed-in user, or "".
func (r *RotatingToken) CurrentUserID(ctx context.Context) (string, error) {
	sess, err := r.snapshot(ctx)
	if err != nil || sess == nil {
		return "", err
	}
	return sess.UserID, nil
}

// NeedsReauthentication is true without a session or once the refresh
// token was rejected.
func (r *RotatingToken) NeedsReauthentication(ctx context.Context) bool {
	sess, err := r.snapshot(ctx)
	if err != nil {
		logger.Warn("auth: read session: %v", err)
		return true
	}
	return sess == nil || sess.Exhausted
}

// ReauthenticationRequests subscribes to exhaustion signals and to calls
// that found the session missing or exhausted.
func (r *RotatingToken) ReauthenticationRequests() (<-chan struct{}, func()) {
	ch := r.requests.AddListener()
	return ch, func() { r.requests.RemoveListener(ch) }
}

// Refresh runs the refresh-token grant.
func (r *RotatingToken) Refresh(ctx context.Context) error {
	return r.renew(ctx, true)
}

// renew de-duplicates concurrent refreshes. Unless forced, a token that was
// renewed while the caller waited is left alone.
func (r *RotatingToken) renew(ctx context.Context, force bool) error {
	_, err, _ := r.group.Do("refresh", func() (any, error) {
		return nil, r.refresh(ctx, force)
	})
	return err
}

func (r *RotatingToken) refresh(ctx context.Context, force bool) error {
	sess, err := r.snapshot(ctx)
	if err != nil {
		return err
	}
	if sess == nil || sess.Exhausted {
		return r.stale()
	}
	if !force && !sess.tokens().IsExpired(r.now(), refreshLeeway) {
		return nil
	}

	cfg := oauth2.Config{
		Endpoint: oauth2.Endpoint{
			TokenURL:  r.base(sess.Environment) + tokenPath,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
	octx := context.WithValue(ctx, oauth2.HTTPClient, r.httpClient)
	tok, err := cfg.TokenSource(octx, &oauth2.Token{RefreshToken: sess.RefreshToken}).Token()
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
			switch retrieveErr.Response.StatusCode {
			case http.StatusBadRequest, http.StatusUnauthorized:
				r.exhaust(ctx, sess.RefreshToken)
				return errors.Mark(errors.Wrap(err, "refresh token rejected"), domain.ErrAuth)
			}
		}
		return errors.Mark(errors.Wrap(err, "refresh access token"), domain.ErrNetwork)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil || r.current.RefreshToken != sess.RefreshToken {
		// Signed out or signed in again meanwhile.
		return nil
	}
	next := *r.current
	next.AccessToken = tok.AccessToken
	if tok.RefreshToken != "" {
		next.RefreshToken = tok.RefreshToken
	}
	if tok.TokenType != "" {
		next.TokenType = tok.TokenType
	}
	next.Expiry = tok.Expiry
	if next.Expiry.IsZero() {
		next.Expiry = accessTokenExpiry(tok.AccessToken)
	}
	if err := r.persistLocked(ctx, &next); err != nil {
		return err
	}
	logger.Debug("auth: refreshed access token for %s", next.UserID)
	return nil
}

// exhaust marks the session unusable and signals reauthentication.
func (r *RotatingToken) exhaust(ctx context.Context, refreshToken string) {
	r.mu.Lock()
	if r.current == nil || r.current.RefreshToken != refreshToken {
		r.mu.Unlock()
		return
	}
	next := *r.current
	next.Exhausted = true
	if err := r.persistLocked(ctx, &next); err != nil {
		logger.Error("auth: persist exhausted session: %v", err)
	}
	r.mu.Unlock()

	logger.Warn("auth: refresh token rejected, reauthentication required")
	r.requests.TryBroadcast(struct{}{})
}

// stale signals that a protected call found no usable session.
func (r *RotatingToken) stale() error {
	r.requests.TryBroadcast(struct{}{})
	return domain.ErrReauthenticationRequired
}

// SignIn exchanges signInToken for a session. Signing in again for the
// current user is a no-op unless the session is exhausted; a token for
// another user fails with domain.ErrUserMismatch.
func (r *RotatingToken) SignIn(ctx context.Context, signInToken string) (domain.SignInResult, error) {
	userID, env, err := parseSignInToken(signInToken)
	if err != nil {
		return domain.SignInResult{}, err
	}

	sess, err := r.snapshot(ctx)
	if err != nil {
		return domain.SignInResult{}, err
	}
	if sess != nil {
		if sess.UserID != userID {
			return domain.SignInResult{}, errors.Wrapf(domain.ErrUserMismatch,
				"signed in as %s, token is for %s", sess.UserID, userID)
		}
		if !sess.Exhausted {
			return domain.SignInResult{UserID: sess.UserID, Environment: sess.Environment}, nil
		}
	}

	result, err := r.exchanger.Exchange(ctx, env, signInToken)
	if err != nil {
		return domain.SignInResult{}, errors.Wrap(err, "exchange sign-in token")
	}
	if result.UserID != "" && result.UserID != userID {
		return domain.SignInResult{}, errors.Wrapf(domain.ErrAuth,
			"sign-in issued for %s, token claims %s", result.UserID, userID)
	}

	next := &session{
		UserID:       userID,
		AccessToken:  result.Tokens.AccessToken,
		RefreshToken: result.Tokens.RefreshToken,
		TokenType:    result.Tokens.TokenType,
		Expiry:       result.Tokens.Expiry,
		Environment:  env,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.persistLocked(ctx, next); err != nil {
		return domain.SignInResult{}, err
	}
	logger.Info("auth: signed in %s (%s)", userID, env)
	return domain.SignInResult{UserID: userID, Environment: env}, nil
}

// SignOut discards the session.
func (r *RotatingToken) SignOut(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.store.Clean(ctx, keyJWTAuth); err != nil {
		return errors.Wrap(err, "clean session")
	}
	r.current = nil
	r.loaded = true
	return nil
}

// snapshot returns a copy of the session, loading it on first use.
func (r *RotatingToken) snapshot(ctx context.Context) (*session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.loaded {
		sess, err := r.load(ctx)
		if err != nil {
			return nil, err
		}
		r.current = sess
		r.loaded = true
	}
	if r.current == nil {
		return nil, nil
	}
	cp := *r.current
	return &cp, nil
}

func (r *RotatingToken) load(ctx context.Context) (*session, error) {
	raw, err := r.store.Get(ctx, keyJWTAuth)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return nil, nil
	case errors.Is(err, domain.ErrStorageCorrupted):
		logger.Error("auth: stored session is corrupted, treating as signed out: %v", err)
		return nil, nil
	case err != nil:
		return nil, errors.Wrap(err, "read session")
	}

	var sess session
	if err := json.Unmarshal(raw, &sess); err != nil {
		logger.Error("auth: stored session is unreadable, treating as signed out: %v", err)
		return nil, nil
	}
	return &sess, nil
}

func (r *RotatingToken) persistLocked(ctx context.Context, sess *session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return errors.Wrap(err, "encode session")
	}
	if err := r.store.Set(ctx, keyJWTAuth, raw); err != nil {
		return errors.Wrap(err, "store session")
	}
	r.current = sess
	r.loaded = true
	return nil
}

func (r *RotatingToken) base(env domain.Environment) string {
	if r.baseURL != "" {
		return r.baseURL
	}
	return env.BaseURL()
}
