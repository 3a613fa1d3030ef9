package services

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/youngmin9/vitalsync/internal/broadcast"
	"github.com/youngmin9/vitalsync/internal/core/domain"
	"github.com/youngmin9/vitalsync/internal/core/ports/driven"
)

const waitTimeout = 2 * time.Second

// --- fakeHealthStore ---

type readCall struct {
	resource   domain.Resource
	start, end time.Time
}

type fakeHealthStore struct {
	mu sync.Mutex

	available bool
	authErr   error
	permitted []domain.Resource

	results map[domain.Resource]domain.ReadResult
	readErr error
	// readBlock makes Read wait until ctx is done.
	readBlock bool
	reads     []readCall
	writes    []domain.WriteInput

	authCalls    int
	enabledTypes []domain.DataType
	observeErr   map[domain.DataType]error
	watches      map[domain.DataType]chan domain.ChangeEvent
	observeCalls atomic.Int32
	teardowns    atomic.Int32
}

func newFakeHealthStore() *fakeHealthStore {
	return &fakeHealthStore{
		available:  true,
		results:    make(map[domain.Resource]domain.ReadResult),
		observeErr: make(map[domain.DataType]error),
		watches:    make(map[domain.DataType]chan domain.ChangeEvent),
	}
}

func (f *fakeHealthStore) IsAvailable() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.available
}

func (f *fakeHealthStore) RequestAuthorization(_ context.Context, read []domain.Resource, _ []domain.WritableResource) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.authCalls++
	if f.authErr != nil {
		return f.authErr
	}
	f.permitted = append(f.permitted, read...)
	return nil
}

func (f *fakeHealthStore) HasRequestedPermission(_ context.Context, r domain.Resource) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.permitted {
		if p == r {
			return true
		}
	}
	return false
}

func (f *fakeHealthStore) PermittedResources(_ context.Context) ([]domain.Resource, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Resource(nil), f.permitted...), nil
}

func (f *fakeHealthStore) Read(ctx context.Context, r domain.Resource, start, end time.Time, _ driven.AnchorReader) (domain.ReadResult, error) {
	f.mu.Lock()
	f.reads = append(f.reads, readCall{resource: r, start: start, end: end})
	block, err, result := f.readBlock, f.readErr, f.results[r]
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return domain.ReadResult{}, ctx.Err()
	}
	return result, err
}

func (f *fakeHealthStore) Observe(ctx context.Context, dt domain.DataType) (<-chan domain.ChangeEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	defer f.observeCalls.Add(1)
	if err := f.observeErr[dt]; err != nil {
		return nil, err
	}
	in := make(chan domain.ChangeEvent, 8)
	out := make(chan domain.ChangeEvent)
	f.watches[dt] = in
	go func() {
		defer close(out)
		defer f.teardowns.Add(1)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-in:
				if !ok {
					return
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (f *fakeHealthStore) EnableBackgroundDelivery(_ context.Context, dt domain.DataType, _ domain.Frequency) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enabledTypes = append(f.enabledTypes, dt)
	return nil
}

func (f *fakeHealthStore) Write(_ context.Context, input domain.WriteInput, _, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = append(f.writes, input)
	return nil
}

// emit pushes a change for dt, waiting until the watch exists.
func (f *fakeHealthStore) emit(t *testing.T, dt domain.DataType, ack func()) {
	t.Helper()
	var ch chan domain.ChangeEvent
	require.Eventually(t, func() bool {
		f.mu.Lock()
		defer f.mu.Unlock()
		ch = f.watches[dt]
		return ch != nil
	}, waitTimeout, 5*time.Millisecond, "no watch for %s", dt)
	ch <- domain.ChangeEvent{DataType: dt, Ack: ack}
}

func (f *fakeHealthStore) readCalls() []readCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]readCall(nil), f.reads...)
}

// --- fakeAPI ---

type postCall struct {
	userID   string
	resource domain.Resource
	data     domain.ProcessedData
	stage    domain.Stage
	provider string
	tz       *time.Location
}

type fakeAPI struct {
	mu          sync.Mutex
	posts       []postCall
	postErr     error
	linked      []string
	listCalls   int
	createCalls int
}

func (a *fakeAPI) Post(_ context.Context, userID string, r domain.Resource, data domain.ProcessedData, stage domain.Stage, provider string, tz *time.Location) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.postErr != nil {
		return a.postErr
	}
	a.posts = append(a.posts, postCall{userID, r, data, stage, provider, tz})
	return nil
}

func (a *fakeAPI) CreateConnectedSource(_ context.Context, _ string, provider string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.createCalls++
	a.linked = append(a.linked, provider)
	return nil
}

func (a *fakeAPI) ListConnectedSources(_ context.Context, _ string) ([]string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listCalls++
	return append([]string(nil), a.linked...), nil
}

func (a *fakeAPI) postCalls() []postCall {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]postCall(nil), a.posts...)
}

// --- fakeStaticAuth ---

type fakeStaticAuth struct{ key string }

func (s fakeStaticAuth) Credential(context.Context) (domain.Credential, error) {
	return domain.Credential{Header: "X-Vital-API-Key", Value: s.key}, nil
}

func (fakeStaticAuth) Kind() domain.AuthModeKind { return domain.AuthModeAPIKey }

// --- fakeSessionAuth ---

type fakeSessionAuth struct {
	mu        sync.Mutex
	userID    string
	env       domain.Environment
	needs     bool
	signInErr error
	signIns   []string
	signOuts  int
	requests  *broadcast.Broadcaster[struct{}]
}

func newFakeSessionAuth() *fakeSessionAuth {
	return &fakeSessionAuth{
		env:      domain.Environment{Stage: domain.StageSandbox, Region: domain.RegionUS},
		requests: broadcast.New[struct{}](),
	}
}

func (s *fakeSessionAuth) Credential(context.Context) (domain.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.userID == "" || s.needs {
		return domain.Credential{}, domain.ErrReauthenticationRequired
	}
	return domain.Credential{Header: "Authorization", Value: "Bearer token"}, nil
}

func (*fakeSessionAuth) Kind() domain.AuthModeKind { return domain.AuthModeJWT }

func (s *fakeSessionAuth) CurrentUserID(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID, nil
}

func (s *fakeSessionAuth) NeedsReauthentication(context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID == "" || s.needs
}

func (s *fakeSessionAuth) Refresh(context.Context) error { return nil }

func (s *fakeSessionAuth) SignIn(_ context.Context, token string) (domain.SignInResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signIns = append(s.signIns, token)
	if s.signInErr != nil {
		return domain.SignInResult{}, s.signInErr
	}
	// Tokens in tests are the user id.
	if s.userID != "" && s.userID != token && !s.needs {
		return domain.SignInResult{}, domain.ErrUserMismatch
	}
	s.userID = token
	s.needs = false
	return domain.SignInResult{UserID: token, Environment: s.env}, nil
}

func (s *fakeSessionAuth) SignOut(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signOuts++
	s.userID = ""
	return nil
}

func (s *fakeSessionAuth) ReauthenticationRequests() (<-chan struct{}, func()) {
	ch := s.requests.AddListener()
	return ch, func() { s.requests.RemoveListener(ch) }
}

func (s *fakeSessionAuth) markStale() {
	s.mu.Lock()
	s.needs = true
	s.mu.Unlock()
	s.requests.Broadcast(struct{}{})
}

func (s *fakeSessionAuth) signInTokens() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.signIns...)
}

// --- status helpers ---

// drainStatuses returns every status already buffered on ch.
func drainStatuses(ch <-chan domain.SyncStatus) []domain.SyncStatus {
	var out []domain.SyncStatus
	for {
		select {
		case s := <-ch:
			out = append(out, s)
		default:
			return out
		}
	}
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	require.Eventually(t, cond, waitTimeout, 5*time.Millisecond, msg)
}
