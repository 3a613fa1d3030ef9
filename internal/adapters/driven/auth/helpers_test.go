package auth

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const (
	testUser  = "5e1f3a52-3f0b-4d5c-9f41-0d2c6b7a8e91"
	otherUser = "c3a9d4e2-7b1f-4f60-8a2d-9e5b1c0f7a34"
)

func mintSignInToken(t *testing.T, claims signInClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("host-secret"))
	require.NoError(t, err)
	return token
}

func signInTokenFor(t *testing.T, userID string) string {
	t.Helper()
	return mintSignInToken(t, signInClaims{UserID: userID, Environment: "sandbox", Region: "eu"})
}

// tokenServer serves the sign-in and refresh endpoints.
type tokenServer struct {
	*httptest.Server

	mu             sync.Mutex
	signIns        []string
	refreshes      []string
	signInExpires  int
	refreshExpires int
	refreshStatus  int
	signInStatus   int
	issued         int
}

func newTokenServer(t *testing.T) *tokenServer {
	t.Helper()
	s := &tokenServer{signInExpires: 3600, refreshExpires: 3600}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v2/auth/sign-in", s.handleSignIn)
	mux.HandleFunc("POST /v2/auth/token", s.handleRefresh)
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

func (s *tokenServer) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var body struct {
		SignInToken string `json:"sign_in_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "bad body", http.StatusBadRequest)
		return
	}
	userID, _, err := parseSignInToken(body.SignInToken)
	if err != nil {
		http.Error(w, "bad token", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.signIns = append(s.signIns, userID)
	if s.signInStatus != 0 {
		http.Error(w, "sign-in refused", s.signInStatus)
		return
	}
	s.issued++
	writeJSON(w, map[string]any{
		"access_token":  fmt.Sprintf("access-%d", s.issued),
		"refresh_token": fmt.Sprintf("refresh-%d", s.issued),
		"token_type":    "Bearer",
		"expires_in":    s.signInExpires,
		"user_id":       userID,
	})
}

func (s *tokenServer) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshes = append(s.refreshes, r.PostForm.Get("refresh_token"))
	if r.PostForm.Get("grant_type") != "refresh_token" {
		http.Error(w, "bad grant", http.StatusBadRequest)
		return
	}
	if s.refreshStatus != 0 {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(s.refreshStatus)
		_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
		return
	}
	s.issued++
	writeJSON(w, map[string]any{
		"access_token":  fmt.Sprintf("access-%d", s.issued),
		"refresh_token": fmt.Sprintf("refresh-%d", s.issued),
		"token_type":    "Bearer",
		"expires_in":    s.refreshExpires,
	})
}

func (s *tokenServer) signInCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.signIns)
}

func (s *tokenServer) refreshTokens() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.refreshes...)
}

func (s *tokenServer) set(fn func(*tokenServer)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
