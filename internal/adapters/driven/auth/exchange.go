package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/youngmin9/vitalsync/internal/core/domain"
	"github.com/youngmin9/vitalsync/internal/core/ports/driven"
)

const signInPath = "/v2/auth/sign-in"

// Ensure HTTPExchanger implements the TokenExchanger interface.
var _ driven.TokenExchanger = (*HTTPExchanger)(nil)

// HTTPExchanger trades a sign-in token for a session over HTTP.
type HTTPExchanger struct {
	client  *http.Client
	baseURL string
	now     func() time.Time
}

// ExchangerOption configures an HTTPExchanger.
type ExchangerOption func(*HTTPExchanger)

// WithExchangeHTTPClient sets the HTTP client.
func WithExchangeHTTPClient(c *http.Client) ExchangerOption {
	return func(e *HTTPExchanger) { e.client = c }
}

// WithExchangeBaseURL overrides the environment base URL.
func WithExchangeBaseURL(url string) ExchangerOption {
	return func(e *HTTPExchanger) { e.baseURL = strings.TrimRight(url, "/") }
}

// NewHTTPExchanger creates an exchanger.
func NewHTTPExchanger(opts ...ExchangerOption) *HTTPExchanger {
	e := &HTTPExchanger{
		client: &http.Client{Timeout: 30 * time.Second},
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type signInResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	UserID       string `json:"user_id"`
}

// Exchange posts the sign-in token and returns the issued session.
// A 4xx response is marked with domain.ErrAuth.
func (e *HTTPExchanger) Exchange(
	ctx context.Context,
	env domain.Environment,
	signInToken string,
) (driven.ExchangeResult, error) {
	base := e.baseURL
	if base == "" {
		base = env.BaseURL()
	}

	body, err := json.Marshal(map[string]string{"sign_in_token": signInToken})
	if err != nil {
		return driven.ExchangeResult{}, errors.Wrap(err, "encode sign-in request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+signInPath, bytes.NewReader(body))
	if err != nil {
		return driven.ExchangeResult{}, errors.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return driven.ExchangeResult{}, errors.Mark(errors.Wrap(err, "sign-in request"), domain.ErrNetwork)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		httpErr := errors.Wrap(&domain.HTTPError{StatusCode: resp.StatusCode, Body: string(raw)}, "sign-in rejected")
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return driven.ExchangeResult{}, errors.Mark(httpErr, domain.ErrAuth)
		}
		return driven.ExchangeResult{}, httpErr
	}

	var out signInResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return driven.ExchangeResult{}, errors.Wrap(err, "decode sign-in response")
	}
	if out.AccessToken == "" || out.RefreshToken == "" {
		return driven.ExchangeResult{}, errors.Wrap(domain.ErrAuth, "sign-in response has no tokens")
	}

	tokens := domain.TokenPair{
		AccessToken:  out.AccessToken,
		RefreshToken: out.RefreshToken,
		TokenType:    out.TokenType,
	}
	if out.ExpiresIn > 0 {
		tokens.Expiry = e.now().Add(time.Duration(out.ExpiresIn) * time.Second)
	} else {
		tokens.Expiry = accessTokenExpiry(out.AccessToken)
	}

	return driven.ExchangeResult{UserID: out.UserID, Tokens: tokens}, nil
}
