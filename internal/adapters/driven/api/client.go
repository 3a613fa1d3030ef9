package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/youngmin9/vitalsync/internal/core/domain"
	"github.com/youngmin9/vitalsync/internal/core/ports/driven"
	"github.com/youngmin9/vitalsync/internal/logger"
)

// Ensure Client implements the APIClient interface.
var _ driven.APIClient = (*Client)(nil)

// Client talks to the ingestion API of one environment.
type Client struct {
	baseURL string
	auth    driven.AuthStrategy
	http    *http.Client
	limiter *RateLimiter
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// WithBaseURL overrides the environment base URL.
func WithBaseURL(u string) Option {
	return func(cl *Client) { cl.baseURL = strings.TrimRight(u, "/") }
}

// WithRateLimiter sets the request limiter.
func WithRateLimiter(l *RateLimiter) Option {
	return func(cl *Client) { cl.limiter = l }
}

// NewClient creates a client for env authenticating with auth.
func NewClient(env domain.Environment, auth driven.AuthStrategy, opts ...Option) *Client {
	c := &Client{
		baseURL: env.BaseURL(),
		auth:    auth,
		http:    &http.Client{Timeout: 60 * time.Second},
		limiter: NewRateLimiter(DefaultRate, DefaultBurst),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// summaryRequest is the body of a resource push.
type summaryRequest struct {
	Stage     string               `json:"stage"`
	StartDate *time.Time           `json:"start_date,omitempty"`
	EndDate   *time.Time           `json:"end_date,omitempty"`
	Provider  string               `json:"provider"`
	TimeZone  string               `json:"time_zone"`
	Data      domain.ProcessedData `json:"data"`
}

// Post pushes data for the user's resource.
func (c *Client) Post(
	ctx context.Context,
	userID string,
	resource domain.Resource,
	data domain.ProcessedData,
	stage domain.Stage,
	provider string,
	tz *time.Location,
) error {
	if tz == nil {
		tz = time.UTC
	}
	body := summaryRequest{
		Stage:    string(stage.Kind()),
		Provider: provider,
		TimeZone: tz.String(),
		Data:     data,
	}
	if start, end, ok := stage.Window(); ok {
		body.StartDate, body.EndDate = &start, &end
	}

	path := "/v2/summary/" + url.PathEscape(string(resource)) + "/" + url.PathEscape(userID)
	if err := c.do(ctx, http.MethodPost, path, body, nil); err != nil {
		return errors.Wrapf(err, "post %s", resource)
	}
	logger.Debug("api: pushed %d records for %s (%s)", data.Count(), resource, stage)
	return nil
}

// CreateConnectedSource links provider to the user.
func (c *Client) CreateConnectedSource(ctx context.Context, userID, provider string) error {
	path := "/v2/link/provider/manual/" + url.PathEscape(provider)
	body := map[string]string{"user_id": userID}
	if err := c.do(ctx, http.MethodPost, path, body, nil); err != nil {
		return errors.Wrapf(err, "link %s", provider)
	}
	return nil
}

type providersResponse struct {
	Providers []struct {
		Slug string `json:"slug"`
	} `json:"providers"`
}

// ListConnectedSources returns the provider slugs linked to the user.
func (c *Client) ListConnectedSources(ctx context.Context, userID string) ([]string, error) {
	var out providersResponse
	if err := c.do(ctx, http.MethodGet, "/v2/user/providers/"+url.PathEscape(userID), nil, &out); err != nil {
		return nil, errors.Wrap(err, "list connected sources")
	}
	slugs := make([]string, 0, len(out.Providers))
	for _, p := range out.Providers {
		slugs = append(slugs, p.Slug)
	}
	return slugs, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var raw []byte
	if in != nil {
		var err error
		if raw, err = json.Marshal(in); err != nil {
			return errors.Wrap(err, "encode request")
		}
	}

	err := c.send(ctx, method, path, raw, out)
	var httpErr *domain.HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusUnauthorized {
		return err
	}

	// The server rejected the access token. A rotating session gets one
	// refresh and one retry; a failed refresh has already raised a
	// reauthentication request.
	session, ok := c.auth.(driven.SessionAuth)
	if !ok {
		return err
	}
	if rerr := session.Refresh(ctx); rerr != nil {
		logger.Warn("api: refresh after 401 on %s failed: %v", path, rerr)
		return err
	}
	return c.send(ctx, method, path, raw, out)
}

func (c *Client) send(ctx context.Context, method, path string, raw []byte, out any) error {
	cred, err := c.auth.Credential(ctx)
	if err != nil {
		return errors.Wrap(err, "credential")
	}

	var body io.Reader
	if raw != nil {
		body = bytes.NewReader(raw)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return errors.Wrap(err, "create request")
	}
	req.Header.Set(cred.Header, cred.Value)
	req.Header.Set("Accept", "application/json")
	if raw != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Mark(errors.Wrap(err, "send request"), domain.ErrNetwork)
	}
	defer resp.Body.Close()
	c.limiter.Observe(resp)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &domain.HTTPError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Mark(errors.Wrap(err, "decode response"), domain.ErrNetwork)
	}
	return nil
}
