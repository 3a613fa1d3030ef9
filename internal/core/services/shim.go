package services

import "sync"

var (
	sharedMu sync.Mutex
	shared   *Client
)

// Shared returns the process-wide client, creating it with newClient on
// first use. Prefer passing a *Client explicitly; this accessor exists for
// hosts that expect a singleton.
func Shared(newClient func() *Client) *Client {
	sharedMu.Lock()
	defer sharedMu.Unlock()
	if shared == nil {
		shared = newClient()
	}
	return shared
}

// SetShared replaces the process-wide client and returns the previous one.
func SetShared(c *Client) *Client {
	sharedMu.Lock()
	defer sharedMu.Unlock()
	previous := shared
	shared = c
	return previous
}
