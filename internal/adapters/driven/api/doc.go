// Package api is the HTTP client for the remote ingestion API.
//
// Every request carries the credential of the configured AuthStrategy and
// is paced by a token bucket that also honours Retry-After on 429.
package api
