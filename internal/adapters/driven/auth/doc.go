// Package auth provides the AuthStrategy implementations.
//
//   - StaticKey: a host-supplied API key sent on every request
//   - RotatingToken: a per-user access/refresh pair obtained by sign-in,
//     refreshed ahead of expiry and persisted in the secure store
//   - HTTPExchanger: trades a sign-in token for an access/refresh pair
package auth
