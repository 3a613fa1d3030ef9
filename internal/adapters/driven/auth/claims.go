package auth

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/golang-jwt/jwt/v5"

	"github.com/youngmin9/vitalsync/internal/core/domain"
)

// signInClaims is the payload of a host-issued sign-in token.
type signInClaims struct {
	jwt.RegisteredClaims
	UserID      string `json:"user_id,omitempty"`
	Environment string `json:"environment,omitempty"`
	Region      string `json:"region,omitempty"`
}

// parseSignInToken reads the user and environment a sign-in token was issued
// for. The signature is checked by the backend during the exchange, not here.
func parseSignInToken(token string) (string, domain.Environment, error) {
	claims := &signInClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return "", domain.Environment{}, errors.Mark(errors.Wrap(err, "decode sign-in token"), domain.ErrInvalidInput)
	}

	userID := claims.UserID
	if userID == "" {
		userID = claims.Subject
	}
	if userID == "" {
		return "", domain.Environment{}, errors.Wrap(domain.ErrInvalidInput, "sign-in token has no user")
	}

	env, err := domain.ParseEnvironment(claims.Environment, claims.Region)
	if err != nil {
		return "", domain.Environment{}, errors.Wrap(err, "sign-in token environment")
	}
	return userID, env, nil
}

// accessTokenExpiry returns the exp claim of an access token, or the zero
// time when it is not a JWT or carries no expiry.
func accessTokenExpiry(token string) time.Time {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}
