package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnvironment(t *testing.T) {
	env, err := ParseEnvironment("Sandbox", "EU")
	require.NoError(t, err)
	assert.Equal(t, Environment{Stage: StageSandbox, Region: RegionEU}, env)
	assert.Equal(t, "https://api.sandbox.eu.tryvital.io", env.BaseURL())
	assert.Equal(t, "sandbox-eu", env.String())

	env, err = ParseEnvironment("production", "")
	require.NoError(t, err)
	assert.Equal(t, RegionUS, env.Region)
	assert.Equal(t, "https://api.tryvital.io", env.BaseURL())

	_, err = ParseEnvironment("staging", "us")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestEnvironment_AllStagesHaveBaseURL(t *testing.T) {
	for _, stage := range []EnvironmentStage{StageDev, StageSandbox, StageProduction, StageLocal} {
		for _, region := range []Region{RegionUS, RegionEU} {
			env := Environment{Stage: stage, Region: region}
			assert.True(t, env.IsValid(), env.String())
			assert.NotEmpty(t, env.BaseURL(), env.String())
		}
	}
}

func TestAuthMode_Variants(t *testing.T) {
	env := Environment{Stage: StageDev, Region: RegionUS}

	var mode AuthMode = APIKeyMode{Key: "k", Environment: env}
	assert.Equal(t, AuthModeAPIKey, mode.Kind())
	assert.Equal(t, env, mode.Env())

	mode = JWTMode{Environment: env}
	assert.Equal(t, AuthModeJWT, mode.Kind())
	assert.Equal(t, env, mode.Env())
}

func TestTokenPair_IsExpired(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.False(t, TokenPair{}.IsExpired(now, time.Minute), "zero expiry never expires")
	assert.False(t, TokenPair{Expiry: now.Add(2 * time.Minute)}.IsExpired(now, time.Minute))
	assert.True(t, TokenPair{Expiry: now.Add(30 * time.Second)}.IsExpired(now, time.Minute))
	assert.True(t, TokenPair{Expiry: now.Add(-time.Second)}.IsExpired(now, 0))
}
