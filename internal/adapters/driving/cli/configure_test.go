package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/youngmin9/vitalsync/internal/core/domain"
)

func TestConfigureCmd_UsesFlags(t *testing.T) {
	fake := newFakeClient()
	withClient(t, fake)

	out, err := runCommand(t, "configure",
		"--api-key", "key-1234567890",
		"--env", "sandbox-eu",
		"--push-mode", "manual",
		"--backfill-days", "10",
		"--background-delivery")
	require.NoError(t, err)

	require.Len(t, fake.configured, 1)
	env := domain.Environment{Stage: domain.StageSandbox, Region: domain.RegionEU}
	assert.Equal(t, domain.APIKeyMode{Key: "key-1234567890", Environment: env}, fake.configured[0])

	cfg := fake.configs[0]
	assert.Equal(t, 10, cfg.BackfillDays)
	assert.Equal(t, domain.PushModeManual, cfg.PushMode)
	assert.True(t, cfg.BackgroundDeliveryEnabled)

	assert.Contains(t, out, "Configured API key key-...7890 for sandbox-eu.")
	assert.NotContains(t, out, "key-1234567890")
}

func TestConfigureCmd_DefaultsFromSettings(t *testing.T) {
	fake := newFakeClient()
	withClient(t, fake)
	svc := withSettings(t)
	require.NoError(t, svc.Set(domain.SettingEnvironment, "production-eu"))
	require.NoError(t, svc.Set(domain.SettingBackfillDays, "45"))

	_, err := runCommand(t, "configure", "--api-key", "key-1234567890")
	require.NoError(t, err)

	require.Len(t, fake.configured, 1)
	assert.Equal(t, domain.Environment{Stage: domain.StageProduction, Region: domain.RegionEU}, fake.configured[0].Env())
	assert.Equal(t, 45, fake.configs[0].BackfillDays)
	assert.Equal(t, domain.PushModeAutomatic, fake.configs[0].PushMode)
}

func TestConfigureCmd_KeyFromEnvironment(t *testing.T) {
	fake := newFakeClient()
	withClient(t, fake)
	t.Setenv("VITALSYNC_API_KEY", "env-key-abcdef")

	_, err := runCommand(t, "configure")
	require.NoError(t, err)

	require.Len(t, fake.configured, 1)
	assert.Equal(t, "env-key-abcdef", fake.configured[0].(domain.APIKeyMode).Key)
	assert.Equal(t, sandboxUS(), fake.configured[0].Env())
}

func TestConfigureCmd_PromptsForKey(t *testing.T) {
	fake := newFakeClient()
	withClient(t, fake)
	t.Setenv("VITALSYNC_API_KEY", "")
	withStdin(t, "prompted-key-9999\n")

	out, err := runCommand(t, "configure")
	require.NoError(t, err)

	assert.Contains(t, out, "API key: ")
	require.Len(t, fake.configured, 1)
	assert.Equal(t, "prompted-key-9999", fake.configured[0].(domain.APIKeyMode).Key)
}

func TestConfigureCmd_InvalidEnvironment(t *testing.T) {
	fake := newFakeClient()
	withClient(t, fake)

	_, err := runCommand(t, "configure", "--api-key", "k", "--env", "staging-mars")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, fake.configured)
}

func TestConfigureCmd_ClientError(t *testing.T) {
	fake := newFakeClient()
	fake.configureErr = errors.New("mode mismatch")
	withClient(t, fake)

	_, err := runCommand(t, "configure", "--api-key", "key-1234567890")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "configure failed")
}

func TestConfigureCmd_NoClient(t *testing.T) {
	withClient(t, nil)

	_, err := runCommand(t, "configure", "--api-key", "k")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "client not configured")
}

func TestSigninCmd_TokenArgument(t *testing.T) {
	fake := newFakeClient()
	withClient(t, fake)

	out, err := runCommand(t, "signin", "signin-token", "--push-mode", "manual")
	require.NoError(t, err)

	assert.Equal(t, "signin-token", fake.signInToken)
	assert.Equal(t, domain.PushModeManual, fake.configs[0].PushMode)
	assert.Contains(t, out, "Signed in as user-from-token (sandbox-eu).")
}

func TestSigninCmd_PromptsForToken(t *testing.T) {
	fake := newFakeClient()
	withClient(t, fake)
	withStdin(t, "  prompted-token \n")

	_, err := runCommand(t, "signin")
	require.NoError(t, err)

	assert.Equal(t, "prompted-token", fake.signInToken)
}

func TestSigninCmd_EmptyToken(t *testing.T) {
	fake := newFakeClient()
	withClient(t, fake)
	withStdin(t, "\n")

	_, err := runCommand(t, "signin")

	require.Error(t, err)
	assert.Empty(t, fake.signInToken)
}

func TestSigninCmd_Rejected(t *testing.T) {
	fake := newFakeClient()
	fake.signInErr = domain.ErrUserMismatch
	withClient(t, fake)

	_, err := runCommand(t, "signin", "other-user-token")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUserMismatch)
}
