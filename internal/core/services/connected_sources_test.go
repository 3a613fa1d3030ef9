package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/youngmin9/vitalsync/internal/core/domain"
)

func TestConnectedSources_AlreadyLinked(t *testing.T) {
	api := &fakeAPI{linked: []string{domain.ProviderHealthKit}}
	sources := NewConnectedSources()

	require.NoError(t, sources.Ensure(context.Background(), api, "u1", domain.ProviderHealthKit))

	assert.Equal(t, 1, api.listCalls)
	assert.Zero(t, api.createCalls)
	assert.Equal(t, 1, sources.Len())
}

func TestConnectedSources_CreatesMissingLink(t *testing.T) {
	api := &fakeAPI{}
	sources := NewConnectedSources()
	ctx := context.Background()

	require.NoError(t, sources.Ensure(ctx, api, "u1", domain.ProviderHealthKit))
	require.NoError(t, sources.Ensure(ctx, api, "u1", domain.ProviderHealthKit))

	assert.Equal(t, 1, api.listCalls)
	assert.Equal(t, 1, api.createCalls)
}

func TestConnectedSources_PerUser(t *testing.T) {
	api := &fakeAPI{linked: []string{domain.ProviderHealthKit}}
	sources := NewConnectedSources()
	ctx := context.Background()

	require.NoError(t, sources.Ensure(ctx, api, "u1", domain.ProviderHealthKit))
	require.NoError(t, sources.Ensure(ctx, api, "u2", domain.ProviderHealthKit))

	assert.Equal(t, 2, api.listCalls)
	assert.True(t, sources.Has("u1", domain.ProviderHealthKit))
	assert.True(t, sources.Has("u2", domain.ProviderHealthKit))

	sources.Flush()
	assert.Zero(t, sources.Len())
	assert.False(t, sources.Has("u1", domain.ProviderHealthKit))
}
