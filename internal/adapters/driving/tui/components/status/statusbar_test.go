package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/youngmin9/vitalsync/internal/adapters/driving/tui/keymap"
	"github.com/youngmin9/vitalsync/internal/adapters/driving/tui/styles"
)

func TestNewBar(t *testing.T) {
	bar := NewBar(styles.DefaultStyles(), keymap.DefaultKeyMap())

	require.NotNil(t, bar)
	assert.Equal(t, StateReady, bar.State())
	assert.Empty(t, bar.Message())
	synced, failed := bar.Counts()
	assert.Zero(t, synced)
	assert.Zero(t, failed)
}

func TestNewBar_NilDependencies(t *testing.T) {
	bar := NewBar(nil, nil)

	assert.NotNil(t, bar.styles)
	assert.NotNil(t, bar.keymap)
	assert.Equal(t, 80, bar.Width())
}

func TestBar_View(t *testing.T) {
	tests := []struct {
		name    string
		state   State
		message string
		want    string
	}{
		{"ready", StateReady, "", "Ready"},
		{"syncing resource", StateSyncing, "sleep", "Syncing sleep..."},
		{"syncing", StateSyncing, "", "Syncing..."},
		{"error with message", StateError, "network down", "Error: network down"},
		{"help", StateHelp, "", "Help"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := NewBar(nil, nil)
			bar.SetWidth(120)
			bar.SetState(tt.state)
			bar.SetMessage(tt.message)

			view := bar.View()

			assert.Contains(t, view, tt.want)
			assert.Contains(t, view, "a: sync all")
		})
	}
}

func TestBar_CountsAndClear(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetWidth(120)
	bar.RecordSynced()
	bar.RecordSynced()
	bar.RecordFailed()

	assert.Contains(t, bar.View(), "2 synced, 1 failed")

	bar.SetState(StateError)
	bar.Clear()
	synced, failed := bar.Counts()
	assert.Zero(t, synced)
	assert.Zero(t, failed)
	assert.Equal(t, StateReady, bar.State())
}

func TestBar_Bindings(t *testing.T) {
	assert.Len(t, NewBar(nil, nil).Bindings(), 4)
}
