package list

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/youngmin9/vitalsync/internal/core/domain"
)

func newTestList() *ResourceList {
	return NewResourceList(nil, []domain.Resource{domain.ResourceBody, domain.ResourceSleep, domain.ResourceGlucose})
}

func TestResourceList_Navigation(t *testing.T) {
	l := newTestList()
	assert.Equal(t, domain.ResourceBody, l.SelectedResource())

	l.Update(tea.KeyMsg{Type: tea.KeyDown})
	l.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")})
	l.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, domain.ResourceGlucose, l.SelectedResource(), "stops at the last row")

	l.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("k")})
	assert.Equal(t, domain.ResourceSleep, l.SelectedResource())
}

func TestResourceList_Apply(t *testing.T) {
	l := newTestList()
	data := domain.ProcessedData{Sleeps: []domain.Sleep{{ID: "s1"}, {ID: "s2"}}}

	l.Apply(domain.Syncing{Res: domain.ResourceSleep})
	assert.Equal(t, RowSyncing, l.Rows()[1].State)

	l.Apply(domain.SuccessSyncing{Res: domain.ResourceSleep, Data: data})
	l.Apply(domain.FailedSyncing{Res: domain.ResourceBody, Reason: "network error"})
	l.Apply(domain.NothingToSync{Res: domain.ResourceGlucose})
	l.Apply(domain.SyncingCompleted{})
	l.Apply(domain.Syncing{Res: domain.ResourceWorkout})

	rows := l.Rows()
	require.Len(t, rows, 3)
	assert.Equal(t, Row{Resource: domain.ResourceBody, State: RowFailed, Detail: "network error"}, rows[0])
	assert.Equal(t, Row{Resource: domain.ResourceSleep, State: RowSynced, Detail: "2 records"}, rows[1])
	assert.Equal(t, RowNothing, rows[2].State)
}

func TestResourceList_View(t *testing.T) {
	l := newTestList()
	l.SetDimensions(120, 10)
	l.SetLastSync(domain.ResourceSleep, time.Date(2024, 6, 15, 10, 0, 0, 0, time.Local))
	l.Apply(domain.FailedSyncing{Res: domain.ResourceBody, Reason: "boom"})

	view := l.View()

	assert.Contains(t, view, "> body")
	assert.Contains(t, view, "failed boom")
	assert.Contains(t, view, "2024-06-15 10:00")
	assert.Contains(t, view, "never")
}

func TestResourceList_ViewScrollsToSelection(t *testing.T) {
	l := newTestList()
	l.SetDimensions(120, 1)
	l.MoveDown()
	l.MoveDown()

	view := l.View()

	assert.Contains(t, view, "vitals.glucose")
	assert.NotContains(t, view, "body")
}

func TestResourceList_Empty(t *testing.T) {
	l := NewResourceList(nil, nil)

	assert.Empty(t, l.SelectedResource())
	assert.Contains(t, l.View(), "No permitted resources")
}
