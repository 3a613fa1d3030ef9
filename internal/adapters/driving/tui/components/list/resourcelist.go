// Package list provides the resource list component for the TUI.
package list

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/youngmin9/vitalsync/internal/adapters/driving/tui/styles"
	"github.com/youngmin9/vitalsync/internal/core/domain"
)

// RowState is the latest sync outcome shown for a resource.
type RowState int

const (
	RowIdle RowState = iota
	RowSyncing
	RowSynced
	RowNothing
	RowFailed
)

// Row is one resource line.
type Row struct {
	Resource domain.Resource
	State    RowState
	Detail   string
	LastSync time.Time
}

// ResourceList displays resources with their latest sync outcome.
type ResourceList struct {
	rows     []Row
	index    map[domain.Resource]int
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewResourceList creates a list over resources in the given order.
func NewResourceList(s *styles.Styles, resources []domain.Resource) *ResourceList {
	if s == nil {
		s = styles.DefaultStyles()
	}
	l := &ResourceList{
		styles: s,
		index:  make(map[domain.Resource]int, len(resources)),
		width:  80,
		height: 20,
	}
	for _, r := range resources {
		l.index[r] = len(l.rows)
		l.rows = append(l.rows, Row{Resource: r})
	}
	return l
}

// Update handles list navigation keys.
func (l *ResourceList) Update(msg tea.Msg) (*ResourceList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			l.MoveUp()
		case "down", "j":
			l.MoveDown()
		}
	}
	return l, nil
}

// Apply records a status event. Events for resources not in the list and
// SyncingCompleted are ignored.
func (l *ResourceList) Apply(status domain.SyncStatus) {
	i, ok := l.index[status.Resource()]
	if !ok {
		return
	}
	row := &l.rows[i]
	switch v := status.(type) {
	case domain.Syncing:
		row.State, row.Detail = RowSyncing, ""
	case domain.NothingToSync:
		row.State, row.Detail = RowNothing, "nothing new"
	case domain.SuccessSyncing:
		row.State, row.Detail = RowSynced, fmt.Sprintf("%d records", v.Data.Count())
	case domain.FailedSyncing:
		row.State, row.Detail = RowFailed, v.Reason
	}
}

// SetLastSync records when a resource was last synced.
func (l *ResourceList) SetLastSync(r domain.Resource, at time.Time) {
	if i, ok := l.index[r]; ok {
		l.rows[i].LastSync = at
	}
}

// View renders the list.
func (l *ResourceList) View() string {
	if len(l.rows) == 0 {
		return l.styles.Muted.Render("No permitted resources. Run 'vitalsync permissions' first.")
	}

	visible := max(l.height, 1)
	start := 0
	if l.selected >= visible {
		start = l.selected - visible + 1
	}
	end := min(start+visible, len(l.rows))

	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		lines = append(lines, l.renderRow(i))
	}
	return strings.Join(lines, "\n")
}

func (l *ResourceList) renderRow(i int) string {
	row := l.rows[i]

	indicator := "  "
	if i == l.selected {
		indicator = "> "
	}
	name := fmt.Sprintf("%s%-32s", indicator, row.Resource)
	if i == l.selected {
		name = l.styles.Selected.Render(name)
	} else {
		name = l.styles.Normal.Render(name)
	}

	last := "never"
	if !row.LastSync.IsZero() {
		last = row.LastSync.Local().Format("2006-01-02 15:04")
	}

	detail := row.Detail
	if limit := l.width - 60; limit > 3 && len(detail) > limit {
		detail = detail[:limit-3] + "..."
	}

	return name + " " + l.styles.Muted.Render(fmt.Sprintf("%-17s", last)) + " " + l.stateStyle(row.State).Render(label(row.State)+" "+detail)
}

func (l *ResourceList) stateStyle(state RowState) lipgloss.Style {
	switch state {
	case RowSyncing:
		return l.styles.Syncing
	case RowSynced:
		return l.styles.Synced
	case RowFailed:
		return l.styles.Failed
	default:
		return l.styles.Nothing
	}
}

func label(state RowState) string {
	switch state {
	case RowSyncing:
		return "syncing"
	case RowSynced:
		return "synced"
	case RowNothing:
		return "idle"
	case RowFailed:
		return "failed"
	default:
		return "-"
	}
}

// Rows returns a copy of the rows.
func (l *ResourceList) Rows() []Row {
	out := make([]Row, len(l.rows))
	copy(out, l.rows)
	return out
}

// SelectedResource returns the selected resource, or "" if the list is empty.
func (l *ResourceList) SelectedResource() domain.Resource {
	if len(l.rows) == 0 {
		return ""
	}
	return l.rows[l.selected].Resource
}

// MoveUp moves selection up.
func (l *ResourceList) MoveUp() {
	if l.selected > 0 {
		l.selected--
	}
}

// MoveDown moves selection down.
func (l *ResourceList) MoveDown() {
	if l.selected < len(l.rows)-1 {
		l.selected++
	}
}

// SetDimensions sets the component dimensions in columns and rows.
func (l *ResourceList) SetDimensions(width, height int) {
	l.width = width
	l.height = height
}
