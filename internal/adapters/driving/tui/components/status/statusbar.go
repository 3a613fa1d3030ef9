// Package status provides the status bar component for the TUI.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/youngmin9/vitalsync/internal/adapters/driving/tui/keymap"
	"github.com/youngmin9/vitalsync/internal/adapters/driving/tui/styles"
)

// State represents the current application state for display.
type State string

const (
	StateReady   State = "ready"
	StateSyncing State = "syncing"
	StateError   State = "error"
	StateHelp    State = "help"
)

// Bar displays sync progress and keybinding hints.
type Bar struct {
	styles  *styles.Styles
	keymap  *keymap.KeyMap
	state   State
	message string
	synced  int
	failed  int
	width   int
}

// NewBar creates a new status bar component.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	return &Bar{
		styles: s,
		keymap: km,
		state:  StateReady,
		width:  80,
	}
}

// View renders the status bar.
func (s *Bar) View() string {
	left := s.renderLeft()
	right := s.renderRight()

	padding := s.width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 1 {
		padding = 1
	}
	return s.styles.StatusBar.Width(s.width).Render(left + strings.Repeat(" ", padding) + right)
}

func (s *Bar) renderLeft() string {
	counts := fmt.Sprintf("%d synced, %d failed", s.synced, s.failed)
	switch s.state {
	case StateSyncing:
		label := "Syncing..."
		if s.message != "" {
			label = "Syncing " + s.message + "..."
		}
		return s.styles.Syncing.Render(label)
	case StateError:
		if s.message != "" {
			return s.styles.Failed.Render("Error: " + s.message)
		}
		return s.styles.Failed.Render("Error")
	case StateHelp:
		return s.styles.Normal.Render("Help")
	default:
		if s.synced+s.failed == 0 {
			return s.styles.Muted.Render("Ready")
		}
		return s.styles.Normal.Render(counts)
	}
}

func (s *Bar) renderRight() string {
	bindings := s.keymap.ShortHelp()
	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		hints = append(hints, h.Key+": "+h.Desc)
	}
	return s.styles.Muted.Render(strings.Join(hints, " | "))
}

// SetState sets the current state.
func (s *Bar) SetState(state State) {
	s.state = state
}

// State returns the current state.
func (s *Bar) State() State {
	return s.state
}

// SetMessage sets the message shown next to the state.
func (s *Bar) SetMessage(message string) {
	s.message = message
}

// Message returns the current message.
func (s *Bar) Message() string {
	return s.message
}

// RecordSynced counts a successful sync.
func (s *Bar) RecordSynced() {
	s.synced++
}

// RecordFailed counts a failed sync.
func (s *Bar) RecordFailed() {
	s.failed++
}

// Counts returns the number of successful and failed syncs seen.
func (s *Bar) Counts() (synced, failed int) {
	return s.synced, s.failed
}

// Bindings exposes the keymap for the help view.
func (s *Bar) Bindings() []key.Binding {
	return s.keymap.ShortHelp()
}

// SetWidth sets the status bar width.
func (s *Bar) SetWidth(width int) {
	s.width = width
}

// Width returns the current width.
func (s *Bar) Width() int {
	return s.width
}

// Clear resets the status bar to its initial state.
func (s *Bar) Clear() {
	s.state = StateReady
	s.message = ""
	s.synced = 0
	s.failed = 0
}
