package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/youngmin9/vitalsync/internal/adapters/driving/tui/components/list"
	"github.com/youngmin9/vitalsync/internal/adapters/driving/tui/components/status"
	"github.com/youngmin9/vitalsync/internal/adapters/driving/tui/keymap"
	"github.com/youngmin9/vitalsync/internal/adapters/driving/tui/messages"
	"github.com/youngmin9/vitalsync/internal/adapters/driving/tui/styles"
	"github.com/youngmin9/vitalsync/internal/core/domain"
)

const maxLogLines = 200

// App is the dashboard application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles
	keymap *keymap.KeyMap
	now    func() time.Time

	list    *list.ResourceList
	bar     *status.Bar
	log     viewport.Model
	spinner spinner.Model
	help    help.Model

	events      []string
	statuses    <-chan domain.SyncStatus
	unsubscribe func()

	syncing  bool
	showHelp bool
	err      error

	width  int
	height int
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new dashboard with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = s.Syncing

	return &App{
		ports:   ports,
		ctx:     context.Background(),
		styles:  s,
		keymap:  km,
		now:     time.Now,
		list:    list.NewResourceList(s, ports.resources()),
		bar:     status.NewBar(s, km),
		log:     viewport.New(80, 8),
		spinner: sp,
		help:    help.New(),
		width:   80,
		height:  24,
	}, nil
}

// WithContext sets the context used for sync calls.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	return a
}

// Init subscribes to the status stream and loads the last sync times.
func (a *App) Init() tea.Cmd {
	a.statuses, a.unsubscribe = a.ports.Client.Status()

	cmds := []tea.Cmd{waitForStatus(a.statuses), a.spinner.Tick}
	for _, r := range a.ports.resources() {
		cmds = append(cmds, a.loadLastSync(r))
	}
	return tea.Batch(cmds...)
}

// Update handles messages.
//
//nolint:gocyclo // Message dispatch for the single dashboard view
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.resize(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case messages.StatusReceived:
		cmd := a.applyStatus(msg.Status)
		return a, tea.Batch(cmd, waitForStatus(a.statuses))

	case messages.StreamClosed:
		a.appendEvent("status stream closed")
		return a, nil

	case messages.SyncRequested:
		return a, a.startSync(msg.Resources)

	case messages.SyncFinished:
		a.syncing = false
		if msg.Err != nil {
			a.err = msg.Err
			a.bar.SetState(status.StateError)
			a.bar.SetMessage(firstLine(msg.Err.Error()))
		} else {
			a.bar.SetState(status.StateReady)
			a.bar.SetMessage("")
		}
		return a, nil

	case messages.LastSyncLoaded:
		if msg.Found {
			a.list.SetLastSync(msg.Resource, msg.At)
		}
		return a, nil

	case messages.ErrorOccurred:
		a.err = msg.Err
		a.bar.SetState(status.StateError)
		a.bar.SetMessage(firstLine(msg.Err.Error()))
		return a, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := msg.String()
	switch {
	case keymap.Matches(k, a.keymap.Quit):
		a.Close()
		return a, tea.Quit

	case keymap.Matches(k, a.keymap.Help):
		a.showHelp = !a.showHelp
		if a.showHelp {
			a.bar.SetState(status.StateHelp)
		} else {
			a.bar.SetState(status.StateReady)
		}
		return a, nil

	case keymap.Matches(k, a.keymap.Sync):
		r := a.list.SelectedResource()
		if r == "" {
			return a, nil
		}
		return a, a.startSync([]domain.Resource{r})

	case keymap.Matches(k, a.keymap.SyncAll):
		return a, a.startSync(nil)

	case keymap.Matches(k, a.keymap.ClearLog):
		a.events = nil
		a.log.SetContent("")
		a.bar.Clear()
		return a, nil
	}

	a.list.Update(msg)
	return a, nil
}

// startSync runs a sync in the background. Only one request runs at a time.
func (a *App) startSync(resources []domain.Resource) tea.Cmd {
	if a.syncing {
		return nil
	}
	a.syncing = true
	a.err = nil
	a.bar.SetState(status.StateSyncing)
	a.bar.SetMessage("")

	client, ctx := a.ports.Client, a.ctx
	return func() tea.Msg {
		var err error
		if len(resources) == 0 {
			err = client.SyncAll(ctx)
		} else {
			err = client.Sync(ctx, resources...)
		}
		return messages.SyncFinished{Err: err}
	}
}

func (a *App) applyStatus(s domain.SyncStatus) tea.Cmd {
	a.list.Apply(s)
	a.appendEvent(domain.DescribeStatus(s))

	switch v := s.(type) {
	case domain.Syncing:
		a.bar.SetMessage(string(v.Res))
	case domain.SuccessSyncing:
		a.bar.RecordSynced()
		return a.loadLastSync(v.Res)
	case domain.NothingToSync:
		return a.loadLastSync(v.Res)
	case domain.FailedSyncing:
		a.bar.RecordFailed()
	}
	return nil
}

func (a *App) loadLastSync(r domain.Resource) tea.Cmd {
	client, ctx := a.ports.Client, a.ctx
	return func() tea.Msg {
		at, ok, err := client.LastSynced(ctx, r)
		if err != nil {
			return messages.ErrorOccurred{Err: err}
		}
		return messages.LastSyncLoaded{Resource: r, At: at, Found: ok}
	}
}

func (a *App) appendEvent(line string) {
	a.events = append(a.events, a.now().Format("15:04:05")+"  "+line)
	if len(a.events) > maxLogLines {
		a.events = a.events[len(a.events)-maxLogLines:]
	}
	a.log.SetContent(strings.Join(a.events, "\n"))
	a.log.GotoBottom()
}

func (a *App) resize(width, height int) {
	a.width, a.height = width, height
	a.bar.SetWidth(width)
	a.help.Width = width

	// Title, two section headers, spacing and the status bar.
	chrome := 6
	listHeight := max((height-chrome)*2/3, 1)
	a.list.SetDimensions(width, listHeight)
	a.log.Width = width
	a.log.Height = max(height-chrome-listHeight, 1)
}

// View renders the dashboard.
func (a *App) View() string {
	var b strings.Builder

	title := a.styles.Title.Render("vitalsync")
	if mode, ok := a.ports.Client.ActiveMode(); ok {
		title += a.styles.Muted.Render(fmt.Sprintf("  %s · %s", mode.Kind(), mode.Env()))
	} else {
		title += a.styles.Muted.Render("  not configured")
	}
	if a.syncing {
		title += " " + a.spinner.View()
	}
	b.WriteString(title + "\n\n")

	if a.showHelp {
		b.WriteString(a.help.FullHelpView(a.keymap.FullHelp()) + "\n\n")
	}

	b.WriteString(a.list.View() + "\n\n")
	b.WriteString(a.styles.Subtitle.Render("Events") + "\n")
	b.WriteString(a.log.View() + "\n")
	b.WriteString(a.bar.View())
	return b.String()
}

// Close unsubscribes from the status stream.
func (a *App) Close() {
	if a.unsubscribe != nil {
		a.unsubscribe()
		a.unsubscribe = nil
	}
}

// Err returns the last error shown.
func (a *App) Err() error {
	return a.err
}

// Syncing reports whether a sync request is running.
func (a *App) Syncing() bool {
	return a.syncing
}

// Events returns the event log lines.
func (a *App) Events() []string {
	return a.events
}

func waitForStatus(ch <-chan domain.SyncStatus) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return messages.StreamClosed{}
		}
		return messages.StatusReceived{Status: s}
	}
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
