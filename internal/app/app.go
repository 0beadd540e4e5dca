// Package app holds the root Bubble Tea model for `pulse watch`.
package app

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/runner-pulse/pulse/internal/client"
	"github.com/runner-pulse/pulse/internal/config"
	"github.com/runner-pulse/pulse/internal/provision"
	"github.com/runner-pulse/pulse/internal/theme"
	"github.com/runner-pulse/pulse/internal/views/help"
	"github.com/runner-pulse/pulse/internal/views/stages"
	"github.com/runner-pulse/pulse/internal/views/status"
)

// tickMsg drives the once-a-second repaint while stages are running.
type tickMsg time.Time

// outcomeMsg delivers the session's completion outcome into the Update loop.
type outcomeMsg provision.Outcome

// poolsMsg carries the runner-pool catalog; nil on fetch failure.
type poolsMsg []client.RunnerPool

// Model is the root Bubble Tea model.
type Model struct {
	ws   *client.WSClient
	http *client.HTTPClient
	ctrl *provision.Controller

	ctx    context.Context
	cancel context.CancelFunc

	keys   KeyMap
	width  int
	height int

	tickEvery time.Duration
	outcomeCh chan provision.Outcome
	outcome   *provision.Outcome

	connected bool
	showHelp  bool

	statusBar status.Model
	stageList stages.Model
}

// New creates the root model. The controller binds to the websocket client
// on every (re)connect and tears down on every disconnect.
func New(ws *client.WSClient, httpClient *client.HTTPClient, cfg *config.Config) Model {
	ctx, cancel := context.WithCancel(context.Background())
	outcomeCh := make(chan provision.Outcome, 1)

	ctrl := provision.NewController(
		func(o provision.Outcome) {
			select {
			case outcomeCh <- o:
			default:
			}
		},
		provision.WithTickInterval(time.Duration(cfg.Watch.TickInterval)),
		provision.WithStabilization(time.Duration(cfg.Watch.Stabilization)),
	)

	return Model{
		ws:        ws,
		http:      httpClient,
		ctrl:      ctrl,
		ctx:       ctx,
		cancel:    cancel,
		keys:      DefaultKeyMap(),
		tickEvery: time.Duration(cfg.Watch.TickInterval),
		outcomeCh: outcomeCh,
		statusBar: status.New(cfg.Watch.URL),
		stageList: stages.New(),
	}
}

// Init connects and starts the timers.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.ws.Connect(m.ctx),
		m.waitOutcome(),
		m.tickCmd(),
		m.stageList.Spinner.Tick,
		m.fetchPools(),
	)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.statusBar.Width = msg.Width
		m.stageList.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case client.ConnectedMsg:
		m.connected = true
		m.statusBar.Connected = true
		m.outcome = nil
		m.ctrl.Bind(m.ws)
		return m, m.ws.ReadLoop(m.ctx)

	case client.DisconnectedMsg:
		// Reconnection is the user's call; tear the session down so a
		// stale completion can never fire.
		m.connected = false
		m.statusBar.Connected = false
		m.ctrl.Bind(nil)
		return m, nil

	case client.EventMsg:
		m.refreshCounts()
		return m, m.ws.ReadLoop(m.ctx)

	case outcomeMsg:
		o := provision.Outcome(msg)
		m.outcome = &o
		m.refreshCounts()
		return m, m.waitOutcome()

	case poolsMsg:
		if len(msg) > 0 {
			m.statusBar.Pool = msg[0].Name
		}
		return m, nil

	case tickMsg:
		m.refreshCounts()
		return m, m.tickCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.stageList.Spinner, cmd = m.stageList.Spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		if key.Matches(msg, m.keys.Escape) || key.Matches(msg, m.keys.Help) {
			m.showHelp = false
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.ctrl.Reset()
		m.ws.Close()
		m.cancel()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.Restart):
		m.outcome = nil
		if m.connected {
			m.ctrl.Bind(m.ws)
		} else {
			m.ctrl.Reset()
		}
		m.refreshCounts()
		return m, nil

	case key.Matches(msg, m.keys.Reconnect):
		if !m.connected {
			return m, m.ws.Connect(m.ctx)
		}
		return m, nil
	}

	return m, nil
}

// View renders the full TUI.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	if m.showHelp {
		return help.Render(m.width - 4)
	}

	summary := m.ctrl.Summary()
	if summary == "" && m.outcome != nil {
		summary = m.outcome.Summary()
	}

	footer := "  ?:help  x:restart  r:reconnect  q:quit"
	if !m.connected {
		footer = "  disconnected — press r to reconnect, q to quit"
	}

	sections := []string{
		m.statusBar.View(),
		m.stageList.View(m.ctrl.Snapshot(), summary),
		theme.StyleDimmed.Render(footer),
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *Model) refreshCounts() {
	active, done, failed := 0, 0, 0
	for _, rec := range m.ctrl.Snapshot() {
		switch rec.Status {
		case provision.StatusInProgress:
			active++
		case provision.StatusSucceeded:
			done++
		case provision.StatusFailed:
			failed++
		}
	}
	m.statusBar.SetCounts(active, done, failed)
}

func (m Model) waitOutcome() tea.Cmd {
	return func() tea.Msg {
		return outcomeMsg(<-m.outcomeCh)
	}
}

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(m.tickEvery, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) fetchPools() tea.Cmd {
	return func() tea.Msg {
		if m.http == nil {
			return poolsMsg(nil)
		}
		pools, err := m.http.GetPools()
		if err != nil {
			return poolsMsg(nil)
		}
		return poolsMsg(pools)
	}
}
