package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	coachdto "intent/internal/modules/coach/dto"
	riskdto "intent/internal/modules/risk/dto"
	sessiondto "intent/internal/modules/session/dto"
	apperrors "intent/internal/platform/errors"
	"intent/internal/ui/components"
	"intent/internal/ui/theme"
	appsview "intent/internal/ui/views/apps"
	coachview "intent/internal/ui/views/coach"
)

// ─── ports ───────────────────────────────────────────────────────────────────

type sessionPort interface {
	Start(ctx context.Context, app, intent string, planned int) (sessiondto.StartOutput, error)
	Report(ctx context.Context, sessionID string, minutes int) (sessiondto.SessionOutput, error)
	Stop(ctx context.Context) (sessiondto.SessionOutput, error)
	Active(ctx context.Context) (sessiondto.SessionOutput, error)
}

type riskPort interface {
	appsview.RiskPort
	Ping(ctx context.Context) (riskdto.LoopOutput, error)
}

type coachPort interface {
	coachview.CoachPort
	Choose(ctx context.Context, choice, app string) (coachdto.EventOutput, error)
	Outcome(ctx context.Context, result string) (coachdto.EventOutput, error)
}

// ─── tab index ───────────────────────────────────────────────────────────────

type tabID int

const (
	tabApps tabID = iota
	tabCoach
	tabCount
)

var tabLabels = [tabCount]string{"Apps", "Coach"}

// ─── async messages ───────────────────────────────────────────────────────────

// SweptMsg is sent into the program by the background sweeper whenever it
// settles stale sessions.
type SweptMsg struct {
	Out sessiondto.SweepOutput
}

type tickMsg time.Time

type activeLoadedMsg struct {
	active sessiondto.SessionOutput
	err    error
}

type sessionStartedMsg struct {
	out sessiondto.StartOutput
	err error
}

type sessionSettledMsg struct {
	verb string
	out  sessiondto.SessionOutput
	err  error
}

type pingedMsg struct {
	out riskdto.LoopOutput
	err error
}

type coachLoggedMsg struct {
	out coachdto.EventOutput
	err error
}

// ─── key bindings ─────────────────────────────────────────────────────────────

type keyMap struct {
	Tab     key.Binding
	Help    key.Binding
	Palette key.Binding
	Quit    key.Binding
	Start   key.Binding
	Stop    key.Binding
	Ping    key.Binding
	Choose  key.Binding
	Refresh key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Tab:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Palette: key.NewBinding(key.WithKeys(":"), key.WithHelp(":", "palette")),
		Quit:    key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
		Start:   key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "start session")),
		Stop:    key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "stop session")),
		Ping:    key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "record open")),
		Choose:  key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "take suggestion")),
		Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.Help, k.Palette, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab, k.Start, k.Stop},
		{k.Ping, k.Choose, k.Refresh},
		{k.Help, k.Palette, k.Quit},
	}
}

// ─── model ───────────────────────────────────────────────────────────────────

// Model is the root Bubble Tea model. It owns tab routing, the active session
// indicator, the help overlay and the command palette; usage and coaching
// rendering is delegated to the sub-views.
type Model struct {
	session sessionPort
	risk    riskPort
	coach   coachPort
	refresh time.Duration

	appsView  appsview.Model
	coachView coachview.Model

	activeTab tabID
	keys      keyMap
	help      help.Model
	showHelp  bool
	palette   components.Palette
	active    sessiondto.SessionOutput
	hasActive bool
	status    string
	width     int
	height    int
}

// ─── constructor ─────────────────────────────────────────────────────────────

// NewModel builds the dashboard. apps feeds palette completion. refresh is
// the interval at which usage and the active session are reloaded; zero
// disables periodic reloads.
func NewModel(session sessionPort, risk riskPort, coach coachPort, apps []string, refresh time.Duration) Model {
	return Model{
		session:   session,
		risk:      risk,
		coach:     coach,
		refresh:   refresh,
		appsView:  appsview.New(risk),
		coachView: coachview.New(coach),
		activeTab: tabApps,
		keys:      defaultKeys(),
		help:      help.New(),
		palette:   components.NewPalette(components.Commands(apps)),
		status:    "ready",
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.appsView.Init(),
		m.coachView.Refresh(""),
		m.loadActiveCmd(),
		m.tickCmd(),
	)
}

// ─── update ───────────────────────────────────────────────────────────────────

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	// The palette intercepts all input while open.
	if m.palette.Visible() {
		var cmd tea.Cmd
		m.palette, cmd = m.palette.Update(msg)
		return m, cmd
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.palette.SetWidth(min(m.width-4, 80))
		m.help.Width = m.width
		m.propagateSize()
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.reloadCmd(), m.tickCmd())

	case SweptMsg:
		m.status = fmt.Sprintf("%d stale session(s) closed", len(msg.Out.Finalized))
		return m, m.reloadCmd()

	case activeLoadedMsg:
		if msg.err != nil {
			if !errors.Is(msg.err, apperrors.ErrNoActiveSession) {
				m.status = "active session check: " + msg.err.Error()
			}
			m.hasActive = false
			m.active = sessiondto.SessionOutput{}
		} else {
			m.hasActive = true
			m.active = msg.active
		}
		return m, nil

	case sessionStartedMsg:
		if msg.err != nil {
			m.status = "start failed: " + msg.err.Error()
			return m, nil
		}
		m.status = fmt.Sprintf("session started: %s (%d min)", msg.out.App, msg.out.MinutesPlanned)
		if msg.out.SupersededID != "" {
			m.status += ", previous session closed"
		}
		if msg.out.CoachAdvised {
			m.activeTab = tabCoach
			m.status += ", try the coach first"
		}
		return m, m.reloadCmd()

	case sessionSettledMsg:
		switch {
		case errors.Is(msg.err, apperrors.ErrSessionSettled):
			m.status = "session was already settled"
		case msg.err != nil:
			m.status = msg.verb + " failed: " + msg.err.Error()
		default:
			m.status = fmt.Sprintf("session %s: %s", msg.verb, msg.out.App)
			if msg.out.MinutesActual != nil {
				m.status += fmt.Sprintf(" (%d min)", *msg.out.MinutesActual)
			}
		}
		return m, m.reloadCmd()

	case pingedMsg:
		if msg.err != nil {
			m.status = "ping failed: " + msg.err.Error()
			return m, nil
		}
		m.status = fmt.Sprintf("%d opens in the last 15 min", msg.out.Count15)
		if msg.out.InLoop {
			m.status += ": you are in a loop"
		}
		return m, m.reloadCmd()

	case coachLoggedMsg:
		if msg.err != nil {
			m.status = "coach: " + msg.err.Error()
			return m, nil
		}
		if msg.out.Result != "" {
			m.status = "outcome logged: " + msg.out.Result
		} else {
			m.status = "choice logged: " + msg.out.Choice
		}
		return m, m.coachView.Refresh(m.appsView.SelectedApp())

	case components.PaletteSubmitMsg:
		return m.executePalette(msg.Input)

	case components.PaletteCancelMsg:
		m.status = "ready"
		return m, nil

	case appsview.OverviewLoadedMsg, spinner.TickMsg:
		var cmd tea.Cmd
		m.appsView, cmd = m.appsView.Update(msg)
		return m, cmd

	case appsview.AssessedMsg:
		var cmd tea.Cmd
		m.appsView, cmd = m.appsView.Update(msg)
		return m, tea.Batch(cmd, m.coachView.Refresh(msg.Out.App))

	case coachview.SuggestedMsg:
		var cmd tea.Cmd
		m.coachView, cmd = m.coachView.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.showHelp {
			if msg.String() == "?" || msg.String() == "esc" {
				m.showHelp = false
			}
			return m, nil
		}

		// Yield to the app list while its filter is open.
		if m.activeTab == tabApps && m.appsView.Filtering() {
			break
		}

		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "tab":
			m.activeTab = (m.activeTab + 1) % tabCount
			return m, nil
		case "shift+tab":
			m.activeTab = (m.activeTab + tabCount - 1) % tabCount
			return m, nil
		case "?":
			m.showHelp = !m.showHelp
			return m, nil
		case ":":
			return m, m.palette.Open()
		case "s":
			return m, m.startSessionCmd(m.appsView.SelectedApp(), "", 0)
		case "x":
			return m, m.stopSessionCmd()
		case "p":
			return m, m.pingCmd()
		case "c":
			if choice := m.coachView.Suggested(); choice != "" {
				return m, m.chooseCmd(choice)
			}
			return m, nil
		case "r":
			return m, m.reloadCmd()
		}
	}

	var tabCmd tea.Cmd
	switch m.activeTab {
	case tabApps:
		m.appsView, tabCmd = m.appsView.Update(msg)
	case tabCoach:
		m.coachView, tabCmd = m.coachView.Update(msg)
	}
	cmds = append(cmds, tabCmd)

	return m, tea.Batch(cmds...)
}

// ─── view ────────────────────────────────────────────────────────────────────

func (m Model) View() string {
	tabBar := m.renderTabBar()
	statusBar := m.renderStatusBar()

	contentH := m.height - lipgloss.Height(tabBar) - lipgloss.Height(statusBar)
	if contentH < 1 {
		contentH = 1
	}

	var content string
	switch {
	case m.showHelp:
		content = lipgloss.NewStyle().Width(m.width).Height(contentH).Render(m.help.View(m.keys))
	case m.palette.Visible():
		content = lipgloss.Place(m.width, contentH, lipgloss.Center, lipgloss.Center, m.palette.View())
	case m.activeTab == tabCoach:
		content = m.coachView.View()
	default:
		content = m.appsView.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left, tabBar, content, statusBar)
}

func (m Model) renderTabBar() string {
	parts := make([]string, tabCount)
	for i := tabID(0); i < tabCount; i++ {
		label := tabLabels[i]
		if i == m.activeTab {
			parts[i] = theme.Hot.Render(" " + label + " ")
		} else {
			parts[i] = theme.Muted.Render(" " + label + " ")
		}
	}
	bar := "intent  " + strings.Join(parts, theme.Muted.Render(" │ "))
	return lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar) + "\n"
}

func (m Model) renderStatusBar() string {
	left := m.status
	if m.hasActive {
		elapsed := time.Since(m.active.StartedAt).Round(time.Minute)
		left = theme.Hot.Render(fmt.Sprintf("● %s %s/%dm", m.active.App, elapsed, m.active.MinutesPlanned)) + "  " + left
	}
	right := theme.Muted.Render("?:help  tab:switch  :::palette  q:quit")
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return "\n" + lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(left+strings.Repeat(" ", gap)+right)
}

// ─── palette execution ────────────────────────────────────────────────────────

func (m Model) executePalette(input string) (tea.Model, tea.Cmd) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return m, nil
	}

	switch parts[0] {
	case "start":
		app, intent, planned := m.appsView.SelectedApp(), "", 0
		if len(parts) >= 2 {
			app = parts[1]
		}
		if len(parts) >= 3 {
			intent = parts[2]
		}
		if len(parts) >= 4 {
			n, err := strconv.Atoi(parts[3])
			if err != nil {
				m.status = "minutes must be a number"
				return m, nil
			}
			planned = n
		}
		return m, m.startSessionCmd(app, intent, planned)

	case "stop":
		return m, m.stopSessionCmd()

	case "report":
		if len(parts) < 3 {
			m.status = "usage: report <session-id> <minutes>"
			return m, nil
		}
		minutes, err := strconv.Atoi(parts[2])
		if err != nil {
			m.status = "minutes must be a number"
			return m, nil
		}
		return m, m.reportCmd(parts[1], minutes)

	case "ping":
		return m, m.pingCmd()

	case "choose":
		if len(parts) < 2 {
			m.status = "usage: choose <primary|alt1|alt2|skip>"
			return m, nil
		}
		return m, m.chooseCmd(parts[1])

	case "outcome":
		if len(parts) < 2 {
			m.status = "usage: outcome <done|partial|ignored>"
			return m, nil
		}
		return m, m.outcomeCmd(parts[1])

	case "app":
		if len(parts) < 2 {
			m.status = "usage: app <id>"
			return m, nil
		}
		cmd, ok := m.appsView.Select(parts[1])
		if !ok {
			m.status = "unknown app: " + parts[1]
			return m, nil
		}
		m.activeTab = tabApps
		return m, cmd

	case "refresh":
		return m, m.reloadCmd()

	default:
		m.status = "unknown command: " + parts[0]
	}
	return m, nil
}

// ─── helpers ─────────────────────────────────────────────────────────────────

func (m *Model) propagateSize() {
	sz := tea.WindowSizeMsg{Width: m.width, Height: m.height - 3}
	m.appsView, _ = m.appsView.Update(sz)
	m.coachView, _ = m.coachView.Update(sz)
}

// ─── async commands ───────────────────────────────────────────────────────────

func (m Model) tickCmd() tea.Cmd {
	if m.refresh <= 0 {
		return nil
	}
	return tea.Tick(m.refresh, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// reloadCmd refreshes everything derived from the log. The coach pane follows
// once the selected app's assessment lands.
func (m Model) reloadCmd() tea.Cmd {
	return tea.Batch(m.appsView.Refresh(), m.loadActiveCmd())
}

func (m Model) loadActiveCmd() tea.Cmd {
	return func() tea.Msg {
		active, err := m.session.Active(context.Background())
		return activeLoadedMsg{active: active, err: err}
	}
}

func (m Model) startSessionCmd(app, intent string, planned int) tea.Cmd {
	return func() tea.Msg {
		out, err := m.session.Start(context.Background(), app, intent, planned)
		return sessionStartedMsg{out: out, err: err}
	}
}

func (m Model) stopSessionCmd() tea.Cmd {
	return func() tea.Msg {
		out, err := m.session.Stop(context.Background())
		return sessionSettledMsg{verb: "stopped", out: out, err: err}
	}
}

func (m Model) reportCmd(sessionID string, minutes int) tea.Cmd {
	return func() tea.Msg {
		out, err := m.session.Report(context.Background(), sessionID, minutes)
		return sessionSettledMsg{verb: "reported", out: out, err: err}
	}
}

func (m Model) pingCmd() tea.Cmd {
	return func() tea.Msg {
		out, err := m.risk.Ping(context.Background())
		return pingedMsg{out: out, err: err}
	}
}

func (m Model) chooseCmd(choice string) tea.Cmd {
	app := m.appsView.SelectedApp()
	return func() tea.Msg {
		out, err := m.coach.Choose(context.Background(), choice, app)
		return coachLoggedMsg{out: out, err: err}
	}
}

func (m Model) outcomeCmd(result string) tea.Cmd {
	return func() tea.Msg {
		out, err := m.coach.Outcome(context.Background(), result)
		return coachLoggedMsg{out: out, err: err}
	}
}
