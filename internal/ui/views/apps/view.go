package apps

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	riskdto "intent/internal/modules/risk/dto"
	"intent/internal/ui/theme"
)

// ─── port ────────────────────────────────────────────────────────────────────

type RiskPort interface {
	Overview(ctx context.Context) (riskdto.OverviewOutput, error)
	Assess(ctx context.Context, app string) (riskdto.AssessOutput, error)
}

// ─── messages ────────────────────────────────────────────────────────────────

type OverviewLoadedMsg struct {
	Out riskdto.OverviewOutput
	Err error
}

type AssessedMsg struct {
	Out riskdto.AssessOutput
	Err error
}

// ─── list item ───────────────────────────────────────────────────────────────

type appItem struct {
	app riskdto.AppOverviewOutput
}

func (i appItem) Title() string { return i.app.Name }
func (i appItem) Description() string {
	return fmt.Sprintf("%s  %d min today · %d/%d", i.app.State, i.app.Today, i.app.Orange, i.app.Red)
}
func (i appItem) FilterValue() string { return i.app.App }

// ─── model ───────────────────────────────────────────────────────────────────

type Model struct {
	port     RiskPort
	list     list.Model
	detail   viewport.Model
	spinner  spinner.Model
	overview riskdto.OverviewOutput
	assessed riskdto.AssessOutput
	loading  bool
	width    int
	height   int
}

func New(port RiskPort) Model {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.Foreground(theme.Green).BorderForeground(theme.Green)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.Foreground(theme.Sapphire).BorderForeground(theme.Green)

	l := list.New(nil, delegate, 0, 0)
	l.Title = "Apps"
	l.Styles.Title = theme.Title
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)

	vp := viewport.New(0, 0)
	vp.Style = lipgloss.NewStyle().Background(theme.Mantle).Foreground(theme.Text).Padding(1)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Green)

	return Model{port: port, list: l, detail: vp, spinner: sp, loading: true}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.Refresh(), m.spinner.Tick)
}

// Refresh reloads the overview; the selected app is re-assessed once it lands.
func (m Model) Refresh() tea.Cmd {
	return m.loadOverviewCmd()
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()

	case OverviewLoadedMsg:
		m.loading = false
		if msg.Err != nil {
			m.list.Title = "Apps: " + msg.Err.Error()
			return m, nil
		}
		m.overview = msg.Out
		m.list.Title = fmt.Sprintf("Apps  %s  %d min", msg.Out.Day, msg.Out.TotalToday)
		items := make([]list.Item, len(msg.Out.Apps))
		for i, a := range msg.Out.Apps {
			items[i] = appItem{app: a}
		}
		cmds = append(cmds, m.list.SetItems(items), m.assessCmd(m.SelectedApp()))

	case AssessedMsg:
		if msg.Err == nil {
			m.assessed = msg.Out
			m.detail.SetContent(m.renderAssessment())
		}

	case spinner.TickMsg:
		if m.loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	if !m.loading {
		before := m.SelectedApp()
		var lCmd tea.Cmd
		m.list, lCmd = m.list.Update(msg)
		cmds = append(cmds, lCmd)
		if after := m.SelectedApp(); after != before {
			cmds = append(cmds, m.assessCmd(after))
		}

		var vCmd tea.Cmd
		m.detail, vCmd = m.detail.Update(msg)
		cmds = append(cmds, vCmd)
	}

	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	if m.loading {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			m.spinner.View()+" Loading usage…")
	}

	listW := m.width * 40 / 100
	detailW := m.width - listW

	listPane := lipgloss.NewStyle().Width(listW).Height(m.height).Render(m.list.View())
	detailPane := theme.Pane.Width(detailW - 2).Height(m.height - 2).Render(m.detail.View())
	return lipgloss.JoinHorizontal(lipgloss.Top, listPane, detailPane)
}

// SelectedApp is the highlighted app id, or "" before the overview loads.
func (m Model) SelectedApp() string {
	if item, ok := m.list.SelectedItem().(appItem); ok {
		return item.app.App
	}
	return ""
}

// Select moves the cursor to app. It reports false for an unknown id.
func (m *Model) Select(app string) (tea.Cmd, bool) {
	for i, item := range m.list.Items() {
		if it, ok := item.(appItem); ok && it.app.App == app {
			m.list.Select(i)
			return m.assessCmd(app), true
		}
	}
	return nil, false
}

// Filtering reports whether the list's search filter is open.
func (m Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}

// ─── private ─────────────────────────────────────────────────────────────────

func (m *Model) resize() {
	listW := m.width * 40 / 100
	detailW := m.width - listW
	m.list.SetSize(listW, m.height)
	m.detail.Width = detailW - 4
	m.detail.Height = m.height - 4
}

func (m Model) renderAssessment() string {
	a := m.assessed
	var sb strings.Builder
	label := a.App
	if label == "" {
		label = "all apps"
	}
	sb.WriteString(theme.Title.Render("Risk: "+label) + "\n")
	sb.WriteString(fmt.Sprintf("%s  %s\n", theme.Tier(a.Tier).Render(fmt.Sprintf("%d/100", a.Score)), theme.Tier(a.Tier).Render(a.Tier)))
	sb.WriteString(theme.Muted.Render(fmt.Sprintf("thresholds %d / %d min  ", a.Orange, a.Red)))
	sb.WriteString(theme.State(m.stateOf(a.App)).Render(m.stateOf(a.App)) + "\n\n")

	if len(a.Reasons) == 0 {
		sb.WriteString(theme.Muted.Render("no notable signals") + "\n")
	}
	for _, r := range a.Reasons {
		sb.WriteString(fmt.Sprintf(" %+4d  %s\n", r.Weight, r.Detail))
	}

	d := a.Debug
	sb.WriteString("\n" + theme.Title.Render("Last 7 days") + "\n")
	parts := make([]string, len(d.Daily))
	for i, v := range d.Daily {
		parts[i] = fmt.Sprintf("%d", v)
	}
	sb.WriteString(strings.Join(parts, " · ") + "\n")
	sb.WriteString(theme.Muted.Render(fmt.Sprintf("avg %d  week %d  trend %s (%+.1f)\n", d.Average7, d.WeeklyProjection, d.Trend, d.TrendDelta)))
	if d.IntentTotal > 0 {
		sb.WriteString(theme.Muted.Render(fmt.Sprintf("intents %d%% purposeful · %d%% entertainment · %d%% unconscious\n",
			d.PctPurposeful, d.PctEntertainment, d.PctUnconscious)))
	}
	if d.InLoop {
		sb.WriteString(theme.Hot.Render(fmt.Sprintf("loop: %d opens in 15 min", d.LoopCount15)) + "\n")
	}
	return sb.String()
}

// stateOf is the usage state of app today, or the overall state for "".
func (m Model) stateOf(app string) string {
	if app == "" {
		return m.overview.State
	}
	for _, a := range m.overview.Apps {
		if a.App == app {
			return a.State
		}
	}
	return ""
}

func (m Model) loadOverviewCmd() tea.Cmd {
	return func() tea.Msg {
		if m.port == nil {
			return OverviewLoadedMsg{}
		}
		out, err := m.port.Overview(context.Background())
		return OverviewLoadedMsg{Out: out, Err: err}
	}
}

func (m Model) assessCmd(app string) tea.Cmd {
	return func() tea.Msg {
		if m.port == nil {
			return AssessedMsg{}
		}
		out, err := m.port.Assess(context.Background(), app)
		return AssessedMsg{Out: out, Err: err}
	}
}
