package coach

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	coachdto "intent/internal/modules/coach/dto"
	"intent/internal/ui/theme"
)

type CoachPort interface {
	Suggest(ctx context.Context, app string) (coachdto.SuggestOutput, error)
	Profile(ctx context.Context) (coachdto.ProfileOutput, error)
}

type SuggestedMsg struct {
	App     string
	Out     coachdto.SuggestOutput
	Profile coachdto.ProfileOutput
	Err     error
}

type Model struct {
	port       CoachPort
	detail     viewport.Model
	app        string
	suggestion coachdto.SuggestOutput
	profile    coachdto.ProfileOutput
	err        error
	width      int
	height     int
}

func New(port CoachPort) Model {
	vp := viewport.New(0, 0)
	vp.Style = lipgloss.NewStyle().Background(theme.Mantle).Foreground(theme.Text).Padding(1)
	return Model{port: port, detail: vp}
}

// Refresh recomputes the suggestion for app.
func (m Model) Refresh(app string) tea.Cmd {
	return func() tea.Msg {
		if m.port == nil {
			return SuggestedMsg{App: app}
		}
		ctx := context.Background()
		out, err := m.port.Suggest(ctx, app)
		if err != nil {
			return SuggestedMsg{App: app, Err: err}
		}
		profile, err := m.port.Profile(ctx)
		return SuggestedMsg{App: app, Out: out, Profile: profile, Err: err}
	}
}

// Suggested is the action key currently on offer.
func (m Model) Suggested() string { return m.suggestion.FinalKey }

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.detail.Width = m.width - 4
		m.detail.Height = m.height - 4

	case SuggestedMsg:
		m.app = msg.App
		m.err = msg.Err
		if msg.Err == nil {
			m.suggestion = msg.Out
			m.profile = msg.Profile
		}
		m.detail.SetContent(m.render())
	}

	var cmd tea.Cmd
	m.detail, cmd = m.detail.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	return theme.Pane.Width(m.width - 2).Height(m.height - 2).Render(m.detail.View())
}

func (m Model) render() string {
	if m.err != nil {
		return theme.Hot.Render("coach: " + m.err.Error())
	}
	s := m.suggestion
	var sb strings.Builder
	target := m.app
	if target == "" {
		target = "all apps"
	}
	sb.WriteString(theme.Title.Render("Coach: "+target) + "\n")
	sb.WriteString(fmt.Sprintf("risk %s\n\n", theme.Tier(s.RiskTier).Render(fmt.Sprintf("%d (%s)", s.RiskScore, s.RiskTier))))
	sb.WriteString(theme.Hot.Render("→ "+s.Action) + "\n")
	if s.FinalKey != s.BaseKey {
		sb.WriteString(theme.Muted.Render(fmt.Sprintf("history favours %s over %s\n", s.FinalKey, s.BaseKey)))
	}

	sb.WriteString("\n" + theme.Title.Render("Actions") + "\n")
	keys := make([]string, 0, len(s.Actions))
	for k := range s.Actions {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		marker := " "
		if k == s.FinalKey {
			marker = "●"
		}
		sb.WriteString(fmt.Sprintf(" %s %-8s %5.2f  %s\n", marker, k, s.Scores[k], s.Actions[k]))
	}

	sb.WriteString("\n" + theme.Title.Render("Profile") + "\n")
	sb.WriteString(m.profile.Summary + "\n")
	for _, t := range m.profile.Traits {
		sb.WriteString(theme.Muted.Render(fmt.Sprintf("  %s %d%%\n", t.Label, t.Percent)))
	}
	sb.WriteString("\n" + theme.Muted.Render("choose: c (suggested) · :choose <key> · :outcome <done|partial|ignored>"))
	return sb.String()
}
