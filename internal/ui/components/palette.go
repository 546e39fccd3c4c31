package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"intent/internal/ui/theme"
)

// PaletteSubmitMsg is emitted when the user confirms a command.
type PaletteSubmitMsg struct{ Input string }

// PaletteCancelMsg is emitted when the user presses esc.
type PaletteCancelMsg struct{}

var (
	paletteStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Peach).
			Background(theme.Mantle).
			Foreground(theme.Text).
			Padding(0, 1)

	hintStyle   = lipgloss.NewStyle().Foreground(theme.Subtext0)
	optionStyle = lipgloss.NewStyle().Foreground(theme.Sapphire)
)

// Arg is one positional argument of a palette command. Options, when set,
// are the values tab completes to; Inline lists them in the usage line.
type Arg struct {
	Name     string
	Optional bool
	Inline   bool
	Options  []string
}

// Command is a verb the dashboard understands, with its arguments in order.
type Command struct {
	Verb string
	Args []Arg
}

// Usage renders the command as "verb <required> [optional]".
func (c Command) Usage() string {
	parts := []string{c.Verb}
	for _, a := range c.Args {
		name := a.Name
		if a.Inline {
			name = strings.Join(a.Options, "|")
		}
		if a.Optional {
			parts = append(parts, "["+name+"]")
		} else {
			parts = append(parts, "<"+name+">")
		}
	}
	return strings.Join(parts, " ")
}

// Commands lists the verbs the dashboard accepts. apps feeds completion for
// every app argument. Keep it in sync with app/model.go executePalette.
func Commands(apps []string) []Command {
	appArg := func(optional bool) Arg { return Arg{Name: "app", Optional: optional, Options: apps} }
	return []Command{
		{Verb: "start", Args: []Arg{
			appArg(true),
			{Name: "intent", Optional: true, Inline: true, Options: []string{"purposeful", "unconscious"}},
			{Name: "minutes", Optional: true},
		}},
		{Verb: "stop"},
		{Verb: "report", Args: []Arg{{Name: "session-id"}, {Name: "minutes"}}},
		{Verb: "ping"},
		{Verb: "choose", Args: []Arg{{Name: "choice", Inline: true, Options: []string{"primary", "alt1", "alt2", "skip"}}}},
		{Verb: "outcome", Args: []Arg{{Name: "result", Inline: true, Options: []string{"done", "partial", "ignored"}}}},
		{Verb: "app", Args: []Arg{appArg(false)}},
		{Verb: "refresh"},
	}
}

// Palette is a command-palette overlay backed by bubbles/textinput. Tab
// completes the word under the cursor from the matching verbs or argument
// options.
type Palette struct {
	input    textinput.Model
	commands []Command
	visible  bool
	width    int
}

// NewPalette creates an inactive Palette for commands.
func NewPalette(commands []Command) Palette {
	ti := textinput.New()
	ti.Placeholder = "start youtube purposeful 15"
	ti.CharLimit = 256
	return Palette{input: ti, commands: commands}
}

// Visible reports whether the palette is currently shown.
func (p Palette) Visible() bool { return p.visible }

// Open shows the palette, clears the input, and returns the focus command.
func (p *Palette) Open() tea.Cmd {
	p.visible = true
	p.input.SetValue("")
	return p.input.Focus()
}

// SetWidth sets the render width for the overlay.
func (p *Palette) SetWidth(w int) { p.width = w }

// Value is the raw text typed so far.
func (p Palette) Value() string { return p.input.Value() }

func (p Palette) Update(msg tea.Msg) (Palette, tea.Cmd) {
	if !p.visible {
		return p, nil
	}
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			p.visible = false
			p.input.Blur()
			return p, func() tea.Msg { return PaletteCancelMsg{} }
		case "enter":
			val := strings.TrimSpace(p.input.Value())
			p.visible = false
			p.input.Blur()
			return p, func() tea.Msg { return PaletteSubmitMsg{Input: val} }
		case "tab":
			p.complete()
			return p, nil
		}
	}
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return p, cmd
}

// complete extends the last word to the longest prefix shared by its
// candidates, adding a space once the word is unambiguous.
func (p *Palette) complete() {
	val := p.input.Value()
	head, word := splitLast(val)
	candidates := p.candidates(val)
	if len(candidates) == 0 {
		return
	}
	common := candidates[0]
	for _, c := range candidates[1:] {
		common = sharedPrefix(common, c)
	}
	if len(common) < len(word) {
		return
	}
	next := head + common
	if len(candidates) == 1 {
		next += " "
	}
	p.input.SetValue(next)
	p.input.CursorEnd()
}

// candidates lists the completions for the word being typed in val.
func (p Palette) candidates(val string) []string {
	fields := strings.Fields(strings.ToLower(val))
	typingNew := val == "" || strings.HasSuffix(val, " ")
	word := ""
	if !typingNew && len(fields) > 0 {
		word = fields[len(fields)-1]
		fields = fields[:len(fields)-1]
	}

	var pool []string
	if len(fields) == 0 {
		for _, c := range p.commands {
			pool = append(pool, c.Verb)
		}
	} else {
		cmd, ok := p.lookup(fields[0])
		pos := len(fields) - 1
		if !ok || pos >= len(cmd.Args) {
			return nil
		}
		pool = cmd.Args[pos].Options
	}
	var out []string
	for _, opt := range pool {
		if strings.HasPrefix(opt, word) {
			out = append(out, opt)
		}
	}
	return out
}

func (p Palette) lookup(verb string) (Command, bool) {
	for _, c := range p.commands {
		if c.Verb == verb {
			return c, true
		}
	}
	return Command{}, false
}

func (p Palette) View() string {
	if !p.visible {
		return ""
	}
	val := p.input.Value()
	fields := strings.Fields(strings.ToLower(val))

	var lines []string
	if cmd, ok := p.activeCommand(fields, val); ok {
		lines = append(lines, hintStyle.Render("  "+cmd.Usage()))
		if opts := p.candidates(val); len(opts) > 0 {
			lines = append(lines, optionStyle.Render("  "+strings.Join(opts, "  ")))
		}
	} else {
		prefix := ""
		if len(fields) > 0 {
			prefix = fields[0]
		}
		for _, c := range p.commands {
			if strings.HasPrefix(c.Verb, prefix) {
				lines = append(lines, hintStyle.Render("  "+c.Usage()))
			}
		}
	}

	var sb strings.Builder
	sb.WriteString(theme.Title.Render("Command Palette") + "\n")
	sb.WriteString(": " + p.input.View() + "\n")
	if len(lines) > 0 {
		sb.WriteString("\n" + strings.Join(lines, "\n") + "\n")
	}

	w := p.width
	if w < 20 {
		w = 64
	}
	return paletteStyle.Width(w - 2).Render(sb.String())
}

// activeCommand is the command whose arguments are being typed, once its
// verb is followed by a space.
func (p Palette) activeCommand(fields []string, val string) (Command, bool) {
	if len(fields) == 0 || (len(fields) == 1 && !strings.HasSuffix(val, " ")) {
		return Command{}, false
	}
	return p.lookup(fields[0])
}

func splitLast(val string) (head, word string) {
	i := strings.LastIndex(val, " ")
	return val[:i+1], val[i+1:]
}

func sharedPrefix(a, b string) string {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return a[:n]
}
