package components

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func openPalette(t *testing.T) Palette {
	t.Helper()
	p := NewPalette(Commands([]string{"instagram", "tiktok", "youtube"}))
	p.Open()
	return p
}

func typeText(p Palette, s string) Palette {
	for _, r := range s {
		p, _ = p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return p
}

func pressTab(p Palette) Palette {
	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyTab})
	return p
}

func TestPaletteCompletesVerbsAndAppIDs(t *testing.T) {
	p := openPalette(t)
	p = pressTab(typeText(p, "st"))
	if got := p.Value(); got != "st" {
		t.Fatalf("ambiguous verb must not be completed, got %q", got)
	}
	p = pressTab(typeText(p, "a"))
	if got := p.Value(); got != "start " {
		t.Fatalf("unique verb should complete with a trailing space, got %q", got)
	}
	p = pressTab(typeText(p, "ti"))
	if got := p.Value(); got != "start tiktok " {
		t.Fatalf("app argument should complete from the catalog, got %q", got)
	}
	p = pressTab(typeText(p, "u"))
	if got := p.Value(); got != "start tiktok unconscious " {
		t.Fatalf("intent argument should complete, got %q", got)
	}
	p = pressTab(p)
	if got := p.Value(); got != "start tiktok unconscious " {
		t.Fatalf("free-form argument has nothing to complete, got %q", got)
	}
}

func TestPaletteViewShowsUsageAndOptions(t *testing.T) {
	p := openPalette(t)
	view := p.View()
	for _, c := range Commands(nil) {
		if !strings.Contains(view, c.Verb) {
			t.Fatalf("empty palette should list %q:\n%s", c.Verb, view)
		}
	}

	p = typeText(p, "app ")
	view = p.View()
	if !strings.Contains(view, "app <app>") || !strings.Contains(view, "youtube") {
		t.Fatalf("argument view should show usage and app ids:\n%s", view)
	}
	if strings.Contains(view, "outcome") {
		t.Fatalf("argument view should hide other verbs:\n%s", view)
	}
}

func TestCommandUsageInlinesFixedChoices(t *testing.T) {
	cmds := Commands([]string{"instagram", "tiktok"})
	usage := map[string]string{}
	for _, c := range cmds {
		usage[c.Verb] = c.Usage()
	}
	if usage["choose"] != "choose <primary|alt1|alt2|skip>" {
		t.Fatalf("choose usage = %q", usage["choose"])
	}
	if usage["start"] != "start [app] [purposeful|unconscious] [minutes]" {
		t.Fatalf("start usage = %q", usage["start"])
	}
	if usage["stop"] != "stop" {
		t.Fatalf("stop usage = %q", usage["stop"])
	}
}
