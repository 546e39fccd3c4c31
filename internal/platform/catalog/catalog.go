// Package catalog holds the closed set of tracked applications and their
// per-day minute thresholds.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// System tags coach and outcome events that are not about a tracked app. It
// is never a valid tag for a usage session.
const System = "system"

// MaxThresholdMinutes bounds the red threshold to a day's worth of tracked usage.
const MaxThresholdMinutes = 480

type App struct {
	ID     string `yaml:"id"`
	Name   string `yaml:"name"`
	Orange int    `yaml:"orange"`
	Red    int    `yaml:"red"`
}

type Thresholds struct {
	Orange int
	Red    int
}

type Catalog struct {
	apps       []App
	byID       map[string]App
	defaultApp string
}

type file struct {
	Default string `yaml:"default"`
	Apps    []App  `yaml:"apps"`
}

func Default() Catalog {
	c, _ := New("instagram", []App{
		{ID: "instagram", Name: "Instagram", Orange: 30, Red: 60},
		{ID: "tiktok", Name: "TikTok", Orange: 20, Red: 45},
		{ID: "youtube", Name: "YouTube", Orange: 45, Red: 90},
		{ID: "x", Name: "X", Orange: 20, Red: 40},
	})
	return c
}

func New(defaultApp string, apps []App) (Catalog, error) {
	if len(apps) == 0 {
		return Catalog{}, fmt.Errorf("catalog: at least one app is required")
	}
	byID := make(map[string]App, len(apps))
	for _, app := range apps {
		app.ID = strings.TrimSpace(app.ID)
		switch {
		case app.ID == "" || app.ID == System:
			return Catalog{}, fmt.Errorf("catalog: invalid app id %q", app.ID)
		case app.Orange <= 0 || app.Red <= app.Orange || app.Red > MaxThresholdMinutes:
			return Catalog{}, fmt.Errorf("catalog: app %s needs 0 < orange < red <= %d", app.ID, MaxThresholdMinutes)
		}
		if _, dup := byID[app.ID]; dup {
			return Catalog{}, fmt.Errorf("catalog: duplicate app id %q", app.ID)
		}
		if app.Name == "" {
			app.Name = app.ID
		}
		byID[app.ID] = app
	}
	if _, ok := byID[defaultApp]; !ok {
		return Catalog{}, fmt.Errorf("catalog: default app %q is not listed", defaultApp)
	}
	ordered := make([]App, 0, len(apps))
	for _, app := range apps {
		ordered = append(ordered, byID[strings.TrimSpace(app.ID)])
	}
	return Catalog{apps: ordered, byID: byID, defaultApp: defaultApp}, nil
}

// LoadFile reads a YAML catalog. A missing file yields the built-in catalog.
func LoadFile(path string) (Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Catalog{}, fmt.Errorf("read app catalog: %w", err)
	}
	var f file
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return Catalog{}, fmt.Errorf("decode app catalog: %w", err)
	}
	return New(f.Default, f.Apps)
}

func (c Catalog) Apps() []App {
	out := make([]App, len(c.apps))
	copy(out, c.apps)
	return out
}

func (c Catalog) IDs() []string {
	out := make([]string, 0, len(c.apps))
	for _, app := range c.apps {
		out = append(out, app.ID)
	}
	return out
}

func (c Catalog) DefaultApp() string { return c.defaultApp }

func (c Catalog) Lookup(id string) (App, bool) {
	app, ok := c.byID[id]
	return app, ok
}

// Resolve maps a raw tag onto a known app, falling back to the default app.
func (c Catalog) Resolve(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if _, ok := c.byID[tag]; ok {
		return tag
	}
	return c.defaultApp
}

// Thresholds returns the app's own thresholds, or the global pair when id is
// empty or unknown.
func (c Catalog) Thresholds(id string) Thresholds {
	if app, ok := c.byID[id]; ok {
		return Thresholds{Orange: app.Orange, Red: app.Red}
	}
	return c.Global()
}

// Global is the most permissive pair across all apps: max orange, max red.
func (c Catalog) Global() Thresholds {
	var t Thresholds
	for _, app := range c.apps {
		if app.Orange > t.Orange {
			t.Orange = app.Orange
		}
		if app.Red > t.Red {
			t.Red = app.Red
		}
	}
	return t
}
