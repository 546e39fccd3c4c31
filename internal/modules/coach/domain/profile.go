// Package domain derives behavioral traits and action scores from the log
// and picks the coaching action to suggest.
package domain

import (
	"fmt"
	"math"
	"strings"
	"time"

	evdomain "intent/internal/modules/eventlog/domain"
)

// MinProfileSessions is the smallest sample a profile is computed from.
const MinProfileSessions = 6

type TraitKey string

const (
	TraitNight  TraitKey = "night"
	TraitWork   TraitKey = "work"
	TraitAuto   TraitKey = "auto"
	TraitShort  TraitKey = "short"
	TraitLong   TraitKey = "long"
	TraitStable TraitKey = "stable"
)

type Trait struct {
	Key     TraitKey
	Label   string
	Percent int
}

// Profile is empty with Insufficient set when there are fewer than
// MinProfileSessions qualifying sessions.
type Profile struct {
	Sessions     int
	Insufficient bool
	Traits       []Trait
}

func (p Profile) Has(key TraitKey) bool {
	for _, t := range p.Traits {
		if t.Key == key {
			return true
		}
	}
	return false
}

func (p Profile) Keys() []string {
	keys := make([]string, 0, len(p.Traits))
	for _, t := range p.Traits {
		keys = append(keys, string(t.Key))
	}
	return keys
}

func (p Profile) Summary() string {
	if p.Insufficient {
		return fmt.Sprintf("not enough data (min. %d sessions)", MinProfileSessions)
	}
	labels := make([]string, 0, len(p.Traits))
	for _, t := range p.Traits {
		labels = append(labels, t.Label)
	}
	return strings.Join(labels, " · ")
}

// Qualifies reports whether e is a session whose duration was really
// observed: finalized with a known duration, not cancelled and not zeroed
// for staleness.
func Qualifies(e evdomain.Event) bool {
	if e.Kind != evdomain.KindAllow || e.Usage == nil {
		return false
	}
	u := e.Usage
	return u.Finalized && u.MinutesActual != nil && !u.Cancelled && !u.StaleFinalized
}

var traitRules = []struct {
	key       TraitKey
	label     string
	threshold int
}{
	{TraitNight, "Night scroller", 30},
	{TraitWork, "Work-hours leak", 35},
	{TraitAuto, "Autopilot bias", 40},
	{TraitShort, "Short bursts", 40},
	{TraitLong, "Long binges", 20},
}

// ComputeProfile reads session hours in loc.
func ComputeProfile(events []evdomain.Event, loc *time.Location) Profile {
	counts := map[TraitKey]int{}
	total := 0
	for _, e := range events {
		if !Qualifies(e) {
			continue
		}
		total++
		at := e.Time(loc)
		hour := at.Hour()
		minutes := e.Minutes()
		if hour >= 22 {
			counts[TraitNight]++
		}
		if weekday(at) && hour >= 9 && hour <= 18 {
			counts[TraitWork]++
		}
		if e.Intent == evdomain.IntentUnconscious {
			counts[TraitAuto]++
		}
		if minutes > 0 && minutes <= 3 {
			counts[TraitShort]++
		}
		if minutes >= 12 {
			counts[TraitLong]++
		}
	}
	if total < MinProfileSessions {
		return Profile{Sessions: total, Insufficient: true}
	}

	p := Profile{Sessions: total}
	for _, rule := range traitRules {
		pct := int(math.Floor(float64(counts[rule.key])/float64(total)*100 + 0.5))
		if pct >= rule.threshold {
			p.Traits = append(p.Traits, Trait{Key: rule.key, Label: fmt.Sprintf("%s (%d%%)", rule.label, pct), Percent: pct})
		}
	}
	if len(p.Traits) == 0 {
		p.Traits = []Trait{{Key: TraitStable, Label: "Stable profile"}}
	}
	return p
}

func weekday(t time.Time) bool {
	d := t.Weekday()
	return d >= time.Monday && d <= time.Friday
}
