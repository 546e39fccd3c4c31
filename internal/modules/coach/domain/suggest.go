package domain

import evdomain "intent/internal/modules/eventlog/domain"

const (
	// HighRiskScore switches the default suggestion to the movement action.
	HighRiskScore = 65
	// OverrideMargin is how far a historically better action must lead the
	// default before it replaces it.
	OverrideMargin = 0.5
)

// ActionTexts are the user-facing descriptions of each action.
var ActionTexts = map[evdomain.Choice]string{
	evdomain.ChoicePrimary: "10 min: single task, phone out of the room",
	evdomain.ChoiceAlt1:    "10 min: walk without the phone",
	evdomain.ChoiceAlt2:    "5 min: 4/6 breathing",
}

// Performance is the all-time score per action:
// (2*done + partial - 2*ignored) / outcomes, or 0 without outcomes.
type Performance map[evdomain.Choice]float64

func ActionPerformance(events []evdomain.Event) Performance {
	type tally struct{ done, partial, ignored int }
	stats := map[evdomain.Choice]*tally{}
	for _, a := range evdomain.Actions {
		stats[a] = &tally{}
	}
	for _, e := range evdomain.OfKind(events, evdomain.KindOutcome) {
		if e.Outcome == nil {
			continue
		}
		s, ok := stats[e.Outcome.ActionKey]
		if !ok {
			continue
		}
		switch e.Outcome.Result {
		case evdomain.ResultDone:
			s.done++
		case evdomain.ResultPartial:
			s.partial++
		case evdomain.ResultIgnored:
			s.ignored++
		}
	}
	perf := Performance{}
	for action, s := range stats {
		n := s.done + s.partial + s.ignored
		if n == 0 {
			perf[action] = 0
			continue
		}
		perf[action] = float64(2*s.done+s.partial-2*s.ignored) / float64(n)
	}
	return perf
}

// Best is the highest scoring action; ties keep the earlier action.
func (p Performance) Best() evdomain.Choice {
	best := evdomain.Actions[0]
	for _, a := range evdomain.Actions[1:] {
		if p[a] > p[best] {
			best = a
		}
	}
	return best
}

type Suggestion struct {
	Base  evdomain.Choice
	Final evdomain.Choice
}

// Suggest picks a default from context and replaces it only when another
// action has clearly done better.
func Suggest(riskScore int, profile Profile, perf Performance) Suggestion {
	base := evdomain.ChoicePrimary
	switch {
	case riskScore >= HighRiskScore:
		base = evdomain.ChoiceAlt1
	case profile.Has(TraitNight):
		base = evdomain.ChoiceAlt2
	}
	final := base
	if best := perf.Best(); perf[best] > perf[base]+OverrideMargin {
		final = best
	}
	return Suggestion{Base: base, Final: final}
}
