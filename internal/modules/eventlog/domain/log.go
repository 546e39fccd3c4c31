package domain

// IndexBySession returns the position of the event carrying sessionID, or -1.
func IndexBySession(events []Event, sessionID string) int {
	if sessionID == "" {
		return -1
	}
	for i, e := range events {
		if e.SessionID == sessionID {
			return i
		}
	}
	return -1
}

// WithReplaced returns a copy of events with position i set to e. The input
// slice is never modified.
func WithReplaced(events []Event, i int, e Event) []Event {
	out := make([]Event, len(events))
	copy(out, events)
	if i >= 0 && i < len(out) {
		out[i] = e
	}
	return out
}

// WithAppended returns a copy of events with e added at the end.
func WithAppended(events []Event, e Event) []Event {
	out := make([]Event, len(events), len(events)+1)
	copy(out, events)
	return append(out, e)
}

func OnDay(events []Event, day string) []Event {
	out := []Event{}
	for _, e := range events {
		if e.CalendarDay == day {
			out = append(out, e)
		}
	}
	return out
}

func OfKind(events []Event, kind Kind) []Event {
	out := []Event{}
	for _, e := range events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// ForApp keeps the events tagged with app; an empty app keeps everything.
func ForApp(events []Event, app string) []Event {
	if app == "" {
		return events
	}
	out := []Event{}
	for _, e := range events {
		if e.App == app {
			out = append(out, e)
		}
	}
	return out
}

// TotalMinutes sums effective minutes.
func TotalMinutes(events []Event) int {
	total := 0
	for _, e := range events {
		total += e.Minutes()
	}
	return total
}

// LastOfKind returns the most recent event of kind.
func LastOfKind(events []Event, kind Kind) (Event, bool) {
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Kind == kind {
			return events[i], true
		}
	}
	return Event{}, false
}
