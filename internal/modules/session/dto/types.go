package dto

import "time"

type StartInput struct {
	App            string
	Intent         string
	MinutesPlanned int
}

type StartOutput struct {
	SessionID      string
	App            string
	StartedAt      time.Time
	MinutesPlanned int
	// SupersededID is the previously active session that was zeroed to make
	// room for this one, if any.
	SupersededID string
	// CoachAdvised is set when the declared intent suggests coaching first.
	CoachAdvised bool
}

type ReportInput struct {
	SessionID string
	Minutes   int
}

type SessionOutput struct {
	SessionID      string
	App            string
	Intent         string
	StartedAt      time.Time
	EndedAt        time.Time
	MinutesPlanned int
	MinutesActual  *int
	Cancelled      bool
	Finalized      bool
	StaleFinalized bool
}

type SweepOutput struct {
	Finalized      []string
	PointerCleared bool
}
