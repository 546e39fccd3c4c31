package dto

type AppendInput struct {
	Record map[string]any
}

type ListInput struct {
	Kind  string
	App   string
	Today bool
}

type EventOutput struct {
	ID             string
	SessionID      string
	Kind           string
	App            string
	Timestamp      int64
	CalendarDay    string
	Intent         string
	StartedAt      *int64
	EndedAt        *int64
	MinutesPlanned int
	MinutesActual  *int
	Minutes        int
	Cancelled      bool
	Finalized      bool
	StaleFinalized bool
	Choice         string
	ActionKey      string
	Result         string
}

type MigrateOutput struct {
	From     int
	To       int
	Rewrites int
}
