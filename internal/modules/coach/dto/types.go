package dto

import "time"

type ChoiceInput struct {
	Choice string
	App    string
}

type OutcomeInput struct {
	Result string
}

type EventOutput struct {
	ID        string
	Kind      string
	App       string
	Choice    string
	Result    string
	Timestamp time.Time
}

type TraitOutput struct {
	Key     string
	Label   string
	Percent int
}

type ProfileOutput struct {
	Sessions     int
	Insufficient bool
	Traits       []TraitOutput
	Summary      string
}

type SuggestInput struct {
	App string
}

type SuggestOutput struct {
	RiskScore int
	RiskTier  string
	Traits    []string
	// Scores is the historical performance per action key.
	Scores   map[string]float64
	BaseKey  string
	FinalKey string
	Action   string
	Actions  map[string]string
}
