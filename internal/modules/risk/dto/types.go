package dto

type AssessInput struct {
	// App filters usage to one app; empty assesses all apps.
	App string
}

type ReasonOutput struct {
	Code   string
	Detail string
	Weight int
}

type BreakdownOutput struct {
	TotalToday       int
	TotalGlobal      int
	Daily            []int
	Average7         int
	WeeklyProjection int
	TrendDelta       float64
	Trend            string
	IntentTotal      int
	PctPurposeful    int
	PctEntertainment int
	PctUnconscious   int
	Pressure         int
	LoopCount15      int
	InLoop           bool
	Hour             int
}

type AssessOutput struct {
	App     string
	Orange  int
	Red     int
	Score   int
	Tier    string
	Reasons []ReasonOutput
	Debug   BreakdownOutput
}

type AppOverviewOutput struct {
	App              string
	Name             string
	Orange           int
	Red              int
	Today            int
	Average7         int
	WeeklyProjection int
	Trend            string
	State            string
}

type OverviewOutput struct {
	Day        string
	TotalToday int
	State      string
	Apps       []AppOverviewOutput
}

type LoopOutput struct {
	Pings   int
	Count15 int
	InLoop  bool
}
