package app

import (
	"context"
	"testing"
	"time"

	coachdto "intent/internal/modules/coach/dto"
	riskdto "intent/internal/modules/risk/dto"
	sessiondto "intent/internal/modules/session/dto"
	apperrors "intent/internal/platform/errors"
)

type fakeSession struct {
	started sessiondto.StartInput
}

func (f *fakeSession) Start(_ context.Context, app, intent string, planned int) (sessiondto.StartOutput, error) {
	f.started = sessiondto.StartInput{App: app, Intent: intent, MinutesPlanned: planned}
	return sessiondto.StartOutput{SessionID: "s1", App: app, MinutesPlanned: planned, CoachAdvised: intent == "unconscious"}, nil
}

func (f *fakeSession) Report(context.Context, string, int) (sessiondto.SessionOutput, error) {
	return sessiondto.SessionOutput{}, apperrors.ErrSessionSettled
}

func (f *fakeSession) Stop(context.Context) (sessiondto.SessionOutput, error) {
	return sessiondto.SessionOutput{}, apperrors.ErrNoActiveSession
}

func (f *fakeSession) Active(context.Context) (sessiondto.SessionOutput, error) {
	return sessiondto.SessionOutput{}, apperrors.ErrNoActiveSession
}

type fakeRisk struct{}

func (fakeRisk) Overview(context.Context) (riskdto.OverviewOutput, error) {
	return riskdto.OverviewOutput{}, nil
}

func (fakeRisk) Assess(context.Context, string) (riskdto.AssessOutput, error) {
	return riskdto.AssessOutput{}, nil
}

func (fakeRisk) Ping(context.Context) (riskdto.LoopOutput, error) {
	return riskdto.LoopOutput{Pings: 3, Count15: 3, InLoop: true}, nil
}

type fakeCoach struct{}

func (fakeCoach) Suggest(context.Context, string) (coachdto.SuggestOutput, error) {
	return coachdto.SuggestOutput{}, nil
}

func (fakeCoach) Profile(context.Context) (coachdto.ProfileOutput, error) {
	return coachdto.ProfileOutput{}, nil
}

func (fakeCoach) Choose(_ context.Context, choice, app string) (coachdto.EventOutput, error) {
	return coachdto.EventOutput{ID: "c1", Choice: choice, App: app}, nil
}

func (fakeCoach) Outcome(_ context.Context, result string) (coachdto.EventOutput, error) {
	return coachdto.EventOutput{ID: "o1", Result: result}, nil
}

func newTestModel() (Model, *fakeSession) {
	s := &fakeSession{}
	return NewModel(s, fakeRisk{}, fakeCoach{}, []string{"instagram", "tiktok", "youtube"}, time.Minute), s
}

func TestPaletteStartPassesArguments(t *testing.T) {
	t.Parallel()
	m, s := newTestModel()
	next, cmd := m.executePalette("start youtube unconscious 20")
	if cmd == nil {
		t.Fatalf("expected a start command")
	}
	msg := cmd()
	if s.started.App != "youtube" || s.started.Intent != "unconscious" || s.started.MinutesPlanned != 20 {
		t.Fatalf("unexpected start input: %+v", s.started)
	}

	updated, _ := next.(Model).Update(msg)
	got := updated.(Model)
	if got.activeTab != tabCoach {
		t.Fatalf("unconscious intent should switch to the coach tab")
	}
}

func TestPaletteRejectsBadInput(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"report s1":        "usage: report <session-id> <minutes>",
		"report s1 ten":    "minutes must be a number",
		"start x y twenty": "minutes must be a number",
		"choose":           "usage: choose <primary|alt1|alt2|skip>",
		"nope":             "unknown command: nope",
	}
	for input, want := range cases {
		m, _ := newTestModel()
		next, cmd := m.executePalette(input)
		if cmd != nil {
			t.Fatalf("%q: expected no command", input)
		}
		if got := next.(Model).status; got != want {
			t.Fatalf("%q: status %q, want %q", input, got, want)
		}
	}
}

func TestSettledReportIsANotice(t *testing.T) {
	t.Parallel()
	m, _ := newTestModel()
	_, cmd := m.executePalette("report s1 12")
	if cmd == nil {
		t.Fatalf("expected a report command")
	}
	updated, _ := m.Update(cmd())
	if got := updated.(Model).status; got != "session was already settled" {
		t.Fatalf("status = %q", got)
	}
}

func TestPingReportsLoop(t *testing.T) {
	t.Parallel()
	m, _ := newTestModel()
	updated, _ := m.Update(pingedMsg{out: riskdto.LoopOutput{Count15: 4, InLoop: true}})
	if got := updated.(Model).status; got != "4 opens in the last 15 min: you are in a loop" {
		t.Fatalf("status = %q", got)
	}
}
