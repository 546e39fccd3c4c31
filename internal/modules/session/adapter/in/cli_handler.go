package in

import (
	"context"

	"intent/internal/modules/session/dto"
	sessionin "intent/internal/modules/session/port/in"
)

type CLIHandler struct {
	usecase sessionin.Usecase
}

func NewCLIHandler(usecase sessionin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Start(ctx context.Context, app, intent string, planned int) (dto.StartOutput, error) {
	return h.usecase.Start(ctx, dto.StartInput{App: app, Intent: intent, MinutesPlanned: planned})
}

func (h CLIHandler) Report(ctx context.Context, sessionID string, minutes int) (dto.SessionOutput, error) {
	return h.usecase.Report(ctx, dto.ReportInput{SessionID: sessionID, Minutes: minutes})
}

func (h CLIHandler) Stop(ctx context.Context) (dto.SessionOutput, error) {
	return h.usecase.Stop(ctx)
}

func (h CLIHandler) Sweep(ctx context.Context) (dto.SweepOutput, error) {
	return h.usecase.Sweep(ctx)
}

func (h CLIHandler) Active(ctx context.Context) (dto.SessionOutput, error) {
	return h.usecase.GetActive(ctx)
}
