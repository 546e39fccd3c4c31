package in

import (
	"context"

	"intent/internal/modules/risk/dto"
	riskin "intent/internal/modules/risk/port/in"
)

type CLIHandler struct {
	usecase riskin.Usecase
}

func NewCLIHandler(usecase riskin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Assess(ctx context.Context, app string) (dto.AssessOutput, error) {
	return h.usecase.Assess(ctx, dto.AssessInput{App: app})
}

func (h CLIHandler) Overview(ctx context.Context) (dto.OverviewOutput, error) {
	return h.usecase.Overview(ctx)
}

func (h CLIHandler) Ping(ctx context.Context) (dto.LoopOutput, error) {
	return h.usecase.RecordPing(ctx)
}

func (h CLIHandler) ResetPings(ctx context.Context) error {
	return h.usecase.ResetPings(ctx)
}
