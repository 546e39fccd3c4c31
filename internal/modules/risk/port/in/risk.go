package in

import (
	"context"

	"intent/internal/modules/risk/dto"
)

type Usecase interface {
	Assess(ctx context.Context, input dto.AssessInput) (dto.AssessOutput, error)
	Overview(ctx context.Context) (dto.OverviewOutput, error)
	RecordPing(ctx context.Context) (dto.LoopOutput, error)
	ResetPings(ctx context.Context) error
}
