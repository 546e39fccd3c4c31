package in

import (
	"context"

	"intent/internal/modules/session/dto"
)

type Usecase interface {
	Start(ctx context.Context, input dto.StartInput) (dto.StartOutput, error)
	Report(ctx context.Context, input dto.ReportInput) (dto.SessionOutput, error)
	Stop(ctx context.Context) (dto.SessionOutput, error)
	Sweep(ctx context.Context) (dto.SweepOutput, error)
	GetActive(ctx context.Context) (dto.SessionOutput, error)
}
