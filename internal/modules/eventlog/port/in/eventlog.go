package in

import (
	"context"

	"intent/internal/modules/eventlog/dto"
)

type Usecase interface {
	Append(ctx context.Context, input dto.AppendInput) (dto.EventOutput, error)
	List(ctx context.Context, input dto.ListInput) ([]dto.EventOutput, error)
	Migrate(ctx context.Context) (dto.MigrateOutput, error)
}
