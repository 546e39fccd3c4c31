package in

import (
	"context"

	"intent/internal/modules/transfer/dto"
)

type Usecase interface {
	Export(ctx context.Context) (dto.ExportOutput, error)
	Import(ctx context.Context, input dto.ImportInput) (dto.ImportOutput, error)
	Dump(ctx context.Context) (dto.DumpOutput, error)
	Reset(ctx context.Context) error
}
