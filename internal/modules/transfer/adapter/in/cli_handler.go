package in

import (
	"context"

	"intent/internal/modules/transfer/dto"
	transferin "intent/internal/modules/transfer/port/in"
)

type CLIHandler struct {
	usecase transferin.Usecase
}

func NewCLIHandler(usecase transferin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Export(ctx context.Context) (dto.ExportOutput, error) {
	return h.usecase.Export(ctx)
}

func (h CLIHandler) Import(ctx context.Context, data []byte) (dto.ImportOutput, error) {
	return h.usecase.Import(ctx, dto.ImportInput{Data: data})
}

func (h CLIHandler) Dump(ctx context.Context) (dto.DumpOutput, error) {
	return h.usecase.Dump(ctx)
}

func (h CLIHandler) Reset(ctx context.Context) error {
	return h.usecase.Reset(ctx)
}
