package in

import (
	"context"

	"intent/internal/modules/eventlog/dto"
	eventlogin "intent/internal/modules/eventlog/port/in"
)

type CLIHandler struct {
	usecase eventlogin.Usecase
}

func NewCLIHandler(usecase eventlogin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Append(ctx context.Context, record map[string]any) (dto.EventOutput, error) {
	return h.usecase.Append(ctx, dto.AppendInput{Record: record})
}

func (h CLIHandler) List(ctx context.Context, kind, app string, today bool) ([]dto.EventOutput, error) {
	return h.usecase.List(ctx, dto.ListInput{Kind: kind, App: app, Today: today})
}

func (h CLIHandler) Migrate(ctx context.Context) (dto.MigrateOutput, error) {
	return h.usecase.Migrate(ctx)
}
