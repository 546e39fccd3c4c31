package in

import (
	"context"

	"intent/internal/modules/coach/dto"
	coachin "intent/internal/modules/coach/port/in"
)

type CLIHandler struct {
	usecase coachin.Usecase
}

func NewCLIHandler(usecase coachin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Choose(ctx context.Context, choice, app string) (dto.EventOutput, error) {
	return h.usecase.LogChoice(ctx, dto.ChoiceInput{Choice: choice, App: app})
}

func (h CLIHandler) Outcome(ctx context.Context, result string) (dto.EventOutput, error) {
	return h.usecase.LogOutcome(ctx, dto.OutcomeInput{Result: result})
}

func (h CLIHandler) Profile(ctx context.Context) (dto.ProfileOutput, error) {
	return h.usecase.Profile(ctx)
}

func (h CLIHandler) Suggest(ctx context.Context, app string) (dto.SuggestOutput, error) {
	return h.usecase.Suggest(ctx, dto.SuggestInput{App: app})
}
