package in

import (
	"context"

	"intent/internal/modules/coach/dto"
)

type Usecase interface {
	LogChoice(ctx context.Context, input dto.ChoiceInput) (dto.EventOutput, error)
	LogOutcome(ctx context.Context, input dto.OutcomeInput) (dto.EventOutput, error)
	Profile(ctx context.Context) (dto.ProfileOutput, error)
	Suggest(ctx context.Context, input dto.SuggestInput) (dto.SuggestOutput, error)
}
