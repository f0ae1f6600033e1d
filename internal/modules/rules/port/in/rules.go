package in

import (
	"context"

	"focus/internal/modules/rules/dto"
)

type Usecase interface {
	ApplyAll(ctx context.Context, input dto.ApplyAllInput) (dto.ApplyAllOutput, error)
	RetractAll(ctx context.Context) (dto.RetractOutput, error)
	List(ctx context.Context) ([]dto.RuleOutput, error)
}
