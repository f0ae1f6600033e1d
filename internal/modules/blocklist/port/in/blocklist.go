package in

import (
	"context"

	"focus/internal/modules/blocklist/dto"
)

type Usecase interface {
	Add(ctx context.Context, input dto.AddInput) (dto.MutateOutput, error)
	Remove(ctx context.Context, input dto.RemoveInput) (dto.MutateOutput, error)
	List(ctx context.Context) ([]dto.SiteOutput, error)
	Domains(ctx context.Context) ([]string, error)
}
