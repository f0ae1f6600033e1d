package in

import (
	"context"

	"focus/internal/modules/blocklist/dto"
	blocklistin "focus/internal/modules/blocklist/port/in"
)

type CLIHandler struct {
	usecase blocklistin.Usecase
}

func NewCLIHandler(usecase blocklistin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Add(ctx context.Context, site string) (dto.MutateOutput, error) {
	return h.usecase.Add(ctx, dto.AddInput{Site: site})
}

func (h CLIHandler) Remove(ctx context.Context, site string) (dto.MutateOutput, error) {
	return h.usecase.Remove(ctx, dto.RemoveInput{Site: site})
}

func (h CLIHandler) List(ctx context.Context) ([]dto.SiteOutput, error) {
	return h.usecase.List(ctx)
}
