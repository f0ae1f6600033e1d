package in

import (
	"context"

	"focus/internal/modules/rules/dto"
	rulesin "focus/internal/modules/rules/port/in"
)

type CLIHandler struct {
	usecase rulesin.Usecase
}

func NewCLIHandler(usecase rulesin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) List(ctx context.Context) ([]dto.RuleOutput, error) {
	return h.usecase.List(ctx)
}
