package out

import (
	"context"

	"focus/internal/modules/rules/dto"
	rulesin "focus/internal/modules/rules/port/in"
	sessionout "focus/internal/modules/session/port/out"
)

type RulesAdapter struct {
	rules rulesin.Usecase
}

func NewRulesAdapter(rules rulesin.Usecase) sessionout.RuleSynchronizer {
	return &RulesAdapter{rules: rules}
}

func (a *RulesAdapter) ApplyAll(ctx context.Context, domains []string) (int, error) {
	out, err := a.rules.ApplyAll(ctx, dto.ApplyAllInput{Domains: domains})
	return out.Applied, err
}

func (a *RulesAdapter) RetractAll(ctx context.Context) (int, error) {
	out, err := a.rules.RetractAll(ctx)
	if err != nil {
		return 0, err
	}
	return out.Removed, nil
}
