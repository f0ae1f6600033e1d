package usecase

import (
	"context"

	"focus/internal/modules/rules/dto"
	rulesin "focus/internal/modules/rules/port/in"
	"focus/internal/modules/rules/service"
)

type Interactor struct {
	svc *service.Synchronizer
}

func NewInteractor(svc *service.Synchronizer) rulesin.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) ApplyAll(ctx context.Context, input dto.ApplyAllInput) (dto.ApplyAllOutput, error) {
	applied, err := i.svc.ApplyAll(ctx, input.Domains)
	return dto.ApplyAllOutput{Applied: applied, Failed: len(input.Domains) - applied}, err
}

func (i *Interactor) RetractAll(ctx context.Context) (dto.RetractOutput, error) {
	removed, err := i.svc.RetractAll(ctx)
	if err != nil {
		return dto.RetractOutput{}, err
	}
	return dto.RetractOutput{Removed: removed}, nil
}

func (i *Interactor) List(ctx context.Context) ([]dto.RuleOutput, error) {
	rules, err := i.svc.Installed(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.RuleOutput, 0, len(rules))
	for _, rule := range rules {
		types := make([]string, 0, len(rule.ResourceTypes))
		for _, rt := range rule.ResourceTypes {
			types = append(types, string(rt))
		}
		out = append(out, dto.RuleOutput{
			ID:            rule.ID,
			Domain:        rule.Domain,
			Action:        string(rule.Action),
			ResourceTypes: types,
			Priority:      rule.Priority,
		})
	}
	return out, nil
}
