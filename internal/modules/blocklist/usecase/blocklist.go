package usecase

import (
	"context"

	"focus/internal/modules/blocklist/dto"
	blocklistin "focus/internal/modules/blocklist/port/in"
	"focus/internal/modules/blocklist/service"
)

type Interactor struct {
	svc *service.SiteService
}

func NewInteractor(svc *service.SiteService) blocklistin.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) Add(ctx context.Context, input dto.AddInput) (dto.MutateOutput, error) {
	domain, added, err := i.svc.Add(ctx, input.Site)
	if err != nil {
		return dto.MutateOutput{}, err
	}
	return dto.MutateOutput{Domain: domain, Changed: added}, nil
}

func (i *Interactor) Remove(ctx context.Context, input dto.RemoveInput) (dto.MutateOutput, error) {
	domain, removed, err := i.svc.Remove(ctx, input.Site)
	if err != nil {
		return dto.MutateOutput{}, err
	}
	return dto.MutateOutput{Domain: domain, Changed: removed}, nil
}

func (i *Interactor) List(ctx context.Context) ([]dto.SiteOutput, error) {
	sites, err := i.svc.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.SiteOutput, 0, len(sites))
	for _, site := range sites {
		out = append(out, dto.SiteOutput{Domain: site.Domain, Position: site.Position, AddedAt: site.AddedAt})
	}
	return out, nil
}

// Domains returns the bare domains in list order.
func (i *Interactor) Domains(ctx context.Context) ([]string, error) {
	sites, err := i.svc.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(sites))
	for _, site := range sites {
		out = append(out, site.Domain)
	}
	return out, nil
}
