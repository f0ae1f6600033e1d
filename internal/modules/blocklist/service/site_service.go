package service

import (
	"context"

	"focus/internal/modules/blocklist/domain"
	blocklistout "focus/internal/modules/blocklist/port/out"
	"focus/internal/platform/clock"
)

type SiteService struct {
	clock clock.Clock
	store blocklistout.SiteStore
}

func NewSiteService(clock clock.Clock, store blocklistout.SiteStore) *SiteService {
	return &SiteService{clock: clock, store: store}
}

// Add is a no-op for a domain that is already listed.
func (s *SiteService) Add(ctx context.Context, input string) (string, bool, error) {
	normalized, err := domain.Normalize(input)
	if err != nil {
		return "", false, err
	}
	added, err := s.store.Add(ctx, normalized, s.clock.Now().UTC())
	if err != nil {
		return "", false, err
	}
	return normalized, added, nil
}

func (s *SiteService) Remove(ctx context.Context, input string) (string, bool, error) {
	normalized, err := domain.Normalize(input)
	if err != nil {
		return "", false, err
	}
	removed, err := s.store.Remove(ctx, normalized)
	if err != nil {
		return "", false, err
	}
	return normalized, removed, nil
}

func (s *SiteService) List(ctx context.Context) ([]domain.Site, error) {
	return s.store.List(ctx)
}
