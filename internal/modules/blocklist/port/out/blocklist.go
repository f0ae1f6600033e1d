package out

import (
	"context"
	"time"

	"focus/internal/modules/blocklist/domain"
)

// SiteStore persists the ordered block list.
type SiteStore interface {
	List(ctx context.Context) ([]domain.Site, error)
	Add(ctx context.Context, domain string, addedAt time.Time) (bool, error)
	Remove(ctx context.Context, domain string) (bool, error)
}
