package out

import (
	"context"

	"focus/internal/modules/timer/domain"
)

type AlarmStore interface {
	// Save inserts or replaces the alarm with the same name.
	Save(ctx context.Context, alarm domain.Alarm) error
	Load(ctx context.Context, name string) (domain.Alarm, error)
	Delete(ctx context.Context, name string) (bool, error)
	List(ctx context.Context) ([]domain.Alarm, error)
}
