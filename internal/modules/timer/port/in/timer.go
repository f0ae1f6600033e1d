package in

import (
	"context"
	"time"

	"focus/internal/modules/timer/domain"
)

type Listener func(ctx context.Context, name string)

type Usecase interface {
	Create(ctx context.Context, name string, delay time.Duration) (domain.Alarm, error)
	Cancel(ctx context.Context, name string) (bool, error)
	Get(ctx context.Context, name string) (domain.Alarm, error)
	OnAlarm(listener Listener)
	Restore(ctx context.Context) error
	Close()
}
