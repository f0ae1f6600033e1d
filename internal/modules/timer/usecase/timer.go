package usecase

import (
	"context"
	"time"

	"focus/internal/modules/timer/domain"
	timerin "focus/internal/modules/timer/port/in"
	"focus/internal/modules/timer/service"
)

type Interactor struct {
	svc *service.Scheduler
}

func NewInteractor(svc *service.Scheduler) timerin.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) Create(ctx context.Context, name string, delay time.Duration) (domain.Alarm, error) {
	return i.svc.Create(ctx, name, delay)
}

func (i *Interactor) Cancel(ctx context.Context, name string) (bool, error) {
	return i.svc.Cancel(ctx, name)
}

func (i *Interactor) Get(ctx context.Context, name string) (domain.Alarm, error) {
	return i.svc.Get(ctx, name)
}

func (i *Interactor) OnAlarm(listener timerin.Listener) {
	i.svc.OnAlarm(service.Listener(listener))
}

func (i *Interactor) Restore(ctx context.Context) error {
	return i.svc.Restore(ctx)
}

func (i *Interactor) Close() {
	i.svc.Close()
}
