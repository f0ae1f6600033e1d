package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"focus/internal/modules/timer/domain"
	timerout "focus/internal/modules/timer/port/out"
	"focus/internal/platform/clock"

	hclog "github.com/hashicorp/go-hclog"
	"github.com/jonboulle/clockwork"
)

type Listener func(ctx context.Context, name string)

type armed struct {
	timer clockwork.Timer
	gen   uint64
}

// Scheduler arms persisted alarms on a clock and notifies listeners once
// per alarm when it fires. The store is the source of truth for Get; the
// in-memory timers only drive delivery.
type Scheduler struct {
	clock clock.Clock
	store timerout.AlarmStore
	log   hclog.Logger

	mu        sync.Mutex
	timers    map[string]armed
	gen       uint64
	listeners []Listener
	closed    bool
}

func NewScheduler(clk clock.Clock, store timerout.AlarmStore, log hclog.Logger) *Scheduler {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Scheduler{
		clock:  clk,
		store:  store,
		log:    log.Named("timer"),
		timers: map[string]armed{},
	}
}

// OnAlarm registers a listener. Listeners run in registration order on the
// goroutine that delivered the alarm.
func (s *Scheduler) OnAlarm(listener Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, listener)
}

// Create replaces any alarm with the same name.
func (s *Scheduler) Create(ctx context.Context, name string, delay time.Duration) (domain.Alarm, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Alarm{}, domain.ErrEmptyName
	}
	if delay <= 0 {
		return domain.Alarm{}, fmt.Errorf("%w: %s", domain.ErrInvalidDelay, delay)
	}
	now := clock.NowUTC(s.clock)
	alarm := domain.Alarm{Name: name, ScheduledAt: now.Add(delay), CreatedAt: now}
	if err := s.store.Save(ctx, alarm); err != nil {
		return domain.Alarm{}, fmt.Errorf("save alarm %s: %w", name, err)
	}
	s.arm(alarm, delay)
	s.log.Debug("alarm created", "name", name, "scheduled_at", alarm.ScheduledAt)
	return alarm, nil
}

// Cancel reports whether an alarm existed. Cancelling an absent alarm is
// not an error.
func (s *Scheduler) Cancel(ctx context.Context, name string) (bool, error) {
	s.disarm(name)
	existed, err := s.store.Delete(ctx, name)
	if err != nil {
		return false, fmt.Errorf("delete alarm %s: %w", name, err)
	}
	return existed, nil
}

func (s *Scheduler) Get(ctx context.Context, name string) (domain.Alarm, error) {
	return s.store.Load(ctx, name)
}

// Restore arms every persisted alarm. Alarms whose time already passed are
// delivered before Restore returns.
func (s *Scheduler) Restore(ctx context.Context) error {
	alarms, err := s.store.List(ctx)
	if err != nil {
		return fmt.Errorf("list alarms: %w", err)
	}
	now := s.clock.Now()
	overdue := []string{}
	for _, alarm := range alarms {
		if alarm.Due(now) {
			overdue = append(overdue, alarm.Name)
			continue
		}
		s.arm(alarm, alarm.Remaining(now))
	}
	for _, name := range overdue {
		s.log.Info("delivering missed alarm", "name", name)
		s.deliver(ctx, name)
	}
	return nil
}

// Close stops every armed timer. Persisted alarms are kept for Restore.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, a := range s.timers {
		a.timer.Stop()
		delete(s.timers, name)
	}
	s.closed = true
}

func (s *Scheduler) arm(alarm domain.Alarm, delay time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if prev, ok := s.timers[alarm.Name]; ok {
		prev.timer.Stop()
	}
	s.gen++
	gen := s.gen
	name := alarm.Name
	t := s.clock.AfterFunc(delay, func() { s.fire(name, gen) })
	s.timers[name] = armed{timer: t, gen: gen}
}

func (s *Scheduler) disarm(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.timers[name]; ok {
		a.timer.Stop()
		delete(s.timers, name)
	}
}

// fire drops callbacks from timers that were re-armed or cancelled after
// they had already started.
func (s *Scheduler) fire(name string, gen uint64) {
	s.mu.Lock()
	current, ok := s.timers[name]
	if !ok || current.gen != gen {
		s.mu.Unlock()
		return
	}
	delete(s.timers, name)
	s.mu.Unlock()

	s.deliver(context.Background(), name)
}

func (s *Scheduler) deliver(ctx context.Context, name string) {
	if _, err := s.store.Delete(ctx, name); err != nil {
		s.log.Error("failed to clear fired alarm", "name", name, "error", err)
	}
	s.mu.Lock()
	listeners := append([]Listener(nil), s.listeners...)
	s.mu.Unlock()
	s.log.Debug("alarm fired", "name", name, "listeners", len(listeners))
	for _, listener := range listeners {
		listener(ctx, name)
	}
}
