package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"focus/internal/modules/session/domain"
	sessionout "focus/internal/modules/session/port/out"
	"focus/internal/platform/clock"
	apperrors "focus/internal/platform/errors"

	hclog "github.com/hashicorp/go-hclog"
)

// Controller owns the session lifecycle. Block rules exist exactly while
// the focus timer exists; every transition runs under one mutex so rules
// and timer change together.
type Controller struct {
	sites          sessionout.SiteSource
	rules          sessionout.RuleSynchronizer
	timer          sessionout.Timer
	clock          clock.Clock
	log            hclog.Logger
	defaultMinutes int

	mu sync.Mutex
}

func NewController(
	sites sessionout.SiteSource,
	rules sessionout.RuleSynchronizer,
	timer sessionout.Timer,
	clk clock.Clock,
	log hclog.Logger,
	defaultMinutes int,
) *Controller {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	if defaultMinutes < domain.MinDurationMinutes {
		defaultMinutes = domain.MinDurationMinutes
	}
	return &Controller{
		sites:          sites,
		rules:          rules,
		timer:          timer,
		clock:          clk,
		log:            log.Named("session"),
		defaultMinutes: defaultMinutes,
	}
}

// Start applies one rule per listed site and then creates the focus timer.
// Rule and timer failures are logged; the session is still reported started.
func (c *Controller) Start(ctx context.Context, minutes int) (domain.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	scheduledAt, active, err := c.timer.Get(ctx, domain.TimerName)
	if err != nil {
		return domain.Response{}, fmt.Errorf("query focus timer: %w", err)
	}
	if active {
		c.log.Info("focus session already active", "scheduled_at", scheduledAt)
		resp := c.stateLocked(scheduledAt).Response()
		resp.Status = domain.StatusAlreadyActive
		return resp, nil
	}

	minutes = domain.ClampDuration(minutes, c.defaultMinutes)
	domains, err := c.sites.Domains(ctx)
	if err != nil {
		c.log.Warn("could not read site list, starting without rules", "error", err)
		domains = nil
	}
	applied, err := c.rules.ApplyAll(ctx, domains)
	if err != nil {
		c.log.Error("some blocking rules were not applied", "applied", applied, "requested", len(domains), "error", err)
	}

	resp := domain.Response{Status: domain.StatusStarted}
	scheduledAt, err = c.timer.Create(ctx, domain.TimerName, minutes)
	if err != nil {
		c.log.Error("failed to create focus timer", "minutes", minutes, "error", err)
		return resp, nil
	}
	resp.Active = true
	resp.ScheduledAt = &scheduledAt
	resp.RemainingSeconds = int64(minutes) * 60
	c.log.Info("focus session started", "minutes", minutes, "rules", applied, "ends_at", scheduledAt)
	return resp, nil
}

// Stop is safe to call with no active session.
func (c *Controller) Stop(ctx context.Context) (domain.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.timer.Cancel(ctx, domain.TimerName); err != nil {
		c.log.Error("failed to cancel focus timer", "error", err)
	}
	removed, _ := c.rules.RetractAll(ctx)
	c.log.Info("focus session stopped", "rules_removed", removed)
	return domain.Response{Status: domain.StatusStopped}, nil
}

// HandleAlarm ends the session when the focus timer fires. Other alarms are
// ignored, as is a focus alarm delivered after a newer session started.
func (c *Controller) HandleAlarm(ctx context.Context, name string) {
	if name != domain.TimerName {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, active, err := c.timer.Get(ctx, domain.TimerName); err == nil && active {
		c.log.Debug("ignoring stale focus alarm")
		return
	}
	removed, _ := c.rules.RetractAll(ctx)
	c.log.Info("focus session ended", "rules_removed", removed)
}

// Recover restores the invariant after a restart: with no live focus
// timer, every installed rule is an orphan and is removed. A timer that ran
// out while nobody was listening counts as ended.
func (c *Controller) Recover(ctx context.Context) (bool, int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	active, err := c.liveTimerLocked(ctx)
	if err != nil {
		return false, 0, err
	}
	if active {
		c.log.Debug("focus timer present, keeping rules")
		return true, 0, nil
	}
	removed, err := c.rules.RetractAll(ctx)
	if err != nil {
		return false, 0, err
	}
	if removed > 0 {
		c.log.Info("removed orphaned blocking rules", "count", removed)
	}
	return false, removed, nil
}

// ClearRules removes every installed rule. It refuses while a session is
// running, since that would leave the timer without its rules.
func (c *Controller) ClearRules(ctx context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	active, err := c.liveTimerLocked(ctx)
	if err != nil {
		return 0, err
	}
	if active {
		return 0, fmt.Errorf("%w: stop the session to clear its rules", apperrors.ErrSessionActive)
	}
	return c.rules.RetractAll(ctx)
}

func (c *Controller) QueryState(ctx context.Context) (domain.State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	scheduledAt, active, err := c.timer.Get(ctx, domain.TimerName)
	if err != nil {
		return domain.State{}, fmt.Errorf("query focus timer: %w", err)
	}
	if !active {
		return domain.State{}, nil
	}
	return c.stateLocked(scheduledAt), nil
}

// Handle dispatches a protocol request.
func (c *Controller) Handle(ctx context.Context, req domain.Request) (domain.Response, error) {
	switch req.Action {
	case domain.ActionStart:
		return c.Start(ctx, req.Duration)
	case domain.ActionStop:
		return c.Stop(ctx)
	case domain.ActionQuery:
		state, err := c.QueryState(ctx)
		if err != nil {
			return domain.Response{}, err
		}
		return state.Response(), nil
	case domain.ActionRecover:
		active, removed, err := c.Recover(ctx)
		if err != nil {
			return domain.Response{}, err
		}
		return domain.Response{Status: domain.StatusRecovered, Active: active, RulesRemoved: removed}, nil
	case domain.ActionClearRules:
		removed, err := c.ClearRules(ctx)
		if err != nil {
			return domain.Response{}, err
		}
		return domain.Response{Status: domain.StatusRulesCleared, RulesRemoved: removed}, nil
	default:
		return domain.Response{}, fmt.Errorf("%w: %q", apperrors.ErrUnknownAction, req.Action)
	}
}

// liveTimerLocked reports whether the focus timer exists and has not yet
// run out. An expired timer whose notification never arrived is cancelled.
func (c *Controller) liveTimerLocked(ctx context.Context) (bool, error) {
	scheduledAt, active, err := c.timer.Get(ctx, domain.TimerName)
	if err != nil {
		return false, fmt.Errorf("query focus timer: %w", err)
	}
	if !active {
		return false, nil
	}
	if !domain.Expired(scheduledAt, c.clock.Now()) {
		return true, nil
	}
	c.log.Info("focus timer expired without notification", "scheduled_at", scheduledAt)
	if err := c.timer.Cancel(ctx, domain.TimerName); err != nil {
		return false, fmt.Errorf("cancel expired focus timer: %w", err)
	}
	return false, nil
}

func (c *Controller) stateLocked(scheduledAt time.Time) domain.State {
	remaining := scheduledAt.Sub(c.clock.Now())
	if remaining < 0 {
		remaining = 0
	}
	return domain.State{Active: true, ScheduledAt: scheduledAt, Remaining: remaining}
}
