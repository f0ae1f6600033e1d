package service_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	rulesadapter "focus/internal/modules/rules/adapter/out"
	rulesservice "focus/internal/modules/rules/service"
	rulesusecase "focus/internal/modules/rules/usecase"
	sessionadapter "focus/internal/modules/session/adapter/out"
	"focus/internal/modules/session/domain"
	sessionout "focus/internal/modules/session/port/out"
	"focus/internal/modules/session/service"
	timeradapter "focus/internal/modules/timer/adapter/out"
	timerservice "focus/internal/modules/timer/service"
	timerusecase "focus/internal/modules/timer/usecase"
	apperrors "focus/internal/platform/errors"
	"focus/internal/platform/sqlitedb"

	"github.com/jonboulle/clockwork"
)

type fakeClock interface {
	clockwork.Clock
	Advance(d time.Duration)
}

type fakeSites struct {
	domains []string
	err     error
}

func (f *fakeSites) Domains(_ context.Context) ([]string, error) {
	return f.domains, f.err
}

// hookTimer runs beforeCreate ahead of the real Create, or fails Create
// outright when createErr is set.
type hookTimer struct {
	sessionout.Timer
	beforeCreate func()
	createErr    error
}

func (h *hookTimer) Create(ctx context.Context, name string, minutes int) (time.Time, error) {
	if h.beforeCreate != nil {
		h.beforeCreate()
	}
	if h.createErr != nil {
		return time.Time{}, h.createErr
	}
	return h.Timer.Create(ctx, name, minutes)
}

type harness struct {
	clk        fakeClock
	sites      *fakeSites
	engine     *rulesadapter.SQLiteRuleEngine
	syncer     *rulesservice.Synchronizer
	timer      *sessionadapter.TimerAdapter
	controller *service.Controller
}

var t0 = time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)

// newHarness wires the controller to sqlite-backed rules and alarms in
// dbPath. Two harnesses on one path model a process restart. Alarm
// delivery is left unsubscribed.
func newHarness(t *testing.T, dbPath string, clk fakeClock, sites ...string) *harness {
	t.Helper()
	ctx := context.Background()
	db, err := sqlitedb.Open(ctx, dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	engine, err := rulesadapter.NewSQLiteRuleEngine(ctx, db, clk, nil)
	if err != nil {
		t.Fatalf("new rule engine: %v", err)
	}
	syncer := rulesservice.NewSynchronizer(engine, nil)
	alarms, err := timeradapter.NewSQLiteAlarmStore(ctx, db)
	if err != nil {
		t.Fatalf("new alarm store: %v", err)
	}
	timer := sessionadapter.NewTimerAdapter(timerusecase.NewInteractor(timerservice.NewScheduler(clk, alarms, nil)))
	t.Cleanup(timer.Close)

	h := &harness{clk: clk, sites: &fakeSites{domains: sites}, engine: engine, syncer: syncer, timer: timer}
	h.controller = service.NewController(h.sites, sessionadapter.NewRulesAdapter(rulesusecase.NewInteractor(syncer)), timer, clk, nil, 25)
	return h
}

// withTimer builds a second controller over the harness stores that talks
// to timer instead of the harness timer adapter.
func (h *harness) withTimer(timer sessionout.Timer) *service.Controller {
	return service.NewController(h.sites, sessionadapter.NewRulesAdapter(rulesusecase.NewInteractor(h.syncer)), timer, h.clk, nil, 25)
}

func (h *harness) installed(t *testing.T) map[int]string {
	t.Helper()
	rules, err := h.engine.ListInstalled(context.Background())
	if err != nil {
		t.Fatalf("list rules: %v", err)
	}
	out := map[int]string{}
	for _, rule := range rules {
		out[rule.ID] = rule.Domain
	}
	return out
}

func (h *harness) timerActive(t *testing.T) bool {
	t.Helper()
	_, active, err := h.timer.Get(context.Background(), domain.TimerName)
	if err != nil {
		t.Fatalf("get timer: %v", err)
	}
	return active
}

func dbPath(t *testing.T) string {
	return filepath.Join(t.TempDir(), "focus.db")
}

func TestStartAppliesRulesInListOrderAndStopRemovesThem(t *testing.T) {
	t.Parallel()
	h := newHarness(t, dbPath(t), clockwork.NewFakeClockAt(t0), "example.com", "test.org")
	ctx := context.Background()

	resp, err := h.controller.Start(ctx, 25)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if resp.Status != domain.StatusStarted || !resp.Active {
		t.Fatalf("unexpected start response: %+v", resp)
	}
	if resp.ScheduledAt == nil || !resp.ScheduledAt.Equal(t0.Add(25*time.Minute)) {
		t.Fatalf("unexpected scheduled time: %v", resp.ScheduledAt)
	}
	rules := h.installed(t)
	if len(rules) != 2 || rules[1] != "example.com" || rules[2] != "test.org" {
		t.Fatalf("expected rules 1 and 2, got %v", rules)
	}
	if !h.timerActive(t) {
		t.Fatalf("expected focus timer after start")
	}

	resp, err = h.controller.Stop(ctx)
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if resp.Status != domain.StatusStopped {
		t.Fatalf("unexpected stop status: %s", resp.Status)
	}
	if len(h.installed(t)) != 0 || h.timerActive(t) {
		t.Fatalf("expected no rules and no timer after stop")
	}
}

func TestStopTwiceIsIdempotent(t *testing.T) {
	t.Parallel()
	h := newHarness(t, dbPath(t), clockwork.NewFakeClockAt(t0), "example.com")
	ctx := context.Background()
	if _, err := h.controller.Start(ctx, 5); err != nil {
		t.Fatalf("start: %v", err)
	}
	for i := 0; i < 2; i++ {
		resp, err := h.controller.Stop(ctx)
		if err != nil {
			t.Fatalf("stop %d: %v", i, err)
		}
		if resp.Status != domain.StatusStopped {
			t.Fatalf("stop %d: unexpected status %s", i, resp.Status)
		}
		if len(h.installed(t)) != 0 || h.timerActive(t) {
			t.Fatalf("stop %d: expected idle state", i)
		}
	}
}

func TestStartWhileActiveLeavesSessionUntouched(t *testing.T) {
	t.Parallel()
	clk := clockwork.NewFakeClockAt(t0)
	h := newHarness(t, dbPath(t), clk, "example.com", "test.org")
	ctx := context.Background()

	if _, err := h.controller.Start(ctx, 25); err != nil {
		t.Fatalf("start: %v", err)
	}
	clk.Advance(5 * time.Minute)
	h.sites.domains = []string{"other.net", "example.com", "test.org"}

	resp, err := h.controller.Start(ctx, 10)
	if err != nil {
		t.Fatalf("second start: %v", err)
	}
	if resp.Status != domain.StatusAlreadyActive {
		t.Fatalf("expected already active, got %s", resp.Status)
	}
	if resp.ScheduledAt == nil || !resp.ScheduledAt.Equal(t0.Add(25*time.Minute)) {
		t.Fatalf("expiry must not move, got %v", resp.ScheduledAt)
	}
	if resp.RemainingSeconds != int64((20 * time.Minute).Seconds()) {
		t.Fatalf("unexpected remaining seconds: %d", resp.RemainingSeconds)
	}
	rules := h.installed(t)
	if len(rules) != 2 || rules[1] != "example.com" {
		t.Fatalf("rules must be unchanged, got %v", rules)
	}
}

func TestStartWithEmptySiteListStillCreatesTimer(t *testing.T) {
	t.Parallel()
	h := newHarness(t, dbPath(t), clockwork.NewFakeClockAt(t0))
	ctx := context.Background()

	resp, err := h.controller.Start(ctx, 5)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if resp.Status != domain.StatusStarted || !h.timerActive(t) {
		t.Fatalf("expected started session with timer, got %+v", resp)
	}
	if len(h.installed(t)) != 0 {
		t.Fatalf("expected zero rules")
	}
	if _, err := h.controller.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
}

func TestStartTreatsUnreadableSiteListAsEmpty(t *testing.T) {
	t.Parallel()
	h := newHarness(t, dbPath(t), clockwork.NewFakeClockAt(t0))
	h.sites.err = errors.New("database is locked")

	resp, err := h.controller.Start(context.Background(), 5)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if resp.Status != domain.StatusStarted || !h.timerActive(t) || len(h.installed(t)) != 0 {
		t.Fatalf("expected started session without rules, got %+v", resp)
	}
}

func TestStartDurationDefaultsAndClamps(t *testing.T) {
	t.Parallel()
	clk := clockwork.NewFakeClockAt(t0)
	h := newHarness(t, dbPath(t), clk)
	ctx := context.Background()

	resp, err := h.controller.Start(ctx, 0)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if !resp.ScheduledAt.Equal(t0.Add(25 * time.Minute)) {
		t.Fatalf("expected default duration, got %v", resp.ScheduledAt)
	}
	if _, err := h.controller.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	resp, err = h.controller.Start(ctx, -3)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if !resp.ScheduledAt.Equal(t0.Add(time.Minute)) {
		t.Fatalf("expected clamp to one minute, got %v", resp.ScheduledAt)
	}
}

func TestExpiryRetractsRules(t *testing.T) {
	t.Parallel()
	clk := clockwork.NewFakeClockAt(t0)
	h := newHarness(t, dbPath(t), clk, "example.com", "test.org")
	ctx := context.Background()
	ended := make(chan struct{}, 1)
	h.timer.OnAlarm(h.controller.HandleAlarm)
	h.timer.OnAlarm(func(_ context.Context, name string) {
		if name == domain.TimerName {
			ended <- struct{}{}
		}
	})

	if _, err := h.controller.Start(ctx, 1); err != nil {
		t.Fatalf("start: %v", err)
	}
	clk.Advance(time.Minute)
	select {
	case <-ended:
	case <-time.After(2 * time.Second):
		t.Fatalf("focus timer did not fire")
	}

	if len(h.installed(t)) != 0 {
		t.Fatalf("expected rules retracted at expiry, got %v", h.installed(t))
	}
	state, err := h.controller.QueryState(ctx)
	if err != nil {
		t.Fatalf("query state: %v", err)
	}
	if state.Active {
		t.Fatalf("expected idle after expiry")
	}
}

func TestHandleAlarmIgnoresOtherNamesAndLiveSessions(t *testing.T) {
	t.Parallel()
	h := newHarness(t, dbPath(t), clockwork.NewFakeClockAt(t0), "example.com")
	ctx := context.Background()
	if _, err := h.controller.Start(ctx, 25); err != nil {
		t.Fatalf("start: %v", err)
	}

	h.controller.HandleAlarm(ctx, "someOtherTimer")
	h.controller.HandleAlarm(ctx, domain.TimerName)
	if len(h.installed(t)) != 1 {
		t.Fatalf("rules must survive while the focus timer exists")
	}
}

func TestRecoverAfterRestart(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("active timer keeps rules", func(t *testing.T) {
		path := dbPath(t)
		clk := clockwork.NewFakeClockAt(t0)
		first := newHarness(t, path, clk, "example.com", "test.org")
		if _, err := first.controller.Start(ctx, 25); err != nil {
			t.Fatalf("start: %v", err)
		}
		first.timer.Close()

		second := newHarness(t, path, clk, "example.com", "test.org")
		active, removed, err := second.controller.Recover(ctx)
		if err != nil {
			t.Fatalf("recover: %v", err)
		}
		if !active || removed != 0 || len(second.installed(t)) != 2 {
			t.Fatalf("sweep must not touch rules of a live session: active=%v removed=%d", active, removed)
		}
	})

	t.Run("crash between apply and timer create", func(t *testing.T) {
		path := dbPath(t)
		clk := clockwork.NewFakeClockAt(t0)
		first := newHarness(t, path, clk)
		if _, err := first.syncer.ApplyAll(ctx, []string{"example.com", "test.org"}); err != nil {
			t.Fatalf("apply: %v", err)
		}

		second := newHarness(t, path, clk)
		active, removed, err := second.controller.Recover(ctx)
		if err != nil {
			t.Fatalf("recover: %v", err)
		}
		if active || removed != 2 || len(second.installed(t)) != 0 {
			t.Fatalf("sweep must remove orphaned rules: active=%v removed=%d", active, removed)
		}
	})
}

func TestHandleDispatchesProtocolActions(t *testing.T) {
	t.Parallel()
	h := newHarness(t, dbPath(t), clockwork.NewFakeClockAt(t0), "example.com")
	ctx := context.Background()

	resp, err := h.controller.Handle(ctx, domain.Request{Action: domain.ActionQuery})
	if err != nil || resp.Status != domain.StatusIdle {
		t.Fatalf("expected idle, got %+v err=%v", resp, err)
	}
	resp, err = h.controller.Handle(ctx, domain.Request{Action: domain.ActionStart, Duration: 30})
	if err != nil || resp.Status != domain.StatusStarted {
		t.Fatalf("expected started, got %+v err=%v", resp, err)
	}
	resp, err = h.controller.Handle(ctx, domain.Request{Action: domain.ActionQuery})
	if err != nil || resp.Status != domain.StatusActive || resp.RemainingSeconds != 30*60 {
		t.Fatalf("expected active with countdown, got %+v err=%v", resp, err)
	}
	resp, err = h.controller.Handle(ctx, domain.Request{Action: domain.ActionStop})
	if err != nil || resp.Status != domain.StatusStopped {
		t.Fatalf("expected stopped, got %+v err=%v", resp, err)
	}
	if _, err := h.controller.Handle(ctx, domain.Request{Action: "pause_focus_session"}); !errors.Is(err, apperrors.ErrUnknownAction) {
		t.Fatalf("expected unknown action error, got %v", err)
	}
}

func TestStartReportsStartedWhenTimerCreateFails(t *testing.T) {
	t.Parallel()
	h := newHarness(t, dbPath(t), clockwork.NewFakeClockAt(t0), "example.com")
	controller := h.withTimer(&hookTimer{Timer: h.timer, createErr: errors.New("alarm store is read-only")})
	ctx := context.Background()

	resp, err := controller.Start(ctx, 25)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if resp.Status != domain.StatusStarted || resp.Active || resp.ScheduledAt != nil {
		t.Fatalf("expected started without a timer, got %+v", resp)
	}
	rules := h.installed(t)
	if len(rules) != 1 || rules[1] != "example.com" || h.timerActive(t) {
		t.Fatalf("expected rules left for the sweep and no timer: rules=%v", rules)
	}

	active, removed, err := controller.Recover(ctx)
	if err != nil {
		t.Fatalf("recover: %v", err)
	}
	if active || removed != 1 || len(h.installed(t)) != 0 {
		t.Fatalf("sweep must repair rules without a timer: active=%v removed=%d", active, removed)
	}
}

func TestRecoverWaitsForStartInFlight(t *testing.T) {
	t.Parallel()
	h := newHarness(t, dbPath(t), clockwork.NewFakeClockAt(t0), "example.com", "test.org")
	ctx := context.Background()
	timer := &hookTimer{Timer: h.timer}
	controller := h.withTimer(timer)

	swept := make(chan domain.Response, 1)
	timer.beforeCreate = func() {
		timer.beforeCreate = nil
		go func() {
			resp, err := controller.Handle(ctx, domain.Request{Action: domain.ActionRecover})
			if err != nil {
				t.Errorf("recover: %v", err)
			}
			swept <- resp
		}()
		select {
		case resp := <-swept:
			t.Fatalf("sweep ran between rule apply and timer create: %+v", resp)
		case <-time.After(100 * time.Millisecond):
		}
	}

	if _, err := controller.Start(ctx, 25); err != nil {
		t.Fatalf("start: %v", err)
	}
	select {
	case resp := <-swept:
		if resp.Status != domain.StatusRecovered || !resp.Active || resp.RulesRemoved != 0 {
			t.Fatalf("sweep after start must keep the session: %+v", resp)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("sweep never completed")
	}
	if len(h.installed(t)) != 2 || !h.timerActive(t) {
		t.Fatalf("expected live timer with both rules, got rules=%v", h.installed(t))
	}
}

func TestRecoverTreatsExpiredTimerAsEnded(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	path := dbPath(t)
	first := newHarness(t, path, clockwork.NewFakeClockAt(t0), "example.com", "test.org")
	if _, err := first.controller.Start(ctx, 5); err != nil {
		t.Fatalf("start: %v", err)
	}
	first.timer.Close()

	second := newHarness(t, path, clockwork.NewFakeClockAt(t0.Add(10*time.Minute)))
	active, removed, err := second.controller.Recover(ctx)
	if err != nil {
		t.Fatalf("recover: %v", err)
	}
	if active || removed != 2 {
		t.Fatalf("expired timer must not keep rules: active=%v removed=%d", active, removed)
	}
	if second.timerActive(t) || len(second.installed(t)) != 0 {
		t.Fatalf("expected expired timer cancelled and rules gone")
	}
}

func TestClearRulesRefusesDuringSession(t *testing.T) {
	t.Parallel()
	h := newHarness(t, dbPath(t), clockwork.NewFakeClockAt(t0), "example.com")
	ctx := context.Background()

	if _, err := h.controller.Start(ctx, 25); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := h.controller.ClearRules(ctx); !errors.Is(err, apperrors.ErrSessionActive) {
		t.Fatalf("expected session active, got %v", err)
	}
	if len(h.installed(t)) != 1 {
		t.Fatalf("rules of a live session must survive a clear")
	}

	if _, err := h.controller.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if _, err := h.syncer.ApplyAll(ctx, []string{"stray.example"}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	resp, err := h.controller.Handle(ctx, domain.Request{Action: domain.ActionClearRules})
	if err != nil || resp.Status != domain.StatusRulesCleared || resp.RulesRemoved != 1 {
		t.Fatalf("expected one stray rule cleared, got %+v err=%v", resp, err)
	}
}
