package out_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	timerout "focus/internal/modules/timer/adapter/out"
	"focus/internal/modules/timer/domain"
	"focus/internal/platform/sqlitedb"
)

func TestSQLiteAlarmStoreLifecycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db, err := sqlitedb.Open(ctx, filepath.Join(t.TempDir(), "focus.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()
	store, err := timerout.NewSQLiteAlarmStore(ctx, db)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	if _, err := store.Load(ctx, "focusTimer"); !errors.Is(err, domain.ErrAlarmNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	created := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
	alarm := domain.Alarm{Name: "focusTimer", ScheduledAt: created.Add(25 * time.Minute), CreatedAt: created}
	if err := store.Save(ctx, alarm); err != nil {
		t.Fatalf("save: %v", err)
	}
	alarm.ScheduledAt = created.Add(50 * time.Minute)
	if err := store.Save(ctx, alarm); err != nil {
		t.Fatalf("replace: %v", err)
	}
	loaded, err := store.Load(ctx, "focusTimer")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !loaded.ScheduledAt.Equal(created.Add(50*time.Minute)) || !loaded.CreatedAt.Equal(created) {
		t.Fatalf("unexpected alarm: %+v", loaded)
	}
	listed, err := store.List(ctx)
	if err != nil || len(listed) != 1 {
		t.Fatalf("expected one alarm, got %+v err=%v", listed, err)
	}

	deleted, err := store.Delete(ctx, "focusTimer")
	if err != nil || !deleted {
		t.Fatalf("expected delete to report existing alarm, got %v err=%v", deleted, err)
	}
	deleted, err = store.Delete(ctx, "focusTimer")
	if err != nil || deleted {
		t.Fatalf("expected second delete to be a no-op, got %v err=%v", deleted, err)
	}
}
