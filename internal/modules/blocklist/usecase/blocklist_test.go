package usecase_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	blocklistout "focus/internal/modules/blocklist/adapter/out"
	"focus/internal/modules/blocklist/domain"
	"focus/internal/modules/blocklist/dto"
	"focus/internal/modules/blocklist/service"
	"focus/internal/modules/blocklist/usecase"
	"focus/internal/platform/sqlitedb"
)

func TestAddNormalizesAndDeduplicates(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db, err := sqlitedb.Open(ctx, filepath.Join(t.TempDir(), "focus.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()
	store, err := blocklistout.NewSQLiteSiteStore(ctx, db)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	clk := clockwork.NewFakeClockAt(time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC))
	uc := usecase.NewInteractor(service.NewSiteService(clk, store))

	first, err := uc.Add(ctx, dto.AddInput{Site: "https://www.Example.com/feed"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if first.Domain != "example.com" || !first.Changed {
		t.Fatalf("unexpected add output: %+v", first)
	}
	dup, err := uc.Add(ctx, dto.AddInput{Site: "example.com"})
	if err != nil {
		t.Fatalf("duplicate add: %v", err)
	}
	if dup.Changed {
		t.Fatalf("duplicate add must not change the list")
	}
	if _, err := uc.Add(ctx, dto.AddInput{Site: "test.org"}); err != nil {
		t.Fatalf("add test.org: %v", err)
	}

	domains, err := uc.Domains(ctx)
	if err != nil {
		t.Fatalf("domains: %v", err)
	}
	if len(domains) != 2 || domains[0] != "example.com" || domains[1] != "test.org" {
		t.Fatalf("unexpected domains: %v", domains)
	}

	listed, err := uc.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !listed[0].AddedAt.Equal(clk.Now()) {
		t.Fatalf("expected added_at from clock, got %s", listed[0].AddedAt)
	}

	removed, err := uc.Remove(ctx, dto.RemoveInput{Site: "WWW.EXAMPLE.COM"})
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if removed.Domain != "example.com" || !removed.Changed {
		t.Fatalf("unexpected remove output: %+v", removed)
	}

	if _, err := uc.Add(ctx, dto.AddInput{Site: "  "}); !errors.Is(err, domain.ErrEmptyDomain) {
		t.Fatalf("expected empty domain error, got %v", err)
	}
	if _, err := uc.Remove(ctx, dto.RemoveInput{Site: "http://"}); !errors.Is(err, domain.ErrInvalidDomain) {
		t.Fatalf("expected invalid domain error, got %v", err)
	}
}
