package out

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"focus/internal/modules/blocklist/domain"
	blocklistout "focus/internal/modules/blocklist/port/out"
	"focus/internal/platform/sqlitedb"
)

const siteSchema = `
CREATE TABLE IF NOT EXISTS blocked_sites (
  domain TEXT PRIMARY KEY,
  seq INTEGER NOT NULL,
  added_at TEXT NOT NULL
);
`

type SQLiteSiteStore struct {
	db *sql.DB
}

func NewSQLiteSiteStore(ctx context.Context, db *sql.DB) (blocklistout.SiteStore, error) {
	if err := sqlitedb.EnsureSchema(ctx, db, siteSchema); err != nil {
		return nil, fmt.Errorf("blocked sites: %w", err)
	}
	return &SQLiteSiteStore{db: db}, nil
}

// List numbers sites from 1 in insertion order, closing gaps left by removals.
func (s *SQLiteSiteStore) List(ctx context.Context) ([]domain.Site, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT domain, added_at FROM blocked_sites ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("list blocked sites: %w", err)
	}
	defer rows.Close()

	out := []domain.Site{}
	for rows.Next() {
		var name, addedAt string
		if err := rows.Scan(&name, &addedAt); err != nil {
			return nil, fmt.Errorf("scan blocked site: %w", err)
		}
		at, err := time.Parse(time.RFC3339, addedAt)
		if err != nil {
			return nil, fmt.Errorf("decode added_at for %s: %w", name, err)
		}
		out = append(out, domain.Site{Domain: name, Position: len(out) + 1, AddedAt: at})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate blocked sites: %w", err)
	}
	return out, nil
}

func (s *SQLiteSiteStore) Add(ctx context.Context, name string, addedAt time.Time) (bool, error) {
	const stmt = `
INSERT INTO blocked_sites (domain, seq, added_at)
SELECT ?, COALESCE(MAX(seq), 0) + 1, ? FROM blocked_sites WHERE true
ON CONFLICT(domain) DO NOTHING;
`
	res, err := s.db.ExecContext(ctx, stmt, name, addedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return false, fmt.Errorf("add blocked site %s: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("add blocked site %s: %w", name, err)
	}
	return n > 0, nil
}

func (s *SQLiteSiteStore) Remove(ctx context.Context, name string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM blocked_sites WHERE domain = ?`, name)
	if err != nil {
		return false, fmt.Errorf("remove blocked site %s: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("remove blocked site %s: %w", name, err)
	}
	return n > 0, nil
}
