package out

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"focus/internal/modules/rules/domain"
	rulesout "focus/internal/modules/rules/port/out"
	"focus/internal/platform/clock"
	"focus/internal/platform/sqlitedb"
)

const timeLayout = time.RFC3339Nano

const ruleSchema = `
CREATE TABLE IF NOT EXISTS block_rules (
  id INTEGER PRIMARY KEY,
  domain TEXT NOT NULL,
  action TEXT NOT NULL,
  resource_types TEXT NOT NULL,
  priority INTEGER NOT NULL,
  installed_at TEXT NOT NULL
);
`

// SQLiteRuleEngine keeps the installed rule set in sqlite and hands the full
// set to its projector after every mutation. A nil projector makes it a
// plain ledger.
type SQLiteRuleEngine struct {
	mu        sync.Mutex
	db        *sql.DB
	clock     clock.Clock
	projector rulesout.Projector
}

func NewSQLiteRuleEngine(ctx context.Context, db *sql.DB, clk clock.Clock, projector rulesout.Projector) (*SQLiteRuleEngine, error) {
	if err := sqlitedb.EnsureSchema(ctx, db, ruleSchema); err != nil {
		return nil, fmt.Errorf("block rules: %w", err)
	}
	return &SQLiteRuleEngine{db: db, clock: clk, projector: projector}, nil
}

func (e *SQLiteRuleEngine) InstallOrReplace(ctx context.Context, rule domain.BlockRule) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin install: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM block_rules WHERE id = ?`, rule.ID); err != nil {
		return fmt.Errorf("clear rule %d: %w", rule.ID, err)
	}
	types := make([]string, 0, len(rule.ResourceTypes))
	for _, rt := range rule.ResourceTypes {
		types = append(types, string(rt))
	}
	if _, err := tx.ExecContext(ctx, `
INSERT INTO block_rules (id, domain, action, resource_types, priority, installed_at)
VALUES (?, ?, ?, ?, ?, ?)
`, rule.ID, rule.Domain, string(rule.Action), strings.Join(types, ","), rule.Priority, clock.NowUTC(e.clock).Format(timeLayout)); err != nil {
		return fmt.Errorf("insert rule %d: %w", rule.ID, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit rule %d: %w", rule.ID, err)
	}
	return e.project(ctx)
}

func (e *SQLiteRuleEngine) ListInstalled(ctx context.Context) ([]domain.BlockRule, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.list(ctx)
}

func (e *SQLiteRuleEngine) Remove(ctx context.Context, ids []int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(ids) > 0 {
		tx, err := e.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin remove: %w", err)
		}
		defer func() { _ = tx.Rollback() }()
		for _, id := range ids {
			if _, err := tx.ExecContext(ctx, `DELETE FROM block_rules WHERE id = ?`, id); err != nil {
				return fmt.Errorf("remove rule %d: %w", id, err)
			}
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit removal: %w", err)
		}
	}
	return e.project(ctx)
}

func (e *SQLiteRuleEngine) list(ctx context.Context) ([]domain.BlockRule, error) {
	rows, err := e.db.QueryContext(ctx, `SELECT id, domain, action, resource_types, priority FROM block_rules ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	defer rows.Close()

	out := []domain.BlockRule{}
	for rows.Next() {
		var (
			rule   domain.BlockRule
			action string
			types  string
		)
		if err := rows.Scan(&rule.ID, &rule.Domain, &action, &types, &rule.Priority); err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		rule.Action = domain.Action(action)
		for _, rt := range strings.Split(types, ",") {
			if rt != "" {
				rule.ResourceTypes = append(rule.ResourceTypes, domain.ResourceType(rt))
			}
		}
		out = append(out, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rules: %w", err)
	}
	return out, nil
}

func (e *SQLiteRuleEngine) project(ctx context.Context) error {
	if e.projector == nil {
		return nil
	}
	rules, err := e.list(ctx)
	if err != nil {
		return err
	}
	if err := e.projector.Project(ctx, rules); err != nil {
		return fmt.Errorf("project rules: %w", err)
	}
	return nil
}
