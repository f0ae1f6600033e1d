package out

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"focus/internal/modules/timer/domain"
	timerout "focus/internal/modules/timer/port/out"
	"focus/internal/platform/sqlitedb"
)

const alarmSchema = `
CREATE TABLE IF NOT EXISTS alarms (
  name TEXT PRIMARY KEY,
  scheduled_at_ms INTEGER NOT NULL,
  created_at_ms INTEGER NOT NULL
);
`

type SQLiteAlarmStore struct {
	db *sql.DB
}

func NewSQLiteAlarmStore(ctx context.Context, db *sql.DB) (timerout.AlarmStore, error) {
	if err := sqlitedb.EnsureSchema(ctx, db, alarmSchema); err != nil {
		return nil, fmt.Errorf("alarms: %w", err)
	}
	return &SQLiteAlarmStore{db: db}, nil
}

func (s *SQLiteAlarmStore) Save(ctx context.Context, alarm domain.Alarm) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO alarms (name, scheduled_at_ms, created_at_ms) VALUES (?, ?, ?)
ON CONFLICT(name) DO UPDATE SET scheduled_at_ms = excluded.scheduled_at_ms, created_at_ms = excluded.created_at_ms
`, alarm.Name, alarm.ScheduledAt.UnixMilli(), alarm.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("save alarm %s: %w", alarm.Name, err)
	}
	return nil
}

func (s *SQLiteAlarmStore) Load(ctx context.Context, name string) (domain.Alarm, error) {
	var scheduled, created int64
	err := s.db.QueryRowContext(ctx, `SELECT scheduled_at_ms, created_at_ms FROM alarms WHERE name = ?`, name).Scan(&scheduled, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Alarm{}, fmt.Errorf("%w: %s", domain.ErrAlarmNotFound, name)
	}
	if err != nil {
		return domain.Alarm{}, fmt.Errorf("load alarm %s: %w", name, err)
	}
	return decodeAlarm(name, scheduled, created), nil
}

func (s *SQLiteAlarmStore) Delete(ctx context.Context, name string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM alarms WHERE name = ?`, name)
	if err != nil {
		return false, fmt.Errorf("delete alarm %s: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete alarm %s: %w", name, err)
	}
	return n > 0, nil
}

func (s *SQLiteAlarmStore) List(ctx context.Context) ([]domain.Alarm, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, scheduled_at_ms, created_at_ms FROM alarms ORDER BY scheduled_at_ms ASC`)
	if err != nil {
		return nil, fmt.Errorf("list alarms: %w", err)
	}
	defer rows.Close()

	out := []domain.Alarm{}
	for rows.Next() {
		var (
			name               string
			scheduled, created int64
		)
		if err := rows.Scan(&name, &scheduled, &created); err != nil {
			return nil, fmt.Errorf("scan alarm: %w", err)
		}
		out = append(out, decodeAlarm(name, scheduled, created))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate alarms: %w", err)
	}
	return out, nil
}

func decodeAlarm(name string, scheduled, created int64) domain.Alarm {
	return domain.Alarm{
		Name:        name,
		ScheduledAt: time.UnixMilli(scheduled).UTC(),
		CreatedAt:   time.UnixMilli(created).UTC(),
	}
}
