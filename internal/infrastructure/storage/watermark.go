package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Watermark returns the stored checkpoint for one ingestion scope, or nil
// when the scope has never run.
func (s *Store) Watermark(ctx context.Context, scope string) (*time.Time, error) {
	var checkedAt time.Time
	err := s.db.QueryRowContext(ctx,
		`SELECT checked_at FROM last_checked WHERE scope = $1`, scope).Scan(&checkedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get watermark %q: %w", scope, err)
	}
	return &checkedAt, nil
}

// AdvanceWatermark moves a scope's checkpoint forward. Writes that would move
// it backwards are silently dropped, which keeps concurrent runs safe.
func (s *Store) AdvanceWatermark(ctx context.Context, scope string, checkedAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO last_checked (scope, checked_at) VALUES ($1, $2)
         ON CONFLICT (scope) DO UPDATE SET checked_at = EXCLUDED.checked_at
         WHERE last_checked.checked_at < EXCLUDED.checked_at`,
		scope, checkedAt)
	if err != nil {
		return fmt.Errorf("advance watermark %q: %w", scope, err)
	}
	return nil
}

// Watermarks adapts the Store to the watermark port.
type Watermarks struct{ Store *Store }

func (w Watermarks) Get(ctx context.Context, scope string) (*time.Time, error) {
	return w.Store.Watermark(ctx, scope)
}

func (w Watermarks) Advance(ctx context.Context, scope string, t time.Time) error {
	return w.Store.AdvanceWatermark(ctx, scope, t)
}
