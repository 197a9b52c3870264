package database

import (
	"context"
	"database/sql"
	"fmt"

	"sitevis/internal/editor"
)

// EditEventStore writes the audit trail of edit-service calls straight to
// Postgres.
type EditEventStore struct {
	db *sql.DB
}

func NewEditEventStore(db *sql.DB) *EditEventStore {
	return &EditEventStore{db: db}
}

func (s *EditEventStore) RecordEdit(ctx context.Context, r editor.EditRecord) error {
	query := `
		INSERT INTO edit_events (session_id, user_id, intent, succeeded, error, duration_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(ctx, query,
		r.SessionID,
		r.OwnerID,
		string(r.Intent),
		r.Succeeded,
		sql.NullString{String: r.Error, Valid: r.Error != ""},
		r.Duration.Milliseconds(),
		r.At,
	)
	if err != nil {
		return fmt.Errorf("failed to insert edit event: %w", err)
	}
	return nil
}

// EditStats summarizes a user's edit-service calls.
type EditStats struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

func (s *EditEventStore) StatsForUser(ctx context.Context, userID string) (EditStats, error) {
	query := `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE succeeded)
		FROM edit_events
		WHERE user_id = $1
	`
	var stats EditStats
	if err := s.db.QueryRowContext(ctx, query, userID).Scan(&stats.Total, &stats.Succeeded); err != nil {
		return EditStats{}, fmt.Errorf("failed to query edit stats: %w", err)
	}
	stats.Failed = stats.Total - stats.Succeeded
	return stats, nil
}
