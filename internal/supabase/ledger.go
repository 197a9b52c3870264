package supabase

import (
	"context"
	"fmt"

	"github.com/supabase-community/supabase-go"
	"sitevis/internal/editor"
)

const editEventsTable = "edit_events"

// EditEventRow is one row of the edit_events table.
type EditEventRow struct {
	SessionID  string `json:"session_id"`
	UserID     string `json:"user_id"`
	Intent     string `json:"intent"`
	Succeeded  bool   `json:"succeeded"`
	Error      string `json:"error,omitempty"`
	DurationMS int64  `json:"duration_ms"`
	CreatedAt  string `json:"created_at"`
}

func NewEditEventRow(r editor.EditRecord) EditEventRow {
	return EditEventRow{
		SessionID:  r.SessionID.String(),
		UserID:     r.OwnerID,
		Intent:     string(r.Intent),
		Succeeded:  r.Succeeded,
		Error:      r.Error,
		DurationMS: r.Duration.Milliseconds(),
		CreatedAt:  r.At.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	}
}

// EditLedger appends edit records through the Supabase REST API.
type EditLedger struct {
	client *supabase.Client
}

func NewEditLedger(client *supabase.Client) *EditLedger {
	return &EditLedger{client: client}
}

func (l *EditLedger) RecordEdit(_ context.Context, r editor.EditRecord) error {
	_, _, err := l.client.From(editEventsTable).
		Insert(NewEditEventRow(r), false, "", "minimal", "").
		Execute()
	if err != nil {
		return fmt.Errorf("failed to insert edit event: %w", err)
	}
	return nil
}
