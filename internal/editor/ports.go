package editor

import (
	"context"
	"time"

	"github.com/google/uuid"
	"sitevis/internal/history"
)

// EditService is the boundary to the external image-edit model. It gets one
// or more source images, an instruction and an optional reference image and
// returns a new image or fails. It must not retry.
type EditService interface {
	Edit(ctx context.Context, sources []history.ImageRef, instruction string, reference *history.ImageRef) (history.ImageRef, error)
}

// Intent names what triggered an edit-service call.
type Intent string

const (
	IntentInitial    Intent = "initial"
	IntentRegenerate Intent = "regenerate"
	IntentPreset     Intent = "preset"
	IntentPrompt     Intent = "prompt"
	IntentUpscale    Intent = "upscale"
)

// StatusEvent is emitted on every status transition of a session.
type StatusEvent struct {
	SessionID      uuid.UUID `json:"project_id"`
	OwnerID        string    `json:"user_id"`
	Intent         Intent    `json:"intent,omitempty"`
	Status         Status    `json:"status"`
	CurrentVersion int       `json:"current_version"`
	HistoryLength  int       `json:"history_length"`
	At             time.Time `json:"at"`
}

// Publisher fans status events out to listeners.
type Publisher interface {
	PublishStatus(ctx context.Context, event StatusEvent) error
}

// EditRecord is one audit entry per edit-service call.
type EditRecord struct {
	SessionID uuid.UUID
	OwnerID   string
	Intent    Intent
	Succeeded bool
	Error     string
	Duration  time.Duration
	At        time.Time
}

// Recorder keeps the audit trail of edit-service calls.
type Recorder interface {
	RecordEdit(ctx context.Context, record EditRecord) error
}
