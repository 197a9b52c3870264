package editor

import (
	"errors"
	"fmt"
)

// Kind classifies orchestrator failures. None of them is fatal to the
// session.
type Kind string

const (
	KindInputRejected         Kind = "input_rejected"
	KindReferenceDecodeFailed Kind = "reference_decode_failed"
	KindEditServiceFailed     Kind = "edit_service_failed"
	KindPrematureEdit         Kind = "premature_edit"
	KindBusy                  Kind = "busy"
	KindNotFound              Kind = "not_found"
	KindRateLimited           Kind = "rate_limited"
)

// User-facing messages.
const (
	MsgInitialFailed   = "Failed to generate the base visualization. Check that the API key is configured correctly."
	MsgEditFailed      = "An error occurred while editing. Please try again."
	MsgUpscaleFailed   = "An error occurred while upscaling. Please try again."
	MsgPremature       = "Wait for the base visualization to be generated before editing."
	MsgReferenceFailed = "Could not read the reference image."
	MsgEmptyEdit       = "Describe the change or attach a reference image."
	MsgBusy            = "Another edit is still in progress."
	MsgProjectInput    = "Please name the project and add a photo."
	MsgNotImage        = "Please choose an image file (jpeg, png, webp)."
	MsgUnknownPreset   = "Unknown preset."
	MsgUnknownVersion  = "Saved version not found."
	MsgNothingToSave   = "There is no edited version to save yet."
	MsgAlreadyStarted  = "The base visualization has already been requested."
	MsgRateLimited     = "Too many edit requests. Please wait a moment."
	MsgEnvironment     = "Choose only one environment option."
)

// Error is returned by every Session operation that fails.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// KindOf returns the Kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
