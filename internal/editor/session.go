package editor

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"sitevis/internal/history"
	"sitevis/internal/imagefile"
	"sitevis/internal/prompts"
)

// Deps are the collaborators of a Session. Only Service is required.
type Deps struct {
	Service   EditService
	Publisher Publisher
	Recorder  Recorder
	Logger    zerolog.Logger
	Now       func() time.Time
}

// Session owns one Project and sequences edit intents against the edit
// service. At most one edit-service call is in flight per session.
type Session struct {
	id        uuid.UUID
	owner     string
	createdAt time.Time
	deps      Deps

	mu             sync.Mutex
	project        history.Project
	status         Status
	lastActive     time.Time
	initialStarted bool
}

// View is a consistent read of a session's state.
type View struct {
	ID         uuid.UUID
	OwnerID    string
	Project    history.Project
	Status     Status
	CreatedAt  time.Time
	LastActive time.Time
}

// call is a prepared edit-service request.
type call struct {
	intent      Intent
	failMsg     string
	sources     []history.ImageRef
	instruction string
	reference   *history.ImageRef
}

// NewSession decodes the uploaded photos and creates a session around a
// fresh project. The initial generation is not started here.
func NewSession(owner, name string, uploads []imagefile.Upload, options []string, deps Deps) (*Session, error) {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if strings.TrimSpace(name) == "" {
		return nil, newError(KindInputRejected, MsgProjectInput, history.ErrEmptyName)
	}
	if len(uploads) == 0 {
		return nil, newError(KindInputRejected, MsgProjectInput, history.ErrNoImages)
	}
	options, err := prompts.NormalizeOptions(options)
	if err != nil {
		return nil, newError(KindInputRejected, MsgEnvironment, err)
	}
	originals := make([]history.ImageRef, 0, len(uploads))
	for _, u := range uploads {
		ref, err := imagefile.Decode(u)
		if err != nil {
			return nil, newError(KindInputRejected, MsgNotImage, err)
		}
		originals = append(originals, ref)
	}
	project, err := history.NewProject(name, originals, options)
	if err != nil {
		return nil, newError(KindInputRejected, MsgProjectInput, err)
	}
	now := deps.Now()
	return &Session{
		id:         uuid.New(),
		owner:      owner,
		createdAt:  now,
		deps:       deps,
		project:    project,
		status:     Status{State: StateIdle},
		lastActive: now,
	}, nil
}

func (s *Session) ID() uuid.UUID { return s.id }

func (s *Session) OwnerID() string { return s.owner }

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// IdleSince reports when the session was last used and whether an edit is
// in flight.
func (s *Session) IdleSince() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive, s.status.Pending()
}

// StartInitialGeneration dispatches the first generation in the background.
// It runs at most once per session and only while the history is empty. The
// returned channel yields the outcome.
func (s *Session) StartInitialGeneration() (<-chan error, error) {
	c, err := s.begin(IntentInitial, prompts.GeneratingMessage, func(p history.Project) (call, error) {
		if s.initialStarted || p.HasEdits() {
			return call{}, newError(KindInputRejected, MsgAlreadyStarted, nil)
		}
		s.initialStarted = true
		return s.generationCall(IntentInitial, p), nil
	})
	if err != nil {
		return nil, err
	}
	done := make(chan error, 1)
	go func() {
		done <- s.run(context.Background(), c)
		close(done)
	}()
	return done, nil
}

// Regenerate re-runs the initial generation against the original photos.
// A success is appended at the cursor like any other edit.
func (s *Session) Regenerate(ctx context.Context) error {
	c, err := s.begin(IntentRegenerate, prompts.GeneratingMessage, func(p history.Project) (call, error) {
		return s.generationCall(IntentRegenerate, p), nil
	})
	if err != nil {
		return err
	}
	return s.run(ctx, c)
}

// ApplyPreset runs the preset's fixed instruction on the current image.
func (s *Session) ApplyPreset(ctx context.Context, presetID string) error {
	preset, ok := prompts.Lookup(presetID)
	if !ok {
		return newError(KindNotFound, MsgUnknownPreset, nil)
	}
	c, err := s.begin(IntentPreset, prompts.PresetMessage(preset), func(p history.Project) (call, error) {
		current, ok := p.CurrentEdit()
		if !ok {
			return call{}, newError(KindPrematureEdit, MsgPremature, nil)
		}
		return call{
			intent:      IntentPreset,
			failMsg:     MsgEditFailed,
			sources:     []history.ImageRef{current},
			instruction: preset.Instruction,
		}, nil
	})
	if err != nil {
		return err
	}
	return s.run(ctx, c)
}

// ApplyPrompt edits the current image with free text, a reference image, or
// both. At least one of them must be given.
func (s *Session) ApplyPrompt(ctx context.Context, prompt string, reference *imagefile.Upload) error {
	if strings.TrimSpace(prompt) == "" && reference == nil {
		return newError(KindInputRejected, MsgEmptyEdit, nil)
	}
	c, err := s.begin(IntentPrompt, prompts.PromptMessage(prompt), func(p history.Project) (call, error) {
		current, ok := p.CurrentEdit()
		if !ok {
			return call{}, newError(KindPrematureEdit, MsgPremature, nil)
		}
		c := call{
			intent:      IntentPrompt,
			failMsg:     MsgEditFailed,
			sources:     []history.ImageRef{current},
			instruction: prompt,
		}
		if reference != nil {
			ref, err := imagefile.Decode(*reference)
			if err != nil {
				return call{}, newError(KindReferenceDecodeFailed, MsgReferenceFailed, err)
			}
			c.reference = &ref
		}
		return c, nil
	})
	if err != nil {
		return err
	}
	return s.run(ctx, c)
}

// Upscale asks for a higher-resolution version of the current image.
func (s *Session) Upscale(ctx context.Context) error {
	c, err := s.begin(IntentUpscale, prompts.UpscaleMessage, func(p history.Project) (call, error) {
		current, ok := p.CurrentEdit()
		if !ok {
			return call{}, newError(KindPrematureEdit, MsgPremature, nil)
		}
		return call{
			intent:      IntentUpscale,
			failMsg:     MsgUpscaleFailed,
			sources:     []history.ImageRef{current},
			instruction: prompts.UpscaleInstruction,
		}, nil
	})
	if err != nil {
		return err
	}
	return s.run(ctx, c)
}

func (s *Session) Undo() (View, error) {
	return s.apply(history.Undo{})
}

func (s *Session) Redo() (View, error) {
	return s.apply(history.Redo{})
}

// SaveSnapshot stores the current edit in the gallery. Before the first
// edit there is nothing to save: the project is left as is and an
// InputRejected error says so.
func (s *Session) SaveSnapshot(name string) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status.Pending() {
		return s.viewLocked(), newError(KindBusy, MsgBusy, nil)
	}
	if !s.project.HasEdits() {
		return s.viewLocked(), newError(KindInputRejected, MsgNothingToSave, nil)
	}
	s.project = history.Reduce(s.project, history.SaveSnapshot{Name: name})
	s.lastActive = s.deps.Now()
	return s.viewLocked(), nil
}

// RestoreSaved puts saved version i back on the timeline as the new tip.
func (s *Session) RestoreSaved(i int) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status.Pending() {
		return s.viewLocked(), newError(KindBusy, MsgBusy, nil)
	}
	image, err := s.project.SavedImage(i)
	if err != nil {
		return s.viewLocked(), newError(KindNotFound, MsgUnknownVersion, err)
	}
	s.project = history.Reduce(s.project, history.JumpToSaved{Image: image})
	s.lastActive = s.deps.Now()
	return s.viewLocked(), nil
}

// SavedVersion returns the saved version at index i.
func (s *Session) SavedVersion(i int) (history.SavedVersion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.project.SavedVersions) {
		return history.SavedVersion{}, newError(KindNotFound, MsgUnknownVersion, nil)
	}
	return s.project.SavedVersions[i], nil
}

func (s *Session) apply(action history.Action) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status.Pending() {
		return s.viewLocked(), newError(KindBusy, MsgBusy, nil)
	}
	s.project = history.Reduce(s.project, action)
	s.lastActive = s.deps.Now()
	return s.viewLocked(), nil
}

func (s *Session) generationCall(intent Intent, p history.Project) call {
	return call{
		intent:      intent,
		failMsg:     MsgInitialFailed,
		sources:     append([]history.ImageRef(nil), p.OriginalImages...),
		instruction: prompts.ComposeInitial(p.InitialOptions),
	}
}

// begin checks the single-flight rule, lets prepare validate against the
// current project and, on success, moves the session to Pending.
func (s *Session) begin(intent Intent, message string, prepare func(history.Project) (call, error)) (call, error) {
	s.mu.Lock()
	if s.status.Pending() {
		s.mu.Unlock()
		return call{}, newError(KindBusy, MsgBusy, nil)
	}
	c, err := prepare(s.project)
	if err != nil {
		s.mu.Unlock()
		return call{}, err
	}
	s.status = Status{State: StatePending, Message: message}
	s.lastActive = s.deps.Now()
	event := s.eventLocked(intent)
	s.mu.Unlock()

	s.publish(event)
	return c, nil
}

// run performs the edit-service call and applies its result. The call is
// detached from ctx cancellation: once dispatched it is never aborted.
func (s *Session) run(ctx context.Context, c call) error {
	log := s.deps.Logger.With().
		Str("project_id", s.id.String()).
		Str("intent", string(c.intent)).
		Logger()

	start := s.deps.Now()
	result, err := s.deps.Service.Edit(context.WithoutCancel(ctx), c.sources, c.instruction, c.reference)
	if err == nil && result.IsZero() {
		err = errors.New("edit service returned no image")
	}
	elapsed := s.deps.Now().Sub(start)

	s.mu.Lock()
	if err != nil {
		s.status = Status{State: StateFailed, Error: c.failMsg}
	} else {
		s.project = history.Reduce(s.project, history.AppendEdit{Image: result})
		s.status = Status{State: StateIdle}
	}
	s.lastActive = s.deps.Now()
	event := s.eventLocked(c.intent)
	s.mu.Unlock()

	record := EditRecord{
		SessionID: s.id,
		OwnerID:   s.owner,
		Intent:    c.intent,
		Succeeded: err == nil,
		Duration:  elapsed,
		At:        start,
	}
	if err != nil {
		record.Error = err.Error()
		log.Warn().Err(err).Dur("latency", elapsed).Msg("edit failed")
	} else {
		log.Info().Dur("latency", elapsed).Int("version", event.CurrentVersion).Msg("edit applied")
	}
	s.publish(event)
	s.record(record)

	if err != nil {
		return newError(KindEditServiceFailed, c.failMsg, err)
	}
	return nil
}

func (s *Session) publish(event StatusEvent) {
	if s.deps.Publisher == nil {
		return
	}
	if err := s.deps.Publisher.PublishStatus(context.Background(), event); err != nil {
		s.deps.Logger.Warn().Err(err).Str("project_id", s.id.String()).Msg("failed to publish status")
	}
}

func (s *Session) record(r EditRecord) {
	if s.deps.Recorder == nil {
		return
	}
	if err := s.deps.Recorder.RecordEdit(context.Background(), r); err != nil {
		s.deps.Logger.Warn().Err(err).Str("project_id", s.id.String()).Msg("failed to record edit")
	}
}

func (s *Session) eventLocked(intent Intent) StatusEvent {
	return StatusEvent{
		SessionID:      s.id,
		OwnerID:        s.owner,
		Intent:         intent,
		Status:         s.status,
		CurrentVersion: s.project.CurrentVersion,
		HistoryLength:  len(s.project.History),
		At:             s.deps.Now(),
	}
}

func (s *Session) viewLocked() View {
	return View{
		ID:         s.id,
		OwnerID:    s.owner,
		Project:    s.project.Clone(),
		Status:     s.status,
		CreatedAt:  s.createdAt,
		LastActive: s.lastActive,
	}
}
