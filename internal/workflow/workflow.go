package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/five82/tagdeck/internal/artifact"
	"github.com/five82/tagdeck/internal/backend"
	"github.com/five82/tagdeck/internal/progress"
	"github.com/five82/tagdeck/internal/tags"
)

// DefaultDisplayDelay is how long a completed progress bar stays visible
// before the editor replaces it.
const DefaultDisplayDelay = 400 * time.Millisecond

var (
	// ErrEmptyLink is returned by Submit for a blank link.
	ErrEmptyLink = errors.New("enter a link to extract")
	// ErrInvalidTransition is wrapped by every call made in the wrong phase.
	ErrInvalidTransition = errors.New("invalid workflow transition")
	// ErrNoSession is returned when a session-scoped call has no session.
	ErrNoSession = errors.New("no active session")
)

// Options configures a Workflow.
type Options struct {
	Backend backend.Service
	// Progress configures the extraction estimator. OnChange, if set, is
	// called in addition to the workflow's own subscribers.
	Progress  progress.Options
	Artifacts *artifact.Registry
	Logger    *slog.Logger
	// DisplayDelay defaults to DefaultDisplayDelay; a negative value disables it.
	DisplayDelay time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

// Workflow drives one session from link to finalized artifact.
//
// It is safe for concurrent use. Remote calls run without the lock held, and
// the phase itself forbids a second extract or download while one is in
// flight.
type Workflow struct {
	backend   backend.Service
	estimator *progress.Estimator
	artifacts *artifact.Registry
	logger    *slog.Logger
	delay     time.Duration
	now       func() time.Time

	mu      sync.Mutex
	phase   Phase
	lastErr error
	cancel  context.CancelFunc
	handle  *artifact.Handle

	subMu   sync.Mutex
	subs    map[int]func()
	nextSub int
}

// New returns a Workflow in the Idle phase.
func New(opts Options) (*Workflow, error) {
	if opts.Backend == nil {
		return nil, fmt.Errorf("workflow: backend is required")
	}
	w := &Workflow{
		backend:   opts.Backend,
		artifacts: opts.Artifacts,
		logger:    opts.Logger,
		delay:     opts.DisplayDelay,
		now:       opts.Now,
		phase:     Idle{},
		subs:      make(map[int]func()),
	}
	if w.artifacts == nil {
		w.artifacts = artifact.NewRegistry(opts.Logger)
	}
	if w.logger == nil {
		w.logger = slog.New(slog.DiscardHandler)
	}
	w.logger = w.logger.With("component", "workflow")
	if w.delay == 0 {
		w.delay = DefaultDisplayDelay
	}
	if w.now == nil {
		w.now = time.Now
	}

	progressOpts := opts.Progress
	userOnChange := progressOpts.OnChange
	progressOpts.OnChange = func(v int) {
		if userOnChange != nil {
			userOnChange(v)
		}
		w.notify()
	}
	w.estimator = progress.New(progressOpts)
	return w, nil
}

// Artifacts returns the registry holding finalized audio.
func (w *Workflow) Artifacts() *artifact.Registry {
	return w.artifacts
}

// Phase returns the current phase. Editing and Downloading share their tag
// model with the workflow; mutate it only through Edit.
func (w *Workflow) Phase() Phase {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.phase
}

// Snapshot returns a copy of the state for rendering.
func (w *Workflow) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	snap := snapshotOf(w.phase)
	snap.Err = w.lastErr
	if snap.Stage == StageExtracting {
		snap.Progress = w.estimator.Value()
	}
	return snap
}

// Subscribe registers fn to be called after every state or progress change.
// fn runs on the goroutine that made the change and must not block. The
// returned func removes the subscription.
func (w *Workflow) Subscribe(fn func()) func() {
	w.subMu.Lock()
	id := w.nextSub
	w.nextSub++
	w.subs[id] = fn
	w.subMu.Unlock()

	return func() {
		w.subMu.Lock()
		delete(w.subs, id)
		w.subMu.Unlock()
	}
}

func (w *Workflow) notify() {
	w.subMu.Lock()
	fns := make([]func(), 0, len(w.subs))
	for _, fn := range w.subs {
		fns = append(fns, fn)
	}
	w.subMu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Submit extracts metadata for link. It blocks until the call finishes and
// the workflow has entered Editing (nil) or returned to Idle (the
// *backend.ExtractionError).
func (w *Workflow) Submit(ctx context.Context, link string) error {
	link = strings.TrimSpace(link)

	w.mu.Lock()
	if stage := w.phase.Stage(); stage != StageIdle {
		w.mu.Unlock()
		return fmt.Errorf("%w: submit while %s", ErrInvalidTransition, stage)
	}
	if link == "" {
		w.mu.Unlock()
		return ErrEmptyLink
	}
	callCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	w.revokeLocked()
	w.phase = Extracting{Link: link}
	w.lastErr = nil
	w.cancel = cancel
	w.mu.Unlock()

	w.logger.Info("extracting", slog.String("phase", string(StageExtracting)), slog.String("link", link))
	w.notify()
	w.estimator.Start()

	result, err := w.backend.ExtractInfo(callCtx, link)
	if err != nil {
		var extractErr *backend.ExtractionError
		if !errors.As(err, &extractErr) {
			err = &backend.ExtractionError{Link: link, Err: err}
		}
		w.estimator.Stop()
		w.transition(Idle{}, err)
		w.logger.Warn("extraction failed", slog.String("phase", string(StageIdle)), slog.String("error", err.Error()))
		return err
	}

	w.estimator.Complete()
	w.notify()
	w.pause(callCtx)

	session := Session{ID: result.SessionID, Link: link, StartedAt: w.now()}
	model := tags.New(fromBackendTags(result.Tags))
	w.transition(Editing{Session: session, Tags: model}, nil)
	w.estimator.Stop()

	w.logger.Info("extracted",
		slog.String("phase", string(StageEditing)),
		slog.String("session_id", session.ID),
		slog.String("title", result.Tags.Title),
	)
	return nil
}

// Edit applies fn to the tag model. It is only valid while Editing.
func (w *Workflow) Edit(fn func(*tags.Model)) error {
	w.mu.Lock()
	editing, ok := w.phase.(Editing)
	if !ok {
		stage := w.phase.Stage()
		w.mu.Unlock()
		return fmt.Errorf("%w: edit while %s", ErrInvalidTransition, stage)
	}
	fn(editing.Tags)
	w.mu.Unlock()

	w.notify()
	return nil
}

// Download uploads the custom cover when one is active, finalizes the session
// and registers the resulting artifact. On failure the workflow returns to
// Editing with the session and edits intact.
func (w *Workflow) Download(ctx context.Context) error {
	w.mu.Lock()
	editing, ok := w.phase.(Editing)
	if !ok {
		stage := w.phase.Stage()
		w.mu.Unlock()
		return fmt.Errorf("%w: download while %s", ErrInvalidTransition, stage)
	}
	if editing.Session.ID == "" {
		w.mu.Unlock()
		return fmt.Errorf("%w: download: %w", ErrInvalidTransition, ErrNoSession)
	}
	callCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	session, model := editing.Session, editing.Tags
	file, pending := model.PendingUpload()
	payload := model.Payload()
	w.phase = Downloading{Session: session, Tags: model}
	w.lastErr = nil
	w.cancel = cancel
	w.mu.Unlock()

	logger := w.logger.With(slog.String("session_id", session.ID))
	logger.Info("downloading", slog.String("phase", string(StageDownloading)), slog.Bool("upload", pending))
	w.notify()

	back := Editing{Session: session, Tags: model}

	if pending {
		img := backend.Image{Name: file.Name, ContentType: file.ContentType(), Data: file.Data}
		if err := w.backend.UploadImage(callCtx, session.ID, img); err != nil {
			var uploadErr *backend.UploadError
			if !errors.As(err, &uploadErr) {
				err = &backend.UploadError{SessionID: session.ID, Err: err}
			}
			w.transition(back, err)
			logger.Warn("image upload failed", slog.String("error", err.Error()))
			return err
		}
		logger.Debug("image uploaded", slog.String("file", file.Name), slog.Int("bytes", len(file.Data)))
	}

	audio, err := w.backend.Finalize(callCtx, session.ID, toBackendTags(payload))
	if err != nil {
		var finalizeErr *backend.FinalizeError
		if !errors.As(err, &finalizeErr) {
			err = &backend.FinalizeError{SessionID: session.ID, Err: err}
		}
		w.transition(back, err)
		logger.Warn("finalize failed", slog.String("error", err.Error()))
		return err
	}

	handle := w.artifacts.Create(audio.Data, artifact.SuggestFilename(payload.Title), audio.ContentType)

	w.mu.Lock()
	w.revokeLocked()
	w.handle = handle
	w.phase = Complete{Session: session, Tags: payload, Artifact: handle}
	w.lastErr = nil
	w.cancel = nil
	w.mu.Unlock()
	w.notify()

	logger.Info("download complete",
		slog.String("phase", string(StageComplete)),
		slog.String("artifact_id", handle.ID.String()),
		slog.String("filename", handle.Filename),
		slog.Int("live_artifacts", w.artifacts.Live()),
	)
	return nil
}

// Artifact returns the live artifact handle. It is only valid while Complete.
func (w *Workflow) Artifact() (*artifact.Handle, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	complete, ok := w.phase.(Complete)
	if !ok {
		return nil, fmt.Errorf("%w: no artifact while %s", ErrInvalidTransition, w.phase.Stage())
	}
	return complete.Artifact, nil
}

// Restart returns a completed workflow to Idle, revoking its artifact and
// dropping the session and tags.
func (w *Workflow) Restart() error {
	w.mu.Lock()
	if stage := w.phase.Stage(); stage != StageComplete {
		w.mu.Unlock()
		return fmt.Errorf("%w: restart while %s", ErrInvalidTransition, stage)
	}
	w.revokeLocked()
	w.phase = Idle{}
	w.lastErr = nil
	w.mu.Unlock()

	w.estimator.Stop()
	w.logger.Info("restarted",
		slog.String("phase", string(StageIdle)),
		slog.Int("live_artifacts", w.artifacts.Live()),
	)
	w.notify()
	return nil
}

// Cancel aborts the in-flight extract or download call, if any. The pending
// Submit or Download then fails and applies its usual failure transition.
func (w *Workflow) Cancel() bool {
	w.mu.Lock()
	cancel := w.cancel
	busy := w.phase.Stage().Busy()
	w.mu.Unlock()

	if cancel == nil || !busy {
		return false
	}
	w.logger.Info("cancelling in-flight call")
	cancel()
	return true
}

// ClearError drops the recorded failure, typically once it has been shown.
func (w *Workflow) ClearError() {
	w.mu.Lock()
	changed := w.lastErr != nil
	w.lastErr = nil
	w.mu.Unlock()
	if changed {
		w.notify()
	}
}

func (w *Workflow) transition(next Phase, err error) {
	w.mu.Lock()
	w.phase = next
	w.lastErr = err
	w.cancel = nil
	w.mu.Unlock()
	w.notify()
}

// revokeLocked releases the current artifact. Callers hold w.mu.
func (w *Workflow) revokeLocked() {
	if w.handle == nil {
		return
	}
	w.handle.Revoke()
	w.handle = nil
}

// pause keeps the completed progress bar on screen briefly.
func (w *Workflow) pause(ctx context.Context) {
	if w.delay <= 0 {
		return
	}
	timer := time.NewTimer(w.delay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

func fromBackendTags(t backend.Tags) tags.Set {
	return tags.Set{Title: t.Title, Artist: t.Artist, Album: t.Album, Thumbnail: t.Thumbnail}
}

func toBackendTags(s tags.Set) backend.Tags {
	return backend.Tags{Title: s.Title, Artist: s.Artist, Album: s.Album, Thumbnail: s.Thumbnail}
}
