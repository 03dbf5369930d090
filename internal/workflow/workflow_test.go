package workflow

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/five82/tagdeck/internal/artifact"
	"github.com/five82/tagdeck/internal/backend"
	"github.com/five82/tagdeck/internal/progress"
	"github.com/five82/tagdeck/internal/tags"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type call struct {
	Op        string
	SessionID string
	Arg       string
	Tags      backend.Tags
}

type fakeBackend struct {
	mu    sync.Mutex
	calls []call

	extract     backend.ExtractResult
	extractErr  error
	uploadErr   error
	finalizeErr error
	audio       backend.Audio

	// block, when set, makes every call wait for ctx cancellation.
	block bool
}

func (f *fakeBackend) record(c call) {
	f.mu.Lock()
	f.calls = append(f.calls, c)
	f.mu.Unlock()
}

func (f *fakeBackend) Calls() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}

func (f *fakeBackend) wait(ctx context.Context) error {
	if !f.block {
		return nil
	}
	<-ctx.Done()
	return ctx.Err()
}

func (f *fakeBackend) ExtractInfo(ctx context.Context, link string) (backend.ExtractResult, error) {
	f.record(call{Op: "extract", Arg: link})
	if err := f.wait(ctx); err != nil {
		return backend.ExtractResult{}, err
	}
	if f.extractErr != nil {
		return backend.ExtractResult{}, f.extractErr
	}
	return f.extract, nil
}

func (f *fakeBackend) UploadImage(ctx context.Context, sessionID string, img backend.Image) error {
	f.record(call{Op: "upload", SessionID: sessionID, Arg: img.Name})
	if err := f.wait(ctx); err != nil {
		return err
	}
	return f.uploadErr
}

func (f *fakeBackend) Finalize(ctx context.Context, sessionID string, t backend.Tags) (backend.Audio, error) {
	f.record(call{Op: "finalize", SessionID: sessionID, Tags: t})
	if err := f.wait(ctx); err != nil {
		return backend.Audio{}, err
	}
	if f.finalizeErr != nil {
		return backend.Audio{}, f.finalizeErr
	}
	return f.audio, nil
}

func s1Backend() *fakeBackend {
	return &fakeBackend{
		extract: backend.ExtractResult{
			SessionID: "s1",
			Tags:      backend.Tags{Title: "T", Artist: "A", Album: "", Thumbnail: "http://img"},
		},
		audio: backend.Audio{Data: []byte("ID3-audio"), ContentType: "audio/mpeg"},
	}
}

func newTestWorkflow(t *testing.T, fb *fakeBackend) *Workflow {
	t.Helper()
	w, err := New(Options{
		Backend:      fb,
		Progress:     progress.Options{Interval: time.Hour},
		DisplayDelay: -1,
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return w
}

func mustEdit(t *testing.T, w *Workflow) *Workflow {
	t.Helper()
	if err := w.Submit(context.Background(), "https://youtu.be/x"); err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	return w
}

func TestNewRequiresBackend(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Fatal("New without backend returned nil error")
	}
}

func TestSubmit_PopulatesEditor(t *testing.T) {
	fb := s1Backend()
	w := mustEdit(t, newTestWorkflow(t, fb))

	snap := w.Snapshot()
	if snap.Stage != StageEditing {
		t.Fatalf("Stage = %s, want editing", snap.Stage)
	}
	if snap.Session.ID != "s1" || snap.Link != "https://youtu.be/x" {
		t.Fatalf("Session = %+v, Link = %q", snap.Session, snap.Link)
	}
	want := tags.Set{Title: "T", Artist: "A", Album: "", Thumbnail: "http://img"}
	if diff := cmp.Diff(want, snap.Tags); diff != "" {
		t.Fatalf("Tags mismatch (-want +got):\n%s", diff)
	}
	if snap.Thumbnail != "http://img" || snap.Source != tags.SourceRemote {
		t.Fatalf("Thumbnail = %q, Source = %v", snap.Thumbnail, snap.Source)
	}
	if snap.Err != nil {
		t.Fatalf("Err = %v, want nil", snap.Err)
	}
}

func TestSubmit_EmptyLink(t *testing.T) {
	fb := s1Backend()
	w := newTestWorkflow(t, fb)

	if err := w.Submit(context.Background(), "   "); !errors.Is(err, ErrEmptyLink) {
		t.Fatalf("Submit(blank) = %v, want ErrEmptyLink", err)
	}
	if got := w.Snapshot().Stage; got != StageIdle {
		t.Fatalf("Stage = %s, want idle", got)
	}
	if len(fb.Calls()) != 0 {
		t.Fatalf("backend called for empty link: %+v", fb.Calls())
	}
}

func TestSubmit_FailureReturnsToIdle(t *testing.T) {
	fb := s1Backend()
	fb.extractErr = &backend.ExtractionError{Link: "x", Status: http.StatusBadGateway, Err: errors.New("unsupported site")}
	w := newTestWorkflow(t, fb)

	err := w.Submit(context.Background(), "x")
	var extractErr *backend.ExtractionError
	if !errors.As(err, &extractErr) {
		t.Fatalf("Submit error = %v, want *backend.ExtractionError", err)
	}

	snap := w.Snapshot()
	if snap.Stage != StageIdle || snap.HasSession() {
		t.Fatalf("snapshot = %+v, want idle without session", snap)
	}
	if !errors.As(snap.Err, &extractErr) {
		t.Fatalf("Snapshot.Err = %v, want recorded ExtractionError", snap.Err)
	}
	if snap.Progress != 0 {
		t.Fatalf("Progress = %d after failure, want 0", snap.Progress)
	}
}

func TestSubmit_WrapsPlainErrors(t *testing.T) {
	fb := s1Backend()
	fb.extractErr = errors.New("dial tcp: refused")
	w := newTestWorkflow(t, fb)

	var extractErr *backend.ExtractionError
	if err := w.Submit(context.Background(), "x"); !errors.As(err, &extractErr) {
		t.Fatalf("Submit error = %v, want *backend.ExtractionError", err)
	}
}

func TestSubmit_OnlyFromIdle(t *testing.T) {
	w := mustEdit(t, newTestWorkflow(t, s1Backend()))

	if err := w.Submit(context.Background(), "y"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("Submit while editing = %v, want ErrInvalidTransition", err)
	}
	if got := w.Snapshot().Stage; got != StageEditing {
		t.Fatalf("Stage = %s after rejected submit, want editing", got)
	}
}

func TestSubmit_ProgressReachesFullBeforeEditing(t *testing.T) {
	fb := s1Backend()
	var (
		mu     sync.Mutex
		values []int
	)
	w, err := New(Options{
		Backend: fb,
		Progress: progress.Options{
			Interval: time.Hour,
			OnChange: func(v int) {
				mu.Lock()
				values = append(values, v)
				mu.Unlock()
			},
		},
		DisplayDelay: time.Millisecond,
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	mustEdit(t, w)

	mu.Lock()
	defer mu.Unlock()
	want := []int{0, progress.Full, 0}
	if diff := cmp.Diff(want, values); diff != "" {
		t.Fatalf("progress values mismatch (-want +got):\n%s", diff)
	}
}

func TestEdit_OnlyWhileEditing(t *testing.T) {
	w := newTestWorkflow(t, s1Backend())
	if err := w.Edit(func(*tags.Model) {}); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("Edit while idle = %v, want ErrInvalidTransition", err)
	}
}

func TestDownload_RemoteThumbnail(t *testing.T) {
	fb := s1Backend()
	w := mustEdit(t, newTestWorkflow(t, fb))

	if err := w.Edit(func(m *tags.Model) { _ = m.SetField(tags.FieldAlbum, "LP") }); err != nil {
		t.Fatalf("Edit returned error: %v", err)
	}
	if err := w.Download(context.Background()); err != nil {
		t.Fatalf("Download returned error: %v", err)
	}

	want := []call{
		{Op: "extract", Arg: "https://youtu.be/x"},
		{Op: "finalize", SessionID: "s1", Tags: backend.Tags{Title: "T", Artist: "A", Album: "LP", Thumbnail: "http://img"}},
	}
	if diff := cmp.Diff(want, fb.Calls()); diff != "" {
		t.Fatalf("calls mismatch (-want +got):\n%s", diff)
	}

	snap := w.Snapshot()
	if snap.Stage != StageComplete || snap.Artifact == nil {
		t.Fatalf("snapshot = %+v, want complete with artifact", snap)
	}
	if snap.Artifact.Filename != "T.mp3" || snap.Artifact.Size != len("ID3-audio") {
		t.Fatalf("Artifact = %+v", snap.Artifact)
	}
	h, err := w.Artifact()
	if err != nil {
		t.Fatalf("Artifact returned error: %v", err)
	}
	data, err := h.Bytes()
	if err != nil || string(data) != "ID3-audio" {
		t.Fatalf("artifact bytes = %q, %v", data, err)
	}
}

func TestDownload_UploadsBeforeFinalize(t *testing.T) {
	fb := s1Backend()
	w := mustEdit(t, newTestWorkflow(t, fb))

	err := w.Edit(func(m *tags.Model) {
		m.AttachUpload(tags.File{Name: "F.png", Data: pngBytes})
	})
	if err != nil {
		t.Fatalf("Edit returned error: %v", err)
	}
	if err := w.Download(context.Background()); err != nil {
		t.Fatalf("Download returned error: %v", err)
	}

	want := []call{
		{Op: "extract", Arg: "https://youtu.be/x"},
		{Op: "upload", SessionID: "s1", Arg: "F.png"},
		{Op: "finalize", SessionID: "s1", Tags: backend.Tags{Title: "T", Artist: "A", Album: "", Thumbnail: ""}},
	}
	if diff := cmp.Diff(want, fb.Calls()); diff != "" {
		t.Fatalf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestDownload_UploadedWithoutFileSkipsUpload(t *testing.T) {
	fb := s1Backend()
	w := mustEdit(t, newTestWorkflow(t, fb))

	_ = w.Edit(func(m *tags.Model) { m.SelectSource(tags.SourceUploaded) })
	if err := w.Download(context.Background()); err != nil {
		t.Fatalf("Download returned error: %v", err)
	}
	calls := fb.Calls()
	if len(calls) != 2 || calls[1].Op != "finalize" || calls[1].Tags.Thumbnail != "" {
		t.Fatalf("calls = %+v, want finalize with empty thumbnail and no upload", calls)
	}
}

func TestDownload_FinalizeFailureKeepsSessionAndEdits(t *testing.T) {
	fb := s1Backend()
	fb.finalizeErr = &backend.FinalizeError{SessionID: "s1", Status: http.StatusInternalServerError, Err: errors.New("ffmpeg failed")}
	w := mustEdit(t, newTestWorkflow(t, fb))

	_ = w.Edit(func(m *tags.Model) { _ = m.SetField(tags.FieldTitle, "Edited") })

	err := w.Download(context.Background())
	var finalizeErr *backend.FinalizeError
	if !errors.As(err, &finalizeErr) || finalizeErr.Status != http.StatusInternalServerError {
		t.Fatalf("Download error = %v, want 500 FinalizeError", err)
	}

	snap := w.Snapshot()
	if snap.Stage != StageEditing || snap.Session.ID != "s1" {
		t.Fatalf("snapshot = %+v, want editing with s1", snap)
	}
	if snap.Tags.Title != "Edited" {
		t.Fatalf("Title = %q after failure, want Edited", snap.Tags.Title)
	}
	if w.Artifacts().Live() != 0 {
		t.Fatalf("artifact registered despite failure")
	}

	// Retry succeeds with the same session.
	fb.finalizeErr = nil
	if err := w.Download(context.Background()); err != nil {
		t.Fatalf("retry Download returned error: %v", err)
	}
	if got := w.Snapshot().Artifact.Filename; got != "Edited.mp3" {
		t.Fatalf("Filename = %q, want Edited.mp3", got)
	}
}

func TestDownload_UploadFailureReturnsToEditing(t *testing.T) {
	fb := s1Backend()
	fb.uploadErr = errors.New("connection reset")
	w := mustEdit(t, newTestWorkflow(t, fb))

	_ = w.Edit(func(m *tags.Model) { m.AttachUpload(tags.File{Name: "F.png", Data: pngBytes}) })

	err := w.Download(context.Background())
	var uploadErr *backend.UploadError
	if !errors.As(err, &uploadErr) {
		t.Fatalf("Download error = %v, want *backend.UploadError", err)
	}
	for _, c := range fb.Calls() {
		if c.Op == "finalize" {
			t.Fatalf("finalize called after failed upload")
		}
	}

	snap := w.Snapshot()
	if snap.Stage != StageEditing || snap.UploadName != "F.png" || snap.Source != tags.SourceUploaded {
		t.Fatalf("snapshot = %+v, want editing with upload kept", snap)
	}
}

func TestDownload_OnlyWhileEditing(t *testing.T) {
	w := newTestWorkflow(t, s1Backend())
	if err := w.Download(context.Background()); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("Download while idle = %v, want ErrInvalidTransition", err)
	}
}

func TestDownload_MissingSession(t *testing.T) {
	fb := s1Backend()
	fb.extract.SessionID = ""
	w := mustEdit(t, newTestWorkflow(t, fb))

	err := w.Download(context.Background())
	if !errors.Is(err, ErrInvalidTransition) || !errors.Is(err, ErrNoSession) {
		t.Fatalf("Download without session = %v, want ErrInvalidTransition and ErrNoSession", err)
	}
}

func TestRestart_RevokesArtifact(t *testing.T) {
	w := mustEdit(t, newTestWorkflow(t, s1Backend()))
	if err := w.Download(context.Background()); err != nil {
		t.Fatalf("Download returned error: %v", err)
	}
	h, _ := w.Artifact()

	if err := w.Restart(); err != nil {
		t.Fatalf("Restart returned error: %v", err)
	}
	snap := w.Snapshot()
	if snap.Stage != StageIdle || snap.HasSession() || snap.Artifact != nil || snap.Tags != (tags.Set{}) {
		t.Fatalf("snapshot = %+v, want cleared idle", snap)
	}
	if _, err := h.Bytes(); !errors.Is(err, artifact.ErrRevoked) {
		t.Fatalf("handle after restart = %v, want ErrRevoked", err)
	}
	if w.Artifacts().Live() != 0 {
		t.Fatalf("Live() = %d after restart, want 0", w.Artifacts().Live())
	}

	if err := w.Restart(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("Restart while idle = %v, want ErrInvalidTransition", err)
	}
}

func TestCancel_AbortsExtraction(t *testing.T) {
	fb := s1Backend()
	fb.block = true
	w := newTestWorkflow(t, fb)

	done := make(chan error, 1)
	go func() { done <- w.Submit(context.Background(), "x") }()

	deadline := time.Now().Add(2 * time.Second)
	for w.Snapshot().Stage != StageExtracting {
		if time.Now().After(deadline) {
			t.Fatal("workflow never entered extracting")
		}
		time.Sleep(time.Millisecond)
	}
	if err := w.Download(context.Background()); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("Download while extracting = %v, want ErrInvalidTransition", err)
	}
	if !w.Cancel() {
		t.Fatal("Cancel returned false while extracting")
	}

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Submit error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Submit did not return after Cancel")
	}
	if got := w.Snapshot().Stage; got != StageIdle {
		t.Fatalf("Stage = %s after cancel, want idle", got)
	}
	if w.Cancel() {
		t.Fatal("Cancel returned true while idle")
	}
}

func TestCancel_AbortsDownloadKeepingSession(t *testing.T) {
	fb := s1Backend()
	w := mustEdit(t, newTestWorkflow(t, fb))
	_ = w.Edit(func(m *tags.Model) { _ = m.SetField(tags.FieldArtist, "Edited") })

	fb.block = true
	done := make(chan error, 1)
	go func() { done <- w.Download(context.Background()) }()

	deadline := time.Now().Add(2 * time.Second)
	for w.Snapshot().Stage != StageDownloading {
		if time.Now().After(deadline) {
			t.Fatal("workflow never entered downloading")
		}
		time.Sleep(time.Millisecond)
	}
	if !w.Cancel() {
		t.Fatal("Cancel returned false while downloading")
	}

	var err error
	select {
	case err = <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Download did not return after Cancel")
	}
	var finalizeErr *backend.FinalizeError
	if !errors.As(err, &finalizeErr) || !errors.Is(err, context.Canceled) {
		t.Fatalf("Download error = %v, want FinalizeError wrapping context.Canceled", err)
	}

	snap := w.Snapshot()
	if snap.Stage != StageEditing || snap.Session.ID != "s1" {
		t.Fatalf("snapshot = %+v, want editing with s1", snap)
	}
	if snap.Tags.Artist != "Edited" {
		t.Fatalf("Artist = %q after cancel, want Edited", snap.Tags.Artist)
	}
	if !errors.As(snap.Err, &finalizeErr) {
		t.Fatalf("recorded error = %v, want *backend.FinalizeError", snap.Err)
	}
	if w.Artifacts().Live() != 0 {
		t.Fatal("artifact registered despite cancel")
	}
}

func TestSubscribeNotifiesTransitions(t *testing.T) {
	w := newTestWorkflow(t, s1Backend())

	var (
		mu     sync.Mutex
		stages []Stage
	)
	unsubscribe := w.Subscribe(func() {
		stage := w.Snapshot().Stage
		mu.Lock()
		if len(stages) == 0 || stages[len(stages)-1] != stage {
			stages = append(stages, stage)
		}
		mu.Unlock()
	})

	mustEdit(t, w)
	if err := w.Download(context.Background()); err != nil {
		t.Fatalf("Download returned error: %v", err)
	}
	unsubscribe()
	_ = w.Restart()

	mu.Lock()
	defer mu.Unlock()
	want := []Stage{StageExtracting, StageEditing, StageDownloading, StageComplete}
	if diff := cmp.Diff(want, stages); diff != "" {
		t.Fatalf("stages mismatch (-want +got):\n%s", diff)
	}
}
