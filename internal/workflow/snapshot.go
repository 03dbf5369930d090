package workflow

import (
	"github.com/google/uuid"

	"github.com/five82/tagdeck/internal/artifact"
	"github.com/five82/tagdeck/internal/tags"
)

// Snapshot is an immutable copy of the workflow state for rendering.
type Snapshot struct {
	Stage    Stage
	Progress int
	Link     string
	Session  Session
	Err      error

	// Editor state; zero outside Editing and Downloading.
	Tags         tags.Set
	Source       tags.Kind
	UploadName   string
	PreviewReady bool
	Thumbnail    string

	Artifact *ArtifactInfo
}

// HasSession reports whether a session is held.
func (s Snapshot) HasSession() bool {
	return s.Session.ID != ""
}

// ArtifactInfo describes the live artifact of a completed session.
type ArtifactInfo struct {
	ID       uuid.UUID
	Filename string
	Link     string
	Size     int
	SizeText string
}

func snapshotOf(p Phase) Snapshot {
	snap := Snapshot{Stage: p.Stage()}
	if session, ok := sessionOf(p); ok {
		snap.Session = session
		snap.Link = session.Link
	}

	switch v := p.(type) {
	case Extracting:
		snap.Link = v.Link
	case Editing:
		fillEditor(&snap, v.Tags)
	case Downloading:
		fillEditor(&snap, v.Tags)
	case Complete:
		snap.Tags = v.Tags
		snap.Artifact = artifactInfo(v.Artifact)
	}
	return snap
}

func fillEditor(snap *Snapshot, m *tags.Model) {
	if m == nil {
		return
	}
	upload := m.Upload()
	snap.Tags = m.Fields()
	snap.Source = m.Active()
	snap.UploadName = upload.File.Name
	snap.PreviewReady = upload.Preview != ""
	snap.Thumbnail = m.CurrentThumbnail()
}

func artifactInfo(h *artifact.Handle) *ArtifactInfo {
	if h == nil {
		return nil
	}
	return &ArtifactInfo{
		ID:       h.ID,
		Filename: h.Filename,
		Link:     h.Link(),
		Size:     h.Size,
		SizeText: h.SizeText(),
	}
}
