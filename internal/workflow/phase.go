package workflow

import (
	"time"

	"github.com/five82/tagdeck/internal/artifact"
	"github.com/five82/tagdeck/internal/tags"
)

// Stage names a workflow phase.
type Stage string

const (
	StageIdle        Stage = "idle"
	StageExtracting  Stage = "extracting"
	StageEditing     Stage = "editing"
	StageDownloading Stage = "downloading"
	StageComplete    Stage = "complete"
)

// Label returns a display label such as "Extracting".
func (s Stage) Label() string {
	switch s {
	case StageIdle:
		return "Idle"
	case StageExtracting:
		return "Extracting"
	case StageEditing:
		return "Editing"
	case StageDownloading:
		return "Downloading"
	case StageComplete:
		return "Complete"
	default:
		return string(s)
	}
}

// Busy reports whether a remote call is in flight in this stage.
func (s Stage) Busy() bool {
	return s == StageExtracting || s == StageDownloading
}

// Session is the server-side context issued by a successful extraction.
type Session struct {
	ID        string
	Link      string
	StartedAt time.Time
}

// Phase is the current workflow state. Each variant carries only the data
// that exists in that state.
type Phase interface {
	Stage() Stage
}

// Idle waits for a link.
type Idle struct{}

// Extracting has an extract call in flight.
type Extracting struct {
	Link string
}

// Editing holds the session and the tag model the user is changing.
type Editing struct {
	Session Session
	Tags    *tags.Model
}

// Downloading has the optional upload and the finalize call in flight.
type Downloading struct {
	Session Session
	Tags    *tags.Model
}

// Complete holds the finalized artifact.
type Complete struct {
	Session  Session
	Tags     tags.Set
	Artifact *artifact.Handle
}

func (Idle) Stage() Stage        { return StageIdle }
func (Extracting) Stage() Stage  { return StageExtracting }
func (Editing) Stage() Stage     { return StageEditing }
func (Downloading) Stage() Stage { return StageDownloading }
func (Complete) Stage() Stage    { return StageComplete }

// sessionOf returns the session carried by p, if any.
func sessionOf(p Phase) (Session, bool) {
	switch v := p.(type) {
	case Editing:
		return v.Session, true
	case Downloading:
		return v.Session, true
	case Complete:
		return v.Session, true
	default:
		return Session{}, false
	}
}
