package artifact

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

var (
	// ErrRevoked is returned when opening a handle that has been released.
	ErrRevoked = errors.New("artifact revoked")
	// ErrNotFound is returned for ids the registry never issued or revoked
	// long ago.
	ErrNotFound = errors.New("artifact not found")
)

// DefaultContentType is used when the finalize response carries none.
const DefaultContentType = "audio/mpeg"

// maxRevoked is how many revoked ids keep answering ErrRevoked.
const maxRevoked = 64

type entry struct {
	data        []byte
	filename    string
	contentType string
}

// Registry holds finalized audio in memory and hands out revocable handles.
type Registry struct {
	mu      sync.RWMutex
	live    map[uuid.UUID]*entry
	revoked map[uuid.UUID]struct{}
	// revokedOrder bounds revoked to the most recent maxRevoked ids.
	revokedOrder []uuid.UUID
	baseURL string
	logger  *slog.Logger
}

// NewRegistry returns an empty registry. A nil logger discards output.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Registry{
		live:    make(map[uuid.UUID]*entry),
		revoked: make(map[uuid.UUID]struct{}),
		logger:  logger,
	}
}

// Create registers data and returns its handle. An empty filename becomes
// FallbackFilename.
func (r *Registry) Create(data []byte, filename, contentType string) *Handle {
	if filename == "" {
		filename = FallbackFilename
	}
	if contentType == "" {
		contentType = DefaultContentType
	}
	id := uuid.New()
	e := &entry{data: data, filename: filename, contentType: contentType}

	r.mu.Lock()
	r.live[id] = e
	r.mu.Unlock()

	r.logger.Info("artifact registered",
		slog.String("artifact_id", id.String()),
		slog.String("filename", filename),
		slog.Int("bytes", len(data)),
	)
	return &Handle{ID: id, Filename: filename, ContentType: contentType, Size: len(data), reg: r}
}

// Revoke releases the bytes behind id. It reports whether a live entry was
// dropped; revoking twice is harmless.
func (r *Registry) Revoke(id uuid.UUID) bool {
	r.mu.Lock()
	_, ok := r.live[id]
	if ok {
		delete(r.live, id)
		r.rememberRevokedLocked(id)
	}
	r.mu.Unlock()

	if ok {
		r.logger.Info("artifact revoked", slog.String("artifact_id", id.String()))
	}
	return ok
}

// rememberRevokedLocked records id so links answer 410 for a while. Older ids
// fall back to 404. Callers hold r.mu.
func (r *Registry) rememberRevokedLocked(id uuid.UUID) {
	r.revoked[id] = struct{}{}
	r.revokedOrder = append(r.revokedOrder, id)
	if len(r.revokedOrder) > maxRevoked {
		delete(r.revoked, r.revokedOrder[0])
		r.revokedOrder = append(r.revokedOrder[:0], r.revokedOrder[1:]...)
	}
}

// Open returns the bytes and metadata for id.
func (r *Registry) Open(id uuid.UUID) ([]byte, string, string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.live[id]; ok {
		return e.data, e.filename, e.contentType, nil
	}
	if _, ok := r.revoked[id]; ok {
		return nil, "", "", ErrRevoked
	}
	return nil, "", "", ErrNotFound
}

// Live returns the number of unrevoked handles.
func (r *Registry) Live() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.live)
}

// SetBaseURL records where ServeHTTP is reachable so handles can build links.
func (r *Registry) SetBaseURL(base string) {
	r.mu.Lock()
	r.baseURL = base
	r.mu.Unlock()
}

func (r *Registry) base() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.baseURL
}

// Handle is a reference to one registered artifact.
type Handle struct {
	ID          uuid.UUID
	Filename    string
	ContentType string
	Size        int

	reg *Registry
}

// Link returns the URL serving the artifact, or "" when no server is running.
func (h *Handle) Link() string {
	if h == nil || h.reg == nil {
		return ""
	}
	base := h.reg.base()
	if base == "" {
		return ""
	}
	return base + "/artifacts/" + h.ID.String() + "/" + url.PathEscape(h.Filename)
}

// Bytes returns the artifact contents, failing once revoked.
func (h *Handle) Bytes() ([]byte, error) {
	if h == nil || h.reg == nil {
		return nil, ErrNotFound
	}
	data, _, _, err := h.reg.Open(h.ID)
	if err != nil {
		return nil, fmt.Errorf("artifact %s: %w", h.ID, err)
	}
	return data, nil
}

// Revoke releases the artifact.
func (h *Handle) Revoke() {
	if h == nil || h.reg == nil {
		return
	}
	h.reg.Revoke(h.ID)
}

// SizeText renders Size for display, e.g. "4.2 MB".
func (h *Handle) SizeText() string {
	if h == nil {
		return ""
	}
	return humanize.Bytes(uint64(h.Size))
}
