// Package tags holds the editable metadata for one extraction and the choice
// between a remote cover URL and an uploaded cover file.
package tags

import (
	"fmt"
	"strings"
)

// Set is the editable metadata bundle. Empty strings are valid values.
type Set struct {
	Title     string `json:"title"`
	Artist    string `json:"artist"`
	Album     string `json:"album"`
	Thumbnail string `json:"thumbnail"`
}

// Field names one editable entry of a Set.
type Field int

const (
	FieldTitle Field = iota
	FieldArtist
	FieldAlbum
	// FieldThumbnail edits the stored remote cover URL.
	FieldThumbnail
)

func (f Field) String() string {
	switch f {
	case FieldTitle:
		return "title"
	case FieldArtist:
		return "artist"
	case FieldAlbum:
		return "album"
	case FieldThumbnail:
		return "thumbnail"
	default:
		return fmt.Sprintf("field(%d)", int(f))
	}
}

// ParseField maps a field name such as "artist" to its Field.
func ParseField(name string) (Field, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "title":
		return FieldTitle, nil
	case "artist":
		return FieldArtist, nil
	case "album":
		return FieldAlbum, nil
	case "thumbnail", "cover":
		return FieldThumbnail, nil
	default:
		return 0, fmt.Errorf("unknown tag field %q", name)
	}
}

// Kind identifies which image source variant is active.
type Kind int

const (
	SourceRemote Kind = iota
	SourceUploaded
)

func (k Kind) String() string {
	if k == SourceUploaded {
		return "uploaded"
	}
	return "remote"
}

// ImageSource is the active cover choice: RemoteImage or UploadedImage.
type ImageSource interface {
	Kind() Kind
}

// RemoteImage points the service at a cover URL it fetches itself.
type RemoteImage struct {
	URL string
}

func (RemoteImage) Kind() Kind { return SourceRemote }

// UploadedImage is a local cover file. Preview is empty until BuildPreview
// has finished for it.
type UploadedImage struct {
	File    File
	Preview string
}

func (UploadedImage) Kind() Kind { return SourceUploaded }

// HasFile reports whether a file has been attached.
func (u UploadedImage) HasFile() bool {
	return len(u.File.Data) > 0
}

// Model owns a Set and both image source variants. Only one variant is
// active; the other keeps its data so switching back restores it.
//
// Model is not safe for concurrent use; the workflow serialises access.
type Model struct {
	fields Set // Thumbnail holds the remote URL variant
	active Kind
	upload UploadedImage
	gen    uint64
}

// New returns a Model seeded from extracted tags with the remote source active.
func New(initial Set) *Model {
	return &Model{fields: initial, active: SourceRemote}
}

// Fields returns the current field values. Thumbnail is the stored remote URL
// regardless of which source is active.
func (m *Model) Fields() Set {
	return m.fields
}

// SetField assigns one field and leaves the others untouched.
func (m *Model) SetField(f Field, value string) error {
	switch f {
	case FieldTitle:
		m.fields.Title = value
	case FieldArtist:
		m.fields.Artist = value
	case FieldAlbum:
		m.fields.Album = value
	case FieldThumbnail:
		m.fields.Thumbnail = value
	default:
		return fmt.Errorf("unknown tag field %v", f)
	}
	return nil
}

// Source returns the active variant.
func (m *Model) Source() ImageSource {
	if m.active == SourceUploaded {
		return m.upload
	}
	return RemoteImage{URL: m.fields.Thumbnail}
}

// Active returns the active variant kind.
func (m *Model) Active() Kind {
	return m.active
}

// SelectSource switches the active variant. Neither variant's data is discarded.
func (m *Model) SelectSource(k Kind) {
	if k != SourceUploaded {
		k = SourceRemote
	}
	m.active = k
}

// UseRemote stores url and activates the remote variant.
func (m *Model) UseRemote(url string) {
	m.fields.Thumbnail = url
	m.active = SourceRemote
}

// AttachUpload stores f, activates the uploaded variant and drops any preview
// of a previous file. The returned generation must accompany ApplyPreview.
func (m *Model) AttachUpload(f File) uint64 {
	m.gen++
	m.upload = UploadedImage{File: f}
	m.active = SourceUploaded
	return m.gen
}

// ApplyPreview records the preview built for generation gen. Previews for a
// file that has since been replaced are ignored.
func (m *Model) ApplyPreview(gen uint64, preview string) bool {
	if gen != m.gen || !m.upload.HasFile() {
		return false
	}
	m.upload.Preview = preview
	return true
}

// Upload returns the stored upload, active or not.
func (m *Model) Upload() UploadedImage {
	return m.upload
}

// CurrentThumbnail returns what to display as the cover: the upload preview
// when that variant is active and the preview is ready, otherwise the remote
// URL, otherwise empty.
func (m *Model) CurrentThumbnail() string {
	if m.active == SourceUploaded && m.upload.Preview != "" {
		return m.upload.Preview
	}
	return m.fields.Thumbnail
}

// PendingUpload returns the file that must be uploaded before finalizing.
// It is only reported when the uploaded variant is active.
func (m *Model) PendingUpload() (File, bool) {
	if m.active != SourceUploaded || !m.upload.HasFile() {
		return File{}, false
	}
	return m.upload.File, true
}

// Payload returns the Set to finalize with. The thumbnail is cleared when the
// uploaded variant is active because the file travels through its own call.
func (m *Model) Payload() Set {
	out := m.fields
	if m.active == SourceUploaded {
		out.Thumbnail = ""
	}
	return out
}
