package tags

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// MaxImageBytes bounds an uploaded cover file.
const MaxImageBytes = 10 << 20

var allowedImageTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/gif":  {},
	"image/webp": {},
}

var (
	ErrEmptyImage       = errors.New("image file is empty")
	ErrImageTooLarge    = fmt.Errorf("image file exceeds %d bytes", MaxImageBytes)
	ErrUnsupportedImage = errors.New("file is not a jpeg, png, gif or webp image")
)

// File is a cover image picked from disk.
type File struct {
	Name string
	Data []byte
}

// ContentType sniffs the image type from the file contents.
func (f File) ContentType() string {
	return http.DetectContentType(f.Data)
}

// Validate checks size and type.
func (f File) Validate() error {
	if len(f.Data) == 0 {
		return ErrEmptyImage
	}
	if len(f.Data) > MaxImageBytes {
		return ErrImageTooLarge
	}
	if _, ok := allowedImageTypes[f.ContentType()]; !ok {
		return ErrUnsupportedImage
	}
	return nil
}

// LoadFile reads and validates the image at path. A leading ~ expands to the
// home directory.
func LoadFile(path string) (File, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return File{}, fmt.Errorf("image path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return File{}, fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}

	file, err := os.Open(trimmed)
	if err != nil {
		return File{}, fmt.Errorf("open image: %w", err)
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(io.LimitReader(file, MaxImageBytes+1))
	if err != nil {
		return File{}, fmt.Errorf("read image: %w", err)
	}
	f := File{Name: filepath.Base(trimmed), Data: data}
	if err := f.Validate(); err != nil {
		return File{}, fmt.Errorf("%s: %w", f.Name, err)
	}
	return f, nil
}

// BuildPreview encodes f as an inline data URI for display.
func BuildPreview(f File) (string, error) {
	if err := f.Validate(); err != nil {
		return "", err
	}
	var b strings.Builder
	b.Grow(len("data:;base64,") + 16 + base64.StdEncoding.EncodedLen(len(f.Data)))
	b.WriteString("data:")
	b.WriteString(f.ContentType())
	b.WriteString(";base64,")
	b.WriteString(base64.StdEncoding.EncodeToString(f.Data))
	return b.String(), nil
}

// IsDataURI reports whether s is an inline preview rather than a URL.
func IsDataURI(s string) bool {
	return strings.HasPrefix(s, "data:")
}

// DataURIType returns the media type of an inline preview, or "".
func DataURIType(s string) string {
	if !IsDataURI(s) {
		return ""
	}
	rest := strings.TrimPrefix(s, "data:")
	if i := strings.IndexAny(rest, ";,"); i >= 0 {
		return rest[:i]
	}
	return ""
}
