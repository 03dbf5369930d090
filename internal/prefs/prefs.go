// Package prefs persists the small amount of editor state tagdeck remembers
// between runs: the active theme and the directory the last cover image was
// picked from, so relative paths typed into the cover file field resolve
// against it.
//
// The file lives at ~/.config/tagdeck/prefs.toml unless a path is given. It
// is advisory: a missing or corrupt file yields defaults rather than an
// error, and the editor keeps running if a write fails.
package prefs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Prefs is the persisted editor state.
type Prefs struct {
	Theme string `toml:"theme"`
	// ImageDir is where the last cover image was picked from.
	ImageDir string `toml:"image_dir,omitempty"`
}

const (
	defaultPrefsPath = "~/.config/tagdeck/prefs.toml"
	defaultTheme     = "Nightfox"
)

// DefaultPath is used when the caller passes an empty path.
func DefaultPath() string {
	return defaultPrefsPath
}

// Load returns the stored theme and image directory. Missing fields, a
// missing file and unparsable TOML all fall back to defaults. The returned
// error is non-nil only when an existing file could not be read; the
// defaults are still usable in that case.
func Load(path string) (Prefs, error) {
	p := Prefs{Theme: defaultTheme}

	resolved, err := expandPath(path)
	if err != nil {
		return p, nil
	}
	data, err := os.ReadFile(resolved)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return p, nil
	case err != nil:
		return p, fmt.Errorf("read prefs: %w", err)
	}

	var stored Prefs
	if toml.Unmarshal(data, &stored) != nil {
		return p, nil
	}
	if theme := strings.TrimSpace(stored.Theme); theme != "" {
		p.Theme = theme
	}
	p.ImageDir = strings.TrimSpace(stored.ImageDir)
	return p, nil
}

// Save records p after a theme change or a cover pick. The file is written
// to a sibling temp file and renamed so a crash never leaves it truncated.
func Save(path string, p Prefs) error {
	resolved, err := expandPath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}
	dir := filepath.Dir(resolved)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	data, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".prefs-*.toml")
	if err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := os.Rename(tmp.Name(), resolved); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	return nil
}

// ResolveImagePath joins a relative cover path onto ImageDir. Absolute and
// ~ paths are returned unchanged.
func (p Prefs) ResolveImagePath(path string) string {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" || p.ImageDir == "" || filepath.IsAbs(trimmed) || strings.HasPrefix(trimmed, "~") {
		return trimmed
	}
	return filepath.Join(p.ImageDir, trimmed)
}

// expandPath resolves path to an absolute file name, substituting the
// default location for "" and the home directory for a leading ~.
func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		trimmed = defaultPrefsPath
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
