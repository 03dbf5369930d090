package artifact

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// FallbackFilename is used when the title yields no usable name.
const FallbackFilename = "song.mp3"

const maxSaveAttempts = 1000

// maxStemBytes leaves room for " (999).mp3" under the common 255-byte limit.
const maxStemBytes = 200

var filenameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// SanitizeFileName strips path separators and characters that are invalid on
// common filesystems, and normalises to NFC.
func SanitizeFileName(name string) string {
	name = norm.NFC.String(strings.TrimSpace(name))
	if name == "" {
		return ""
	}
	name = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, name)
	name = strings.TrimSpace(filenameReplacer.Replace(name))
	name = strings.Trim(name, ". ")
	return name
}

// SuggestFilename derives "<title>.mp3" from the edited title, shortening
// long titles on a rune boundary.
func SuggestFilename(title string) string {
	base := truncateStem(SanitizeFileName(title))
	if base == "" {
		return FallbackFilename
	}
	return base + ".mp3"
}

// truncateStem cuts name to at most maxStemBytes without splitting a rune.
func truncateStem(name string) string {
	if len(name) <= maxStemBytes {
		return name
	}
	cut := 0
	for i, r := range name {
		if i+utf8.RuneLen(r) > maxStemBytes {
			break
		}
		cut = i + utf8.RuneLen(r)
	}
	return strings.TrimRight(name[:cut], ". ")
}

// SaveTo writes the artifact into dir under its filename, choosing
// "name (1).mp3", "name (2).mp3" and so on rather than overwriting. It returns
// the path written.
func (h *Handle) SaveTo(dir string) (string, error) {
	data, err := h.Bytes()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	name := SanitizeFileName(h.Filename)
	if name == "" {
		name = FallbackFilename
	}
	ext := filepath.Ext(name)
	stem := truncateStem(strings.TrimSuffix(name, ext))
	if stem == "" {
		stem = strings.TrimSuffix(FallbackFilename, ".mp3")
	}
	name = stem + ext

	for i := 0; i < maxSaveAttempts; i++ {
		candidate := name
		if i > 0 {
			candidate = fmt.Sprintf("%s (%d)%s", stem, i, ext)
		}
		path := filepath.Join(dir, candidate)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("create %s: %w", candidate, err)
		}
		if _, err := f.Write(data); err != nil {
			_ = f.Close()
			_ = os.Remove(path)
			return "", fmt.Errorf("write %s: %w", candidate, err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("close %s: %w", candidate, err)
		}
		h.reg.logger.Info("artifact saved",
			"artifact_id", h.ID.String(),
			"path", path,
		)
		return path, nil
	}
	return "", fmt.Errorf("no free filename for %s in %s", name, dir)
}
