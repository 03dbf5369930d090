package tags

import (
	"regexp"
	"strings"
)

// Confidence grades a Guess.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Guess is an artist/title split proposed from a video title.
type Guess struct {
	Artist     string
	Title      string
	Confidence Confidence
}

var (
	noiseParens   = regexp.MustCompile(`(?i)\s*\((official|music|lyric|audio)[^)]*\)`)
	noiseBrackets = regexp.MustCompile(`(?i)\s*\[(official|music|lyric|audio)[^\]]*\]`)

	// Ordered: the first match wins.
	titlePatterns = []struct {
		re         *regexp.Regexp
		artistLast bool
	}{
		{re: regexp.MustCompile(`^(.+?)\s*[-–—]\s*(.+?)(?:\s*\(.*\))?(?:\s*\[.*\])?$`)},
		{re: regexp.MustCompile(`^(.+?)\s*:\s*(.+?)(?:\s*\(.*\))?(?:\s*\[.*\])?$`)},
		{re: regexp.MustCompile(`(?i)^(.+?)\s+by\s+(.+?)(?:\s*\(.*\))?(?:\s*\[.*\])?$`), artistLast: true},
		{re: regexp.MustCompile(`^(.+?)\s*\|\s*(.+?)(?:\s*\(.*\))?(?:\s*\[.*\])?$`)},
	}
)

// SplitTitle proposes an artist and song title from a video title such as
// "Artist - Song (Official Video)". When no pattern matches, the uploader is
// offered as the artist: with medium confidence if it appears in the title,
// low otherwise.
func SplitTitle(title, uploader string) Guess {
	clean := noiseParens.ReplaceAllString(title, "")
	clean = noiseBrackets.ReplaceAllString(clean, "")
	clean = strings.TrimSpace(clean)

	for _, p := range titlePatterns {
		m := p.re.FindStringSubmatch(clean)
		if m == nil {
			continue
		}
		first, second := strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
		if first == "" || second == "" {
			continue
		}
		if p.artistLast {
			return Guess{Artist: second, Title: first, Confidence: ConfidenceHigh}
		}
		return Guess{Artist: first, Title: second, Confidence: ConfidenceHigh}
	}

	uploader = strings.TrimSpace(uploader)
	if uploader != "" && strings.Contains(strings.ToLower(title), strings.ToLower(uploader)) {
		return Guess{Artist: uploader, Title: title, Confidence: ConfidenceMedium}
	}
	return Guess{Artist: uploader, Title: title, Confidence: ConfidenceLow}
}

// Apply writes the guess into m's title and artist fields.
func (g Guess) Apply(m *Model) {
	m.fields.Title = g.Title
	m.fields.Artist = g.Artist
}
