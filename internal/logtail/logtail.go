package logtail

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Matcher selects log lines. A nil Matcher keeps every line.
type Matcher func(line string) bool

// Read returns at most maxLines matching lines from the end of the file at
// path; maxLines <= 0 returns every matching line. A missing file yields no
// lines.
func Read(path string, maxLines int, match Matcher) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer func() { _ = file.Close() }()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if maxLines <= 0 {
		var lines []string
		for scanner.Scan() {
			if line := scanner.Text(); match == nil || match(line) {
				lines = append(lines, line)
			}
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read log: %w", err)
		}
		return lines, nil
	}

	ring := make([]string, maxLines)
	count := 0
	idx := 0
	for scanner.Scan() {
		line := scanner.Text()
		if match != nil && !match(line) {
			continue
		}
		ring[idx] = line
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := range count {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// Session matches lines tagged with the given session id in either the
// console (session_id=ID) or JSON ("session_id":"ID") log format.
func Session(id string) Matcher {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil
	}
	console := "session_id=" + id
	jsonKey := `"session_id":"` + id + `"`
	return func(line string) bool {
		if strings.Contains(line, jsonKey) {
			return true
		}
		i := strings.Index(line, console)
		if i < 0 {
			return false
		}
		end := i + len(console)
		return end == len(line) || line[end] == ' '
	}
}

// Level matches lines at or above min, recognising both log formats.
func Level(min string) Matcher {
	rank := levelRank(min)
	if rank <= 0 {
		return nil
	}
	return func(line string) bool {
		return lineLevel(line) >= rank
	}
}

// All combines matchers; nil entries are skipped.
func All(matchers ...Matcher) Matcher {
	var active []Matcher
	for _, m := range matchers {
		if m != nil {
			active = append(active, m)
		}
	}
	if len(active) == 0 {
		return nil
	}
	return func(line string) bool {
		for _, m := range active {
			if !m(line) {
				return false
			}
		}
		return true
	}
}

var levelNames = []string{"debug", "info", "warn", "error"}

func levelRank(name string) int {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "warning" {
		name = "warn"
	}
	for i, n := range levelNames {
		if n == name {
			return i
		}
	}
	return -1
}

func lineLevel(line string) int {
	if strings.HasPrefix(line, "{") {
		for i, name := range levelNames {
			if strings.Contains(line, `"level":"`+name+`"`) {
				return i
			}
		}
		return 0
	}
	// Console lines start with "<timestamp> <LEVEL> ".
	fields := strings.SplitN(line, " ", 3)
	if len(fields) < 2 {
		return 0
	}
	return max(levelRank(fields[1]), 0)
}
