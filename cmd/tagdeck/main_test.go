package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/five82/tagdeck/internal/backend"
)

type fakeService struct {
	mu        sync.Mutex
	finalized []backend.Tags
	uploads   int
}

func (f *fakeService) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("GET /extract", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("url") == "" {
			http.Error(w, `{"detail":"url required"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(backend.ExtractResult{
			SessionID: "s1",
			Tags:      backend.Tags{Title: "Daft Punk - One More Time", Artist: "DaftPunkVEVO", Thumbnail: "http://img/1.jpg"},
		})
	})
	mux.HandleFunc("POST /sessions/s1/image", func(w http.ResponseWriter, r *http.Request) {
		if _, _, err := r.FormFile("file"); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		f.uploads++
		f.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("POST /sessions/s1/finalize", func(w http.ResponseWriter, r *http.Request) {
		var tags backend.Tags
		if err := json.NewDecoder(r.Body).Decode(&tags); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		f.finalized = append(f.finalized, tags)
		f.mu.Unlock()
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("ID3-audio"))
	})
	return mux
}

type cliEnv struct {
	service    *fakeService
	configPath string
	dir        string
}

func setupCLI(t *testing.T) *cliEnv {
	t.Helper()
	svc := &fakeService{}
	server := httptest.NewServer(svc.handler())
	t.Cleanup(server.Close)

	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")
	body := "api_url = \"" + server.URL + "\"\n" +
		"log_file = \"" + filepath.ToSlash(filepath.Join(dir, "tagdeck.log")) + "\"\n" +
		"output_dir = \"" + filepath.ToSlash(filepath.Join(dir, "music")) + "\"\n"
	if err := os.WriteFile(configPath, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return &cliEnv{service: svc, configPath: configPath, dir: dir}
}

func (e *cliEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", e.configPath}, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestFetch_SavesTaggedFile(t *testing.T) {
	env := setupCLI(t)

	stdout, _, err := env.run(t, "fetch", "https://youtu.be/x", "--guess", "--album", "Discovery")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}

	want := filepath.Join(env.dir, "music", "One More Time.mp3")
	if !strings.HasPrefix(stdout, want) {
		t.Fatalf("stdout = %q, want path %q", stdout, want)
	}
	data, err := os.ReadFile(want)
	if err != nil {
		t.Fatalf("read saved file: %v", err)
	}
	if string(data) != "ID3-audio" {
		t.Fatalf("saved data = %q", data)
	}

	wantTags := []backend.Tags{{Title: "One More Time", Artist: "Daft Punk", Album: "Discovery", Thumbnail: "http://img/1.jpg"}}
	if diff := cmp.Diff(wantTags, env.service.finalized); diff != "" {
		t.Fatalf("finalized tags mismatch (-want +got):\n%s", diff)
	}
}

func TestFetch_UploadsImageAndNeverOverwrites(t *testing.T) {
	env := setupCLI(t)
	image := filepath.Join(env.dir, "cover.png")
	png := []byte("\x89PNG\r\n\x1a\n" + strings.Repeat("\x00", 16))
	if err := os.WriteFile(image, png, 0o644); err != nil {
		t.Fatalf("write image: %v", err)
	}
	out := filepath.Join(env.dir, "out")

	for _, want := range []string{"Song.mp3", "Song (1).mp3"} {
		stdout, _, err := env.run(t, "fetch", "https://youtu.be/x", "--title", "Song", "--image", image, "--out", out)
		if err != nil {
			t.Fatalf("fetch: %v", err)
		}
		if !strings.HasPrefix(stdout, filepath.Join(out, want)) {
			t.Fatalf("stdout = %q, want %s", stdout, want)
		}
	}
	if env.service.uploads != 2 {
		t.Fatalf("uploads = %d, want 2", env.service.uploads)
	}
	if got := env.service.finalized[0].Thumbnail; got != "" {
		t.Fatalf("finalize thumbnail = %q, want empty for an uploaded cover", got)
	}
}

func TestFetch_ImageAndThumbnailExclusive(t *testing.T) {
	env := setupCLI(t)
	if _, _, err := env.run(t, "fetch", "l", "--image", "a.png", "--thumbnail", "http://x"); err == nil {
		t.Fatal("expected error for --image with --thumbnail")
	}
}

func TestInspect_Table(t *testing.T) {
	env := setupCLI(t)

	stdout, _, err := env.run(t, "inspect", "https://youtu.be/x")
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	for _, want := range []string{"Session", "s1", "Daft Punk - One More Time", "Daft Punk / One More Time (high)", "Daft Punk - One More Time.mp3"} {
		if !strings.Contains(stdout, want) {
			t.Fatalf("inspect output missing %q:\n%s", want, stdout)
		}
	}
	if len(env.service.finalized) != 0 {
		t.Fatal("inspect must not finalize")
	}
}

func TestInspect_JSON(t *testing.T) {
	env := setupCLI(t)

	stdout, _, err := env.run(t, "inspect", "--json", "https://youtu.be/x")
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	var res inspectResult
	if err := json.Unmarshal([]byte(stdout), &res); err != nil {
		t.Fatalf("decode: %v\n%s", err, stdout)
	}
	if res.SessionID != "s1" || res.Guess.Confidence != "high" || res.Tags.Artist != "DaftPunkVEVO" {
		t.Fatalf("result = %+v", res)
	}
}

func TestCheck(t *testing.T) {
	env := setupCLI(t)

	stdout, _, err := env.run(t, "check")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !strings.Contains(stdout, "reachable") {
		t.Fatalf("stdout = %q", stdout)
	}
}

func TestCheck_Unreachable(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")
	body := "api_url = \"http://127.0.0.1:1\"\nlog_file = \"" + filepath.ToSlash(filepath.Join(dir, "t.log")) + "\"\n"
	if err := os.WriteFile(configPath, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	env := &cliEnv{configPath: configPath, dir: dir}
	if _, _, err := env.run(t, "check"); err == nil || !strings.Contains(err.Error(), "unreachable") {
		t.Fatalf("err = %v, want unreachable", err)
	}
}

func TestRoot_RequiresTerminal(t *testing.T) {
	env := setupCLI(t)
	if isTerminal(os.Stdout) && isTerminal(os.Stdin) {
		t.Skip("running attached to a terminal")
	}
	_, _, err := env.run(t)
	if err == nil || !strings.Contains(err.Error(), "terminal") {
		t.Fatalf("err = %v, want terminal error", err)
	}
}

func TestLogs_FiltersBySession(t *testing.T) {
	env := setupCLI(t)
	if _, _, err := env.run(t, "inspect", "https://youtu.be/x"); err != nil {
		t.Fatalf("inspect: %v", err)
	}

	stdout, _, err := env.run(t, "logs", "--session", "s1", "-n", "0")
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	if len(lines) == 0 || lines[0] == "" {
		t.Fatal("expected log lines for session s1")
	}
	for _, line := range lines {
		if !strings.Contains(line, "session_id=s1") {
			t.Fatalf("unexpected line %q", line)
		}
	}
}
