package artifact

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ServeHTTP answers GET /artifacts/{id}/{filename}. The filename segment is
// cosmetic; the id alone selects the artifact.
func (r *Registry) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	rest, ok := strings.CutPrefix(req.URL.Path, "/artifacts/")
	if !ok {
		http.NotFound(w, req)
		return
	}
	idStr, _, _ := strings.Cut(rest, "/")
	id, err := uuid.Parse(idStr)
	if err != nil {
		http.NotFound(w, req)
		return
	}

	data, filename, contentType, err := r.Open(id)
	switch {
	case errors.Is(err, ErrRevoked):
		http.Error(w, "artifact revoked", http.StatusGone)
		return
	case err != nil:
		http.NotFound(w, req)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.WriteHeader(http.StatusOK)
	if req.Method == http.MethodHead {
		return
	}
	_, _ = w.Write(data)
}

// Listen serves the registry on bind until ctx is cancelled and records the
// resulting base URL. Use "127.0.0.1:0" for an ephemeral loopback port.
func (r *Registry) Listen(ctx context.Context, bind string) (string, error) {
	bind = strings.TrimSpace(bind)
	if bind == "" {
		return "", fmt.Errorf("artifact listen: empty bind address")
	}
	listener, err := net.Listen("tcp", bind)
	if err != nil {
		return "", fmt.Errorf("artifact listen: %w", err)
	}

	server := &http.Server{
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.logger.Error("artifact server error", slog.String("error", err.Error()))
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	base := "http://" + listener.Addr().String()
	r.SetBaseURL(base)
	r.logger.Info("artifact server listening", slog.String("address", listener.Addr().String()))
	return base, nil
}
