package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"
)

// Service defines the three remote operations the workflow depends on.
// This interface is implemented by *Client and can be used for testing.
type Service interface {
	ExtractInfo(ctx context.Context, link string) (ExtractResult, error)
	UploadImage(ctx context.Context, sessionID string, img Image) error
	Finalize(ctx context.Context, sessionID string, tags Tags) (Audio, error)
}

// Ensure Client implements Service at compile time.
var _ Service = (*Client)(nil)

// Client talks to the conversion service HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	logger    *slog.Logger
}

const (
	defaultAPIURL    = "http://127.0.0.1:8000"
	defaultUserAgent = "tagdeck/0.1"
	requestTimeout   = 5 * time.Minute

	// maxAudioBytes bounds the finalize response held in memory.
	maxAudioBytes = 512 << 20
	// maxErrorBody bounds how much of a failed response ends up in the error text.
	maxErrorBody = 512
)

// Option customises a Client.
type Option func(*Client)

// WithTimeout overrides the per-request timeout. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithHTTPClient swaps the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger attaches a logger for request tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient builds a Client for the service at apiURL.
func NewClient(apiURL string, opts ...Option) (*Client, error) {
	base, err := parseBaseURL(apiURL)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: requestTimeout,
		},
		userAgent: defaultUserAgent,
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the normalised service address.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// ExtractInfo asks the service to fetch link and derive its tags. The link is
// passed verbatim; only emptiness is checked here.
func (c *Client) ExtractInfo(ctx context.Context, link string) (ExtractResult, error) {
	if c == nil {
		return ExtractResult{}, fmt.Errorf("client is nil")
	}
	if strings.TrimSpace(link) == "" {
		return ExtractResult{}, &ExtractionError{Link: link, Err: errors.New("link is empty")}
	}

	values := url.Values{}
	values.Set("url", link)
	reqURL := c.resolve("extract")
	reqURL.RawQuery = values.Encode()

	req, err := c.newRequest(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return ExtractResult{}, &ExtractionError{Link: link, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.do(req)
	if err != nil {
		return ExtractResult{}, &ExtractionError{Link: link, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if err := checkStatus(resp); err != nil {
		return ExtractResult{}, &ExtractionError{Link: link, Status: resp.StatusCode, Err: err}
	}

	var payload ExtractResult
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return ExtractResult{}, &ExtractionError{Link: link, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	payload.SessionID = strings.TrimSpace(payload.SessionID)
	if payload.SessionID == "" {
		return ExtractResult{}, &ExtractionError{Link: link, Status: resp.StatusCode, Err: errors.New("decode response: missing session_id")}
	}

	c.logger.Debug("extract complete",
		"session_id", payload.SessionID,
		"duration", time.Since(start),
	)
	return payload, nil
}

// UploadImage sends a custom cover image for sessionID as multipart field "file".
func (c *Client) UploadImage(ctx context.Context, sessionID string, img Image) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	if strings.TrimSpace(sessionID) == "" {
		return fmt.Errorf("session id required")
	}

	body, contentType, err := encodeImage(img)
	if err != nil {
		return &UploadError{SessionID: sessionID, Err: err}
	}

	req, err := c.newRequest(ctx, http.MethodPost, c.resolve("sessions", sessionID, "image"), body)
	if err != nil {
		return &UploadError{SessionID: sessionID, Err: err}
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.do(req)
	if err != nil {
		return &UploadError{SessionID: sessionID, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if err := checkStatus(resp); err != nil {
		return &UploadError{SessionID: sessionID, Status: resp.StatusCode, Err: err}
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	c.logger.Debug("image uploaded", "session_id", sessionID, "bytes", len(img.Data))
	return nil
}

// Finalize submits the edited tags and returns the tagged audio payload.
func (c *Client) Finalize(ctx context.Context, sessionID string, tags Tags) (Audio, error) {
	if c == nil {
		return Audio{}, fmt.Errorf("client is nil")
	}
	if strings.TrimSpace(sessionID) == "" {
		return Audio{}, fmt.Errorf("session id required")
	}

	encoded, err := json.Marshal(tags)
	if err != nil {
		return Audio{}, &FinalizeError{SessionID: sessionID, Err: fmt.Errorf("encode tags: %w", err)}
	}

	req, err := c.newRequest(ctx, http.MethodPost, c.resolve("sessions", sessionID, "finalize"), bytes.NewReader(encoded))
	if err != nil {
		return Audio{}, &FinalizeError{SessionID: sessionID, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg, application/octet-stream")

	start := time.Now()
	resp, err := c.do(req)
	if err != nil {
		return Audio{}, &FinalizeError{SessionID: sessionID, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if err := checkStatus(resp); err != nil {
		return Audio{}, &FinalizeError{SessionID: sessionID, Status: resp.StatusCode, Err: err}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAudioBytes+1))
	if err != nil {
		return Audio{}, &FinalizeError{SessionID: sessionID, Status: resp.StatusCode, Err: fmt.Errorf("read audio: %w", err)}
	}
	if len(data) > maxAudioBytes {
		return Audio{}, &FinalizeError{SessionID: sessionID, Status: resp.StatusCode, Err: fmt.Errorf("audio exceeds %d bytes", maxAudioBytes)}
	}
	if len(data) == 0 {
		return Audio{}, &FinalizeError{SessionID: sessionID, Status: resp.StatusCode, Err: errors.New("empty audio payload")}
	}

	audio := Audio{
		Data:        data,
		ContentType: resp.Header.Get("Content-Type"),
		Filename:    dispositionFilename(resp.Header.Get("Content-Disposition")),
	}
	c.logger.Debug("finalize complete",
		"session_id", sessionID,
		"bytes", len(data),
		"duration", time.Since(start),
	)
	return audio, nil
}

// Ping checks that the service answers its health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	req, err := c.newRequest(ctx, http.MethodGet, c.resolve("health"), nil)
	if err != nil {
		return err
	}
	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	return checkStatus(resp)
}

func (c *Client) resolve(segments ...string) *url.URL {
	escaped := make([]string, len(segments))
	for i, seg := range segments {
		escaped[i] = url.PathEscape(seg)
	}
	return c.baseURL.JoinPath(escaped...)
}

func (c *Client) newRequest(ctx context.Context, method string, reqURL *url.URL, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	return req, nil
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	return resp, nil
}

// checkStatus treats anything outside 2xx as a failure and keeps a short
// excerpt of the body for the error message.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &StatusError{
		Path:   resp.Request.URL.Path,
		Status: resp.StatusCode,
		Detail: detailFromBody(snippet),
	}
}

// detailFromBody pulls a FastAPI-style {"detail": "..."} message out of an
// error body, falling back to the trimmed text.
func detailFromBody(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return ""
	}
	var payload struct {
		Detail any `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Detail != nil {
		if s, ok := payload.Detail.(string); ok {
			return s
		}
	}
	return trimmed
}

func encodeImage(img Image) (io.Reader, string, error) {
	if len(img.Data) == 0 {
		return nil, "", errors.New("image is empty")
	}
	name := strings.TrimSpace(img.Name)
	if name == "" {
		name = "cover"
	}
	contentType := strings.TrimSpace(img.ContentType)
	if contentType == "" {
		contentType = http.DetectContentType(img.Data)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", mime.FormatMediaType("form-data", map[string]string{
		"name":     "file",
		"filename": name,
	}))
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("create form part: %w", err)
	}
	if _, err := part.Write(img.Data); err != nil {
		return nil, "", fmt.Errorf("write form part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("close form: %w", err)
	}
	return &buf, mw.FormDataContentType(), nil
}

func dispositionFilename(header string) string {
	if strings.TrimSpace(header) == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return ""
	}
	return params["filename"]
}

func parseBaseURL(apiURL string) (*url.URL, error) {
	trimmed := strings.TrimSpace(apiURL)
	if trimmed == "" {
		trimmed = defaultAPIURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api_url %q: %w", apiURL, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse api_url %q: missing host", apiURL)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
