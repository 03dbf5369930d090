// Package backend provides an HTTP client for the conversion service API.
//
// # Overview
//
// The conversion service downloads a remote media link, derives tags for it,
// and returns a tagged MP3 once the user has reviewed those tags. This package
// is the typed wrapper tagdeck uses to talk to it. It knows nothing about
// phases or the editing model; the workflow package decides when each call
// happens.
//
// # Client Usage
//
//	client, err := backend.NewClient("127.0.0.1:8000", backend.WithTimeout(5*time.Minute))
//	if err != nil {
//		log.Fatalf("failed to create client: %v", err)
//	}
//
//	res, err := client.ExtractInfo(ctx, "https://youtu.be/abc")
//	// res.SessionID binds the following calls to this extraction
//
//	err = client.UploadImage(ctx, res.SessionID, backend.Image{Name: "cover.png", Data: png})
//	audio, err := client.Finalize(ctx, res.SessionID, res.Tags)
//
// # API Endpoints
//
//   - GET  /extract?url=<link>: session id and derived tags (JSON)
//   - POST /sessions/{id}/image: multipart "file" field, status only
//   - POST /sessions/{id}/finalize: JSON tags in, binary audio out
//   - GET  /health: liveness probe used by "tagdeck check"
//
// # Error Handling
//
// Each operation has its own error type so callers can tell which phase
// failed with errors.As:
//
//   - *ExtractionError: transport failure, non-2xx, malformed JSON or a
//     response without a session id
//   - *UploadError: the image upload failed
//   - *FinalizeError: the finalize call failed or returned no audio
//
// Non-2xx answers are wrapped in *StatusError, which carries the status code
// and the service's "detail" message when the body has one.
//
// # Design Rationale
//
// The client performs exactly one attempt per call. There is no retry and no
// caching; every request is bounded by the http.Client timeout so a stalled
// service surfaces as a failure instead of hanging the workflow.
package backend
