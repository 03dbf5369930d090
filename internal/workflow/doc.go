// Package workflow owns one tagging session from link to downloadable audio.
//
// # Phases
//
// The workflow is always in exactly one Phase:
//
//	Idle ──Submit──▶ Extracting ──ok──▶ Editing ──Download──▶ Downloading ──ok──▶ Complete
//	  ▲                  │                 ▲                       │                  │
//	  └──────failure─────┘                 └────────failure────────┘                  │
//	  └───────────────────────────────Restart─────────────────────────────────────────┘
//
// Each variant carries only the data that exists in that state: Editing and
// Downloading hold the Session and the tags.Model, Complete holds the
// artifact.Handle. A call made in the wrong phase returns an error wrapping
// ErrInvalidTransition and changes nothing.
//
// # Remote calls
//
// Submit and Download block for the duration of their remote calls, so the
// UI runs them from a command goroutine and renders from Snapshot. Failures
// are returned as *backend.ExtractionError, *backend.UploadError or
// *backend.FinalizeError and are also recorded for the next Snapshot.
// Nothing is retried. Cancel aborts the in-flight call.
//
// # Progress
//
// While Extracting, a progress.Estimator ticks a presentational value up to
// 90. It is completed to 100 when the answer arrives and shown for
// DisplayDelay before the editor appears. Subscribers are notified on every
// tick and every transition.
//
// # Artifacts
//
// A successful Download registers the audio with the artifact.Registry. At
// most one handle is live per workflow: it is revoked by Restart and when a
// later download supersedes it.
package workflow
