// Package ui provides the terminal user interface for tagdeck.
//
// # Architecture Overview
//
// The UI is a Bubble Tea program. It never holds workflow state of its own:
// every render reads a workflow.Snapshot, and every action goes through the
// workflow (Submit, Edit, Download, Restart, Cancel). Blocking calls run as
// tea.Cmds so the event loop keeps repainting while the service works.
//
// # Package Structure
//
//   - app.go: Model, key handling, input syncing and the Run entry point
//   - commands.go: messages and the tea.Cmds wrapping workflow calls
//   - view.go: header, per-stage panels, notices and footer
//   - modal.go: the save-to-directory dialog
//   - help.go, keys.go: key bindings and the help overlay
//   - theme.go, style_helpers.go: palettes and background-safe rendering
//
// # Screens
//
// One panel is shown per workflow stage:
//
//   - Idle: link input
//   - Extracting: progress bar driven by the workflow's estimator
//   - Editing: title, artist and album inputs, plus a cover URL input and a
//     cover file input; the dot marks the active cover source
//   - Downloading: spinner while the cover uploads and the audio is finalized
//   - Complete: file name, size, local link and save actions
//
// # Updates
//
// The model subscribes to the workflow and receives a changedMsg for every
// transition and progress tick. The subscription channel holds one pending
// signal, so bursts of ticks collapse into one repaint.
//
// # Errors
//
// Remote failures are shown as a single notice line classified by type
// (extraction, cover upload, finalize); 5xx answers are labelled as server
// errors. No failure ends the program.
//
// # Keyboard Shortcuts
//
//	enter      extract link / load cover file
//	tab        next field
//	ctrl+s     download
//	ctrl+o     toggle cover source
//	ctrl+g     split "Artist - Title" into the two fields
//	esc        cancel the in-flight request
//	s / a / n  save / save to... / new link (after download)
//	ctrl+t     cycle theme
//	f1         help
//	ctrl+c     quit
package ui
