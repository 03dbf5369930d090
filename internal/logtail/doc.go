// Package logtail reads the tail of tagdeck's log file.
//
// Read keeps only the last N lines in a ring buffer, so large logs are
// scanned once without being held in memory. Matchers narrow the result to a
// single session (the session_id attribute the workflow logs) or a minimum
// level; they understand both the console and the JSON log formats.
package logtail
