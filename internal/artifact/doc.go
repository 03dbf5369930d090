// Package artifact keeps finalized audio in memory behind revocable handles.
//
// A Registry issues a Handle per finalized download. Handles can be served
// over a loopback HTTP listener (Registry.Listen) so the retrievable link can
// be opened in a browser or fetched with curl, and can be written to disk with
// Handle.SaveTo. Revoking a handle releases its bytes; the server then answers
// 410 Gone for its link.
package artifact
