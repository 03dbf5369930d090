package backend

// Tags mirrors the tag object used by /extract responses and /finalize requests.
// Every field is always sent; empty strings are valid values.
type Tags struct {
	Title     string `json:"title"`
	Artist    string `json:"artist"`
	Album     string `json:"album"`
	Thumbnail string `json:"thumbnail"`
}

// ExtractResult mirrors the payload returned by /extract.
type ExtractResult struct {
	SessionID string `json:"session_id"`
	Tags      Tags   `json:"tags"`
}

// Image is a cover image sent through the session-scoped upload endpoint.
type Image struct {
	Name        string
	ContentType string // sniffed from Data when empty
	Data        []byte
}

// Audio is the finalized, tagged audio returned by /finalize.
type Audio struct {
	Data        []byte
	ContentType string
	Filename    string // Content-Disposition hint, may be empty
}
