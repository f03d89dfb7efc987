// Package backend provides an HTTP client for the media-processing service
// that stores uploads, runs transformations and serves results.
package backend

// uploadResponse is the body returned by POST /upload.
type uploadResponse struct {
	OK       bool   `json:"ok"`
	Filename string `json:"filename,omitempty"`
}

// processResponse is the body returned by POST /process.
type processResponse struct {
	OK          bool   `json:"ok"`
	Output      string `json:"output,omitempty"`
	Stdout      string `json:"stdout,omitempty"`
	Stderr      string `json:"stderr,omitempty"`
	DownloadURL string `json:"download_url,omitempty"`
	Detail      string `json:"detail,omitempty"`
	Error       string `json:"error,omitempty"`
}

// UploadResult contains the outcome of an upload.
type UploadResult struct {
	OK       bool
	Filename string // Server-assigned handle (only set when OK)
}

// ProcessResult contains the outcome of a processing request.
type ProcessResult struct {
	OK          bool
	Stdout      string
	Stderr      string
	DownloadURL string // Download reference as returned by the server (only set when OK)
	Detail      string // Failure detail (only set when not OK)
	Error       string // Short failure reason (only set when not OK)
}

// Message returns the text shown for a failed result, preferring the
// detail over the short error.
func (r ProcessResult) Message() string {
	switch {
	case r.Detail != "":
		return r.Detail
	case r.Error != "":
		return r.Error
	default:
		return "failed"
	}
}

// Logs returns the combined output shown for a successful result: stderr
// followed by stdout, separated by a newline.
func (r ProcessResult) Logs() string {
	return r.Stderr + "\n" + r.Stdout
}
