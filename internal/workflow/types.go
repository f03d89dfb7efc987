package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/maauso/clipdesk/internal/request"
)

// StagedFile is the user's local file selection.
type StagedFile struct {
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	PreviewPath string `json:"-"`
}

// Info returns the status line shown after selection, e.g.
// "clip.mp4 — 12.3 MB". Sizes are decimal megabytes.
func (f StagedFile) Info() string {
	return fmt.Sprintf("%s — %.1f MB", f.Name, float64(f.Size)/1e6)
}

// Result is the outcome of one process attempt.
type Result struct {
	AttemptID   string `json:"attempt_id"`
	OK          bool   `json:"ok"`
	Logs        string `json:"logs"`
	DownloadURL string `json:"download_url,omitempty"`
}

// Snapshot is a copy of the session state for rendering.
type Snapshot struct {
	// Version increases with every change so observers can drop stale copies.
	Version         uint64          `json:"version"`
	State           State           `json:"state"`
	File            *StagedFile     `json:"file,omitempty"`
	FileInfo        string          `json:"file_info"`
	Handle          string          `json:"handle,omitempty"`
	Task            request.Task    `json:"task"`
	Fields          []request.Field `json:"fields"`
	Logs            string          `json:"logs"`
	ProcessEnabled  bool            `json:"process_enabled"`
	DownloadEnabled bool            `json:"download_enabled"`
	DownloadURL     string          `json:"download_url,omitempty"`
	Result          *Result         `json:"result,omitempty"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Observer receives session changes. Calls happen outside the session lock.
type Observer interface {
	// SnapshotChanged is called after every state change.
	SnapshotChanged(s Snapshot)
	// Alert is called for messages that need the user's attention.
	Alert(message string)
}

// Opener hands a resolved download URL to whatever presents it to the
// user and returns where the result can be found.
type Opener interface {
	Open(ctx context.Context, url string) (string, error)
}
