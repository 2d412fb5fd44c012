package storage

import (
	"context"
	"time"
)

// RunMode says which execution path handled a submission.
type RunMode string

const (
	ModeSandboxed RunMode = "sandboxed"
	ModeDesktop   RunMode = "desktop"
)

// RunStatus classifies the outcome of a run.
type RunStatus string

const (
	StatusOK      RunStatus = "ok"
	StatusError   RunStatus = "error"
	StatusTimeout RunStatus = "timeout"
	// StatusDesktop marks launches that returned immediately; their real
	// outcome happens on the user's desktop and is never reported back.
	StatusDesktop RunStatus = "desktop"
)

// Run is one recorded code submission.
type Run struct {
	ID         string    `json:"id"`
	Mode       RunMode   `json:"mode"`
	Status     RunStatus `json:"status"`
	KataSlug   string    `json:"kata_slug,omitempty"`
	Code       string    `json:"code"`
	Logs       string    `json:"logs"`
	Error      string    `json:"error"`
	HasImage   bool      `json:"has_image"`
	Hint       string    `json:"hint,omitempty"`
	DurationMs int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

// RunListOptions controls filtering and pagination for ListRuns.
type RunListOptions struct {
	Mode   RunMode
	Status RunStatus
	Limit  int
	Offset int
}

// Store is the persistence interface for run history.
type Store interface {
	// CreateRun inserts a new run. The ID field must be set by the caller.
	CreateRun(ctx context.Context, r *Run) error

	// GetRun returns a run by ID or ID prefix.
	GetRun(ctx context.Context, id string) (*Run, error)

	// ListRuns returns runs ordered by created_at descending.
	ListRuns(ctx context.Context, opts RunListOptions) ([]Run, error)

	// SaveHint attaches an AI explanation to an existing run.
	SaveHint(ctx context.Context, id, hint string) error

	// DeleteRun removes a run.
	DeleteRun(ctx context.Context, id string) error

	// Close releases resources.
	Close() error
}
