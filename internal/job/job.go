package job

import "time"

type Type string

const (
	TypeHourly Type = "hourly"
	TypeDaily  Type = "daily"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Run is one recorded execution of an ingestion job, whether triggered by
// the external scheduler or by the admin endpoint.
type Run struct {
	ID        int64     `json:"id"`
	Type      Type      `json:"type"`
	Status    Status    `json:"status"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
