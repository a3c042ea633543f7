package model

import "time"

// QueueName identifies one of the four durable queues the orchestrator
// drains. Each stage worker claims from exactly one.
type QueueName string

const (
	QueueSearch    QueueName = "search"
	QueueDiscovery QueueName = "discovery"
	QueueScrape    QueueName = "scrape"
	QueueProfile   QueueName = "profile"
)

// QueueStatus is the lifecycle state of a queue entry.
type QueueStatus string

const (
	StatusQueued     QueueStatus = "queued"
	StatusProcessing QueueStatus = "processing"
	StatusDone       QueueStatus = "done"
	StatusFailed     QueueStatus = "failed"
)

// QueueEntry is a row in a durable queue table. At most one entry with
// Status in (queued, processing) may exist for a given (Queue, Key) pair —
// enforced by a partial unique index, not by application logic.
type QueueEntry struct {
	ID            int64       `json:"id"`
	Queue         QueueName   `json:"queue"`
	Key           CompanyKey  `json:"key"`
	Payload       []byte      `json:"payload,omitempty"`
	Status        QueueStatus `json:"status"`
	Attempts      int         `json:"attempts"`
	MaxAttempts   int         `json:"max_attempts"`
	VisibleAt     time.Time   `json:"visible_at"`
	Owner         string      `json:"owner,omitempty"`
	LockedAt      *time.Time  `json:"locked_at,omitempty"`
	LastError     string      `json:"last_error,omitempty"`
	LastErrorKind string      `json:"last_error_kind,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}
