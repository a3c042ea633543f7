package queue

import (
	"context"

	"github.com/rotisserie/eris"
)

// Metrics summarizes one queue's backlog for the facade's per-queue
// metrics endpoint and operator dashboards.
type Metrics struct {
	QueuedCount         int      `json:"queued_count"`
	ProcessingCount     int      `json:"processing_count"`
	DoneCount           int      `json:"done_count"`
	FailedCount         int      `json:"failed_count"`
	OldestQueuedAgeSecs *float64 `json:"oldest_queued_age_seconds,omitempty"`
}

// GetMetrics reports current backlog counts for queueName.
func (q *Queue) GetMetrics(ctx context.Context, queueName string) (Metrics, error) {
	var m Metrics
	err := q.pool.QueryRow(ctx,
		`SELECT
		   COALESCE(SUM(CASE WHEN status = 'queued' THEN 1 ELSE 0 END), 0)::int,
		   COALESCE(SUM(CASE WHEN status = 'processing' THEN 1 ELSE 0 END), 0)::int,
		   COALESCE(SUM(CASE WHEN status = 'done' THEN 1 ELSE 0 END), 0)::int,
		   COALESCE(SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END), 0)::int,
		   EXTRACT(EPOCH FROM (now() - MIN(CASE WHEN status = 'queued' THEN created_at END)))
		 FROM queue_entries WHERE queue = $1`,
		queueName,
	).Scan(&m.QueuedCount, &m.ProcessingCount, &m.DoneCount, &m.FailedCount, &m.OldestQueuedAgeSecs)
	if err != nil {
		return Metrics{}, eris.Wrapf(err, "queue: metrics for %s", queueName)
	}
	return m, nil
}
