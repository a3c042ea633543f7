// Package queue implements the durable, Postgres-backed work queue shared by
// all four pipeline stages. One job is one company key within one named
// queue; at most one active (queued or processing) entry may exist for a
// given (queue, key) pair, enforced by a partial unique index rather than
// application-level locking.
package queue

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/FelpTB/fornecedor-orchestrator/internal/db"
	"github.com/FelpTB/fornecedor-orchestrator/internal/model"
)

// Config tunes backoff and claim behavior; see config.QueueConfig for the
// application-level defaults this is built from.
type Config struct {
	VisibilityTimeout time.Duration
	MaxAttempts       int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
}

// Queue is a handle onto the shared queue_entries table, scoped to one
// queue name by convention at each call site.
type Queue struct {
	pool db.Pool
	cfg  Config
}

// New returns a Queue backed by pool.
func New(pool db.Pool, cfg Config) *Queue {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 10 * time.Second
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 15 * time.Minute
	}
	if cfg.VisibilityTimeout <= 0 {
		cfg.VisibilityTimeout = 10 * time.Minute
	}
	return &Queue{pool: pool, cfg: cfg}
}

// Enqueue inserts a job for key into queueName unless an active entry
// already exists for that pair, in which case it is a no-op — the caller
// doesn't need a duplicate job, the existing one will eventually run.
// Reports whether a new row was inserted.
func (q *Queue) Enqueue(ctx context.Context, queueName model.QueueName, key model.CompanyKey, payload []byte) (bool, error) {
	tag, err := q.pool.Exec(ctx,
		`INSERT INTO queue_entries (queue, key, payload, status, max_attempts, visible_at)
		 VALUES ($1, $2, $3, 'queued', $4, now())
		 ON CONFLICT DO NOTHING`,
		string(queueName), string(key), payload, q.cfg.MaxAttempts,
	)
	if err != nil {
		return false, eris.Wrapf(err, "queue: enqueue %s/%s", queueName, key)
	}
	return tag.RowsAffected() > 0, nil
}

// EnqueueBatch enqueues many keys into the same queue in one round trip,
// skipping any that already have an active entry.
func (q *Queue) EnqueueBatch(ctx context.Context, queueName model.QueueName, keys []model.CompanyKey) (int, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	var inserted int
	for _, k := range keys {
		tag, err := q.pool.Exec(ctx,
			`INSERT INTO queue_entries (queue, key, status, max_attempts, visible_at)
			 VALUES ($1, $2, 'queued', $3, now())
			 ON CONFLICT DO NOTHING`,
			string(queueName), string(k), q.cfg.MaxAttempts,
		)
		if err != nil {
			return inserted, eris.Wrapf(err, "queue: enqueue batch %s/%s", queueName, k)
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}

// Claim reserves up to limit jobs from queueName for workerID, atomically
// transitioning them to processing. A row is claimable either because it is
// queued and visible, or because it is processing but its lock has expired
// (the prior holder crashed without completing or retrying it) — in both
// cases visible_at <= now() is the test, since visible_at doubles as the
// processing lock's expiry once claimed. Rows already locked by a
// concurrent claim are skipped via FOR UPDATE SKIP LOCKED, not waited on.
func (q *Queue) Claim(ctx context.Context, queueName model.QueueName, workerID string, limit int) ([]model.QueueEntry, error) {
	if limit < 1 {
		limit = 1
	}

	tx, err := q.pool.Begin(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "queue: claim: begin tx")
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx,
		`WITH picked AS (
			SELECT id FROM queue_entries
			WHERE queue = $1
			  AND visible_at <= now()
			  AND (status = 'queued' OR status = 'processing')
			ORDER BY id
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)
		UPDATE queue_entries q
		SET status = 'processing', visible_at = now() + $3, owner = $4, locked_at = now(), updated_at = now()
		FROM picked
		WHERE q.id = picked.id
		RETURNING q.id, q.queue, q.key, q.payload, q.status, q.attempts, q.max_attempts,
		          q.visible_at, q.owner, q.locked_at, q.last_error, q.last_error_kind, q.created_at, q.updated_at`,
		string(queueName), limit, q.cfg.VisibilityTimeout, workerID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "queue: claim: select for update")
	}

	var claimed []model.QueueEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		claimed = append(claimed, e)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, eris.Wrap(err, "queue: claim: iterate")
	}
	rows.Close()

	if err := tx.Commit(ctx); err != nil {
		return nil, eris.Wrap(err, "queue: claim: commit")
	}
	return claimed, nil
}

// Complete marks id as done, scoped to owner. If another worker has since
// reclaimed id (its lock expired and a new owner claimed it), this is a
// silent no-op rather than an error — the late completion came from a
// holder that no longer owns the row.
func (q *Queue) Complete(ctx context.Context, id int64, owner string) error {
	_, err := q.pool.Exec(ctx,
		`UPDATE queue_entries SET status = 'done', last_error = NULL, last_error_kind = NULL, updated_at = now()
		 WHERE id = $1 AND owner = $2`,
		id, owner,
	)
	if err != nil {
		return eris.Wrapf(err, "queue: complete %d", id)
	}
	return nil
}

// FailOrRetry records a failure for id, scoped to owner. If the entry has
// exhausted its attempt budget it is marked failed permanently; otherwise
// it's requeued with an exponential backoff (base doubled per attempt,
// capped at MaxBackoff) with ±10% jitter, computed server-side against
// the entry's current attempt count so concurrent failures don't race on a
// client-computed delay. If another worker has since reclaimed id, this is
// a silent no-op rather than an error, matching Complete.
func (q *Queue) FailOrRetry(ctx context.Context, id int64, owner, errMsg, kind string) error {
	_, err := q.pool.Exec(ctx,
		`UPDATE queue_entries
		 SET attempts = attempts + 1,
		     status = CASE WHEN attempts + 1 >= max_attempts THEN 'failed' ELSE 'queued' END,
		     visible_at = CASE
		       WHEN attempts + 1 >= max_attempts THEN now()
		       ELSE now() + (
		         LEAST($3, $4 * POWER(2, attempts)) * (0.9 + random() * 0.2)
		       ) * interval '1 second'
		     END,
		     last_error = $5,
		     last_error_kind = $6,
		     updated_at = now()
		 WHERE id = $1 AND owner = $2`,
		id, owner, q.cfg.MaxBackoff.Seconds(), q.cfg.InitialBackoff.Seconds(), truncate(errMsg, 4000), kind,
	)
	if err != nil {
		return eris.Wrapf(err, "queue: fail or retry %d", id)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func scanEntry(rows pgx.Rows) (model.QueueEntry, error) {
	var e model.QueueEntry
	var queueName, status string
	var owner *string
	var lastErrorKind *string
	if err := rows.Scan(&e.ID, &queueName, &e.Key, &e.Payload, &status, &e.Attempts, &e.MaxAttempts,
		&e.VisibleAt, &owner, &e.LockedAt, &e.LastError, &lastErrorKind, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return e, eris.Wrap(err, "queue: scan entry")
	}
	e.Queue = model.QueueName(queueName)
	e.Status = model.QueueStatus(status)
	if owner != nil {
		e.Owner = *owner
	}
	if lastErrorKind != nil {
		e.LastErrorKind = *lastErrorKind
	}
	return e, nil
}
