package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/FelpTB/fornecedor-orchestrator/internal/db"
	"github.com/FelpTB/fornecedor-orchestrator/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// Pool returns the underlying database pool for use by subsystems that need
// direct query access, such as the durable queue.
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS search_results (
	key        TEXT PRIMARY KEY,
	query      TEXT NOT NULL,
	hits       JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS discovery_results (
	key        TEXT PRIMARY KEY,
	url        TEXT,
	status     TEXT NOT NULL,
	confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
	reasoning  TEXT,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS scraped_chunks (
	key         TEXT NOT NULL,
	idx         INTEGER NOT NULL,
	total       INTEGER NOT NULL,
	content     TEXT NOT NULL,
	token_count INTEGER NOT NULL,
	source_urls JSONB NOT NULL DEFAULT '[]',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (key, idx)
);

CREATE TABLE IF NOT EXISTS company_profiles (
	key           TEXT PRIMARY KEY,
	company_name  TEXT NOT NULL DEFAULT '',
	industry      TEXT,
	description   TEXT,
	document      JSONB NOT NULL,
	status        TEXT NOT NULL,
	chunks_total  INTEGER NOT NULL DEFAULT 0,
	chunks_merged INTEGER NOT NULL DEFAULT 0,
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

-- Keyed by origin (scheme+host), not by company: every company whose site
-- resolves to the same host shares one record.
CREATE TABLE IF NOT EXISTS site_knowledge (
	origin             TEXT PRIMARY KEY,
	canonical_url      TEXT,
	site_type          TEXT NOT NULL DEFAULT 'unknown',
	preferred_strategy TEXT,
	last_protection    TEXT,
	success_count      INTEGER NOT NULL DEFAULT 0,
	failure_count      INTEGER NOT NULL DEFAULT 0,
	last_success_at    TIMESTAMPTZ,
	recent_outcomes    JSONB NOT NULL DEFAULT '[]',
	updated_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS queue_entries (
	id              BIGSERIAL PRIMARY KEY,
	queue           TEXT NOT NULL,
	key             TEXT NOT NULL,
	payload         BYTEA,
	status          TEXT NOT NULL DEFAULT 'queued',
	attempts        INTEGER NOT NULL DEFAULT 0,
	max_attempts    INTEGER NOT NULL DEFAULT 5,
	visible_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	owner           TEXT,
	locked_at       TIMESTAMPTZ,
	last_error      TEXT,
	last_error_kind TEXT,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

-- At most one active (queued or processing) entry per (queue, key).
CREATE UNIQUE INDEX IF NOT EXISTS idx_queue_entries_active_key
	ON queue_entries (queue, key)
	WHERE status IN ('queued', 'processing');

CREATE INDEX IF NOT EXISTS idx_queue_entries_claimable
	ON queue_entries (queue, visible_at)
	WHERE status = 'queued';

-- Abandoned processing rows past their visibility timeout are reclaimable.
CREATE INDEX IF NOT EXISTS idx_queue_entries_reclaimable
	ON queue_entries (queue, visible_at)
	WHERE status = 'processing';
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) SaveSearchResult(ctx context.Context, r *model.SearchResult) error {
	hitsJSON, err := json.Marshal(r.Hits)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal search hits")
	}
	now := time.Now().UTC()
	_, err = s.pool.Exec(ctx,
		`INSERT INTO search_results (key, query, hits, created_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (key) DO UPDATE SET query = $2, hits = $3, created_at = $4`,
		string(r.Key), r.Query, hitsJSON, now,
	)
	return eris.Wrap(err, "postgres: save search result")
}

func (s *PostgresStore) GetSearchResult(ctx context.Context, key model.CompanyKey) (*model.SearchResult, error) {
	var r model.SearchResult
	var hitsJSON []byte
	err := s.pool.QueryRow(ctx,
		`SELECT key, query, hits, created_at FROM search_results WHERE key = $1`,
		string(key),
	).Scan(&r.Key, &r.Query, &hitsJSON, &r.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "postgres: get search result")
	}
	if err := json.Unmarshal(hitsJSON, &r.Hits); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal search hits")
	}
	return &r, nil
}

func (s *PostgresStore) UpsertDiscoveryResult(ctx context.Context, r *model.DiscoveryResult) error {
	now := time.Now().UTC()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO discovery_results (key, url, status, confidence, reasoning, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (key) DO UPDATE SET url = $2, status = $3, confidence = $4, reasoning = $5, updated_at = $6`,
		string(r.Key), r.URL, string(r.Status), r.Confidence, r.Reasoning, now,
	)
	return eris.Wrap(err, "postgres: upsert discovery result")
}

func (s *PostgresStore) GetDiscoveryResult(ctx context.Context, key model.CompanyKey) (*model.DiscoveryResult, error) {
	var r model.DiscoveryResult
	var status string
	err := s.pool.QueryRow(ctx,
		`SELECT key, url, status, confidence, reasoning, updated_at FROM discovery_results WHERE key = $1`,
		string(key),
	).Scan(&r.Key, &r.URL, &status, &r.Confidence, &r.Reasoning, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "postgres: get discovery result")
	}
	r.Status = model.DiscoveryStatus(status)
	return &r, nil
}

func (s *PostgresStore) ReplaceScrapedChunks(ctx context.Context, key model.CompanyKey, chunks []model.ScrapedChunk) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: replace chunks: begin tx")
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM scraped_chunks WHERE key = $1`, string(key)); err != nil {
		return eris.Wrap(err, "postgres: replace chunks: delete old")
	}

	now := time.Now().UTC()
	for _, c := range chunks {
		urlsJSON, err := json.Marshal(c.SourceURLs)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal source urls")
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO scraped_chunks (key, idx, total, content, token_count, source_urls, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			string(key), c.Index, c.Total, c.Content, c.TokenCount, urlsJSON, now,
		)
		if err != nil {
			return eris.Wrap(err, "postgres: insert chunk")
		}
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: replace chunks: commit")
}

func (s *PostgresStore) GetScrapedChunks(ctx context.Context, key model.CompanyKey) ([]model.ScrapedChunk, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT key, idx, total, content, token_count, source_urls, created_at
		 FROM scraped_chunks WHERE key = $1 ORDER BY idx ASC`,
		string(key),
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get scraped chunks")
	}
	defer rows.Close()

	var chunks []model.ScrapedChunk
	for rows.Next() {
		var c model.ScrapedChunk
		var urlsJSON []byte
		if err := rows.Scan(&c.Key, &c.Index, &c.Total, &c.Content, &c.TokenCount, &urlsJSON, &c.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan chunk")
		}
		if err := json.Unmarshal(urlsJSON, &c.SourceURLs); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal source urls")
		}
		chunks = append(chunks, c)
	}
	return chunks, eris.Wrap(rows.Err(), "postgres: get scraped chunks: iterate")
}

// profileDocument is the nested part of CompanyProfile stored as JSONB,
// keeping the flattened columns (name, industry, description) separately
// indexable.
type profileDocument struct {
	Offerings      model.Offerings    `json:"offerings"`
	Clients        []string           `json:"clients,omitempty"`
	Partnerships   []string           `json:"partnerships,omitempty"`
	Certifications []string           `json:"certifications,omitempty"`
	CaseStudies    []model.CaseStudy  `json:"case_studies,omitempty"`
}

func (s *PostgresStore) UpsertCompanyProfile(ctx context.Context, p *model.CompanyProfile) error {
	doc := profileDocument{
		Offerings:      p.Offerings,
		Clients:        p.Clients,
		Partnerships:   p.Partnerships,
		Certifications: p.Certifications,
		CaseStudies:    p.CaseStudies,
	}
	docJSON, err := json.Marshal(doc)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal profile document")
	}

	now := time.Now().UTC()
	_, err = s.pool.Exec(ctx,
		`INSERT INTO company_profiles
		   (key, company_name, industry, description, document, status, chunks_total, chunks_merged, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (key) DO UPDATE SET
		   company_name = $2, industry = $3, description = $4, document = $5,
		   status = $6, chunks_total = $7, chunks_merged = $8, updated_at = $9`,
		string(p.Key), p.CompanyName, p.Industry, p.Description, docJSON,
		string(p.Status), p.ChunksTotal, p.ChunksMerged, now,
	)
	return eris.Wrap(err, "postgres: upsert company profile")
}

func (s *PostgresStore) GetCompanyProfile(ctx context.Context, key model.CompanyKey) (*model.CompanyProfile, error) {
	var p model.CompanyProfile
	var status string
	var docJSON []byte
	err := s.pool.QueryRow(ctx,
		`SELECT key, company_name, industry, description, document, status, chunks_total, chunks_merged, updated_at
		 FROM company_profiles WHERE key = $1`,
		string(key),
	).Scan(&p.Key, &p.CompanyName, &p.Industry, &p.Description, &docJSON, &status, &p.ChunksTotal, &p.ChunksMerged, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "postgres: get company profile")
	}
	p.Status = model.StageStatus(status)

	var doc profileDocument
	if err := json.Unmarshal(docJSON, &doc); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal profile document")
	}
	p.Offerings = doc.Offerings
	p.Clients = doc.Clients
	p.Partnerships = doc.Partnerships
	p.Certifications = doc.Certifications
	p.CaseStudies = doc.CaseStudies
	return &p, nil
}

func (s *PostgresStore) GetSiteKnowledge(ctx context.Context, origin string) (*model.SiteKnowledge, error) {
	var kb model.SiteKnowledge
	var siteType, lastProtection string
	var outcomesJSON []byte
	err := s.pool.QueryRow(ctx,
		`SELECT origin, canonical_url, site_type, preferred_strategy, last_protection,
		        success_count, failure_count, last_success_at, recent_outcomes, updated_at
		 FROM site_knowledge WHERE origin = $1`,
		origin,
	).Scan(&kb.Origin, &kb.CanonicalURL, &siteType, &kb.PreferredStrategy, &lastProtection,
		&kb.SuccessCount, &kb.FailureCount, &kb.LastSuccessAt, &outcomesJSON, &kb.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "postgres: get site knowledge")
	}
	kb.SiteType = model.SiteType(siteType)
	kb.LastProtection = model.ProtectionCategory(lastProtection)
	if err := json.Unmarshal(outcomesJSON, &kb.RecentOutcomes); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal recent outcomes")
	}
	return &kb, nil
}

func (s *PostgresStore) SaveSiteKnowledge(ctx context.Context, kb *model.SiteKnowledge) error {
	outcomesJSON, err := json.Marshal(kb.RecentOutcomes)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal recent outcomes")
	}
	now := time.Now().UTC()
	_, err = s.pool.Exec(ctx,
		`INSERT INTO site_knowledge
		   (origin, canonical_url, site_type, preferred_strategy, last_protection,
		    success_count, failure_count, last_success_at, recent_outcomes, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (origin) DO UPDATE SET
		   canonical_url = $2, site_type = $3, preferred_strategy = $4, last_protection = $5,
		   success_count = $6, failure_count = $7, last_success_at = $8, recent_outcomes = $9, updated_at = $10`,
		kb.Origin, kb.CanonicalURL, string(kb.SiteType), kb.PreferredStrategy, string(kb.LastProtection),
		kb.SuccessCount, kb.FailureCount, kb.LastSuccessAt, outcomesJSON, now,
	)
	return eris.Wrap(err, "postgres: save site knowledge")
}
