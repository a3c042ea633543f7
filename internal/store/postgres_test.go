package store

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FelpTB/fornecedor-orchestrator/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgresStore_GetSearchResult_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT key, query, hits, created_at FROM search_results WHERE key = \$1`).
		WithArgs("10000000").
		WillReturnError(pgx.ErrNoRows)

	result, err := s.GetSearchResult(context.Background(), model.CompanyKey("10000000"))
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveSearchResult_Upsert(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO search_results`).
		WithArgs("10000000", "acme ltda", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	r := &model.SearchResult{
		Key:   model.CompanyKey("10000000"),
		Query: "acme ltda",
		Hits:  []model.SearchHit{{Title: "Acme", URL: "https://acme.com"}},
	}
	err := s.SaveSearchResult(context.Background(), r)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetDiscoveryResult_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT key, url, status, confidence, reasoning, updated_at FROM discovery_results`).
		WithArgs("10000000").
		WillReturnError(pgx.ErrNoRows)

	result, err := s.GetDiscoveryResult(context.Background(), model.CompanyKey("10000000"))
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpsertDiscoveryResult(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO discovery_results`).
		WithArgs("10000000", pgxmock.AnyArg(), "found", 0.9, "matched homepage", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	url := "https://acme.com"
	r := &model.DiscoveryResult{
		Key:        model.CompanyKey("10000000"),
		URL:        &url,
		Status:     model.DiscoveryFound,
		Confidence: 0.9,
		Reasoning:  "matched homepage",
	}
	err := s.UpsertDiscoveryResult(context.Background(), r)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetScrapedChunks_Empty(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT key, idx, total, content, token_count, source_urls, created_at`).
		WithArgs("10000000").
		WillReturnRows(pgxmock.NewRows([]string{"key", "idx", "total", "content", "token_count", "source_urls", "created_at"}))

	chunks, err := s.GetScrapedChunks(context.Background(), model.CompanyKey("10000000"))
	require.NoError(t, err)
	assert.Empty(t, chunks)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ReplaceScrapedChunks(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM scraped_chunks WHERE key = \$1`).
		WithArgs("10000000").
		WillReturnResult(pgxmock.NewResult("DELETE", 2))
	mock.ExpectExec(`INSERT INTO scraped_chunks`).
		WithArgs("10000000", 0, 1, "chunk text", 120, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	chunks := []model.ScrapedChunk{
		{Key: model.CompanyKey("10000000"), Index: 0, Total: 1, Content: "chunk text", TokenCount: 120, SourceURLs: []string{"https://acme.com"}},
	}
	err := s.ReplaceScrapedChunks(context.Background(), model.CompanyKey("10000000"), chunks)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetCompanyProfile_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT key, company_name, industry, description, document, status, chunks_total, chunks_merged, updated_at`).
		WithArgs("10000000").
		WillReturnError(pgx.ErrNoRows)

	result, err := s.GetCompanyProfile(context.Background(), model.CompanyKey("10000000"))
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpsertCompanyProfile(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO company_profiles`).
		WithArgs("10000000", "Acme Ltda", "manufacturing", "makes widgets",
			pgxmock.AnyArg(), "success", 3, 3, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	p := &model.CompanyProfile{
		Key:          model.CompanyKey("10000000"),
		CompanyName:  "Acme Ltda",
		Industry:     "manufacturing",
		Description:  "makes widgets",
		Status:       model.StageSuccess,
		ChunksTotal:  3,
		ChunksMerged: 3,
	}
	err := s.UpsertCompanyProfile(context.Background(), p)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetSiteKnowledge_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT origin, canonical_url, site_type, preferred_strategy, last_protection`).
		WithArgs("https://acme.com").
		WillReturnError(pgx.ErrNoRows)

	result, err := s.GetSiteKnowledge(context.Background(), "https://acme.com")
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveSiteKnowledge(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO site_knowledge`).
		WithArgs("https://acme.com", "https://acme.com", "static", "standard", "none",
			4, 1, pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	kb := &model.SiteKnowledge{
		Origin:            "https://acme.com",
		CanonicalURL:      "https://acme.com",
		SiteType:          model.SiteStatic,
		PreferredStrategy: "standard",
		LastProtection:    model.ProtectionNone,
		SuccessCount:      4,
		FailureCount:      1,
	}
	err := s.SaveSiteKnowledge(context.Background(), kb)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS search_results`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	err := s.Migrate(context.Background())
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Ping(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`SELECT 1`).WillReturnResult(pgxmock.NewResult("SELECT", 0))

	err := s.Ping(context.Background())
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
