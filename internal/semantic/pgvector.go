package semantic

import (
	"context"
	"database/sql"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/huangsam/repolens/internal/contract"
	"github.com/huangsam/repolens/schema"
	_ "github.com/lib/pq" // PostgreSQL driver for pgvector
)

const pgvectorTable = "repolens_commit_vectors"

// PGVectorStore keeps embeddings in PostgreSQL with the pgvector extension and lets
// the database rank them with the cosine distance operator.
type PGVectorStore struct {
	db *sql.DB
}

var _ VectorStore = &PGVectorStore{} // Compile-time check

// NewPGVectorStore connects to connStr and makes sure the extension and table exist.
func NewPGVectorStore(connStr string) (*PGVectorStore, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open pgvector database")
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.WithHint(errors.Wrap(err, "failed to connect to pgvector database"),
			"Check that PostgreSQL is running with the pgvector extension available.")
	}
	for _, q := range []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE TABLE IF NOT EXISTS ` + pgvectorTable + ` (
			id BIGSERIAL PRIMARY KEY,
			repo_url TEXT NOT NULL,
			commit_hash TEXT NOT NULL,
			model TEXT NOT NULL,
			commit_data JSONB NOT NULL,
			embedding vector NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_repolens_commit_vectors_repo_url ON ` + pgvectorTable + ` (repo_url)`,
	} {
		if _, err := db.Exec(q); err != nil {
			_ = db.Close()
			return nil, errors.Wrap(err, "failed to prepare pgvector schema")
		}
	}
	return &PGVectorStore{db: db}, nil
}

// vectorLiteral formats v the way pgvector parses it: [1,2,3].
func vectorLiteral(v []float32) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, x := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(x), 'g', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}

// Replace implements the VectorStore interface.
func (s *PGVectorStore) Replace(ctx context.Context, repoURL string, items []schema.CommitEmbedding) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return contract.NewPersistenceError(err, "begin")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM `+pgvectorTable+` WHERE repo_url = $1`, repoURL); err != nil {
		return contract.NewPersistenceError(err, "replace vectors")
	}
	for _, item := range items {
		data, mErr := json.Marshal(item.Commit)
		if mErr != nil {
			err = contract.NewPersistenceError(mErr, "encode commit")
			return err
		}
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO `+pgvectorTable+` (repo_url, commit_hash, model, commit_data, embedding) VALUES ($1, $2, $3, $4, $5::vector)`,
			repoURL, item.Commit.Hash, item.Model, string(data), vectorLiteral(item.Vector)); err != nil {
			return contract.NewPersistenceError(err, "replace vectors")
		}
	}
	if err = tx.Commit(); err != nil {
		return contract.NewPersistenceError(err, "commit")
	}
	return nil
}

// Search implements the VectorStore interface. `<=>` is cosine distance, so similarity is 1 - distance.
func (s *PGVectorStore) Search(ctx context.Context, repoURL string, query []float32, threshold float64, limit int) ([]schema.SearchHit, error) {
	if limit <= 0 {
		limit = contract.DefaultSearchLimit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT commit_data, 1 - (embedding <=> $2::vector) AS score
		FROM `+pgvectorTable+`
		WHERE repo_url = $1 AND 1 - (embedding <=> $2::vector) >= $3
		ORDER BY score DESC, id ASC
		LIMIT $4`, repoURL, vectorLiteral(query), threshold, limit)
	if err != nil {
		return nil, contract.NewPersistenceError(err, "search vectors")
	}
	defer func() { _ = rows.Close() }()

	hits := []schema.SearchHit{}
	for rows.Next() {
		var data string
		var hit schema.SearchHit
		if err := rows.Scan(&data, &hit.Score); err != nil {
			return nil, contract.NewPersistenceError(err, "search vectors")
		}
		if err := json.Unmarshal([]byte(data), &hit.Commit); err != nil {
			return nil, contract.NewPersistenceError(err, "decode commit")
		}
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, contract.NewPersistenceError(err, "search vectors")
	}
	return hits, nil
}

// Close closes the database connection.
func (s *PGVectorStore) Close() error {
	return s.db.Close()
}
