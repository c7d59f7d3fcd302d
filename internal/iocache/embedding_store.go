package iocache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/huangsam/repolens/internal/contract"
	"github.com/huangsam/repolens/schema"
)

// embeddingsTable holds one row per embedded commit.
const embeddingsTable = "repolens_commit_embeddings"

// EmbeddingStoreImpl implements contract.EmbeddingStore on a SQL database.
// Vectors are kept as JSON arrays so every backend can hold them.
type EmbeddingStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
	table   string
}

var _ contract.EmbeddingStore = &EmbeddingStoreImpl{} // Compile-time check

// NewEmbeddingStore creates an EmbeddingStore with the specified backend.
func NewEmbeddingStore(backend schema.DatabaseBackend, connStr string) (*EmbeddingStoreImpl, error) {
	if backend == schema.NoneBackend {
		return &EmbeddingStoreImpl{backend: backend, table: embeddingsTable}, nil
	}
	db, err := openDB(backend, connStr)
	if err != nil {
		return nil, err
	}
	store, err := newEmbeddingStoreWithDB(db, backend)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func newEmbeddingStoreWithDB(db *sql.DB, backend schema.DatabaseBackend) (*EmbeddingStoreImpl, error) {
	if err := validateTableName(embeddingsTable); err != nil {
		return nil, err
	}
	for _, q := range createEmbeddingsQueries(backend) {
		if _, err := db.Exec(q); err != nil {
			return nil, errors.Wrapf(err, "failed to create table %s", embeddingsTable)
		}
	}
	return &EmbeddingStoreImpl{db: db, backend: backend, table: embeddingsTable}, nil
}

// createEmbeddingsQueries returns the DDL for the embeddings table.
func createEmbeddingsQueries(backend schema.DatabaseBackend) []string {
	quoted := quoteTableName(embeddingsTable, backend)
	switch backend {
	case schema.MySQLBackend:
		return []string{fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id BIGINT AUTO_INCREMENT PRIMARY KEY,
				repo_url VARCHAR(512) NOT NULL,
				commit_hash VARCHAR(64) NOT NULL,
				model VARCHAR(255) NOT NULL,
				commit_data LONGTEXT NOT NULL,
				vector LONGTEXT NOT NULL,
				created_at BIGINT NOT NULL,
				INDEX idx_repolens_embeddings_repo_url (repo_url)
			);`, quoted)}

	case schema.PostgreSQLBackend:
		return []string{
			fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id BIGSERIAL PRIMARY KEY,
				repo_url TEXT NOT NULL,
				commit_hash TEXT NOT NULL,
				model TEXT NOT NULL,
				commit_data TEXT NOT NULL,
				vector TEXT NOT NULL,
				created_at BIGINT NOT NULL
			);`, quoted),
			fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_repolens_embeddings_repo_url ON %s (repo_url);`, quoted),
		}

	default: // SQLite
		return []string{
			fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				repo_url TEXT NOT NULL,
				commit_hash TEXT NOT NULL,
				model TEXT NOT NULL,
				commit_data TEXT NOT NULL,
				vector TEXT NOT NULL,
				created_at INTEGER NOT NULL
			);`, quoted),
			fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_repolens_embeddings_repo_url ON %s (repo_url);`, quoted),
		}
	}
}

func (es *EmbeddingStoreImpl) disabled() bool {
	return es.backend == schema.NoneBackend || es.db == nil
}

// ReplaceEmbeddings implements the contract.EmbeddingStore interface. The delete and
// the inserts share one transaction so readers never see a half-indexed repository.
func (es *EmbeddingStoreImpl) ReplaceEmbeddings(ctx context.Context, repoURL string, items []schema.CommitEmbedding) (err error) {
	if es.disabled() {
		return nil
	}
	quoted := quoteTableName(es.table, es.backend)

	tx, err := es.db.BeginTx(ctx, nil)
	if err != nil {
		return contract.NewPersistenceError(err, "begin")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	del := rebind(es.backend, fmt.Sprintf(`DELETE FROM %s WHERE repo_url = ?`, quoted))
	if _, err = tx.ExecContext(ctx, del, repoURL); err != nil {
		return contract.NewPersistenceError(err, "replace embeddings")
	}

	ins := rebind(es.backend, fmt.Sprintf(`INSERT INTO %s (repo_url, commit_hash, model, commit_data, vector, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`, quoted))
	stmt, err := tx.PrepareContext(ctx, ins)
	if err != nil {
		return contract.NewPersistenceError(err, "replace embeddings")
	}
	defer func() { _ = stmt.Close() }()

	now := time.Now().UnixMilli()
	for _, item := range items {
		commitData, mErr := json.Marshal(item.Commit)
		if mErr != nil {
			err = contract.NewPersistenceError(mErr, "encode commit")
			return err
		}
		vector, mErr := json.Marshal(item.Vector)
		if mErr != nil {
			err = contract.NewPersistenceError(mErr, "encode vector")
			return err
		}
		if _, err = stmt.ExecContext(ctx, repoURL, item.Commit.Hash, item.Model, string(commitData), string(vector), now); err != nil {
			return contract.NewPersistenceError(err, "replace embeddings")
		}
	}

	if err = tx.Commit(); err != nil {
		return contract.NewPersistenceError(err, "commit")
	}
	return nil
}

// LoadEmbeddings implements the contract.EmbeddingStore interface.
func (es *EmbeddingStoreImpl) LoadEmbeddings(ctx context.Context, repoURL string) ([]schema.CommitEmbedding, error) {
	if es.disabled() {
		return []schema.CommitEmbedding{}, nil
	}
	query := rebind(es.backend, fmt.Sprintf(`SELECT model, commit_data, vector FROM %s WHERE repo_url = ? ORDER BY id`,
		quoteTableName(es.table, es.backend)))

	rows, err := es.db.QueryContext(ctx, query, repoURL)
	if err != nil {
		return nil, contract.NewPersistenceError(err, "load embeddings")
	}
	defer func() { _ = rows.Close() }()

	items := []schema.CommitEmbedding{}
	for rows.Next() {
		var model, commitData, vector string
		if err := rows.Scan(&model, &commitData, &vector); err != nil {
			return nil, contract.NewPersistenceError(err, "load embeddings")
		}
		item := schema.CommitEmbedding{RepoURL: repoURL, Model: model}
		if err := json.Unmarshal([]byte(commitData), &item.Commit); err != nil {
			return nil, contract.NewPersistenceError(err, "decode commit")
		}
		if err := json.Unmarshal([]byte(vector), &item.Vector); err != nil {
			return nil, contract.NewPersistenceError(err, "decode vector")
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, contract.NewPersistenceError(err, "load embeddings")
	}
	return items, nil
}

// Count returns the number of stored embeddings across every repository.
func (es *EmbeddingStoreImpl) Count(ctx context.Context) (int, error) {
	if es.disabled() {
		return 0, nil
	}
	var n int
	err := es.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(es.table, es.backend))).Scan(&n)
	if err != nil {
		return 0, errors.Wrap(err, "failed to count embeddings")
	}
	return n, nil
}

// Close closes the underlying connection.
func (es *EmbeddingStoreImpl) Close() error {
	if es.db != nil {
		return es.db.Close()
	}
	return nil
}
