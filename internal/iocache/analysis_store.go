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

// analysesTable holds one row per stored analysis.
const analysesTable = "repolens_analyses"

// AnalysisStoreImpl implements contract.AnalysisStore on a SQL database. Results are
// stored as JSON documents; the surrounding columns only serve listing and lookup.
type AnalysisStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
	table   string
}

var _ contract.AnalysisStore = &AnalysisStoreImpl{} // Compile-time check

// NewAnalysisStore creates an AnalysisStore with the specified backend. The none
// backend yields a store that keeps nothing.
func NewAnalysisStore(backend schema.DatabaseBackend, connStr string) (*AnalysisStoreImpl, error) {
	if backend == schema.NoneBackend {
		return &AnalysisStoreImpl{backend: backend, table: analysesTable}, nil
	}
	db, err := openDB(backend, connStr)
	if err != nil {
		return nil, err
	}
	store, err := newAnalysisStoreWithDB(db, backend)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// newAnalysisStoreWithDB wraps an open database and makes sure the table exists.
func newAnalysisStoreWithDB(db *sql.DB, backend schema.DatabaseBackend) (*AnalysisStoreImpl, error) {
	if err := validateTableName(analysesTable); err != nil {
		return nil, err
	}
	for _, q := range createAnalysesQueries(backend) {
		if _, err := db.Exec(q); err != nil {
			return nil, errors.Wrapf(err, "failed to create table %s", analysesTable)
		}
	}
	return &AnalysisStoreImpl{db: db, backend: backend, table: analysesTable}, nil
}

// createAnalysesQueries returns the DDL for the analyses table.
func createAnalysesQueries(backend schema.DatabaseBackend) []string {
	quoted := quoteTableName(analysesTable, backend)
	switch backend {
	case schema.MySQLBackend:
		return []string{fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id BIGINT AUTO_INCREMENT PRIMARY KEY,
				repo_url VARCHAR(512) NOT NULL,
				repo_name VARCHAR(255) NOT NULL,
				total_commits INT NOT NULL,
				analysis_data LONGTEXT NOT NULL,
				created_at BIGINT NOT NULL,
				INDEX idx_repolens_analyses_repo_url (repo_url)
			);`, quoted)}

	case schema.PostgreSQLBackend:
		return []string{
			fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id BIGSERIAL PRIMARY KEY,
				repo_url TEXT NOT NULL,
				repo_name TEXT NOT NULL,
				total_commits INT NOT NULL,
				analysis_data TEXT NOT NULL,
				created_at BIGINT NOT NULL
			);`, quoted),
			fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_repolens_analyses_repo_url ON %s (repo_url);`, quoted),
		}

	default: // SQLite
		return []string{
			fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				repo_url TEXT NOT NULL,
				repo_name TEXT NOT NULL,
				total_commits INTEGER NOT NULL,
				analysis_data TEXT NOT NULL,
				created_at INTEGER NOT NULL
			);`, quoted),
			fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_repolens_analyses_repo_url ON %s (repo_url);`, quoted),
		}
	}
}

func (as *AnalysisStoreImpl) disabled() bool {
	return as.backend == schema.NoneBackend || as.db == nil
}

// Store implements the contract.AnalysisStore interface.
func (as *AnalysisStoreImpl) Store(ctx context.Context, repoURL string, result *schema.AnalysisResult) (int64, error) {
	if as.disabled() {
		return 0, nil
	}
	if result == nil {
		return 0, contract.NewPersistenceError(errors.New("nil analysis result"), "store")
	}
	data, err := json.Marshal(result)
	if err != nil {
		return 0, contract.NewPersistenceError(err, "encode")
	}

	quoted := quoteTableName(as.table, as.backend)
	args := []any{repoURL, result.Repository.Name, result.Repository.TotalCommits, string(data), time.Now().UnixMilli()}

	var id int64
	switch as.backend {
	case schema.PostgreSQLBackend:
		query := fmt.Sprintf(`INSERT INTO %s (repo_url, repo_name, total_commits, analysis_data, created_at)
			VALUES ($1, $2, $3, $4, $5) RETURNING id`, quoted)
		err = as.db.QueryRowContext(ctx, query, args...).Scan(&id)
	default: // SQLite and MySQL
		query := fmt.Sprintf(`INSERT INTO %s (repo_url, repo_name, total_commits, analysis_data, created_at)
			VALUES (?, ?, ?, ?, ?)`, quoted)
		var res sql.Result
		res, err = as.db.ExecContext(ctx, query, args...)
		if err == nil {
			id, err = res.LastInsertId()
		}
	}
	if err != nil {
		return 0, contract.NewPersistenceError(err, "store")
	}
	return id, nil
}

// Retrieve implements the contract.AnalysisStore interface.
func (as *AnalysisStoreImpl) Retrieve(ctx context.Context, id int64) (*schema.AnalysisResult, error) {
	if as.disabled() {
		return nil, nil
	}
	query := rebind(as.backend, fmt.Sprintf(`SELECT analysis_data FROM %s WHERE id = ?`, quoteTableName(as.table, as.backend)))

	var data string
	err := as.db.QueryRowContext(ctx, query, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, contract.NewPersistenceError(err, "retrieve")
	}
	return decodeResult(data)
}

// Latest implements the contract.AnalysisStore interface.
func (as *AnalysisStoreImpl) Latest(ctx context.Context, repoURL string) (int64, *schema.AnalysisResult, error) {
	if as.disabled() {
		return 0, nil, nil
	}
	query := rebind(as.backend, fmt.Sprintf(`SELECT id, analysis_data FROM %s WHERE repo_url = ? ORDER BY id DESC LIMIT 1`,
		quoteTableName(as.table, as.backend)))

	var id int64
	var data string
	err := as.db.QueryRowContext(ctx, query, repoURL).Scan(&id, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil, nil
	}
	if err != nil {
		return 0, nil, contract.NewPersistenceError(err, "latest")
	}
	result, err := decodeResult(data)
	if err != nil {
		return 0, nil, err
	}
	return id, result, nil
}

// List implements the contract.AnalysisStore interface.
func (as *AnalysisStoreImpl) List(ctx context.Context, limit int) ([]schema.AnalysisRecord, error) {
	if as.disabled() {
		return []schema.AnalysisRecord{}, nil
	}
	if limit <= 0 {
		limit = contract.DefaultListLimit
	}
	query := rebind(as.backend, fmt.Sprintf(`SELECT id, repo_url, repo_name, total_commits, created_at FROM %s ORDER BY id DESC LIMIT ?`,
		quoteTableName(as.table, as.backend)))

	rows, err := as.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, contract.NewPersistenceError(err, "list")
	}
	defer func() { _ = rows.Close() }()

	records := make([]schema.AnalysisRecord, 0, limit)
	for rows.Next() {
		var rec schema.AnalysisRecord
		var createdAt int64
		if err := rows.Scan(&rec.ID, &rec.RepoURL, &rec.RepoName, &rec.TotalCommits, &createdAt); err != nil {
			return nil, contract.NewPersistenceError(err, "list")
		}
		rec.CreatedAt = time.UnixMilli(createdAt)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, contract.NewPersistenceError(err, "list")
	}
	return records, nil
}

// Delete implements the contract.AnalysisStore interface. Deleting an unknown id
// reports contract.ErrNotFound.
func (as *AnalysisStoreImpl) Delete(ctx context.Context, id int64) error {
	if as.disabled() {
		return nil
	}
	query := rebind(as.backend, fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, quoteTableName(as.table, as.backend)))
	res, err := as.db.ExecContext(ctx, query, id)
	if err != nil {
		return contract.NewPersistenceError(err, "delete")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.Mark(errors.Newf("analysis %d", id), contract.ErrNotFound)
	}
	return nil
}

// ExportRecords returns every stored analysis, oldest first, for columnar export.
func (as *AnalysisStoreImpl) ExportRecords(ctx context.Context) ([]schema.AnalysisExportRecord, error) {
	if as.disabled() {
		return []schema.AnalysisExportRecord{}, nil
	}
	query := fmt.Sprintf(`SELECT id, repo_url, repo_name, total_commits, analysis_data, created_at FROM %s ORDER BY id`,
		quoteTableName(as.table, as.backend))

	rows, err := as.db.QueryContext(ctx, query)
	if err != nil {
		return nil, contract.NewPersistenceError(err, "export")
	}
	defer func() { _ = rows.Close() }()

	var records []schema.AnalysisExportRecord
	for rows.Next() {
		var rec schema.AnalysisExportRecord
		var totalCommits int
		var createdAt int64
		if err := rows.Scan(&rec.ID, &rec.RepoURL, &rec.RepoName, &totalCommits, &rec.AnalysisData, &createdAt); err != nil {
			return nil, contract.NewPersistenceError(err, "export")
		}
		rec.TotalCommits = int32(totalCommits)
		rec.CreatedAt = time.UnixMilli(createdAt).UTC()
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, contract.NewPersistenceError(err, "export")
	}
	return records, nil
}

// Close closes the underlying connection.
func (as *AnalysisStoreImpl) Close() error {
	if as.db != nil {
		return as.db.Close()
	}
	return nil
}

// GetStatus returns status information about the analysis store.
func (as *AnalysisStoreImpl) GetStatus() (schema.StoreStatus, error) {
	status := schema.StoreStatus{
		Backend:    string(as.backend),
		Connected:  as.db != nil,
		TableSizes: make(map[string]int64),
	}
	if as.disabled() {
		return status, nil
	}

	quoted := quoteTableName(as.table, as.backend)
	row := as.db.QueryRow(fmt.Sprintf("SELECT COUNT(*), COUNT(DISTINCT repo_url) FROM %s", quoted))
	if err := row.Scan(&status.TotalAnalyses, &status.DistinctRepos); err != nil {
		return status, errors.Wrap(err, "failed to get total analyses")
	}
	status.TableSizes[as.table] = int64(status.TotalAnalyses)

	if status.TotalAnalyses > 0 {
		var lastCreated, oldestCreated int64
		row = as.db.QueryRow(fmt.Sprintf("SELECT id, created_at FROM %s ORDER BY id DESC LIMIT 1", quoted))
		if err := row.Scan(&status.LastAnalysisID, &lastCreated); err != nil {
			return status, errors.Wrap(err, "failed to get last analysis")
		}
		row = as.db.QueryRow(fmt.Sprintf("SELECT created_at FROM %s ORDER BY id ASC LIMIT 1", quoted))
		if err := row.Scan(&oldestCreated); err != nil {
			return status, errors.Wrap(err, "failed to get oldest analysis")
		}
		status.LastAnalysisTime = time.UnixMilli(lastCreated)
		status.OldestTime = time.UnixMilli(oldestCreated)
	}
	return status, nil
}

func decodeResult(data string) (*schema.AnalysisResult, error) {
	var result schema.AnalysisResult
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		return nil, contract.NewPersistenceError(err, "decode")
	}
	return &result, nil
}
