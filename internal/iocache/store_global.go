package iocache

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/hashicorp/go-multierror"
	"github.com/huangsam/repolens/internal/contract"
	"github.com/huangsam/repolens/schema"
)

// Global Manager instance for main logic.
var (
	Manager   = &StoreManager{}
	initOnce  sync.Once
	closeOnce sync.Once
)

// NewStores opens one database for backend and builds both stores on it.
func NewStores(backend schema.DatabaseBackend, connStr string) (*AnalysisStoreImpl, *EmbeddingStoreImpl, error) {
	if backend == schema.NoneBackend {
		return &AnalysisStoreImpl{backend: backend, table: analysesTable},
			&EmbeddingStoreImpl{backend: backend, table: embeddingsTable}, nil
	}
	db, err := openDB(backend, connStr)
	if err != nil {
		return nil, nil, err
	}
	analysis, err := newAnalysisStoreWithDB(db, backend)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	embeddings, err := newEmbeddingStoreWithDB(db, backend)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return analysis, embeddings, nil
}

// InitStores initializes the global store manager. Later calls are no-ops.
func InitStores(backend schema.DatabaseBackend, connStr string) error {
	var initErr error

	initOnce.Do(func() {
		analysis, embeddings, err := NewStores(backend, connStr)
		if err != nil {
			initErr = fmt.Errorf("failed to initialize %s store: %w", backend, err)
			return
		}
		Manager.Lock()
		defer Manager.Unlock()
		Manager.analysis = analysis
		Manager.embeddings = embeddings
	})

	return initErr
}

// CloseStores should be called on application shutdown.
func CloseStores() error {
	var result *multierror.Error
	closeOnce.Do(func() {
		Manager.Lock()
		defer Manager.Unlock()
		if Manager.analysis != nil {
			if err := Manager.analysis.Close(); err != nil {
				result = multierror.Append(result, errors.Wrap(err, "close analysis store"))
			}
		}
		if Manager.embeddings != nil {
			if err := Manager.embeddings.Close(); err != nil {
				result = multierror.Append(result, errors.Wrap(err, "close embedding store"))
			}
		}
	})
	return result.ErrorOrNil()
}

// Status reports on the analysis store and adds the embedding count when available.
func Status(ctx context.Context, mgr contract.StoreManager) (schema.StoreStatus, error) {
	store := mgr.GetAnalysisStore()
	if store == nil {
		return schema.StoreStatus{}, fmt.Errorf("analysis store is not initialized")
	}
	status, err := store.GetStatus()
	if err != nil {
		return status, err
	}
	if counter, ok := mgr.GetEmbeddingStore().(interface {
		Count(context.Context) (int, error)
	}); ok {
		n, err := counter.Count(ctx)
		if err != nil {
			return status, err
		}
		status.TotalEmbeddings = n
		if status.Connected {
			if status.TableSizes == nil {
				status.TableSizes = make(map[string]int64)
			}
			status.TableSizes[embeddingsTable] = int64(n)
		}
	}
	return status, nil
}

// ClearStore removes everything repolens stored for the specified backend.
// For SQLite, it deletes the database file.
// For SQL backends (MySQL/PostgreSQL), it drops the tables.
// For NoneBackend, it does nothing.
func ClearStore(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend:
		dbFilePath := connStr
		if dbFilePath == "" {
			dbFilePath = contract.GetDBFilePath()
		}
		if dbFilePath == ":memory:" {
			return nil
		}
		if err := os.Remove(dbFilePath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove SQLite database file %s: %w", dbFilePath, err)
		}
		return nil

	case schema.MySQLBackend, schema.PostgreSQLBackend:
		return dropSQLTables(backend, connStr, embeddingsTable, analysesTable, migrationsTable)

	case schema.NoneBackend:
		return nil

	default:
		return fmt.Errorf("unsupported backend for clearing: %s", backend)
	}
}

// dropSQLTables connects to the SQL database and drops each table if it exists.
func dropSQLTables(backend schema.DatabaseBackend, connStr string, tables ...string) error {
	db, err := openDB(backend, connStr)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	for _, table := range tables {
		query := fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteTableName(table, backend))
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", table, err)
		}
	}
	return nil
}
