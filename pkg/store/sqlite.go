// Package store persists crawl output and dashboard analyses in a local
// SQLite database.
package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/oiime/logrusbun"
	"github.com/sirupsen/logrus"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/thumbtrend/thumbtrend/internal"
	"github.com/thumbtrend/thumbtrend/pkg/models"
)

var log = internal.GetLogger()

// NewSQLiteConn opens a bun DB over the SQLite DSN.
func NewSQLiteConn(dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, NewStorageError("failed to open sqlite database", err)
	}
	// SQLite serializes writers; a single connection avoids lock errors.
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	if _, err := db.ExecContext(context.Background(), "PRAGMA foreign_keys = ON"); err != nil {
		return nil, NewStorageError("failed to enable foreign keys", err)
	}
	return db, nil
}

// DebugLogging attaches a query hook that logs statements at debug level.
func DebugLogging(db *bun.DB, logger *logrus.Logger) {
	db.AddQueryHook(logrusbun.NewQueryHook(logrusbun.QueryHookOptions{
		LogSlow:         time.Second,
		Logger:          logger,
		QueryLevel:      logrus.DebugLevel,
		ErrorLevel:      logrus.ErrorLevel,
		SlowLevel:       logrus.WarnLevel,
		MessageTemplate: "{{.Operation}}[{{.Duration}}]: {{.Query}}",
		ErrorTemplate:   "{{.Operation}}[{{.Duration}}]: {{.Query}}: {{.Error}}",
	}))
}

// SQLiteStore implements models.Store over bun/SQLite.
type SQLiteStore struct {
	db *bun.DB
}

var _ models.Store = &SQLiteStore{}

// NewSQLiteStore opens the database and ensures the schema exists.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := NewSQLiteConn(dsn)
	if err != nil {
		return nil, err
	}
	if err := CreateSchema(context.Background(), db); err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// NewSQLiteStoreWithDB wraps an existing connection. Used in tests.
func NewSQLiteStoreWithDB(db *bun.DB) (*SQLiteStore, error) {
	if err := CreateSchema(context.Background(), db); err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// DB exposes the underlying connection for query logging hooks.
func (s *SQLiteStore) DB() *bun.DB {
	return s.db
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
