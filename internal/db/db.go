// db.go
package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/sukalov/uta/internal/logger"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
)

// Store records exported files in a libsql database.
type Store struct {
	Database *sql.DB
}

// Open connects to a Turso/libsql database and verifies the connection.
func Open(ctx context.Context, databaseURL, authToken string) (*Store, error) {
	dsn := databaseURL
	if authToken != "" {
		dsn = fmt.Sprintf("%s?authToken=%s", databaseURL, authToken)
	}

	database, err := sql.Open("libsql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open db %s: %w", databaseURL, err)
	}

	database.SetMaxOpenConns(4)
	database.SetMaxIdleConns(4)
	database.SetConnMaxLifetime(5 * time.Minute)

	if err := database.PingContext(ctx); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return New(database), nil
}

// New wraps an already opened database.
func New(database *sql.DB) *Store {
	return &Store{Database: database}
}

// Close closes the database connection safely
func (s *Store) Close() {
	if s == nil || s.Database == nil {
		return
	}
	if err := s.Database.Close(); err != nil {
		logger.Error(fmt.Sprintf("error closing database: %v", err))
	}
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
