package db

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const schema = `
CREATE TABLE IF NOT EXISTS exports (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	song_id     TEXT NOT NULL,
	title       TEXT NOT NULL,
	artist      TEXT NOT NULL,
	album       TEXT NOT NULL DEFAULT '',
	format      TEXT NOT NULL,
	syllable    INTEGER NOT NULL DEFAULT 0,
	lines       INTEGER NOT NULL DEFAULT 0,
	path        TEXT NOT NULL,
	exported_at TIMESTAMP NOT NULL
)`

var exportColumns = []string{"song_id", "title", "artist", "album", "format", "syllable", "lines", "path", "exported_at"}

// Export is one written lyrics file.
type Export struct {
	ID         int64
	SongID     string
	Title      string
	Artist     string
	Album      string
	Format     string
	Syllable   bool
	Lines      int
	Path       string
	ExportedAt time.Time
}

// String formats an export as one history line.
func (x Export) String() string {
	mode := "line"
	if x.Syllable {
		mode = "syllable"
	}
	name := x.Title
	if x.Artist != "" {
		name = x.Title + " - " + x.Artist
	}
	return fmt.Sprintf("%s  %-5s %-8s %4d lines  %s  %s",
		x.ExportedAt.Local().Format("2006-01-02 15:04"), x.Format, mode, x.Lines, name, x.Path)
}

// EnsureSchema creates the exports table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, err := s.Database.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create exports table: %w", err)
	}
	return nil
}

// RecordExport inserts x and returns its row id.
func (s *Store) RecordExport(ctx context.Context, x Export) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if x.ExportedAt.IsZero() {
		x.ExportedAt = time.Now()
	}

	query := fmt.Sprintf(`INSERT INTO exports (%s) VALUES (%s)`,
		strings.Join(exportColumns, ", "), placeholders(len(exportColumns)))

	result, err := s.Database.ExecContext(ctx, query,
		x.SongID,
		x.Title,
		x.Artist,
		x.Album,
		x.Format,
		boolToInt(x.Syllable),
		x.Lines,
		x.Path,
		x.ExportedAt.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to record export of %s: %w", x.SongID, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, nil
	}
	return id, nil
}

// RecentExports returns the n most recent exports, newest first.
func (s *Store) RecentExports(ctx context.Context, n int) ([]Export, error) {
	if n <= 0 {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	query := fmt.Sprintf(`SELECT id, %s FROM exports ORDER BY exported_at DESC, id DESC LIMIT ?`,
		strings.Join(exportColumns, ", "))

	rows, err := s.Database.QueryContext(ctx, query, n)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	var exports []Export
	for rows.Next() {
		var x Export
		var syllable int
		if err := rows.Scan(&x.ID, &x.SongID, &x.Title, &x.Artist, &x.Album, &x.Format, &syllable, &x.Lines, &x.Path, &x.ExportedAt); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		x.Syllable = syllable != 0
		exports = append(exports, x)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration: %w", err)
	}
	return exports, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
