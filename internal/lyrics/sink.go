package lyrics

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/sukalov/uta/internal/db"
	"github.com/sukalov/uta/internal/logger"
	"github.com/sukalov/uta/internal/output"
	"github.com/sukalov/uta/internal/preview"
	"github.com/sukalov/uta/internal/utils/e"
)

// Recorder stores written exports.
type Recorder interface {
	RecordExport(ctx context.Context, x db.Export) (int64, error)
}

// Counter counts exports per song.
type Counter interface {
	IncrementExportCount(ctx context.Context, songID string) error
}

// ReviewFunc asks the user what to do with a rendered file.
type ReviewFunc func(title, content string) (preview.Decision, error)

// Sink delivers an Export to stdout or to files under Dir. History, Counter
// and Review are optional.
type Sink struct {
	Dir     string
	Stdout  io.Writer
	Review  ReviewFunc
	History Recorder
	Counter Counter
}

// Write delivers every result of export and returns the written paths.
// A quit in the review stops early without an error.
func (s *Sink) Write(ctx context.Context, export *Export) ([]string, error) {
	if s.Stdout != nil {
		for i, r := range export.Results {
			if i > 0 {
				if _, err := io.WriteString(s.Stdout, "\n"); err != nil {
					return nil, e.Wrap("write stdout", err)
				}
			}
			if _, err := io.WriteString(s.Stdout, r.Text); err != nil {
				return nil, e.Wrap("write stdout", err)
			}
		}
		return nil, nil
	}

	dir := s.Dir
	if export.Album != "" {
		dir = output.AlbumDir(s.Dir, export.Album, export.Artist)
	}

	var written []string
	for _, r := range export.Results {
		if err := ctx.Err(); err != nil {
			return written, e.Wrap("write lyrics", err)
		}

		path := filepath.Join(dir, r.FileName)

		if s.Review != nil {
			decision, err := s.Review(r.FileName, r.Text)
			if err != nil {
				return written, e.Wrap("preview", err)
			}
			logger.Debug(fmt.Sprintf("Preview of %s: %s", r.FileName, decision))
			if decision == preview.Quit {
				return written, nil
			}
			if decision == preview.Skip {
				continue
			}
		}

		if err := output.WriteFile(path, []byte(r.Text)); err != nil {
			return written, logger.LogWithErr(fmt.Sprintf("Error saving lyrics file %s", path), err)
		}
		written = append(written, path)
		logger.Success(fmt.Sprintf("Lyrics saved\nSong: %s - %s\nOutput: %s\nLines: %d", r.Title, r.Artist, path, r.Lines))

		s.record(ctx, r, path)
	}
	return written, nil
}

// record stores the export in the optional history and counter. Failures
// are logged only.
func (s *Sink) record(ctx context.Context, r LyricsResult, path string) {
	if s.History != nil {
		x := db.Export{
			SongID:     r.SongID,
			Title:      r.Title,
			Artist:     r.Artist,
			Album:      r.Album,
			Format:     r.Format,
			Syllable:   r.Syllable,
			Lines:      r.Lines,
			Path:       path,
			ExportedAt: r.FetchedAt,
		}
		if _, err := s.History.RecordExport(ctx, x); err != nil {
			logger.Error(fmt.Sprintf("Failed to record export history\nError: %v", err))
		}
	}
	if s.Counter != nil {
		if err := s.Counter.IncrementExportCount(ctx, r.SongID); err != nil {
			logger.Error(fmt.Sprintf("Failed to count export\nError: %v", err))
		}
	}
}
