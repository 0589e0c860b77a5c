package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/sukalov/uta/internal/db"
	"github.com/sukalov/uta/internal/utils/e"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"plain error", errors.New("boom"), exitFailure},
		{"network", e.Newf(e.ErrNetwork, "fetch song", "timeout"), exitNetwork},
		{"auth", e.Newf(e.ErrAuth, "config", "missing media-user-token"), exitAuth},
		{"not found", e.Newf(e.ErrNotFound, "parse url", "empty identifier"), exitNotFound},
		{"parse", e.Wrap("1 album tracks failed", e.Newf(e.ErrParse, "parse ttml", "bad")), exitParse},
		{"unsupported", e.Newf(e.ErrUnsupportedFormat, "render lrc", "not synced"), exitUnsupported},
		{"interrupted", e.New(e.ErrNetwork, "fetch song", context.Canceled), exitInterrupted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.err); got != tt.want {
				t.Errorf("exitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

type fakeHistory struct {
	exports []db.Export
	err     error
}

func (f *fakeHistory) RecentExports(_ context.Context, limit int) ([]db.Export, error) {
	if f.err != nil {
		return nil, f.err
	}
	if limit < len(f.exports) {
		return f.exports[:limit], nil
	}
	return f.exports, nil
}

type fakeCounts map[string]int

func (f fakeCounts) ExportCount(_ context.Context, songID string) (int, error) {
	if songID == "broken" {
		return 0, fmt.Errorf("redis down")
	}
	return f[songID], nil
}

func TestPrintHistory(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 30, 0, 0, time.Local)
	history := &fakeHistory{exports: []db.Export{
		{SongID: "1", Title: "One", Artist: "Band", Format: "lrc", Lines: 10, Path: "One - Band.lrc", ExportedAt: at},
		{SongID: "2", Title: "Two", Artist: "Band", Format: "plain", Lines: 5, Path: "Two - Band.txt", ExportedAt: at},
		{SongID: "broken", Title: "Three", Format: "plain", Lines: 1, Path: "Three.txt", ExportedAt: at},
	}}

	var buf bytes.Buffer
	if err := printHistory(context.Background(), &buf, history, fakeCounts{"1": 3}, 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 rows, got %q", buf.String())
	}
	if !strings.HasSuffix(lines[0], "One - Band.lrc (exported 3x)") {
		t.Errorf("expected export count on first row, got %q", lines[0])
	}
	if strings.Contains(lines[1], "exported") || strings.Contains(lines[2], "exported") {
		t.Errorf("rows without a count should stay bare: %q", lines[1:])
	}

	buf.Reset()
	if err := printHistory(context.Background(), &buf, history, nil, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(buf.String(), "exported") || strings.Count(buf.String(), "\n") != 1 {
		t.Errorf("unexpected output without cache %q", buf.String())
	}
}

func TestPrintHistory_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := printHistory(context.Background(), &buf, &fakeHistory{}, nil, 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.String() != "No exports yet\n" {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestPrintHistory_Errors(t *testing.T) {
	var buf bytes.Buffer
	if err := printHistory(context.Background(), &buf, nil, nil, 5); err == nil {
		t.Error("expected error when history is not configured")
	}
	if err := printHistory(context.Background(), &buf, &fakeHistory{err: errors.New("db down")}, nil, 5); err == nil {
		t.Error("expected query error")
	}
}
