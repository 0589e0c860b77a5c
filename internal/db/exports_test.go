package db

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestExportString(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 30, 0, 0, time.Local)
	x := Export{
		SongID:     "1440857786",
		Title:      "Song",
		Artist:     "Band",
		Format:     "lrc",
		Syllable:   true,
		Lines:      42,
		Path:       "out/Song - Band.lrc",
		ExportedAt: at,
	}

	got := x.String()
	for _, want := range []string{"2024-03-01 12:30", "lrc", "syllable", "42 lines", "Song - Band", "out/Song - Band.lrc"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected %q in %q", want, got)
		}
	}

	x.Syllable = false
	x.Artist = ""
	got = x.String()
	if !strings.Contains(got, "line ") || strings.Contains(got, " - ") {
		t.Errorf("unexpected line-mode history entry %q", got)
	}
}

func TestPlaceholders(t *testing.T) {
	tests := map[int]string{1: "?", 3: "?, ?, ?"}
	for n, want := range tests {
		if got := placeholders(n); got != want {
			t.Errorf("placeholders(%d) = %q, want %q", n, got, want)
		}
	}
	if got := placeholders(len(exportColumns)); strings.Count(got, "?") != len(exportColumns) {
		t.Errorf("placeholder count mismatch: %q", got)
	}
}

func TestRecentExports_NonPositive(t *testing.T) {
	s := New(nil)
	got, err := s.RecentExports(context.Background(), 0)
	if err != nil || got != nil {
		t.Errorf("expected no rows and no query, got %v, %v", got, err)
	}
}
