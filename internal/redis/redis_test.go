package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func newTestManager(t *testing.T) (*DBManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	m, err := NewFromURL(context.Background(), "redis://"+mr.Addr())
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	t.Cleanup(func() { m.Close() })
	return m, mr
}

func TestGetMiss(t *testing.T) {
	m, _ := newTestManager(t)

	got, err := m.Get(context.Background(), "missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil on miss, got %q", got)
	}
}

func TestSetGet(t *testing.T) {
	m, mr := newTestManager(t)
	ctx := context.Background()

	if err := m.Set(ctx, "amp:developer-token", []byte("eyJh.token"), 12*time.Hour); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := m.Get(ctx, "amp:developer-token")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != "eyJh.token" {
		t.Errorf("expected cached token, got %q", got)
	}

	if !mr.Exists("uta:amp:developer-token") {
		t.Error("expected key to be stored with prefix")
	}
	if ttl := mr.TTL("uta:amp:developer-token"); ttl != 12*time.Hour {
		t.Errorf("expected ttl 12h, got %v", ttl)
	}

	mr.FastForward(13 * time.Hour)
	got, err = m.Get(ctx, "amp:developer-token")
	if err != nil || got != nil {
		t.Errorf("expected expired key to miss, got %q, %v", got, err)
	}
}

func TestExportCount(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := m.IncrementExportCount(ctx, "1440857786"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	n, err := m.ExportCount(ctx, "1440857786")
	if err != nil || n != 3 {
		t.Errorf("expected 3, got %d (%v)", n, err)
	}
	n, err = m.ExportCount(ctx, "other")
	if err != nil || n != 0 {
		t.Errorf("expected 0 for unknown song, got %d (%v)", n, err)
	}
}

func TestConnectFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := NewFromURL(ctx, "redis://"+addr); err == nil {
		t.Fatal("expected ping failure")
	}
	if _, err := NewFromURL(ctx, "::not a url"); err == nil {
		t.Fatal("expected parse failure")
	}
}
