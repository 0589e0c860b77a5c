package applemusic

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/sukalov/uta/internal/utils/e"
)

const browsePage = `<!DOCTYPE html><html><head>
<script type="module" crossorigin src="/assets/vendor-abc123.js"></script>
<script type="module" crossorigin src="/assets/index-9f8e7d.js"></script>
</head><body></body></html>`

const indexScript = `const a="x";const config={token:"eyJhbGciOiJFUzI1NiJ9.payload.sig",other:"y"};`

func TestDiscoverToken(t *testing.T) {
	srv := newCatalogServer(t, map[string]func(http.ResponseWriter, *http.Request){
		"/us/browse":             func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(browsePage)) },
		"/assets/index-9f8e7d.js": func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(indexScript)) },
	})
	c := NewClient(Config{APIBaseURL: srv.URL, WebBaseURL: srv.URL})

	token, err := c.DiscoverToken(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token != "eyJhbGciOiJFUzI1NiJ9.payload.sig" {
		t.Errorf("unexpected token %q", token)
	}
}

func TestDiscoverToken_RegexFallback(t *testing.T) {
	// bundle only referenced from inline JSON, not a script tag
	page := `<html><head><link rel="modulepreload" href="/assets/index-111.js"></head></html>`
	srv := newCatalogServer(t, map[string]func(http.ResponseWriter, *http.Request){
		"/us/browse":           func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(page)) },
		"/assets/index-111.js": func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(indexScript)) },
	})
	c := NewClient(Config{WebBaseURL: srv.URL})

	if _, err := c.DiscoverToken(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDiscoverToken_Missing(t *testing.T) {
	tests := []struct {
		name   string
		page   string
		script string
	}{
		{"no script", `<html><body>nothing</body></html>`, ""},
		{"no token", browsePage, `const config={};`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newCatalogServer(t, map[string]func(http.ResponseWriter, *http.Request){
				"/us/browse":              func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(tt.page)) },
				"/assets/index-9f8e7d.js": func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(tt.script)) },
			})
			c := NewClient(Config{WebBaseURL: srv.URL})

			if _, err := c.DiscoverToken(context.Background()); !errors.Is(err, e.ErrAuth) {
				t.Fatalf("expected ErrAuth, got %v", err)
			}
		})
	}
}

func TestPrepare_DiscoveredTokenIsCached(t *testing.T) {
	srv := newCatalogServer(t, map[string]func(http.ResponseWriter, *http.Request){
		"/us/browse":              func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(browsePage)) },
		"/assets/index-9f8e7d.js": func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(indexScript)) },
		"/v1/catalog/us/songs/1440857786": func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer eyJhbGciOiJFUzI1NiJ9.payload.sig" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_, _ = w.Write([]byte(songJSON))
		},
	})
	cache := newMemCache()
	cfg := Config{
		APIBaseURL: srv.URL,
		WebBaseURL: srv.URL,
		Storefront: "us",
		Cache:      cache,
		TokenTTL:   12 * time.Hour,
	}

	if _, err := NewClient(cfg).FetchSong(context.Background(), "1440857786", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := NewClient(cfg).FetchSong(context.Background(), "1440857786", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if n := srv.count("/us/browse"); n != 1 {
		t.Errorf("expected token discovery once, got %d", n)
	}
	if cache.ttls["amp:developer-token"] != 12*time.Hour {
		t.Errorf("expected token cached for 12h, got %v", cache.ttls["amp:developer-token"])
	}
}
