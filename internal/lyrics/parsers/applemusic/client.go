package applemusic

import (
	"compress/gzip"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sukalov/uta/internal/logger"
	"github.com/sukalov/uta/internal/utils/e"
)

const (
	DefaultAPIBaseURL = "https://amp-api.music.apple.com"
	DefaultWebBaseURL = "https://music.apple.com"
	DefaultTimeout    = 60 * time.Second
	DefaultLanguage   = "en-US"

	includeSongs = "album,lyrics,syllable-lyrics"
	userAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/110.0.0.0 Safari/537.36"
)

// Cache stores raw responses between runs. Get returns nil on a miss.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Config holds what the client needs to reach the catalog.
type Config struct {
	APIBaseURL string
	WebBaseURL string
	// MediaUserToken is the account token sent as media-user-token.
	MediaUserToken string
	// DeveloperToken is the bearer JWT. Discovered from the web player
	// when empty.
	DeveloperToken string
	Storefront     string
	Language       string
	Timeout        time.Duration

	Cache     Cache
	TokenTTL  time.Duration
	LyricsTTL time.Duration
}

// Client represents the HTTP client for the Apple Music catalog API
type Client struct {
	httpClient *http.Client
	userAgent  string
	cfg        Config

	developerToken string
	storefront     Storefront
	prepared       bool
}

// NewClient creates a new catalog client
func NewClient(cfg Config) *Client {
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = DefaultAPIBaseURL
	}
	if cfg.WebBaseURL == "" {
		cfg.WebBaseURL = DefaultWebBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")
	cfg.WebBaseURL = strings.TrimRight(cfg.WebBaseURL, "/")

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				TLSClientConfig: &tls.Config{
					MinVersion: tls.VersionTLS12,
					MaxVersion: tls.VersionTLS13,
				},
				DisableCompression: false,
			},
		},
		userAgent: userAgent,
		cfg:       cfg,
	}
}

// Prepare resolves the developer token and the storefront. Fetch methods
// call it on first use.
func (c *Client) Prepare(ctx context.Context) error {
	if c.prepared {
		return nil
	}

	token, err := c.resolveDeveloperToken(ctx)
	if err != nil {
		return err
	}
	c.developerToken = token

	if c.cfg.Storefront != "" {
		c.storefront = Storefront{ID: c.cfg.Storefront, Language: c.cfg.Language}
		if c.storefront.Language == "" {
			c.storefront.Language = DefaultLanguage
		}
	} else {
		sf, err := c.Storefront(ctx)
		if err != nil {
			return err
		}
		if c.cfg.Language != "" {
			sf.Language = c.cfg.Language
		}
		c.storefront = sf
	}

	logger.Debug(fmt.Sprintf("Prepare: storefront %s, language %s", c.storefront.ID, c.storefront.Language))
	c.prepared = true
	return nil
}

func (c *Client) resolveDeveloperToken(ctx context.Context) (string, error) {
	if c.cfg.DeveloperToken != "" {
		return c.cfg.DeveloperToken, nil
	}

	const key = "amp:developer-token"
	if c.cfg.Cache != nil {
		cached, err := c.cfg.Cache.Get(ctx, key)
		if err != nil {
			logger.Error(fmt.Sprintf("resolveDeveloperToken: cache read failed\nError: %v", err))
		} else if len(cached) > 0 {
			logger.Debug("resolveDeveloperToken: using cached developer token")
			return string(cached), nil
		}
	}

	token, err := c.DiscoverToken(ctx)
	if err != nil {
		return "", err
	}

	if c.cfg.Cache != nil {
		if err := c.cfg.Cache.Set(ctx, key, []byte(token), c.cfg.TokenTTL); err != nil {
			logger.Error(fmt.Sprintf("resolveDeveloperToken: cache write failed\nError: %v", err))
		}
	}
	return token, nil
}

// Storefront looks up the account's storefront and its default language.
func (c *Client) Storefront(ctx context.Context) (Storefront, error) {
	var resp storefrontResponse
	if err := c.getJSON(ctx, "fetch storefront", "/v1/me/storefront", nil, false, &resp); err != nil {
		return Storefront{}, err
	}
	if len(resp.Data) == 0 {
		return Storefront{}, e.Newf(e.ErrAuth, "fetch storefront", "no storefront for this account")
	}
	sf := Storefront{ID: resp.Data[0].ID, Language: resp.Data[0].Attributes.DefaultLanguageTag}
	if sf.Language == "" {
		sf.Language = DefaultLanguage
	}
	return sf, nil
}

// FetchSong fetches one song and its lyrics.
func (c *Client) FetchSong(ctx context.Context, id string, syllable bool) (*Payload, error) {
	if err := c.Prepare(ctx); err != nil {
		return nil, err
	}
	logger.Debug(fmt.Sprintf("FetchSong: fetching song %s (syllable: %v)", id, syllable))

	endpoint := fmt.Sprintf("/v1/catalog/%s/songs/%s", url.PathEscape(c.storefront.ID), url.PathEscape(id))
	var resp songResponse
	if err := c.getJSON(ctx, "fetch song", endpoint, c.catalogQuery(), true, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, e.Newf(e.ErrNotFound, "fetch song", "no song with id %s", id)
	}

	payload := resp.Data[0].payload(syllable, "")
	if payload.TTML == "" {
		return nil, e.Newf(e.ErrNotFound, "fetch song", "%s - %s has no lyrics", payload.Title, payload.Artist)
	}
	if syllable && !payload.Syllable {
		logger.Info(fmt.Sprintf("%s - %s has no syllable lyrics, using line lyrics", payload.Title, payload.Artist))
	}
	return &payload, nil
}

// FetchAlbum fetches an album and the lyrics of each of its tracks.
func (c *Client) FetchAlbum(ctx context.Context, id string, syllable bool) (*Album, error) {
	if err := c.Prepare(ctx); err != nil {
		return nil, err
	}
	logger.Debug(fmt.Sprintf("FetchAlbum: fetching album %s (syllable: %v)", id, syllable))

	endpoint := fmt.Sprintf("/v1/catalog/%s/albums/%s", url.PathEscape(c.storefront.ID), url.PathEscape(id))
	var resp albumResponse
	if err := c.getJSON(ctx, "fetch album", endpoint, c.catalogQuery(), true, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, e.Newf(e.ErrNotFound, "fetch album", "no album with id %s", id)
	}

	data := resp.Data[0]
	album := &Album{
		ID:     data.ID,
		Name:   data.Attributes.Name,
		Artist: data.Attributes.ArtistName,
	}
	for _, track := range data.Relationships.Tracks.Data {
		album.Tracks = append(album.Tracks, track.payload(syllable, album.Name))
	}
	return album, nil
}

func (c *Client) catalogQuery() url.Values {
	q := url.Values{}
	q.Set("l", c.storefront.Language)
	q.Set("include[songs]", includeSongs)
	return q
}

// getJSON performs an authorized API request and decodes the body into
// out. Cacheable responses are served from and stored into the cache.
func (c *Client) getJSON(ctx context.Context, op, endpoint string, query url.Values, cacheable bool, out any) error {
	key := "amp:" + endpoint
	if len(query) > 0 {
		key += "?" + query.Encode()
	}
	useCache := cacheable && c.cfg.Cache != nil

	if useCache {
		cached, err := c.cfg.Cache.Get(ctx, key)
		if err != nil {
			logger.Error(fmt.Sprintf("%s: cache read failed\nKey: %s\nError: %v", op, key, err))
		} else if cached != nil {
			if err := json.Unmarshal(cached, out); err == nil {
				logger.Debug(fmt.Sprintf("%s: served from cache (%s)", op, key))
				return nil
			}
			logger.Error(fmt.Sprintf("%s: discarding undecodable cache entry %s", op, key))
		}
	}

	body, err := c.fetch(ctx, op, c.cfg.APIBaseURL+endpoint, query, true)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		logger.Error(fmt.Sprintf("%s: failed to decode response\nError: %v", op, err))
		return e.New(e.ErrParse, op, fmt.Errorf("decode response: %w", err))
	}

	if useCache {
		if err := c.cfg.Cache.Set(ctx, key, body, c.cfg.LyricsTTL); err != nil {
			logger.Error(fmt.Sprintf("%s: cache write failed\nKey: %s\nError: %v", op, key, err))
		}
	}
	return nil
}

// fetch performs one GET request and returns the decoded body. API requests
// carry the bearer and media-user tokens; web requests ask for HTML.
func (c *Client) fetch(ctx context.Context, op, rawURL string, query url.Values, api bool) ([]byte, error) {
	if len(query) > 0 {
		rawURL += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		logger.Error(fmt.Sprintf("Failed to create HTTP request\nURL: %s\nError: %v", rawURL, err))
		return nil, e.New(e.ErrNetwork, op, fmt.Errorf("create request: %w", err))
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Origin", DefaultWebBaseURL)
	req.Header.Set("Referer", DefaultWebBaseURL+"/")
	req.Header.Set("Accept-Encoding", "gzip")
	req.Header.Set("Connection", "keep-alive")
	if api {
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Content-Type", "application/json;charset=utf-8")
		req.Header.Set("Authorization", "Bearer "+c.developerToken)
		req.Header.Set("media-user-token", c.cfg.MediaUserToken)
		if c.storefront.Language != "" {
			req.Header.Set("Accept-Language", c.storefront.Language+",en;q=0.9")
		}
	} else {
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Error(fmt.Sprintf("Failed to send request\nURL: %s\nError: %v", rawURL, err))
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, e.New(e.ErrNetwork, op, ctxErr)
		}
		return nil, e.New(e.ErrNetwork, op, err)
	}
	defer resp.Body.Close()

	var reader io.Reader = resp.Body

	// Handle gzip decompression
	if strings.Contains(resp.Header.Get("Content-Encoding"), "gzip") {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			logger.Error(fmt.Sprintf("Failed to create gzip reader\nURL: %s\nError: %v", rawURL, err))
			return nil, e.New(e.ErrNetwork, op, fmt.Errorf("create gzip reader: %w", err))
		}
		defer gzipReader.Close()
		reader = gzipReader
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		logger.Error(fmt.Sprintf("Failed to read response body\nURL: %s\nError: %v", rawURL, err))
		return nil, e.New(e.ErrNetwork, op, fmt.Errorf("read response body: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.Error(fmt.Sprintf("HTTP error\nURL: %s\nStatus: %d", rawURL, resp.StatusCode))
		return nil, statusError(op, resp.StatusCode, body)
	}

	return body, nil
}

func statusError(op string, status int, body []byte) error {
	detail := fmt.Sprintf("HTTP status %d", status)
	var apiErr errorResponse
	if json.Unmarshal(body, &apiErr) == nil && len(apiErr.Errors) > 0 {
		first := apiErr.Errors[0]
		msg := first.Detail
		if msg == "" {
			msg = first.Title
		}
		if msg != "" {
			detail += ": " + msg
		}
	}

	kind := e.ErrNetwork
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		kind = e.ErrAuth
	case http.StatusNotFound:
		kind = e.ErrNotFound
	}
	return e.New(kind, op, errors.New(detail))
}
