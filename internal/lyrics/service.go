package lyrics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sukalov/uta/internal/logger"
	"github.com/sukalov/uta/internal/lyrics/lrc"
	"github.com/sukalov/uta/internal/lyrics/parsers/applemusic"
	"github.com/sukalov/uta/internal/lyrics/parsers/ttml"
	"github.com/sukalov/uta/internal/model"
	"github.com/sukalov/uta/internal/output"
	"github.com/sukalov/uta/internal/utils/e"
)

// FormatTTML saves the source document instead of converting it.
const FormatTTML = "ttml"

// Fetcher retrieves lyrics payloads from the catalog.
type Fetcher interface {
	FetchSong(ctx context.Context, id string, syllable bool) (*applemusic.Payload, error)
	FetchAlbum(ctx context.Context, id string, syllable bool) (*applemusic.Album, error)
}

// Options selects the output produced for each track.
type Options struct {
	Format   lrc.Format
	Syllable bool
	// Tags adds LRC ID tags to LRC output.
	Tags bool
	// TTML keeps the pretty-printed source instead of converting.
	TTML bool
	// Voices and Sections are passed through to the renderer.
	Voices   bool
	Sections bool
}

func (o Options) format() string {
	if o.TTML {
		return FormatTTML
	}
	return string(o.Format)
}

// LyricsResult represents one converted track
type LyricsResult struct {
	SongID   string `json:"song_id"`
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	Album    string `json:"album"`
	FileName string `json:"file_name"`
	Text     string `json:"text"`
	Format   string `json:"format"`
	// Syllable is true when the output carries per-token timing.
	Syllable  bool      `json:"syllable"`
	Lines     int       `json:"lines"`
	Source    string    `json:"source"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Export is everything produced for one identifier. Album exports set Album
// and Artist, and their files go into a folder named after them.
type Export struct {
	Album   string
	Artist  string
	Results []LyricsResult
	// Skipped lists album tracks that have no lyrics in the requested format.
	Skipped []string
	// Failed holds one error per album track that could not be converted.
	Failed []error
}

// Err joins the per-track failures, or returns nil when there are none.
func (x *Export) Err() error {
	return errors.Join(x.Failed...)
}

// Service handles lyrics extraction for different sources
type Service struct {
	fetcher Fetcher
}

// NewService creates a new lyrics service
func NewService(fetcher Fetcher) *Service {
	return &Service{fetcher: fetcher}
}

// ExtractLyrics resolves rawURL, fetches the song or album it names and
// converts every track that has lyrics.
func (s *Service) ExtractLyrics(ctx context.Context, rawURL string, opts Options) (*Export, error) {
	logger.Debug(fmt.Sprintf("ExtractLyrics called with URL: %s", rawURL))

	if !opts.TTML {
		if opts.Format == "" {
			opts.Format = lrc.FormatPlain
		}
		if opts.Format != lrc.FormatLRC && opts.Format != lrc.FormatPlain {
			return nil, e.Newf(e.ErrUnsupportedFormat, "extract lyrics", "unknown output format %q", opts.Format)
		}
	}

	id, err := applemusic.ParseIdentifier(rawURL)
	if err != nil {
		logger.Error(fmt.Sprintf("Unsupported URL source: %s", rawURL))
		return nil, err
	}
	logger.Debug(fmt.Sprintf("Detected Apple Music %s", id))

	switch id.Kind {
	case applemusic.KindAlbum:
		return s.extractAlbum(ctx, id.ID, opts)
	default:
		return s.extractSong(ctx, id.ID, opts)
	}
}

func (s *Service) extractSong(ctx context.Context, id string, opts Options) (*Export, error) {
	payload, err := s.fetcher.FetchSong(ctx, id, opts.Syllable)
	if err != nil {
		logger.Error(fmt.Sprintf("FetchSong failed for song: %s\nError: %v", id, err))
		return nil, err
	}

	result, err := s.Convert(payload, opts)
	if err != nil {
		return nil, err
	}
	return &Export{Results: []LyricsResult{*result}}, nil
}

func (s *Service) extractAlbum(ctx context.Context, id string, opts Options) (*Export, error) {
	album, err := s.fetcher.FetchAlbum(ctx, id, opts.Syllable)
	if err != nil {
		logger.Error(fmt.Sprintf("FetchAlbum failed for album: %s\nError: %v", id, err))
		return nil, err
	}

	export := &Export{Album: album.Name, Artist: album.Artist}
	for i := range album.Tracks {
		track := &album.Tracks[i]
		name := fmt.Sprintf("%s - %s", track.Title, track.Artist)

		if track.TTML == "" {
			logger.Info(fmt.Sprintf("No lyrics for %s", name))
			export.Skipped = append(export.Skipped, name)
			continue
		}

		result, err := s.Convert(track, opts)
		switch {
		case err == nil:
			export.Results = append(export.Results, *result)
		case errors.Is(err, e.ErrNotFound), errors.Is(err, e.ErrUnsupportedFormat):
			logger.Info(fmt.Sprintf("Skipping %s: %v", name, err))
			export.Skipped = append(export.Skipped, name)
		default:
			logger.Error(fmt.Sprintf("Failed to convert %s\nError: %v", name, err))
			export.Failed = append(export.Failed, fmt.Errorf("%s: %w", name, err))
		}
	}

	if len(export.Results) == 0 {
		if err := export.Err(); err != nil {
			return nil, err
		}
		return nil, e.Newf(e.ErrNotFound, "fetch album", "%s - %s has no tracks with usable lyrics", album.Name, album.Artist)
	}
	return export, nil
}

// Convert parses a payload's TTML and renders it with opts.
func (s *Service) Convert(p *applemusic.Payload, opts Options) (*LyricsResult, error) {
	doc, err := ttml.Parse([]byte(p.TTML), ttml.Options{Syllable: opts.Syllable && !opts.TTML})
	if err != nil {
		logger.Error(fmt.Sprintf("ttml.Parse failed for song: %s\nError: %v", p.ID, err))
		return nil, err
	}
	if len(doc.Lines) == 0 {
		logger.Error(fmt.Sprintf("No lyric lines in %s - %s", p.Title, p.Artist))
		return nil, e.Newf(e.ErrNotFound, "convert lyrics", "%s - %s has no lyric lines", p.Title, p.Artist)
	}

	result := &LyricsResult{
		SongID:    p.ID,
		Title:     p.Title,
		Artist:    p.Artist,
		Album:     p.Album,
		Format:    opts.format(),
		Lines:     len(doc.Lines),
		Source:    "music.apple.com",
		FetchedAt: time.Now(),
	}

	if opts.TTML {
		pretty, err := ttml.Pretty([]byte(p.TTML))
		if err != nil {
			return nil, err
		}
		result.Text = string(pretty)
		result.Syllable = p.Syllable
		result.FileName = output.FileName(p.Title, p.Artist, ".ttml")
		return result, nil
	}

	renderOpts := lrc.Options{
		Format:   opts.Format,
		Syllable: opts.Syllable,
		Voices:   opts.Voices,
		Sections: opts.Sections,
	}
	if opts.Tags {
		renderOpts.Header = &lrc.Header{Title: p.Title, Artist: p.Artist, Album: p.Album}
	}
	if err := lrc.Check(doc, renderOpts); err != nil {
		logger.Error(fmt.Sprintf("Cannot render %s - %s as %s\nError: %v", p.Title, p.Artist, opts.Format, err))
		return nil, err
	}
	syllable := opts.Syllable && opts.Format == lrc.FormatLRC
	if syllable && !hasTokenTiming(doc) {
		logger.Info(fmt.Sprintf("%s - %s has no syllable timing, using line timestamps", p.Title, p.Artist))
		syllable = false
	}

	result.Text = lrc.Render(doc, renderOpts)
	result.Syllable = syllable
	result.FileName = output.FileName(p.Title, p.Artist, opts.Format.Ext())

	logger.Debug(fmt.Sprintf("Convert succeeded for song: %s\nLines: %d\nSyllable: %v", p.ID, result.Lines, result.Syllable))
	return result, nil
}

func hasTokenTiming(doc *model.Document) bool {
	for _, line := range doc.Lines {
		if line.HasTokenTiming() {
			return true
		}
	}
	return false
}
