package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alexflint/go-arg"

	"github.com/sukalov/uta/internal/bot"
	"github.com/sukalov/uta/internal/config"
	"github.com/sukalov/uta/internal/db"
	"github.com/sukalov/uta/internal/logger"
	"github.com/sukalov/uta/internal/lyrics"
	"github.com/sukalov/uta/internal/lyrics/lrc"
	"github.com/sukalov/uta/internal/lyrics/parsers/applemusic"
	"github.com/sukalov/uta/internal/preview"
	"github.com/sukalov/uta/internal/redis"
	"github.com/sukalov/uta/internal/utils/e"
)

type args struct {
	URL            string `arg:"-u,--url" help:"Apple Music song or album URL, or a catalog song ID"`
	Token          string `arg:"-t,--token,env:APPLE_META_TOKEN" help:"media-user-token of your Apple Music account"`
	DeveloperToken string `arg:"--developer-token,env:APPLE_DEVELOPER_TOKEN" help:"bearer token; discovered from the web player when empty"`
	Syllable       bool   `arg:"-s,--syllable" help:"keep per-syllable timing"`
	LRC            bool   `arg:"--lrc" help:"write LRC instead of plain text"`
	TTML           bool   `arg:"--ttml" help:"save the pretty-printed TTML instead of converting"`
	Tags           bool   `arg:"--tags" help:"add [ti:], [ar:], [al:] and [length:] tags to LRC output"`
	Voices         bool   `arg:"--voices" help:"prefix lines with the singer (v1, v2) in duets"`
	Sections       bool   `arg:"--sections" help:"put a blank line between song parts"`
	Storefront     string `arg:"--storefront,env:APPLE_STOREFRONT" help:"storefront, e.g. us; looked up from the account when empty"`
	Language       string `arg:"--language,env:APPLE_LANGUAGE" help:"lyrics language tag, e.g. en-US"`
	Output         string `arg:"-o,--output" default:"." help:"output directory"`
	Stdout         bool   `arg:"--stdout" help:"print lyrics instead of writing files"`
	Preview        bool   `arg:"--preview" help:"review each file before saving"`
	History        int    `arg:"--history" placeholder:"N" help:"list the N most recent exports and exit"`
}

func (args) Description() string {
	return "uta fetches Apple Music lyrics and saves them as LRC, plain text or TTML."
}

func main() {
	cfg := config.Load()

	var a args
	p := arg.MustParse(&a)
	if a.URL == "" && a.History <= 0 {
		p.Fail("--url is required")
	}
	if a.Stdout && a.Preview {
		p.Fail("--stdout and --preview cannot be combined")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx, a, cfg)
	logger.Flush()
	if err != nil {
		exitWithErr(err)
	}
}

func run(ctx context.Context, a args, cfg *config.Config) error {
	logger.Init(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	attachLogBot(cfg)

	history := openHistory(ctx, cfg)
	defer history.Close()

	cacheManager := openCache(ctx, cfg)
	if cacheManager != nil {
		defer cacheManager.Close()
	}

	if a.History > 0 {
		var (
			store  recentExports
			counts exportCounter
		)
		if history != nil {
			store = history
		}
		if cacheManager != nil {
			counts = cacheManager
		}
		return printHistory(ctx, os.Stdout, store, counts, a.History)
	}

	applyFlags(cfg, a)
	if cfg.Apple.MediaUserToken == "" {
		return e.Newf(e.ErrAuth, "config", "missing media-user-token (set --token or APPLE_META_TOKEN)")
	}

	var cache applemusic.Cache
	if cacheManager != nil {
		cache = cacheManager
	}
	client := applemusic.NewClient(cfg.ClientConfig(cache))
	service := lyrics.NewService(client)

	format := lrc.FormatPlain
	if a.LRC {
		format = lrc.FormatLRC
	}
	export, err := service.ExtractLyrics(ctx, a.URL, lyrics.Options{
		Format:   format,
		Syllable: a.Syllable,
		Tags:     a.Tags,
		TTML:     a.TTML,
		Voices:   a.Voices,
		Sections: a.Sections,
	})
	if err != nil {
		return err
	}
	for _, name := range export.Skipped {
		logger.Info(fmt.Sprintf("Skipped %s", name))
	}

	sink := &lyrics.Sink{Dir: a.Output}
	if a.Stdout {
		sink.Stdout = os.Stdout
	}
	if a.Preview {
		sink.Review = func(title, content string) (preview.Decision, error) {
			return preview.Run(title, content)
		}
	}
	if history != nil {
		sink.History = history
	}
	if cacheManager != nil {
		sink.Counter = cacheManager
	}

	written, err := sink.Write(ctx, export)
	if err != nil {
		return err
	}
	for _, path := range written {
		fmt.Printf("Lyrics saved to: %s\n", path)
	}
	// tracks that failed to convert still fail the run once the rest is saved
	return e.Wrap(fmt.Sprintf("%d album tracks failed", len(export.Failed)), export.Err())
}

func applyFlags(cfg *config.Config, a args) {
	if a.Token != "" {
		cfg.Apple.MediaUserToken = a.Token
	}
	if a.DeveloperToken != "" {
		cfg.Apple.DeveloperToken = a.DeveloperToken
	}
	if a.Storefront != "" {
		cfg.Apple.Storefront = a.Storefront
	}
	if a.Language != "" {
		cfg.Apple.Language = a.Language
	}
}

func attachLogBot(cfg *config.Config) {
	if cfg.Log.BotToken == "" || cfg.Log.ChannelID == 0 {
		return
	}
	logBot, err := bot.New("uta-logs", cfg.Log.BotToken)
	if err != nil {
		logger.Error(fmt.Sprintf("Log forwarding disabled\nError: %v", err))
		return
	}
	logger.AttachBot(logBot, cfg.Log.ChannelID)
	logger.Debug(fmt.Sprintf("Forwarding logs through %s", logBot.Name()))
}

func openHistory(ctx context.Context, cfg *config.Config) *db.Store {
	if cfg.History.DatabaseURL == "" {
		return nil
	}
	store, err := db.Open(ctx, cfg.History.DatabaseURL, cfg.History.AuthToken)
	if err != nil {
		logger.Error(fmt.Sprintf("Export history disabled\nError: %v", err))
		return nil
	}
	if err := store.EnsureSchema(ctx); err != nil {
		logger.Error(fmt.Sprintf("Export history disabled\nError: %v", err))
		store.Close()
		return nil
	}
	return store
}

func openCache(ctx context.Context, cfg *config.Config) *redis.DBManager {
	if cfg.Cache.RedisURL == "" {
		return nil
	}
	var (
		manager *redis.DBManager
		err     error
	)
	if strings.Contains(cfg.Cache.RedisURL, "://") {
		manager, err = redis.NewFromURL(ctx, cfg.Cache.RedisURL)
	} else {
		manager, err = redis.NewDBManager(ctx, cfg.Cache.RedisURL, cfg.Cache.RedisPassword)
	}
	if err != nil {
		logger.Error(fmt.Sprintf("Cache disabled\nError: %v", err))
		return nil
	}
	return manager
}

type recentExports interface {
	RecentExports(ctx context.Context, limit int) ([]db.Export, error)
}

type exportCounter interface {
	ExportCount(ctx context.Context, songID string) (int, error)
}

// printHistory lists the n latest exports. With counts set, each row also
// shows how many times the song was exported in total.
func printHistory(ctx context.Context, w io.Writer, history recentExports, counts exportCounter, n int) error {
	if history == nil {
		return e.Wrap("history", fmt.Errorf("export history is not configured (set TURSO_DATABASE_URL)"))
	}
	exports, err := history.RecentExports(ctx, n)
	if err != nil {
		return e.Wrap("history", err)
	}
	if len(exports) == 0 {
		fmt.Fprintln(w, "No exports yet")
		return nil
	}
	for _, x := range exports {
		line := x.String()
		if counts != nil {
			total, err := counts.ExportCount(ctx, x.SongID)
			if err != nil {
				logger.Debug(fmt.Sprintf("Export count unavailable for %s\nError: %v", x.SongID, err))
			} else if total > 0 {
				line += fmt.Sprintf(" (exported %dx)", total)
			}
		}
		fmt.Fprintln(w, line)
	}
	return nil
}

// Exit codes. 2 is left to go-arg for usage errors.
const (
	exitFailure     = 1
	exitNetwork     = 3
	exitAuth        = 4
	exitNotFound    = 5
	exitParse       = 6
	exitUnsupported = 7
	exitInterrupted = 130
)

func exitCode(err error) int {
	if errors.Is(err, context.Canceled) {
		return exitInterrupted
	}
	switch e.Kind(err) {
	case e.ErrNetwork:
		return exitNetwork
	case e.ErrAuth:
		return exitAuth
	case e.ErrNotFound:
		return exitNotFound
	case e.ErrParse:
		return exitParse
	case e.ErrUnsupportedFormat:
		return exitUnsupported
	}
	return exitFailure
}

func exitWithErr(err error) {
	fmt.Fprintln(os.Stderr, "Error:", err)
	os.Exit(exitCode(err))
}
