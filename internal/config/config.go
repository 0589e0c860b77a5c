package config

import (
	"time"

	"github.com/sukalov/uta/internal/lyrics/parsers/applemusic"
	"github.com/sukalov/uta/internal/utils"
)

type Config struct {
	Apple   AppleConfig
	Cache   CacheConfig
	History HistoryConfig
	Log     LogConfig
}

// AppleConfig configures the catalog client.
type AppleConfig struct {
	MediaUserToken string
	DeveloperToken string
	Storefront     string
	Language       string
	APIBaseURL     string
	Timeout        time.Duration
}

// CacheConfig enables the Redis response cache when RedisURL is set.
type CacheConfig struct {
	RedisURL      string
	RedisPassword string
	TokenTTL      time.Duration
	LyricsTTL     time.Duration
}

// HistoryConfig enables the export history when DatabaseURL is set.
type HistoryConfig struct {
	DatabaseURL string
	AuthToken   string
}

// LogConfig configures local logs and channel forwarding.
type LogConfig struct {
	Level     string
	Format    string
	BotToken  string
	ChannelID int64
}

// Load reads configuration from the environment and an optional .env file.
func Load() *Config {
	_, _ = utils.LoadEnv(nil)

	return &Config{
		Apple: AppleConfig{
			MediaUserToken: utils.GetEnv("APPLE_META_TOKEN", ""),
			DeveloperToken: utils.GetEnv("APPLE_DEVELOPER_TOKEN", ""),
			Storefront:     utils.GetEnv("APPLE_STOREFRONT", ""),
			Language:       utils.GetEnv("APPLE_LANGUAGE", ""),
			APIBaseURL:     utils.GetEnv("APPLE_API_BASE_URL", applemusic.DefaultAPIBaseURL),
			Timeout:        utils.GetEnvDuration("HTTP_TIMEOUT", applemusic.DefaultTimeout),
		},
		Cache: CacheConfig{
			RedisURL:      utils.GetEnv("REDIS_URL", ""),
			RedisPassword: utils.GetEnv("REDIS_PASSWORD", ""),
			TokenTTL:      utils.GetEnvDuration("TOKEN_CACHE_TTL", 12*time.Hour),
			LyricsTTL:     utils.GetEnvDuration("LYRICS_CACHE_TTL", 24*time.Hour),
		},
		History: HistoryConfig{
			DatabaseURL: utils.GetEnv("TURSO_DATABASE_URL", ""),
			AuthToken:   utils.GetEnv("TURSO_AUTH_TOKEN", ""),
		},
		Log: LogConfig{
			Level:     utils.GetEnv("LOG_LEVEL", "info"),
			Format:    utils.GetEnv("LOG_FORMAT", "console"),
			BotToken:  utils.GetEnv("LOG_BOT_TOKEN", ""),
			ChannelID: utils.GetEnvInt64("LOG_CHANNEL_ID", 0),
		},
	}
}

// ClientConfig builds the catalog client configuration. cache may be nil.
func (c *Config) ClientConfig(cache applemusic.Cache) applemusic.Config {
	cfg := applemusic.Config{
		APIBaseURL:     c.Apple.APIBaseURL,
		MediaUserToken: c.Apple.MediaUserToken,
		DeveloperToken: c.Apple.DeveloperToken,
		Storefront:     c.Apple.Storefront,
		Language:       c.Apple.Language,
		Timeout:        c.Apple.Timeout,
		TokenTTL:       c.Cache.TokenTTL,
		LyricsTTL:      c.Cache.LyricsTTL,
	}
	if cache != nil {
		cfg.Cache = cache
	}
	return cfg
}
