package config

import (
	"os"
	"testing"
	"time"
)

var envVars = []string{
	"APPLE_META_TOKEN", "APPLE_DEVELOPER_TOKEN", "APPLE_STOREFRONT", "APPLE_LANGUAGE",
	"APPLE_API_BASE_URL", "HTTP_TIMEOUT",
	"REDIS_URL", "REDIS_PASSWORD", "TOKEN_CACHE_TTL", "LYRICS_CACHE_TTL",
	"TURSO_DATABASE_URL", "TURSO_AUTH_TOKEN",
	"LOG_LEVEL", "LOG_FORMAT", "LOG_BOT_TOKEN", "LOG_CHANNEL_ID",
}

func TestLoad_Defaults(t *testing.T) {
	for _, v := range envVars {
		t.Setenv(v, "")
	}

	cfg := Load()

	if cfg.Apple.MediaUserToken != "" || cfg.Apple.DeveloperToken != "" {
		t.Errorf("expected no tokens by default, got %+v", cfg.Apple)
	}
	if cfg.Apple.APIBaseURL != "https://amp-api.music.apple.com" {
		t.Errorf("expected default api base url, got %s", cfg.Apple.APIBaseURL)
	}
	if cfg.Apple.Timeout != 60*time.Second {
		t.Errorf("expected default timeout 60s, got %v", cfg.Apple.Timeout)
	}
	if cfg.Cache.TokenTTL != 12*time.Hour {
		t.Errorf("expected default token ttl 12h, got %v", cfg.Cache.TokenTTL)
	}
	if cfg.Cache.LyricsTTL != 24*time.Hour {
		t.Errorf("expected default lyrics ttl 24h, got %v", cfg.Cache.LyricsTTL)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "console" {
		t.Errorf("expected info/console logging, got %+v", cfg.Log)
	}
	if cfg.Log.ChannelID != 0 {
		t.Errorf("expected no log channel, got %d", cfg.Log.ChannelID)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	os.Setenv("APPLE_META_TOKEN", "user-token")
	os.Setenv("APPLE_STOREFRONT", "jp")
	os.Setenv("APPLE_LANGUAGE", "ja")
	os.Setenv("HTTP_TIMEOUT", "5s")
	os.Setenv("TOKEN_CACHE_TTL", "1h")
	os.Setenv("LYRICS_CACHE_TTL", "bogus")
	os.Setenv("LOG_CHANNEL_ID", "-1001234")

	defer func() {
		for _, v := range envVars {
			os.Unsetenv(v)
		}
	}()

	cfg := Load()

	if cfg.Apple.MediaUserToken != "user-token" {
		t.Errorf("expected media user token, got %s", cfg.Apple.MediaUserToken)
	}
	if cfg.Apple.Storefront != "jp" || cfg.Apple.Language != "ja" {
		t.Errorf("expected jp/ja, got %s/%s", cfg.Apple.Storefront, cfg.Apple.Language)
	}
	if cfg.Apple.Timeout != 5*time.Second {
		t.Errorf("expected timeout 5s, got %v", cfg.Apple.Timeout)
	}
	if cfg.Cache.TokenTTL != time.Hour {
		t.Errorf("expected token ttl 1h, got %v", cfg.Cache.TokenTTL)
	}
	if cfg.Cache.LyricsTTL != 24*time.Hour {
		t.Errorf("expected invalid ttl to fall back to 24h, got %v", cfg.Cache.LyricsTTL)
	}
	if cfg.Log.ChannelID != -1001234 {
		t.Errorf("expected channel -1001234, got %d", cfg.Log.ChannelID)
	}

	cc := cfg.ClientConfig(nil)
	if cc.MediaUserToken != "user-token" || cc.Storefront != "jp" || cc.Cache != nil {
		t.Errorf("unexpected client config %+v", cc)
	}
	if cc.TokenTTL != time.Hour || cc.Timeout != 5*time.Second {
		t.Errorf("unexpected client ttl/timeout %+v", cc)
	}
}
