package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sukalov/uta/internal/utils/e"
)

var (
	ChannelID int64
	mu        sync.RWMutex
	botClient BotClient
	wg        sync.WaitGroup
	log       = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
			Level(zerolog.InfoLevel).With().Timestamp().Logger()
)

// BotClient forwards log lines to a chat.
type BotClient interface {
	SendMessage(chatID int64, text string) error
}

// Config holds logging configuration.
type Config struct {
	Level  string    // debug, info, warn, error
	Format string    // console, json
	Out    io.Writer // defaults to stderr; stdout may carry lyrics
}

// Init configures local output. Unknown levels fall back to info.
func Init(cfg Config) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	out := cfg.Out
	if out == nil {
		out = os.Stderr
	}
	if cfg.Format != "json" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}

	mu.Lock()
	log = zerolog.New(out).Level(level).With().Timestamp().Logger()
	mu.Unlock()
}

// AttachBot forwards INFO, ERROR and SUCCESS messages to channelID.
func AttachBot(client BotClient, channelID int64) {
	mu.Lock()
	defer mu.Unlock()
	botClient = client
	ChannelID = channelID
}

// Flush waits for pending channel messages.
func Flush() {
	wg.Wait()
}

func Info(message string) {
	logger().Info().Msg(message)
	sendLog("ℹ️ INFO", message)
}

func Error(message string) {
	logger().Error().Msg(message)
	sendLog("❌ ERROR", message)
}

func Debug(message string) {
	logger().Debug().Msg(message)
}

func Success(message string) {
	logger().Info().Bool("success", true).Msg(message)
	sendLog("✅ SUCCESS", message)
}

func logger() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	l := log
	return &l
}

func sendLog(prefix, message string) {
	mu.RLock()
	client, channel := botClient, ChannelID
	mu.RUnlock()
	if client == nil {
		return
	}

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	logMessage := fmt.Sprintf("[%s] %s\n%s", timestamp, prefix, message)

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := client.SendMessage(channel, logMessage); err != nil {
			logger().Warn().Err(err).Msg("failed to send log to channel")
		}
	}()
}

// LogWithErr logs message at info level, or at error level with err
// attached, and returns err wrapped with message.
func LogWithErr(message string, err error) error {
	if err == nil {
		Info(message)
		return nil
	}

	msg := fmt.Sprintf("%s\nError: %v", message, err)
	Error(msg)

	return e.Wrap(message, err)
}
