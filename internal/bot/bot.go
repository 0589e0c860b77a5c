package bot

import (
	"fmt"
	"net/http"
	"sync"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// maxMessageLength is Telegram's limit for a text message.
const maxMessageLength = 4096

// Bot sends messages to Telegram chats on behalf of the CLI.
type Bot struct {
	Client *tgbotapi.BotAPI
	name   string
	mu     sync.Mutex
}

// New creates a new bot instance
func New(name, token string) (*Bot, error) {
	return NewWithEndpoint(name, token, tgbotapi.APIEndpoint)
}

// NewWithEndpoint creates a bot that talks to a custom Bot API server.
// endpoint is a format string like tgbotapi.APIEndpoint.
func NewWithEndpoint(name, token, endpoint string) (*Bot, error) {
	botClient, err := tgbotapi.NewBotAPIWithClient(token, endpoint, &http.Client{Timeout: 15 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("[%s] failed to authorize bot: %w", name, err)
	}

	return &Bot{
		Client: botClient,
		name:   name,
	}, nil
}

// Name returns the account the bot is authorized as.
func (b *Bot) Name() string {
	return fmt.Sprintf("%s (@%s)", b.name, b.Client.Self.UserName)
}

// SendMessage sends text to chatID, cutting it to the message size limit.
func (b *Bot) SendMessage(chatID int64, text string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	msg := tgbotapi.NewMessage(chatID, truncate(text, maxMessageLength))
	msg.DisableWebPagePreview = true
	if _, err := b.Client.Send(msg); err != nil {
		return fmt.Errorf("[%s] failed to send message: %w", b.name, err)
	}
	return nil
}

func truncate(text string, limit int) string {
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	return string(runes[:limit-1]) + "…"
}
