package notify

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/trendwatch-io/trendwatch/internal/output/render"
)

// Telegram caps message text at 4096 characters; staying under 4000
// bytes leaves room for multibyte text.
const telegramMaxBytes = 4000

// Telegram delivers HTML messages through the Bot API.
type Telegram struct {
	api    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegram builds the channel, nil when token or chat id are
// missing. The client routes API calls through the shared outbound
// client, proxy included. The bot handle is assembled without the
// library's getMe probe so a bad token or a Telegram outage fails the
// first send, not process startup.
func NewTelegram(token, chatID string, client *http.Client) (*Telegram, error) {
	if token == "" || chatID == "" {
		return nil, nil
	}

	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid telegram chat id %q: %w", chatID, err)
	}

	api := &tgbotapi.BotAPI{
		Token:  token,
		Client: client,
		Buffer: 100,
	}
	api.SetAPIEndpoint(tgbotapi.APIEndpoint)

	return &Telegram{api: api, chatID: id}, nil
}

func (t *Telegram) Name() string      { return "telegram" }
func (t *Telegram) Kind() render.Kind { return render.KindTelegram }
func (t *Telegram) MaxBytes() int     { return telegramMaxBytes }

func (t *Telegram) Send(ctx context.Context, title, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(t.chatID, body)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true

	if _, err := t.api.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}

	return nil
}
