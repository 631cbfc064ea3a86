package notify

import (
	"fmt"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"momentum_bot/internal/modules/config"
)

type Notifier interface {
	Send(msg string)
	Sendf(format string, args ...any)
}

// Telegram — пассивный нотифайер: сигналы и сервисные события.
// Без токена все вызовы — no-op, бот остаётся чисто сигнальным.
type Telegram struct {
	bot    *tgbot.BotAPI
	chatID int64
}

func NewTelegram(cfg *config.Config) (Notifier, error) {
	if cfg.Telegram.Token == "" {
		return &Telegram{}, nil
	}

	b, err := tgbot.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return nil, err
	}
	return &Telegram{
		bot:    b,
		chatID: cfg.Telegram.ChatID,
	}, nil
}

func (t *Telegram) Send(msg string) {
	if t == nil || t.bot == nil || t.chatID == 0 {
		return
	}
	_, _ = t.bot.Send(tgbot.NewMessage(t.chatID, msg))
}

func (t *Telegram) Sendf(format string, args ...any) { t.Send(fmt.Sprintf(format, args...)) }
