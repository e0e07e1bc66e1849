// Package telegram delivers official-price alerts through the Telegram Bot
// API, with MarkdownV2 formatting and linear-backoff retry on delivery
// failures.
package telegram

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"goldwatch/internal/models"
)

// Notifier sends price alerts to one chat.
type Notifier struct {
	bot            *tgbotapi.BotAPI
	chatID         int64
	maxRetries     int
	retryDelayBase time.Duration
}

// NewNotifier creates a Notifier for the given bot token and chat ID.
func NewNotifier(botToken, chatID string, maxRetries int, retryDelayBase time.Duration) (*Notifier, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}

	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}

	return &Notifier{
		bot:            bot,
		chatID:         chatIDInt,
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}, nil
}

// SendAlert delivers one alert, retrying with linear backoff.
func (n *Notifier) SendAlert(alert models.PriceAlert) error {
	msg := tgbotapi.NewMessage(n.chatID, formatAlert(alert))
	msg.ParseMode = "MarkdownV2"

	var lastErr error
	for i := 0; i < n.maxRetries; i++ {
		if _, err := n.bot.Send(msg); err == nil {
			return nil
		} else {
			lastErr = err
		}
		time.Sleep(n.retryDelayBase * time.Duration(i+1))
	}
	return fmt.Errorf("failed to send alert after %d retries: %w", n.maxRetries, lastErr)
}

func formatAlert(a models.PriceAlert) string {
	arrow := "📈"
	if a.Direction == "down" {
		arrow = "📉"
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s *Thai official gold price moved*\n\n", arrow))
	b.WriteString(fmt.Sprintf("Ask: *%s* THB/baht\\-gold \\(%s %s\\)\n",
		escapeMarkdownV2(fmt.Sprintf("%.2f", a.Ask)),
		escapeMarkdownV2(fmt.Sprintf("%+.2f", a.Delta)),
		escapeMarkdownV2("from "+fmt.Sprintf("%.2f", a.PrevAsk))))
	b.WriteString(fmt.Sprintf("Bid: %s THB/baht\\-gold\n", escapeMarkdownV2(fmt.Sprintf("%.2f", a.Bid))))
	b.WriteString(fmt.Sprintf("At: %s", escapeMarkdownV2(a.At.Format("2006-01-02 15:04:05"))))
	return b.String()
}

// escapeMarkdownV2 escapes the characters Telegram's MarkdownV2 parser
// treats as markup.
func escapeMarkdownV2(text string) string {
	var b strings.Builder
	for _, ch := range text {
		switch ch {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!':
			b.WriteByte('\\')
		}
		b.WriteRune(ch)
	}
	return b.String()
}
