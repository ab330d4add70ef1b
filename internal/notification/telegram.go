package notification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/buidl-renaissance/art-night-detroit-sub000/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type TelegramNotifier struct {
	bot    sender
	logger *slog.Logger
}

func NewTelegramNotifier(token string, logger *slog.Logger) (*TelegramNotifier, error) {
	if token == "" {
		logger.Warn("telegram bot token is empty, notifications disabled")
		return &TelegramNotifier{bot: nil, logger: logger}, nil
	}

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	return &TelegramNotifier{bot: bot, logger: logger}, nil
}

func (n *TelegramNotifier) NotifyWinner(ctx context.Context, notice models.WinnerNotice) error {
	text := fmt.Sprintf(
		"*You won!*\n\n"+"Raffle: %s\n"+"Artist: %s\n"+"Winning ticket: #%d",
		tgbotapi.EscapeText(tgbotapi.ModeMarkdown, notice.RaffleName),
		tgbotapi.EscapeText(tgbotapi.ModeMarkdown, notice.ArtistName),
		notice.TicketNumber,
	)
	return n.send(ctx, notice.ChatID, text)
}

func (n *TelegramNotifier) send(ctx context.Context, chatID *int64, text string) error {
	if n.bot == nil {
		n.logger.Debug("notification skipped (bot disabled)", "text", text)
		return nil
	}

	if chatID == nil {
		n.logger.Debug("notification skipped (no chat_id)", "text", text)
		return nil
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(*chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown

	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("send telegram message to %d: %w", *chatID, err)
	}
	return nil
}
