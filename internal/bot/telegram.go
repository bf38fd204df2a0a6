package bot

import (
	"context"
	"fmt"

	"github.com/KlimSani4/hydrocalc/internal/logger"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const pollTimeoutSeconds = 60

// Telegram is the Transport backed by the Telegram Bot API (long polling).
type Telegram struct {
	api *tgbotapi.BotAPI
	log *logger.Logger
}

func NewTelegram(token string, log *logger.Logger) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("connect to telegram: %w", err)
	}
	log = log.With("transport", "telegram", "bot", api.Self.UserName)
	log.Info("authorized")
	return &Telegram{api: api, log: log}, nil
}

func (t *Telegram) Send(ctx context.Context, msg OutgoingMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	out := tgbotapi.NewMessage(msg.ChatID, msg.Text)
	out.ParseMode = tgbotapi.ModeHTML
	if len(msg.Keyboard) > 0 {
		out.ReplyMarkup = inlineKeyboard(msg.Keyboard)
	}
	if _, err := t.api.Send(out); err != nil {
		return fmt.Errorf("send message to chat %d: %w", msg.ChatID, err)
	}
	return nil
}

func (t *Telegram) AnswerCallback(ctx context.Context, callbackID, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := t.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		return fmt.Errorf("answer callback: %w", err)
	}
	return nil
}

// Updates starts long polling and converts Telegram updates until ctx is done.
func (t *Telegram) Updates(ctx context.Context) <-chan Update {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = pollTimeoutSeconds
	in := t.api.GetUpdatesChan(cfg)

	out := make(chan Update)
	go func() {
		defer close(out)
		defer t.api.StopReceivingUpdates()
		for {
			select {
			case <-ctx.Done():
				return
			case raw, ok := <-in:
				if !ok {
					return
				}
				u, ok := convertUpdate(raw)
				if !ok {
					continue
				}
				select {
				case out <- u:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

func convertUpdate(raw tgbotapi.Update) (Update, bool) {
	switch {
	case raw.CallbackQuery != nil:
		cq := raw.CallbackQuery
		if cq.From == nil {
			return Update{}, false
		}
		u := Update{
			ParticipantID: cq.From.ID,
			CallbackID:    cq.ID,
			CallbackData:  cq.Data,
		}
		if cq.Message != nil && cq.Message.Chat != nil {
			u.ChatID = cq.Message.Chat.ID
		} else {
			u.ChatID = cq.From.ID
		}
		return u, true
	case raw.Message != nil:
		m := raw.Message
		if m.From == nil || m.Chat == nil {
			return Update{}, false
		}
		return Update{
			ParticipantID: m.From.ID,
			ChatID:        m.Chat.ID,
			Text:          m.Text,
		}, true
	}
	return Update{}, false
}

func inlineKeyboard(rows [][]Button) tgbotapi.InlineKeyboardMarkup {
	kb := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
		}
		kb = append(kb, tgbotapi.NewInlineKeyboardRow(buttons...))
	}
	return tgbotapi.NewInlineKeyboardMarkup(kb...)
}
