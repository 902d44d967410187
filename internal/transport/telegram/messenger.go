package telegram

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"quizhost/internal/app"
)

// Messenger implements app.Messenger on top of the Telegram Bot API.
type Messenger struct {
	api *tgbotapi.BotAPI
}

func NewMessenger(api *tgbotapi.BotAPI) *Messenger {
	return &Messenger{api: api}
}

func (m *Messenger) SendMessage(_ context.Context, chatID int64, text string, buttons []app.Button) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if len(buttons) > 0 {
		msg.ReplyMarkup = inlineKeyboard(buttons)
	}
	if _, err := m.api.Send(msg); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// SendPoll dispatches a non-anonymous quiz poll so answer events carry the
// voter's identity. Telegram keeps the correct option hidden from
// participants until they vote or the poll closes.
func (m *Messenger) SendPoll(_ context.Context, chatID int64, prompt string, options []string, correctOption int, timeLimit time.Duration) (string, error) {
	poll := tgbotapi.NewPoll(chatID, prompt, options...)
	poll.Type = "quiz"
	poll.CorrectOptionID = int64(correctOption)
	poll.IsAnonymous = false
	poll.AllowsMultipleAnswers = false
	if timeLimit > 0 {
		poll.OpenPeriod = int(timeLimit.Seconds())
	}

	sent, err := m.api.Send(poll)
	if err != nil {
		return "", fmt.Errorf("send poll: %w", err)
	}
	if sent.Poll == nil {
		return "", fmt.Errorf("send poll: response carried no poll")
	}
	return sent.Poll.ID, nil
}

func inlineKeyboard(buttons []app.Button) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(buttons))
	for _, b := range buttons {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(b.Label, b.Token),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
