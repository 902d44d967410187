package telegram

import (
	"context"
	"errors"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"quizhost/internal/app"
	"quizhost/internal/domain"
)

// Bot runs the long-poll update loop and maps Telegram updates onto the
// orchestrator's typed events. Each update is handled on its own goroutine;
// the core serializes per-session state itself.
type Bot struct {
	api  *tgbotapi.BotAPI
	orch *app.Orchestrator
	send *Messenger
	log  *zap.Logger
}

func NewBot(api *tgbotapi.BotAPI, orch *app.Orchestrator, log *zap.Logger) *Bot {
	return &Bot{
		api:  api,
		orch: orch,
		send: NewMessenger(api),
		log:  log,
	}
}

// Run blocks consuming updates until the context is canceled.
func (b *Bot) Run(ctx context.Context) error {
	b.log.Info("telegram bot starting", zap.String("account", b.api.Self.UserName))

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	u.AllowedUpdates = []string{"message", "callback_query", "poll", "poll_answer"}

	updates := b.api.GetUpdatesChan(u)
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.PollAnswer != nil:
		b.handlePollAnswer(ctx, update.PollAnswer)
	case update.Poll != nil && update.Poll.IsClosed:
		b.orch.HandlePollClosed(ctx, app.PollClosed{PollID: update.Poll.ID})
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	authorID := msg.From.ID
	chatID := msg.Chat.ID

	switch msg.Command() {
	case "start":
		b.orch.Welcome(ctx, chatID)
	case "create":
		b.orch.StartAuthoring(ctx, authorID)
	case "help":
		b.orch.HandleButton(ctx, app.ButtonClick{AuthorID: chatID, Token: app.TokenHelp})
	case "skip":
		b.orch.HandleText(ctx, app.TextMessage{AuthorID: authorID, Text: "skip"})
	case "done":
		b.finishAuthoring(ctx, authorID, msg.CommandArguments())
	case "startquiz":
		b.startQuiz(ctx, msg)
	case "abort":
		if err := b.orch.AbortRun(ctx, chatID); errors.Is(err, domain.ErrRunNotFound) {
			b.reply(ctx, chatID, "No quiz is running here.")
		}
	case "":
		if msg.Poll != nil {
			b.orch.HandleQuizInput(ctx, quizInputEvent(authorID, msg.Poll))
		} else {
			b.orch.HandleText(ctx, app.TextMessage{AuthorID: authorID, Text: msg.Text})
		}
	default:
		b.reply(ctx, chatID, "Unknown command. Send /help for the command list.")
	}
}

func (b *Bot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	// Telegram requires callback queries to be answered.
	if _, err := b.api.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
		b.log.Warn("answering callback failed", zap.Error(err))
	}
	b.orch.HandleButton(ctx, app.ButtonClick{AuthorID: cq.From.ID, Token: cq.Data})
}

func (b *Bot) handlePollAnswer(ctx context.Context, answer *tgbotapi.PollAnswer) {
	// A retracted vote arrives with no option IDs; the core scores the
	// abstain as incorrect.
	option := -1
	if len(answer.OptionIDs) > 0 {
		option = answer.OptionIDs[0]
	}
	b.orch.HandleAnswer(ctx, app.AnswerSubmitted{
		PollID:          answer.PollID,
		ParticipantID:   answer.User.ID,
		ParticipantName: displayName(&answer.User),
		Option:          option,
	})
}

func (b *Bot) finishAuthoring(ctx context.Context, authorID int64, args string) {
	timeLimit := 0
	if trimmed := strings.TrimSpace(args); trimmed != "" {
		parsed, err := strconv.Atoi(trimmed)
		if err != nil || parsed <= 0 {
			b.reply(ctx, authorID, "The time limit must be a positive number of seconds, e.g. /done 30")
			return
		}
		timeLimit = parsed
	}
	if err := b.orch.FinishAuthoring(ctx, authorID, timeLimit); err != nil {
		b.log.Error("finishing quiz failed", zap.Int64("author", authorID), zap.Error(err))
	}
}

func (b *Bot) startQuiz(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	quizID := strings.TrimSpace(msg.CommandArguments())
	if quizID == "" {
		b.reply(ctx, chatID, "Usage: /startquiz <quiz id>")
		return
	}

	mode := app.ModeGroup
	if msg.Chat.IsPrivate() {
		mode = app.ModeSolo
	}

	err := b.orch.StartRun(ctx, chatID, quizID, mode)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrQuizNotFound):
		b.reply(ctx, chatID, "Quiz not found.")
	case errors.Is(err, domain.ErrEmptyQuiz):
		b.reply(ctx, chatID, "That quiz has no questions.")
	default:
		b.log.Error("starting quiz failed", zap.Int64("chat", chatID), zap.String("quiz", quizID), zap.Error(err))
		b.reply(ctx, chatID, "Could not start the quiz, try again.")
	}
}

func (b *Bot) reply(ctx context.Context, chatID int64, text string) {
	if err := b.send.SendMessage(ctx, chatID, text, nil); err != nil {
		b.log.Warn("reply failed", zap.Int64("chat", chatID), zap.Error(err))
	}
}

// quizInputEvent converts a poll message received during authoring. Polls
// that are not quiz-typed carry no usable correct-option marker and are
// flagged with -1 for the core to reject.
func quizInputEvent(authorID int64, poll *tgbotapi.Poll) app.QuizPollSubmitted {
	options := make([]string, 0, len(poll.Options))
	for _, opt := range poll.Options {
		options = append(options, opt.Text)
	}
	correct := -1
	if poll.Type == "quiz" {
		correct = poll.CorrectOptionID
	}
	return app.QuizPollSubmitted{
		AuthorID: authorID,
		Prompt:   poll.Question,
		Options:  options,
		Correct:  correct,
	}
}

func displayName(user *tgbotapi.User) string {
	if user == nil {
		return ""
	}
	if user.UserName != "" {
		return "@" + user.UserName
	}
	return strings.TrimSpace(user.FirstName + " " + user.LastName)
}
