package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"quizhost/internal/app"
	"quizhost/internal/config"
	"quizhost/internal/infra/memory"
	pgstore "quizhost/internal/infra/postgres"
	redisstore "quizhost/internal/infra/redis"
	"quizhost/internal/transport/telegram"
)

// NewStartCmd builds the CLI subcommand to start the bot.
func NewStartCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBot(cmd.Context(), *configPath)
		},
	}
}

func runBot(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Telegram.Token == "" {
		return errors.New("telegram token not configured (telegram.token or TELEGRAM_BOT_TOKEN)")
	}

	log, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
			return err
		}
	}

	var store app.QuizStore = memory.NewQuizStore()
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pool.Close()
		store = pgstore.NewQuizStore(pool)
	}

	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
		store = redisstore.NewQuizStore(client, store, quizTTL)
	}

	api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return fmt.Errorf("telegram api: %w", err)
	}

	pollTimeLimit := time.Duration(cfg.Quiz.PollTimeLimitSeconds) * time.Second
	orch := app.NewOrchestrator(
		telegram.NewMessenger(api),
		store,
		memory.NewAuthoringRegistry(),
		memory.NewRunRegistry(),
		log,
		pollTimeLimit,
	)

	bot := telegram.NewBot(api, orch, log)
	log.Info("quizhost starting")
	if err := bot.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("quizhost stopped")
	return nil
}
