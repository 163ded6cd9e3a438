package main

import (
	"context"
	"log"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/m3rciful/meetupbot/core/config"
	"github.com/m3rciful/meetupbot/core/database"
	"github.com/m3rciful/meetupbot/core/logger"
	tg "github.com/m3rciful/meetupbot/core/telegram"
	"github.com/m3rciful/meetupbot/internal/meetup/bot"
	"github.com/m3rciful/meetupbot/internal/meetup/matcher"
	"github.com/m3rciful/meetupbot/internal/meetup/storage"
)

const defaultConfigPath = "config.yaml"

func main() {
	if err := run(); err != nil {
		log.Fatalf("meetupbot: %v", err)
	}
}

func run() error {
	_ = godotenv.Load()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = defaultConfigPath
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	if err := logger.Init(logger.Options{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Dir:     cfg.Logging.Dir,
		File:    cfg.Logging.BotFile,
		Profile: cfg.Logging.Profile,
	}); err != nil {
		return err
	}
	defer func() { _ = logger.Shutdown() }()

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if err := database.RunMigrations(cfg.Database); err != nil {
		return err
	}

	app := bot.New(bot.Options{
		Config:  cfg,
		Storage: storage.NewPostgresStorage(db),
		Matcher: matcher.New(rand.NewSource(time.Now().UnixNano())),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.BOT.Info("starting",
		slog.String("event", "starting"),
		slog.String("run_mode", cfg.Telegram.RunMode),
	)

	return tg.RunTelegram(ctx, tg.RunOptions{
		Config:      cfg,
		Registry:    app.Registry(),
		Middlewares: app.Middlewares(),
		Routes:      app.Routes(),
	})
}
