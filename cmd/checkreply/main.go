// cmd/checkreply runs one reply-correlation sweep over every hub's mailbox
// and exits. It is intended to be invoked periodically, e.g. from cron.
package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/unclebandit/hubmailer/internal/config"
	"github.com/unclebandit/hubmailer/internal/db"
	"github.com/unclebandit/hubmailer/internal/logger"
	"github.com/unclebandit/hubmailer/internal/repository"
	"github.com/unclebandit/hubmailer/internal/service"
)

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on OS environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config:", err)
	}

	zlog, err := logger.New(cfg.Environment)
	if err != nil {
		log.Fatal("failed to create logger:", err)
	}
	defer zlog.Sync()

	conn, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		zlog.Fatal("failed to establish database connection", zap.Error(err))
	}
	defer conn.Close()

	emailRepo := &repository.EmailRepository{DB: conn}

	correlator := &service.Correlator{
		Hubs:    &repository.HubRepository{DB: conn},
		Emails:  emailRepo,
		Tracker: service.NewStatusTracker(emailRepo, zlog),
		Dialer:  service.NewIMAPDialer(),
		Domain:  cfg.Domain,
		Logger:  zlog,
	}

	if err := correlator.Sweep(context.Background()); err != nil {
		zlog.Fatal("reply sweep failed", zap.Error(err))
	}

	zlog.Info("reply sweep finished")
}
