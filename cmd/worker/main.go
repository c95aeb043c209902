package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/unclebandit/hubmailer/internal/config"
	"github.com/unclebandit/hubmailer/internal/db"
	"github.com/unclebandit/hubmailer/internal/logger"
	"github.com/unclebandit/hubmailer/internal/queue"
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
	userRepo := &repository.UserRepository{DB: conn}
	hubRepo := &repository.HubRepository{DB: conn}

	dispatcher := &service.Dispatcher{
		Emails:  emailRepo,
		Users:   userRepo,
		Hubs:    hubRepo,
		Sender:  service.NewMailer(cfg.Domain, zlog),
		Tracker: service.NewStatusTracker(emailRepo, zlog),
		Logger:  zlog,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	consumer, err := queue.NewConsumer(ctx, cfg.ZMQAddress, cfg.WorkerMaxJobs, zlog)
	if err != nil {
		zlog.Fatal("failed to bind job queue", zap.Error(err))
	}
	defer consumer.Close()

	zlog.Info("starting email worker",
		zap.String("queue", cfg.ZMQAddress),
		zap.Int64("max_jobs", cfg.WorkerMaxJobs),
	)

	err = consumer.Run(ctx, func(ctx context.Context, emailID int32) {
		if err := dispatcher.ProcessJob(ctx, int(emailID)); err != nil {
			zlog.Error("error processing delivery job",
				zap.Int32("email_id", emailID),
				zap.Error(err),
			)
		}
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		zlog.Fatal("worker stopped", zap.Error(err))
	}

	zlog.Info("worker shut down")
}
