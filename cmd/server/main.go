// cmd/server exposes the delivery core's HTTP collaborators: the tracking
// pixel endpoint linked from outbound mail and the manual retry action.
package main

import (
	"context"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/unclebandit/hubmailer/internal/config"
	"github.com/unclebandit/hubmailer/internal/db"
	"github.com/unclebandit/hubmailer/internal/handler"
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

	publisher, err := queue.NewPublisher(context.Background(), cfg.ZMQAddress, zlog)
	if err != nil {
		zlog.Fatal("failed to connect to job queue", zap.Error(err))
	}
	defer publisher.Close()

	emailRepo := &repository.EmailRepository{DB: conn}
	tracker := service.NewStatusTracker(emailRepo, zlog)

	trackHandler := &handler.TrackHandler{
		Emails:  emailRepo,
		Tracker: tracker,
		Logger:  zlog,
	}
	emailHandler := &handler.EmailHandler{
		Emails:  emailRepo,
		Tracker: tracker,
		Queue:   publisher,
		Logger:  zlog,
	}

	r := chi.NewRouter()
	r.Get("/track/{recipientID}", trackHandler.TrackEmail)
	r.Post("/emails/{emailID}/retry", emailHandler.RetryEmail)

	zlog.Info("server running", zap.String("addr", cfg.ServerAddr))
	if err := http.ListenAndServe(cfg.ServerAddr, r); err != nil {
		zlog.Fatal("server stopped", zap.Error(err))
	}
}
