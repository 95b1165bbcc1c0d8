package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	apihttp "github.com/mjoly/fete-invites/internal/http"
	"github.com/mjoly/fete-invites/internal/invite"
	"github.com/mjoly/fete-invites/internal/mailer"
	"github.com/mjoly/fete-invites/internal/service"
	"github.com/mjoly/fete-invites/internal/store"
	"github.com/mjoly/fete-invites/internal/store/memory"
	"github.com/mjoly/fete-invites/internal/store/postgres"
	"github.com/mjoly/fete-invites/internal/token"
	"github.com/mjoly/fete-invites/pkg/config"
	"github.com/mjoly/fete-invites/pkg/database"
	"github.com/mjoly/fete-invites/pkg/events"
	"github.com/mjoly/fete-invites/pkg/logger"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	ctx := context.Background()

	// Guest storage
	var guestStore store.GuestStore
	switch cfg.Store.Driver {
	case "postgres":
		pool, err := database.Connect(ctx, cfg.Store)
		if err != nil {
			logger.Error("Failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		guestStore = postgres.NewGuestRepo(pool)
	default:
		logger.Info("Using in-memory guest store", "driver", cfg.Store.Driver)
		guestStore = memory.New()
	}

	// Refresh token registry
	var registry token.Registry
	if cfg.Redis.URL != "" {
		redisRegistry, err := token.NewRedisRegistry(cfg.Redis.URL, cfg.Auth.RefreshTokenTTL)
		if err != nil {
			logger.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		registry = redisRegistry
	} else {
		registry = token.NewMemoryRegistry()
	}

	// Event bus
	var bus events.EventBus = events.NopBus{}
	if cfg.NATS.URL != "" {
		natsBus, err := events.NewNATSEventBus(cfg.NATS.URL)
		if err != nil {
			logger.Error("Failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer natsBus.Close()
		bus = natsBus
	}

	// Mailer
	var mail mailer.Service
	switch {
	case cfg.Email.DevMode:
		mail = mailer.NewDevMailer()
	case cfg.Email.MailerSendKey != "":
		mail = mailer.NewMailerSend(cfg.Email.MailerSendKey, cfg.Email.FromName, cfg.Email.SMTPFrom)
	default:
		mail = mailer.NewSMTPMailer(cfg.Email.SMTPHost, cfg.Email.SMTPPort, cfg.Email.SMTPFrom, cfg.Email.SMTPUser, cfg.Email.SMTPPass)
	}

	qrStore, err := invite.NewDiskStore(cfg.Invites.QRDir)
	if err != nil {
		logger.Error("Failed to prepare QR code directory", "error", err, "dir", cfg.Invites.QRDir)
		os.Exit(1)
	}
	codes := invite.NewGenerator(cfg.Invites.CodeLength)

	tokens := token.NewService(registry, cfg.Auth)
	guests := service.NewGuestService(guestStore, codes, qrStore, mail, bus, cfg.Invites)
	rsvp := service.NewRSVPService(guestStore, mail, bus)

	handler := apihttp.NewRouter(cfg, tokens, guests, rsvp, qrStore.Dir())

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down invitation API...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Shutdown error", "error", err)
		}
	}()

	logger.Info("Starting invitation API", "port", cfg.Server.Port, "env", cfg.Server.Env)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
}
