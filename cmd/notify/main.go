// Command notify tails the invitation event stream and logs every event,
// giving organizers a live feed of RSVPs and arrivals.
package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/mjoly/fete-invites/pkg/config"
	"github.com/mjoly/fete-invites/pkg/events"
	"github.com/mjoly/fete-invites/pkg/logger"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	if cfg.NATS.URL == "" {
		logger.Error("NATS_URL is required for the notify worker")
		os.Exit(1)
	}

	natsBus, err := events.NewNATSEventBus(cfg.NATS.URL)
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer natsBus.Close()
	var bus events.EventBus = natsBus

	subjects := []string{
		events.SubjectGuestCreated,
		events.SubjectGuestDeleted,
		events.SubjectRSVPReceived,
		events.SubjectGuestCheckedIn,
	}
	for _, subject := range subjects {
		if err := bus.Subscribe(subject, logEvent); err != nil {
			logger.Error("Failed to subscribe", "subject", subject, "error", err)
			os.Exit(1)
		}
	}

	logger.Info("Notify worker listening", "subjects", subjects)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down notify worker...")
}

func logEvent(msg *events.Message) {
	var payload map[string]any
	if err := json.Unmarshal(msg.Data, &payload); err != nil {
		logger.Warn("Malformed event payload", "subject", msg.Subject, "error", err)
		return
	}
	logger.Info("Event received", "subject", msg.Subject, "payload", payload)
}
