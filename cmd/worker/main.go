package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/unclebandit/opsboard-backend/internal/config"
	"github.com/unclebandit/opsboard-backend/internal/db"
	"github.com/unclebandit/opsboard-backend/internal/logging"
	"github.com/unclebandit/opsboard-backend/internal/model"
	"github.com/unclebandit/opsboard-backend/internal/queue"
	"github.com/unclebandit/opsboard-backend/internal/repository"
	"github.com/unclebandit/opsboard-backend/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)
	if err := logging.InitSentry(cfg.SentryDSN, cfg.Environment); err != nil {
		log.WithError(err).Warn("sentry disabled")
	}
	defer logging.Flush()

	if cfg.AMQPURL == "" {
		log.Fatal("AMQP_URL is required for the worker")
	}

	conn, err := db.Connect(cfg.DB)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to DB")
	}
	defer conn.Close()

	q, err := queue.DialAMQP(cfg.AMQPURL)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to queue")
	}
	defer q.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	jobs := make(chan model.OperationChange, 64)
	unsubscribe, err := q.Subscribe(queue.TopicOperationChanges, changeHandler(jobs))
	if err != nil {
		log.WithError(err).Fatal("failed to subscribe")
	}
	defer unsubscribe()

	worker := service.NewWorker(&repository.OperationRepository{DB: conn}, jobs, func(alert service.SendDateAlert) {
		logging.LogEvent("send_date_alert", log.Fields{
			"operation_id": alert.Operation.ID,
			"entity_id":    alert.Operation.EntityID,
			"kind":         alert.Operation.Kind,
			"title":        alert.Operation.Title,
			"send_date":    alert.Operation.SendDate.String(),
			"days":         alert.Days,
		})
	})
	if cfg.AlertWindowDays > 0 {
		worker.Window = cfg.AlertWindowDays
	}

	log.WithField("topic", queue.TopicOperationChanges).Info("worker running, waiting for messages")
	worker.Start(ctx)
	log.Info("worker stopped")
}

// changeHandler forwards decoded change events to jobs. Malformed bodies are
// logged and acknowledged.
func changeHandler(jobs chan<- model.OperationChange) queue.Handler {
	return func(payload any) error {
		change, err := queue.DecodeChange(payload)
		if err != nil {
			log.WithError(err).Warn("invalid change event")
			return nil
		}
		jobs <- change
		return nil
	}
}
