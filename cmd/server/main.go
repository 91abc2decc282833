// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/unclebandit/opsboard-backend/internal/clipboard"
	"github.com/unclebandit/opsboard-backend/internal/config"
	"github.com/unclebandit/opsboard-backend/internal/controller"
	"github.com/unclebandit/opsboard-backend/internal/db"
	"github.com/unclebandit/opsboard-backend/internal/handler"
	"github.com/unclebandit/opsboard-backend/internal/indicator"
	"github.com/unclebandit/opsboard-backend/internal/logging"
	"github.com/unclebandit/opsboard-backend/internal/metrics"
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
	cfg.LogSummary()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Init DB
	conn, err := db.Connect(cfg.DB)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to DB")
	}
	defer conn.Close()
	if err := db.Migrate(ctx, conn); err != nil {
		log.WithError(err).Fatal("failed to run migrations")
	}

	checks := map[string]handler.Check{"db": conn.PingContext}

	local := queue.NewInMemoryQueue()
	var q queue.Queue = local
	if cfg.QueueDriver == config.QueueAMQP {
		remote, err := queue.DialAMQP(cfg.AMQPURL)
		if err != nil {
			log.WithError(err).Fatal("failed to connect to queue")
		}
		defer remote.Close()
		q = &queue.Tee{Local: local, Remote: remote}
	}

	var copied indicator.Indicator = indicator.NewMemory()
	if cfg.Redis.Enabled() {
		redis := indicator.NewRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		defer redis.Close()
		if err := redis.Ping(ctx); err != nil {
			log.WithError(err).Warn("redis unreachable, copied indicator may be stale")
		}
		copied = redis
		checks["redis"] = redis.Ping
	}

	// The browser owns the user's clipboard; the server keeps the last text.
	var clip clipboard.Clipboard = &clipboard.Recorder{}
	if cfg.SystemClipboard && clipboard.Available() {
		clip = clipboard.System{}
	}

	m := metrics.New()

	entityRepo := &repository.EntityRepository{DB: conn}
	operationRepo := &repository.OperationRepository{DB: conn}
	campaignRepo := &repository.CampaignRepository{DB: conn}
	templateRepo := &repository.TemplateRepository{DB: conn}
	sentRepo := &repository.SentMessageRepository{DB: conn}

	operationService := &service.OperationService{
		Repo:            operationRepo,
		Queue:           q,
		Metrics:         m,
		AlertWindowDays: cfg.AlertWindowDays,
	}

	routes := &controller.Routes{
		Entities: &controller.EntityController{Service: &service.EntityService{Repo: entityRepo}},
		Operations: &controller.OperationController{
			Service: operationService,
			Imports: &service.ImportService{
				Repo:       operationRepo,
				EntityRepo: entityRepo,
				Operations: operationService,
				Metrics:    m,
			},
		},
		Campaigns: &controller.CampaignController{
			CampaignService: &service.CampaignService{CampaignRepo: campaignRepo, EntityRepo: entityRepo},
		},
		Templates: &controller.TemplateController{
			Service: &service.TemplateService{Repo: templateRepo, EntityRepo: entityRepo},
		},
		Messages: &controller.MessageController{Service: &service.MessageService{
			Operations:   operationRepo,
			Entities:     entityRepo,
			Templates:    templateRepo,
			Sent:         sentRepo,
			Clipboard:    clip,
			Indicator:    copied,
			Metrics:      m,
			IndicatorTTL: cfg.CopiedIndicator,
		}},
		Changes: handler.NewChangesHandler(q),
		Health:  &handler.HealthHandler{Checks: checks},
		Metrics: m.Handler(),
	}

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           routes.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		// change streams end with the process signal
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("graceful shutdown failed")
		}
	}()

	log.WithField("addr", srv.Addr).Info("server running")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Fatal("server failed")
	}
	log.Info("server stopped")
}
