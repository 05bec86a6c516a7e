// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/babarakshay2019/bulk-email-campaign-system/internal/config"
	"github.com/babarakshay2019/bulk-email-campaign-system/internal/db"
	"github.com/babarakshay2019/bulk-email-campaign-system/internal/handler"
	"github.com/babarakshay2019/bulk-email-campaign-system/internal/mailer"
	"github.com/babarakshay2019/bulk-email-campaign-system/internal/metrics"
	"github.com/babarakshay2019/bulk-email-campaign-system/internal/queue"
	"github.com/babarakshay2019/bulk-email-campaign-system/internal/repository"
	"github.com/babarakshay2019/bulk-email-campaign-system/internal/service"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic("failed to initialize zap logger: " + err.Error())
	}
	defer logger.Sync()

	// Load .env
	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found, relying on OS environment variables")
	}
	cfg := config.Load()

	metrics.Init()

	var (
		campaignRepo  repository.CampaignRepositoryInterface
		recipientRepo repository.RecipientRepositoryInterface
		snapshotRepo  repository.CampaignRecipientRepositoryInterface
		logRepo       repository.DeliveryLogRepositoryInterface
	)
	if cfg.Store == config.StoreMemory {
		store := repository.NewMemoryStore()
		campaignRepo = store.Campaigns()
		recipientRepo = store.Recipients()
		snapshotRepo = store.CampaignRecipients()
		logRepo = store.DeliveryLogs()
		logger.Info("using in-memory store")
	} else {
		conn, err := db.Open(cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("database connection failed", zap.Error(err))
		}
		defer conn.Close()
		if err := db.EnsureSchema(conn); err != nil {
			logger.Fatal("schema bootstrap failed", zap.Error(err))
		}
		campaignRepo = &repository.CampaignRepository{DB: conn}
		recipientRepo = &repository.RecipientRepository{DB: conn}
		snapshotRepo = &repository.CampaignRecipientRepository{DB: conn}
		logRepo = &repository.DeliveryLogRepository{DB: conn}
	}

	var mail mailer.AttachmentMailer
	if cfg.MailerMode == config.MailerSMTP {
		mail = mailer.NewSMTP(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword,
			cfg.FromEmail, cfg.SendTimeout, logger)
	} else {
		mail = mailer.NewMock()
		logger.Info("using mock mailer")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reports := &service.ReportService{
		CampaignRepo: campaignRepo,
		LogRepo:      logRepo,
		Mailer:       mail,
		AdminEmail:   cfg.AdminReportEmail,
		Log:          logger,
	}
	completion := &service.CompletionDetector{
		CampaignRepo: campaignRepo,
		SnapshotRepo: snapshotRepo,
		LogRepo:      logRepo,
		Reports:      reports,
		Log:          logger,
	}
	deliverer := &service.Deliverer{
		CampaignRepo:  campaignRepo,
		RecipientRepo: recipientRepo,
		LogRepo:       logRepo,
		Completion:    completion,
		Mailer:        mail,
		SendTimeout:   cfg.SendTimeout,
		Log:           logger,
	}

	// AMQP hands tasks to the separate worker binary; the in-memory queue
	// feeds the in-process pool.
	var q queue.Queue
	var pool *service.WorkerPool
	if cfg.QueueMode == config.QueueModeAMQP {
		amqpQueue, err := queue.NewAMQP(cfg.RabbitMQURL, cfg.WorkerCount, logger)
		if err != nil {
			logger.Fatal("queue connection failed", zap.Error(err))
		}
		defer amqpQueue.Close()
		q = amqpQueue
		logger.Info("publishing delivery tasks to RabbitMQ")
	} else {
		memQueue := queue.NewInMemoryQueue(logger)
		pool = service.NewWorkerPool(deliverer, cfg.WorkerCount, cfg.QueueSize, logger)
		if err := memQueue.Subscribe(ctx, queue.CampaignSends, func(task queue.Task) error {
			pool.Submit(task)
			return nil
		}); err != nil {
			logger.Fatal("queue subscription failed", zap.Error(err))
		}
		pool.Run(ctx)
		q = memQueue
	}

	dispatcher := &service.Dispatcher{
		SnapshotRepo: snapshotRepo,
		LogRepo:      logRepo,
		Queue:        q,
		Completion:   completion,
		Log:          logger,
	}
	scheduler := &service.Scheduler{
		CampaignRepo: campaignRepo,
		Dispatcher:   dispatcher,
		Interval:     cfg.SchedulerInterval,
		ClaimLimit:   cfg.ClaimLimit,
		Log:          logger,
	}
	go scheduler.Run(ctx)

	campaignService := &service.CampaignService{
		CampaignRepo:  campaignRepo,
		RecipientRepo: recipientRepo,
		SnapshotRepo:  snapshotRepo,
		LogRepo:       logRepo,
		Dispatcher:    dispatcher,
		Log:           logger,
	}
	recipientService := &service.RecipientService{
		RecipientRepo: recipientRepo,
		Log:           logger,
	}

	router := handler.NewRouter(
		&handler.CampaignHandler{Service: campaignService, Log: logger},
		&handler.RecipientHandler{Service: recipientService, Log: logger},
	)

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("forced shutdown", zap.Error(err))
	}
	if pool != nil {
		pool.Stop()
	}
	logger.Info("server exited")
}
