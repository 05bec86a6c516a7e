// cmd/worker/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/babarakshay2019/bulk-email-campaign-system/internal/config"
	"github.com/babarakshay2019/bulk-email-campaign-system/internal/db"
	"github.com/babarakshay2019/bulk-email-campaign-system/internal/mailer"
	"github.com/babarakshay2019/bulk-email-campaign-system/internal/metrics"
	"github.com/babarakshay2019/bulk-email-campaign-system/internal/queue"
	"github.com/babarakshay2019/bulk-email-campaign-system/internal/repository"
	"github.com/babarakshay2019/bulk-email-campaign-system/internal/service"
)

// The worker binary consumes the campaign_sends queue and runs the same
// delivery executor as the in-process pool. Concurrency comes from broker
// prefetch plus running more replicas.
func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic("failed to initialize zap logger: " + err.Error())
	}
	defer logger.Sync()

	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found, relying on OS environment variables")
	}
	cfg := config.Load()
	if cfg.Store == config.StoreMemory {
		logger.Fatal("the worker binary needs a shared store; set STORE=postgres")
	}

	metrics.Init()

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	defer conn.Close()
	if err := db.EnsureSchema(conn); err != nil {
		logger.Fatal("schema bootstrap failed", zap.Error(err))
	}

	campaignRepo := &repository.CampaignRepository{DB: conn}
	recipientRepo := &repository.RecipientRepository{DB: conn}
	snapshotRepo := &repository.CampaignRecipientRepository{DB: conn}
	logRepo := &repository.DeliveryLogRepository{DB: conn}

	var mail mailer.AttachmentMailer
	if cfg.MailerMode == config.MailerSMTP {
		mail = mailer.NewSMTP(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword,
			cfg.FromEmail, cfg.SendTimeout, logger)
	} else {
		mail = mailer.NewMock()
		logger.Info("using mock mailer")
	}

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

	q, err := queue.NewAMQP(cfg.RabbitMQURL, cfg.WorkerCount, logger)
	if err != nil {
		logger.Fatal("queue connection failed", zap.Error(err))
	}
	defer q.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Info("shutting down worker...")
		cancel()
	}()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
	go func() {
		logger.Info("worker metrics server starting", zap.String("addr", cfg.WorkerHTTPAddr))
		if err := http.ListenAndServe(cfg.WorkerHTTPAddr, mux); err != nil {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()

	logger.Info("worker running, waiting for delivery tasks")
	if err := q.Subscribe(ctx, queue.CampaignSends, func(task queue.Task) error {
		return deliverer.Execute(ctx, task)
	}); err != nil {
		logger.Fatal("consume failed", zap.Error(err))
	}
	logger.Info("worker exited")
}
