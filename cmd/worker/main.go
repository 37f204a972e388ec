package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/floracrm/flowershop-backend/internal/config"
	"github.com/floracrm/flowershop-backend/internal/db"
	"github.com/floracrm/flowershop-backend/internal/logger"
	"github.com/floracrm/flowershop-backend/internal/mailer"
	"github.com/floracrm/flowershop-backend/internal/queue"
	"github.com/floracrm/flowershop-backend/internal/repository"
	"github.com/floracrm/flowershop-backend/internal/service"
)

// The worker owns the two asynchronous halves of the campaign pipeline: the
// cron-driven poll for due scheduled campaigns, and (when AMQP is
// configured) the consumer for immediate dispatch jobs published by the
// server.
func main() {
	log := logger.New("worker")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	conn, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer conn.Close()

	shopRepo := &repository.ShopRepository{DB: conn}
	campaignRepo := &repository.CampaignRepository{DB: conn}

	sender := mailer.NewSMTPSender(mailer.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
	})
	dispatcher := service.NewDispatcher(campaignRepo, sender, cfg.BatchSize, cfg.BatchDelay, cfg.MaxConcurrentSends, logger.New("dispatcher"))

	scheduler := &service.Scheduler{
		CampaignRepo: campaignRepo,
		ShopRepo:     shopRepo,
		Dispatcher:   dispatcher,
		Logger:       logger.New("scheduler"),
	}

	cronEngine := cron.New()
	_, err = cronEngine.AddFunc(cfg.CronSpecScheduler, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		processed, err := scheduler.ProcessScheduledCampaigns(ctx, time.Now())
		if err != nil {
			log.Error().Err(err).Msg("scheduled campaign poll failed")
			return
		}
		if processed > 0 {
			log.Info().Int("processed", processed).Msg("dispatched scheduled campaigns")
		}
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to register scheduler cron job")
	}
	cronEngine.Start()
	log.Info().Str("spec", cfg.CronSpecScheduler).Msg("scheduler polling started")

	if cfg.AMQPURL != "" {
		amqpQueue, err := queue.NewAMQPQueue(cfg.AMQPURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
		}
		defer amqpQueue.Close()
		if err := amqpQueue.Subscribe(service.DispatchJobHandler(campaignRepo, shopRepo, dispatcher, log)); err != nil {
			log.Fatal().Err(err).Msg("failed to register dispatch consumer")
		}
		log.Info().Msg("dispatch job consumer running")
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	<-cronEngine.Stop().Done()
	log.Info().Msg("worker stopped")
}
