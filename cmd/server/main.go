package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/floracrm/flowershop-backend/internal/config"
	"github.com/floracrm/flowershop-backend/internal/db"
	"github.com/floracrm/flowershop-backend/internal/handler"
	"github.com/floracrm/flowershop-backend/internal/logger"
	"github.com/floracrm/flowershop-backend/internal/mailer"
	"github.com/floracrm/flowershop-backend/internal/queue"
	"github.com/floracrm/flowershop-backend/internal/repository"
	"github.com/floracrm/flowershop-backend/internal/service"
)

func main() {
	log := logger.New("server")

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
	customerRepo := &repository.CustomerRepository{DB: conn}
	audienceRepo := &repository.AudienceRepository{DB: conn}
	campaignRepo := &repository.CampaignRepository{DB: conn}
	productRepo := &repository.ProductRepository{DB: conn}

	sender := mailer.NewSMTPSender(mailer.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
	})

	// With AMQP configured, dispatch jobs go to the worker binary; without
	// it, they run in-process on the in-memory queue.
	var q queue.Queue
	if cfg.AMQPURL != "" {
		amqpQueue, err := queue.NewAMQPQueue(cfg.AMQPURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
		}
		defer amqpQueue.Close()
		q = amqpQueue
	} else {
		memQueue := queue.NewInMemoryQueue()
		dispatcher := service.NewDispatcher(campaignRepo, sender, cfg.BatchSize, cfg.BatchDelay, cfg.MaxConcurrentSends, logger.New("dispatcher"))
		if err := memQueue.Subscribe(service.DispatchJobHandler(campaignRepo, shopRepo, dispatcher, log)); err != nil {
			log.Fatal().Err(err).Msg("failed to subscribe dispatch handler")
		}
		q = memQueue
	}

	audienceService := &service.AudienceService{
		AudienceRepo: audienceRepo,
		CustomerRepo: customerRepo,
		Logger:       logger.New("audience"),
	}
	campaignService := &service.CampaignService{
		CampaignRepo: campaignRepo,
		ShopRepo:     shopRepo,
		Audiences:    audienceService,
		Queue:        q,
		Sender:       sender,
		Logger:       logger.New("campaign"),
	}

	campaignHandler := &handler.CampaignHandler{ShopRepo: shopRepo, Service: campaignService}
	audienceHandler := &handler.AudienceHandler{ShopRepo: shopRepo, Service: audienceService}
	customerHandler := &handler.CustomerHandler{ShopRepo: shopRepo, CustomerRepo: customerRepo}
	productHandler := &handler.ProductHandler{ShopRepo: shopRepo, ProductRepo: productRepo}
	settingsHandler := &handler.SettingsHandler{ShopRepo: shopRepo}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(handler.CurrentUser)

	r.Post("/campaigns", campaignHandler.CreateCampaign)
	r.Get("/campaigns", campaignHandler.ListCampaigns)
	r.Get("/campaigns/{id}", campaignHandler.GetCampaign)
	r.Get("/campaigns/{id}/status", campaignHandler.GetCampaignStatus)

	r.Post("/audiences", audienceHandler.CreateAudience)
	r.Get("/audiences", audienceHandler.ListAudiences)
	r.Get("/audiences/{id}", audienceHandler.GetAudience)
	r.Put("/audiences/{id}", audienceHandler.UpdateAudience)
	r.Delete("/audiences/{id}", audienceHandler.DeleteAudience)
	r.Post("/audiences/{id}/customers", audienceHandler.AddCustomers)
	r.Delete("/audiences/{id}/customers", audienceHandler.RemoveCustomers)

	r.Post("/customers", customerHandler.CreateCustomer)
	r.Get("/customers", customerHandler.ListCustomers)
	r.Get("/customers/{id}", customerHandler.GetCustomer)
	r.Put("/customers/{id}", customerHandler.UpdateCustomer)
	r.Delete("/customers/{id}", customerHandler.DeleteCustomer)

	r.Post("/products", productHandler.CreateProduct)
	r.Get("/products", productHandler.ListProducts)
	r.Put("/products/{id}", productHandler.UpdateProduct)
	r.Delete("/products/{id}", productHandler.DeleteProduct)

	r.Get("/settings", settingsHandler.GetSettings)
	r.Put("/settings", settingsHandler.UpdateSettings)

	log.Info().Str("addr", cfg.Addr).Msg("server running")
	if err := http.ListenAndServe(cfg.Addr, r); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
