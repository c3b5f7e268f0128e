package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/httprate"

	config "github.com/loyclub/loyalty-services/configs"
	"github.com/loyclub/loyalty-services/internal/db"
	"github.com/loyclub/loyalty-services/internal/googlewallet"
	nats "github.com/loyclub/loyalty-services/internal/nats"
	"github.com/loyclub/loyalty-services/internal/passkit"
	"github.com/loyclub/loyalty-services/internal/walletsvc/broker"
	svcconfig "github.com/loyclub/loyalty-services/internal/walletsvc/config"
	handlers "github.com/loyclub/loyalty-services/internal/walletsvc/handlers"
	"github.com/loyclub/loyalty-services/internal/walletsvc/service"
	"github.com/loyclub/loyalty-services/internal/walletsvc/store"
	log "github.com/sirupsen/logrus"
)

const SERVICE_NAME = "wallet"

var instanceId string

func init() {
	instanceId = "001"
	config.Logging(SERVICE_NAME + "_service_" + instanceId)
	config.LoadEnv(SERVICE_NAME)
}

func main() {
	cfg := svcconfig.Load()

	// mongo connection
	database, cancelDB, err := db.ConnectToDB()
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer cancelDB()
	log.Printf("mongo connection established successfully")

	if err := db.EnsureIndexes(database); err != nil {
		log.Fatalf("Failed to ensure indexes: %v", err)
	}

	// signing identity and template assets are validated here, at startup.
	// A broken certificate refuses to start the service instead of failing
	// every generation request.
	generator, err := passkit.NewGenerator(passkit.Config{
		TeamID:       cfg.AppleTeamID,
		PassTypeID:   cfg.ApplePassTypeID,
		Organization: "Loy",
		Description:  "Loy Digital Loyalty Card",
		LogoText:     "Loy Club",
		BaseURL:      cfg.BaseURL,
		AuthSecret:   cfg.WalletAuthSecret,
		CertPath:     cfg.AppleCertPath,
		KeyPath:      cfg.AppleKeyPath,
		WWDRPath:     cfg.AppleWWDRPath,
		TemplateDir:  cfg.PassTemplateDir,
		TempDir:      cfg.PassTempDir,
	})
	if err != nil {
		log.Fatalf("Failed to initialize pass generator: %v", err)
	}

	googleLinks, err := googlewallet.NewLinkBuilder(cfg.GoogleIssuerID, cfg.GoogleLoyaltyClassID, cfg.GoogleServiceAccountPath)
	if err != nil {
		log.Fatalf("Failed to initialize Google Wallet link builder: %v", err)
	}

	// Connect to NATS; customer updated events ride on it. The service
	// still runs without the bus, updates then rely on device polling.
	var publisher *broker.Publisher
	if n, err := nats.Connect(); err != nil {
		log.Errorf("Error: unable to connect to NATS server %v", err)
		publisher = broker.NewPublisher(nil)
	} else {
		defer n.Conn.Close()
		log.Printf("NATS connection established successfully %s", n.Url)
		publisher = broker.NewPublisher(n.Conn)
	}

	customerStore := store.NewCustomerStore(database)
	transactionStore := store.NewTransactionStore(database)
	registrationStore := store.NewRegistrationStore(database)

	customerService := service.NewCustomerService(customerStore, transactionStore, publisher)
	registrationService := service.NewRegistrationService(registrationStore)
	passService := service.NewPassService(generator, customerStore, cfg.ApplePassTypeID)

	// Setup router
	r := chi.NewRouter()
	c := config.CORS()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(config.CustomLoggerMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(c.Handler)

	// to protect the service api from any over requests
	rateLimit, err := strconv.Atoi(cfg.RateLimit)
	if err != nil {
		log.Fatalf("Invalid RATE_LIMIT value: %v", err)
	}
	r.Use(httprate.LimitByIP(rateLimit, 1*time.Minute))

	// Init handlers and routes
	h := handlers.NewHandler(customerService, registrationService, passService, googleLinks,
		cfg.WalletAuthSecret, cfg.ApplePassTypeID)
	h.InitAuth()
	h.SetRoutes(r)

	// Create server with timeout settings
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe(): %v", err)
		}
	}()
	log.Infof("%s service running at port %s", SERVICE_NAME, server.Addr)

	// Wait for interrupt signal to gracefully shutdown the server
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("%s service shutdown Failed:%+v", SERVICE_NAME, err)
	}
	log.Infof("%s service gracefully stopped", SERVICE_NAME)
}
