package main

import (
	"os"
	"os/signal"

	config "github.com/loyclub/loyalty-services/configs"
	"github.com/loyclub/loyalty-services/internal/apns"
	"github.com/loyclub/loyalty-services/internal/db"
	nats "github.com/loyclub/loyalty-services/internal/nats"
	"github.com/loyclub/loyalty-services/internal/notifysvc/broker"
	svcconfig "github.com/loyclub/loyalty-services/internal/walletsvc/config"
	"github.com/loyclub/loyalty-services/internal/walletsvc/service"
	"github.com/loyclub/loyalty-services/internal/walletsvc/store"
	log "github.com/sirupsen/logrus"
)

const SERVICE_NAME = "notify"

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

	registrationStore := store.NewRegistrationStore(database)
	registrationService := service.NewRegistrationService(registrationStore)

	// APNs is optional; without a certificate the dispatcher degrades to a
	// logged no-op and devices pick changes up on their poll schedule.
	dispatcher, err := apns.New(cfg.APNsCertPath, cfg.APNsCertPassword, cfg.ApplePassTypeID)
	if err != nil {
		log.Fatalf("Failed to initialize APNs dispatcher: %v", err)
	}

	// Connect to NATS
	n, err := nats.Connect()
	if err != nil {
		log.Errorf("Error: unable to connect to NATS server %v", err)
		os.Exit(0)
	}

	defer n.Conn.Close()
	log.Printf("NATS connection established successfully %s", n.Url)

	// subscribe to wallet service events
	b := broker.NewBroker(n.Conn, registrationService, dispatcher)
	sub, err := b.SubscribeCustomerUpdated()
	if err != nil {
		log.Errorf("Error: unable to subscribe to queue %v", err)
		os.Exit(0)
	}

	log.Infof("%s service listening for customer updates", SERVICE_NAME)

	// Wait for interrupt signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop

	sub.Unsubscribe()
	log.Infof("%s service gracefully stopped", SERVICE_NAME)
}
