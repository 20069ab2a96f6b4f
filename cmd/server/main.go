package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront-client/config"
	"storefront-client/internal/api"
	"storefront-client/internal/backend"
	"storefront-client/internal/broker"
	"storefront-client/internal/notify"
	"storefront-client/internal/service"
	"storefront-client/internal/store"
	"storefront-client/internal/util"
	"storefront-client/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting storefront gateway")

	tp, err := util.InitTracer("storefront-client", cfg.Observ.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer: %v", err)
		}
	}()

	stateStore, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to open state store: %v", err)
	}
	defer stateStore.Close()
	log.Printf("State store ready: driver=%s", cfg.Storage.Driver)

	var events *broker.EventPublisher
	if cfg.Kafka.Enabled() {
		producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer producer.Close()
		events = broker.NewEventPublisher(producer)
		log.Println("Kafka analytics publisher initialized")
	}

	notifier := notify.NewLog()
	navigator := notify.NopNavigator{}

	session := service.NewSessionStore(stateStore)
	client := backend.NewClient(cfg.Backend.URL, session)

	catalog := service.NewCatalogCache(client, notifier,
		time.Duration(cfg.Backend.CatalogTimeoutSeconds)*time.Second)
	cart := service.NewCartService(client, session, catalog, notifier, navigator)
	wishlist := service.NewWishlistService(client, session, stateStore, notifier, navigator)
	shop := service.NewShop(client, session, cart, wishlist, catalog, notifier, navigator, events)

	shop.Bootstrap(context.Background())

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	var catalogWorker *worker.CatalogWorker
	if cfg.Backend.CatalogRefreshInterval > 0 {
		catalogWorker = worker.NewCatalogWorker(catalog,
			time.Duration(cfg.Backend.CatalogRefreshInterval)*time.Second)
		go func() {
			if err := catalogWorker.Start(workerCtx); err != nil && err != context.Canceled {
				log.Printf("Catalog worker error: %v", err)
			}
		}()
	}

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	handler := api.NewHandler(shop, events)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	workerCancel()
	if catalogWorker != nil {
		catalogWorker.Stop()
	}

	log.Println("Server exited")
}

func openStore(cfg *config.Config) (store.Store, error) {
	switch cfg.Storage.Driver {
	case "memory":
		return store.NewMemory(), nil
	case "file":
		return store.NewFile(cfg.Storage.FilePath)
	case "redis":
		return store.NewRedis(cfg.Storage.RedisAddr, cfg.Storage.RedisPass,
			cfg.Storage.RedisDB, cfg.Storage.ClientID)
	case "postgres":
		return store.NewPostgres(cfg.Storage.PostgresURL, cfg.Storage.ClientID)
	default:
		return nil, fmt.Errorf("unknown storage driver: %q", cfg.Storage.Driver)
	}
}
