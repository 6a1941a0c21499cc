package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mansoorceksport/mobipent/internal/config"
	"github.com/mansoorceksport/mobipent/internal/domain"
	"github.com/mansoorceksport/mobipent/internal/repository"
	"github.com/mansoorceksport/mobipent/internal/server"
	"github.com/mansoorceksport/mobipent/internal/telemetry"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/mongo/otelmongo"
)

func main() {
	// Load configuration
	cfg, err := config.LoadDevServer()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	log.Println("Starting MobiPent dev backend...")

	ctx := context.Background()

	headers := map[string]string{}
	if cfg.OTEL.Authorization != "" {
		headers["Authorization"] = cfg.OTEL.Authorization
	}
	otelProvider, err := telemetry.Initialize(ctx, telemetry.Config{
		ServiceName:    "mobipent-devserver",
		ServiceVersion: cfg.OTEL.ServiceVersion,
		Environment:    cfg.OTEL.Environment,
		OTLPEndpoint:   cfg.OTEL.Endpoint,
		OTLPHeaders:    headers,
		Insecure:       cfg.OTEL.Insecure,
		Enabled:        cfg.OTEL.Enabled,
	})
	if err != nil {
		log.Printf("Warning: Failed to initialize OpenTelemetry: %v", err)
	}
	if otelProvider != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			otelProvider.Shutdown(shutdownCtx)
		}()
	}

	var accounts domain.AccountRepository
	switch cfg.DevServer.AccountStore {
	case "mongo":
		// Connect to MongoDB with OpenTelemetry instrumentation
		ctxMongo, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		mongoOpts := options.Client().ApplyURI(cfg.MongoDB.URI)
		if cfg.OTEL.Enabled {
			mongoOpts.SetMonitor(otelmongo.NewMonitor())
		}

		mongoClient, err := mongo.Connect(ctxMongo, mongoOpts)
		if err != nil {
			log.Fatalf("Failed to connect to MongoDB: %v", err)
		}
		defer func() {
			if err := mongoClient.Disconnect(context.Background()); err != nil {
				log.Printf("Error disconnecting from MongoDB: %v", err)
			}
		}()

		if err := mongoClient.Ping(ctxMongo, nil); err != nil {
			log.Fatalf("Failed to ping MongoDB: %v", err)
		}
		log.Println("✓ MongoDB connected")

		accounts = repository.NewMongoAccountRepository(mongoClient.Database(cfg.MongoDB.Database))
	default:
		log.Println("✓ Using in-memory accounts")
		accounts = repository.NewMemoryAccountRepository()
	}

	app := server.NewApp(server.AppDependencies{
		Config:   cfg.DevServer,
		Accounts: accounts,
		Tracing:  cfg.OTEL.Enabled,
	})

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		log.Println("Shutting down gracefully...")
		app.Shutdown()
	}()

	log.Printf("🚀 Dev backend starting on port %s", cfg.DevServer.Port)
	if err := app.Listen(":" + cfg.DevServer.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
