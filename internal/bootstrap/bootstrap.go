package bootstrap

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/mansoorceksport/mobipent/internal/config"
	"github.com/mansoorceksport/mobipent/internal/domain"
	"github.com/mansoorceksport/mobipent/internal/infrastructure/mobipent"
	"github.com/mansoorceksport/mobipent/internal/repository"
	"github.com/mansoorceksport/mobipent/internal/service"
	"github.com/mansoorceksport/mobipent/internal/telemetry"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/mongo/otelmongo"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Client holds the wired services shared by the TUI and the CLI
type Client struct {
	Config  *config.Config
	Backend *mobipent.Client
	Session *service.Session
	Auth    *service.AuthService
	Uploads *service.UploadService
	History *service.HistoryService

	closers []func()
}

// Telemetry starts OpenTelemetry for a client process. The returned func flushes and stops it.
func Telemetry(ctx context.Context, cfg *config.Config) func() {
	headers := map[string]string{}
	if cfg.OTEL.Authorization != "" {
		headers["Authorization"] = cfg.OTEL.Authorization
	}

	provider, err := telemetry.Initialize(ctx, telemetry.Config{
		ServiceName:    cfg.OTEL.ServiceName,
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

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			log.Printf("Warning: OpenTelemetry shutdown: %v", err)
		}
	}
}

// New wires the backend client, credential store, file sources and history backend
func New(ctx context.Context, cfg *config.Config) (*Client, error) {
	c := &Client{Config: cfg}

	c.Backend = mobipent.NewClient(mobipent.Config{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
	})

	c.Session = service.NewSession(newCredentialStore(cfg.Credential))
	c.Auth = service.NewAuthService(c.Backend, c.Session)

	historyRepo, err := c.newHistoryRepository(ctx)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.History = service.NewHistoryService(historyRepo, cfg.History.Limit)

	metrics, err := telemetry.NewUploadMetrics()
	if err != nil {
		log.Printf("Warning: upload metrics disabled: %v", err)
	}

	c.Uploads = service.NewUploadService(
		c.Backend,
		c.Session,
		newSourceRouter(ctx, cfg),
		historyRepo,
		metrics,
		service.UploadOptions{
			RequireToken:     cfg.API.RequireToken,
			BatchConcurrency: cfg.API.BatchConcurrency,
		},
	)

	return c, nil
}

// Close releases history connections
func (c *Client) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}

func newCredentialStore(cfg config.CredentialConfig) domain.CredentialStore {
	if cfg.Backend == "file" {
		return repository.NewFileCredentialStore(cfg.File)
	}
	return repository.NewKeyringCredentialStore(repository.KeyringService)
}

func newSourceRouter(ctx context.Context, cfg *config.Config) *repository.SourceRouter {
	router := repository.NewSourceRouter()

	httpSource := repository.NewHTTPFileSource(&http.Client{
		Timeout:   cfg.API.Timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	})
	router.Register("http", httpSource)
	router.Register("https", httpSource)

	s3Source, err := repository.NewS3FileSource(ctx, cfg.S3)
	if err != nil {
		log.Printf("Warning: s3:// locations disabled: %v", err)
		return router
	}
	router.Register("s3", s3Source)
	return router
}

// newHistoryRepository returns nil when history is disabled
func (c *Client) newHistoryRepository(ctx context.Context) (domain.HistoryRepository, error) {
	cfg := c.Config

	switch cfg.History.Backend {
	case "redis":
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       0,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			redisClient.Close()
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		c.closers = append(c.closers, func() { redisClient.Close() })
		log.Println("✓ Redis connected")
		return repository.NewRedisHistoryRepository(redisClient, cfg.History.Limit), nil

	case "mongo":
		ctxMongo, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		mongoOpts := options.Client().ApplyURI(cfg.MongoDB.URI)
		if cfg.OTEL.Enabled {
			mongoOpts.SetMonitor(otelmongo.NewMonitor())
		}

		mongoClient, err := mongo.Connect(ctxMongo, mongoOpts)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
		}
		if err := mongoClient.Ping(ctxMongo, nil); err != nil {
			_ = mongoClient.Disconnect(context.Background())
			return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
		}
		c.closers = append(c.closers, func() {
			if err := mongoClient.Disconnect(context.Background()); err != nil {
				log.Printf("Error disconnecting from MongoDB: %v", err)
			}
		})
		log.Println("✓ MongoDB connected")
		return repository.NewMongoHistoryRepository(mongoClient.Database(cfg.MongoDB.Database)), nil
	}

	return nil, nil
}
