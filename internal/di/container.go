package di

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"collection-tracker/internal/collection"
	"collection-tracker/internal/collection/config"
	"collection-tracker/internal/shared/logger"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Pinger is the health check shared by the Mongo and Redis clients
type Pinger interface {
	Ping(ctx context.Context) error
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

// Container owns the infrastructure clients and the module built on them
type Container struct {
	mu sync.RWMutex
	// Module instances
	CollectionModule *collection.CollectionModule
	// Connections
	MongoClient *mongo.Client
	MongoDB     *mongo.Database
	Redis       *redis.Client
	// Configuration
	Config *config.CollectionConfig
	// Logger
	Logger logger.Logger

	checks  map[string]Pinger
	closers []func(ctx context.Context) error
}

// NewContainer creates a container for cfg
func NewContainer(cfg *config.CollectionConfig, log logger.Logger) *Container {
	if log == nil {
		log = logger.NewLogger()
	}
	return &Container{
		Config: cfg,
		Logger: log.WithComponent("container"),
		checks: make(map[string]Pinger),
	}
}

// ConnectMongo connects and pings MongoDB when the mongodb backend is selected
func (c *Container) ConnectMongo(ctx context.Context) error {
	if c.Config.StorageBackend != config.StorageMongo {
		return nil
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(c.Config.MongoDBURI))
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.MongoClient = client
	c.MongoDB = client.Database(c.Config.DatabaseName)
	c.checks["mongodb"] = pingerFunc(func(ctx context.Context) error { return client.Ping(ctx, nil) })
	c.closers = append(c.closers, client.Disconnect)
	c.Logger.Info("MongoDB connection established", "database", c.Config.DatabaseName)
	return nil
}

// ConnectRedis builds the Redis client when the change feed is enabled
func (c *Container) ConnectRedis(ctx context.Context) error {
	if !c.Config.ChangeFeedEnabled {
		return nil
	}

	client := config.NewRedisClient(&c.Config.Redis)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("failed to ping Redis at %s: %w", c.Config.Redis.GetAddr(), err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.Redis = client
	c.checks["redis"] = pingerFunc(func(ctx context.Context) error { return client.Ping(ctx).Err() })
	c.closers = append(c.closers, func(context.Context) error { return client.Close() })
	c.Logger.Info("Redis connection established", "addr", c.Config.Redis.GetAddr())
	return nil
}

// InitializeCollection builds the collection module on the connected clients
func (c *Container) InitializeCollection(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	module, err := collection.NewCollectionModule(ctx, c.Config, collection.ModuleDeps{
		MongoDB: c.MongoDB,
		Redis:   c.Redis,
		Logger:  c.Logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create collection module: %w", err)
	}
	c.CollectionModule = module
	return nil
}

// GetCollectionModule returns the collection module instance
func (c *Container) GetCollectionModule() *collection.CollectionModule {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.CollectionModule
}

// RegisterCheck adds a named health check
func (c *Container) RegisterCheck(name string, p Pinger) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = p
}

// HealthCheck pings every registered dependency
func (c *Container) HealthCheck(ctx context.Context) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var errs []error
	for name, p := range c.checks {
		if err := p.Ping(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s health check failed: %w", name, err))
		}
	}
	if c.CollectionModule == nil {
		errs = append(errs, errors.New("collection module not initialized"))
	}
	return errors.Join(errs...)
}

// Cleanup stops the module then closes connections in reverse order of opening
func (c *Container) Cleanup(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	if c.CollectionModule != nil {
		if err := c.CollectionModule.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop collection module: %w", err))
		}
		c.CollectionModule = nil
	}

	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	c.checks = make(map[string]Pinger)
	c.MongoClient, c.MongoDB, c.Redis = nil, nil, nil

	return errors.Join(errs...)
}

// Close gracefully shuts down all services in the container with timeout
func (c *Container) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := c.Cleanup(ctx); err != nil {
		c.Logger.Warn("Container cleanup errors", "error", err)
		return err
	}
	c.Logger.Info("Container resources closed")
	return nil
}
