package collection

import (
	"context"
	"fmt"
	"time"

	"collection-tracker/internal/collection/adapter/catalog"
	collectionhttp "collection-tracker/internal/collection/adapter/http"
	"collection-tracker/internal/collection/adapter/persistence/memory"
	"collection-tracker/internal/collection/adapter/persistence/mongodb"
	redisfeed "collection-tracker/internal/collection/adapter/persistence/redis"
	"collection-tracker/internal/collection/adapter/security"
	"collection-tracker/internal/collection/config"
	"collection-tracker/internal/collection/domain/repository"
	"collection-tracker/internal/collection/usecase"
	"collection-tracker/internal/shared/eventbus"
	"collection-tracker/internal/shared/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// ModuleDeps are the shared clients the module is built on. MongoDB is
// required for the mongodb storage backend; Redis is only used when the
// change feed is enabled.
type ModuleDeps struct {
	MongoDB *mongo.Database
	Redis   *redis.Client
	Logger  logger.Logger
}

// CollectionModule represents the complete collection module
type CollectionModule struct {
	usecase    usecase.CollectionUsecaseInterface
	handler    *collectionhttp.CollectionHTTPHandler
	middleware *collectionhttp.Middleware
	tokenSvc   *security.TokenService
	events     *eventbus.EventBus
	config     *config.CollectionConfig
	logger     logger.Logger
}

type stores struct {
	cards   repository.CardRecordStore
	sets    repository.SetAggregateStore
	outbox  repository.ReconciliationOutbox
	catalog repository.CatalogReader
}

// NewCollectionModule creates a new collection module instance
func NewCollectionModule(ctx context.Context, cfg *config.CollectionConfig, deps ModuleDeps) (*CollectionModule, error) {
	log := deps.Logger
	if log == nil {
		log = logger.NewLogger()
	}

	st, err := newStores(ctx, cfg, deps.MongoDB, log)
	if err != nil {
		return nil, err
	}

	cached, err := catalog.NewCachedCatalog(st.catalog, cfg.CatalogCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog cache: %w", err)
	}

	events := eventbus.NewEventBusWithConfig(log, eventbus.BusConfig{
		MaxRetries: cfg.Retry.CompensationMaxRetries,
		RetryDelay: cfg.Retry.InitialInterval,
	})
	if cfg.ChangeFeedEnabled {
		if deps.Redis == nil {
			return nil, fmt.Errorf("change feed enabled but no redis client configured")
		}
		redisfeed.NewChangeFeed(deps.Redis, cfg.ChangeStream, cfg.ChangeStreamMaxLen, log).Subscribe(events)
	}

	tokenSvc, err := security.NewTokenService(cfg.JWTSecret, cfg.JWTIssuer)
	if err != nil {
		return nil, fmt.Errorf("failed to create token service: %w", err)
	}

	collectionUsecase := usecase.NewCollectionUsecase(usecase.Dependencies{
		Cards:   st.cards,
		Sets:    st.sets,
		Outbox:  st.outbox,
		Catalog: cached,
		Events:  events,
		Logger:  log,
		Retry:   cfg.Retry,
	})

	return &CollectionModule{
		usecase:    collectionUsecase,
		handler:    collectionhttp.NewCollectionHTTPHandler(collectionUsecase),
		middleware: collectionhttp.NewMiddleware(tokenSvc),
		tokenSvc:   tokenSvc,
		events:     events,
		config:     cfg,
		logger:     log.WithComponent("collection_module"),
	}, nil
}

func newStores(ctx context.Context, cfg *config.CollectionConfig, db *mongo.Database, log logger.Logger) (*stores, error) {
	switch cfg.StorageBackend {
	case config.StorageMemory:
		return &stores{
			cards:   memory.NewCardRecordStore(),
			sets:    memory.NewSetAggregateStore(),
			outbox:  memory.NewReconciliationOutbox(),
			catalog: memory.NewCatalog(),
		}, nil
	case config.StorageMongo:
		if db == nil {
			return nil, fmt.Errorf("mongodb storage selected but no database provided")
		}
		cards := mongodb.NewMongoCollectionAdapter(db.Collection(cfg.CardsCollection))
		outbox := mongodb.NewMongoCollectionAdapter(db.Collection(cfg.OutboxCollection))
		if err := mongodb.EnsureIndexes(ctx, cards, outbox); err != nil {
			return nil, err
		}
		return &stores{
			cards:   mongodb.NewCardRecordStore(cards, log),
			sets:    mongodb.NewSetAggregateStore(mongodb.NewMongoCollectionAdapter(db.Collection(cfg.SetsCollection)), log),
			outbox:  mongodb.NewReconciliationOutbox(outbox),
			catalog: mongodb.NewCatalogReader(mongodb.NewMongoCollectionAdapter(db.Collection(cfg.CatalogCollection))),
		}, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

// RegisterRoutes registers the collection routes with the provided router
func (m *CollectionModule) RegisterRoutes(router fiber.Router) {
	v1 := router.Group("/v1", m.middleware.RequestID(), m.middleware.WithRequestContext())
	m.handler.SetupCollectionRoutes(v1, m.middleware)
}

// GetUsecase returns the collection usecase for external access
func (m *CollectionModule) GetUsecase() usecase.CollectionUsecaseInterface {
	return m.usecase
}

// GetTokenService returns the bearer token service
func (m *CollectionModule) GetTokenService() *security.TokenService {
	return m.tokenSvc
}

// GetEventBus returns the module's in-process event bus
func (m *CollectionModule) GetEventBus() eventbus.EventBusInterface {
	return m.events
}

// RunReconciler drains the reconciliation outbox every interval until ctx
// is cancelled.
func (m *CollectionModule) RunReconciler(ctx context.Context) {
	interval := m.config.Reconcile.Interval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.ReconcileOnce(ctx)
		}
	}
}

// ReconcileOnce runs a single outbox drain and logs its outcome
func (m *CollectionModule) ReconcileOnce(ctx context.Context) int {
	resolved, err := m.usecase.ProcessReconciliations(ctx, m.config.Reconcile.BatchSize)
	if err != nil {
		m.logger.Warn("Reconciliation pass incomplete", "resolved", resolved, "error", err)
	} else if resolved > 0 {
		m.logger.Info("Reconciliation pass finished", "resolved", resolved)
	}
	return resolved
}

// Stop performs cleanup when the module is shut down
func (m *CollectionModule) Stop() error {
	for _, eventType := range m.events.GetEventTypes() {
		m.events.Unsubscribe(eventType)
	}
	return nil
}
