package di

import (
	"context"
	"fmt"
	"time"

	"habridge/internal/domain/repository"
	"habridge/internal/handler/api"
	"habridge/internal/handler/ws"
	internalrepo "habridge/internal/repository"
	icache "habridge/internal/service/cache"
	"habridge/internal/service/events"
	"habridge/internal/usecase"
	pkgch "habridge/pkg/clickhouse"
	"habridge/pkg/config"
	xhttp "habridge/pkg/http"
	pkgkafka "habridge/pkg/kafka"
	applogger "habridge/pkg/logger"
	"habridge/pkg/metrics"
	pkgpg "habridge/pkg/postgres"
	"habridge/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
}

// ProvideClickHouseClient creates a ClickHouse client.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvidePostgresClient creates the pgx pool and ensures schema.
func ProvidePostgresClient(cfg *config.Config) (*pkgpg.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := pkgpg.NewClient(ctx, cfg.Postgres.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres client: %w", err)
	}
	if err := internalrepo.InitTradeSchema(ctx, client.Pool()); err != nil {
		client.Close()
		return nil, fmt.Errorf("trade schema: %w", err)
	}
	if err := internalrepo.InitPositionSchema(ctx, client.Pool()); err != nil {
		client.Close()
		return nil, fmt.Errorf("position schema: %w", err)
	}
	return client, nil
}

// ProvideKafkaProducer creates the optional event-mirror producer. A nil
// producer disables mirroring.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithAsync(true),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideHub creates the WebSocket hub. Run is started by the App.
func ProvideHub(l *applogger.Logger) *ws.Hub {
	return ws.NewHub(l)
}

// ProvideBroadcaster fans events out to the hub plus the Kafka mirror.
func ProvideBroadcaster(hub *ws.Hub, producer *pkgkafka.Producer, m repository.Metrics, cfg *config.Config, l *applogger.Logger) repository.Broadcaster {
	return events.NewFanout(hub, producer, cfg.Kafka.Topic, m, l)
}

// ProvideCache picks Redis when configured, otherwise in-process TTL.
func ProvideCache(cfg *config.Config, l *applogger.Logger) icache.BytesCache {
	if cfg.Redis.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		rc, err := icache.NewRedisCache(ctx, icache.RedisConfig{
			Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err == nil {
			return rc
		}
		l.Warn("redis unavailable, using in-process cache", applogger.Error(err))
	}
	return icache.NewTTLCache()
}

// ProvideSignalStore creates the ClickHouse history store and its table.
func ProvideSignalStore(chClient *pkgch.Client, cfg *config.Config, l *applogger.Logger) (repository.SignalStore, error) {
	store := internalrepo.NewClickHouseSignalStore(chClient.DB(), cfg.ClickHouse.Database+".signals")
	store.SetLogger(l)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("signal schema: %w", err)
	}
	return store, nil
}

// ProvideTradeStore creates the Postgres command store.
func ProvideTradeStore(pgClient *pkgpg.Client) repository.TradeStore {
	return internalrepo.NewPostgresTradeStore(pgClient.Pool())
}

// ProvidePositionStore creates the Postgres position mirror.
func ProvidePositionStore(pgClient *pkgpg.Client) repository.PositionStore {
	return internalrepo.NewPostgresPositionStore(pgClient.Pool())
}

// ProvideSignalPipeline creates the ingestion use case.
func ProvideSignalPipeline(store repository.SignalStore, relay repository.Broadcaster, m repository.Metrics) *usecase.SignalPipeline {
	return usecase.NewSignalPipeline(store, relay, m)
}

// ProvideTradeQueue creates the command lifecycle use case.
func ProvideTradeQueue(store repository.TradeStore, relay repository.Broadcaster, m repository.Metrics) *usecase.TradeQueue {
	return usecase.NewTradeQueue(store, relay, m)
}

// ProvidePositionReconciler creates the position sync use case.
func ProvidePositionReconciler(store repository.PositionStore, relay repository.Broadcaster, m repository.Metrics) *usecase.PositionReconciler {
	return usecase.NewPositionReconciler(store, relay, m)
}

// ProvideHandlers collects every HTTP surface for the server.
func ProvideHandlers(
	pipeline *usecase.SignalPipeline,
	queue *usecase.TradeQueue,
	reconciler *usecase.PositionReconciler,
	cache icache.BytesCache,
	hub *ws.Hub,
	cfg *config.Config,
	l *applogger.Logger,
) []xhttp.Handler {
	return []xhttp.Handler{
		api.NewSignalsHandler(pipeline, cache, cfg.Cache.HistoryTTL, cfg.Cache.StatsTTL, l),
		api.NewTradesHandler(queue, l),
		api.NewPositionsHandler(reconciler, queue, l),
		ws.NewHandler(hub, l),
	}
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	hub *ws.Hub,
	handlers []xhttp.Handler,
	chClient *pkgch.Client,
	pgClient *pkgpg.Client,
	producer *pkgkafka.Producer,
) *server.App {
	return server.New(cfg, l, hub, handlers, chClient, pgClient, producer)
}
