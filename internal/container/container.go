package container

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor" // CBOR format support for huma
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/serroba/shortlinks/internal/events"
	"github.com/serroba/shortlinks/internal/handlers"
	"github.com/serroba/shortlinks/internal/health"
	"github.com/serroba/shortlinks/internal/messaging"
	"github.com/serroba/shortlinks/internal/metrics"
	"github.com/serroba/shortlinks/internal/middleware"
	"github.com/serroba/shortlinks/internal/shortener"
	"github.com/serroba/shortlinks/internal/store"
	"go.uber.org/zap"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"

	// ConsumerGroupName is the Redis Streams consumer group of cmd/consumer.
	ConsumerGroupName = "shortlinks-log"

	connectTimeout = 5 * time.Second
)

var ErrDatabaseURLRequired = errors.New("container: database url is required for the postgres store")

// Options is the server configuration, read from flags and SERVICE_* env vars.
type Options struct {
	Port        int    `default:"5000"                  help:"Port to listen on"                            short:"p"`
	BaseURL     string `help:"Public base address of short links, defaults to http://localhost:<port>" name:"base-url"`
	DatabaseURL string `help:"Postgres connection string"                                               name:"database-url"`
	Store       string `default:"postgres"              help:"Link store backend: postgres or memory"`
	RedisAddr   string `help:"Redis address for link events, empty disables them"                      name:"redis-addr"   short:"r"`
	LogFormat   string `default:"json"                  help:"Log output format: json or console"           name:"log-format"`
	CORSOrigins string `default:"http://localhost:3000" help:"Comma separated list of allowed CORS origins" name:"cors-origins"`
}

// PublicBaseURL returns the configured base URL or the local default.
func (o *Options) PublicBaseURL() string {
	if o.BaseURL != "" {
		return o.BaseURL
	}

	return fmt.Sprintf("http://localhost:%d", o.Port)
}

// AllowedOrigins splits CORSOrigins into its entries.
func (o *Options) AllowedOrigins() []string {
	var origins []string

	for origin := range strings.SplitSeq(o.CORSOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}

	return origins
}

// Postgres wraps the pool so the injector closes it on shutdown.
type Postgres struct {
	*pgxpool.Pool
}

func (p *Postgres) Shutdown() error {
	p.Close()

	return nil
}

// Redis wraps the client so the injector closes it on shutdown.
type Redis struct {
	*redis.Client
}

func (r *Redis) Shutdown() error {
	return r.Close()
}

func LoggerPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*zap.Logger, error) {
		opts := do.MustInvoke[*Options](i)

		if opts.LogFormat == "console" {
			return zap.NewDevelopment()
		}

		return zap.NewProduction()
	})
}

func PostgresPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*Postgres, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		if opts.DatabaseURL == "" {
			return nil, ErrDatabaseURLRequired
		}

		if err := store.Migrate(opts.DatabaseURL); err != nil {
			return nil, err
		}

		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()

		pool, err := pgxpool.New(ctx, opts.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("container: connect postgres: %w", err)
		}

		if err := pool.Ping(ctx); err != nil {
			pool.Close()

			return nil, fmt.Errorf("container: ping postgres: %w", err)
		}

		logger.Info("connected to postgres")

		return &Postgres{Pool: pool}, nil
	})
}

func RedisPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*Redis, error) {
		opts := do.MustInvoke[*Options](i)

		return &Redis{Client: redis.NewClient(&redis.Options{Addr: opts.RedisAddr})}, nil
	})
}

func RepositoryPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (shortener.Repository, error) {
		opts := do.MustInvoke[*Options](i)

		switch opts.Store {
		case StoreMemory:
			return store.NewMemoryStore(), nil
		case StorePostgres:
			pg, err := do.Invoke[*Postgres](i)
			if err != nil {
				return nil, err
			}

			return store.NewPostgresStore(pg.Pool), nil
		default:
			return nil, fmt.Errorf("container: unknown store %q", opts.Store)
		}
	})
}

func MetricsPackage(i *do.Injector) {
	do.Provide(i, func(_ *do.Injector) (*prometheus.Registry, error) {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)

		return reg, nil
	})

	do.Provide(i, func(i *do.Injector) (*metrics.Metrics, error) {
		return metrics.New(do.MustInvoke[*prometheus.Registry](i))
	})
}

// PublisherGroupPackage provides the typed link event publishers. Without a
// Redis address events are discarded.
func PublisherGroupPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*messaging.PublisherGroup, error) {
		client := do.MustInvoke[*Redis](i)
		logger := do.MustInvoke[*zap.Logger](i)

		publisher, err := messaging.NewRedisPublisher(client.Client, logger)
		if err != nil {
			return nil, err
		}

		return messaging.NewPublisherGroup(publisher), nil
	})

	do.Provide(i, func(i *do.Injector) (messaging.Publish[events.LinkCreatedEvent], error) {
		if do.MustInvoke[*Options](i).RedisAddr == "" {
			return messaging.Discard[events.LinkCreatedEvent](), nil
		}

		group := do.MustInvoke[*messaging.PublisherGroup](i)

		return messaging.NewPublishFunc[events.LinkCreatedEvent](group.Publisher(), events.TopicLinkCreated), nil
	})

	do.Provide(i, func(i *do.Injector) (messaging.Publish[events.LinkVisitedEvent], error) {
		if do.MustInvoke[*Options](i).RedisAddr == "" {
			return messaging.Discard[events.LinkVisitedEvent](), nil
		}

		group := do.MustInvoke[*messaging.PublisherGroup](i)

		return messaging.NewPublishFunc[events.LinkVisitedEvent](group.Publisher(), events.TopicLinkVisited), nil
	})
}

func ServicePackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*shortener.Service, error) {
		opts := do.MustInvoke[*Options](i)

		generator, err := shortener.NewCodeGenerator()
		if err != nil {
			return nil, err
		}

		return shortener.NewService(
			do.MustInvoke[shortener.Repository](i),
			generator,
			opts.PublicBaseURL(),
			do.MustInvoke[*zap.Logger](i),
			shortener.WithRecorder(do.MustInvoke[*metrics.Metrics](i)),
			shortener.WithReservedCodes(handlers.ReservedCodes...),
		), nil
	})
}

// HTTPPackage provides the chi router and the huma API. Invoking huma.API
// registers every route on the router.
func HTTPPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*chi.Mux, error) {
		opts := do.MustInvoke[*Options](i)

		router := chi.NewMux()
		router.Use(chimw.RequestID)
		router.Use(chimw.RealIP)
		router.Use(middleware.RequestLogger(do.MustInvoke[*zap.Logger](i)))
		router.Use(chimw.Recoverer)
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.AllowedOrigins(),
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			ExposedHeaders: []string{"Location"},
			MaxAge:         300,
		}))

		router.Handle("/metrics", metrics.Handler(do.MustInvoke[*prometheus.Registry](i)))

		return router, nil
	})

	do.Provide(i, func(i *do.Injector) (huma.API, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		api := humachi.New(do.MustInvoke[*chi.Mux](i), huma.DefaultConfig("Shortlinks", "1.0.0"))
		api.UseMiddleware(middleware.RequestMeta(api))

		checkers := map[string]health.Checker{}
		if opts.Store == StorePostgres {
			checkers["postgres"] = health.NewPostgresChecker(do.MustInvoke[*Postgres](i).Pool)
		}

		if opts.RedisAddr != "" {
			checkers["redis"] = health.NewRedisChecker(do.MustInvoke[*Redis](i).Client)
		}

		health.RegisterRoutes(api, health.NewHandler(checkers))

		handlers.RegisterRoutes(api, handlers.NewLinkHandler(
			do.MustInvoke[*shortener.Service](i),
			do.MustInvoke[messaging.Publish[events.LinkCreatedEvent]](i),
			do.MustInvoke[messaging.Publish[events.LinkVisitedEvent]](i),
			logger,
		))

		return api, nil
	})
}

// ConsumerGroupPackage provides the consumers that log link events.
func ConsumerGroupPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*messaging.ConsumerGroup, error) {
		client := do.MustInvoke[*Redis](i)
		logger := do.MustInvoke[*zap.Logger](i)

		subscriber, err := messaging.NewRedisSubscriber(client.Client, ConsumerGroupName, logger)
		if err != nil {
			return nil, err
		}

		sink := events.NewLogSink(logger)

		group := messaging.NewConsumerGroup(subscriber, logger)
		group.Add(messaging.NewConsumer[events.LinkCreatedEvent](subscriber, events.TopicLinkCreated, sink.LinkCreated, logger))
		group.Add(messaging.NewConsumer[events.LinkVisitedEvent](subscriber, events.TopicLinkVisited, sink.LinkVisited, logger))

		return group, nil
	})
}
