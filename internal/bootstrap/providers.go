package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"remittance-service/internal/application"
	"remittance-service/internal/config"
	"remittance-service/internal/domain"
	"remittance-service/internal/infrastructure/auth"
	infraconfig "remittance-service/internal/infrastructure/config"
	httpserver "remittance-service/internal/infrastructure/http"
	"remittance-service/internal/infrastructure/httpx"
	"remittance-service/internal/infrastructure/kafka"
	"remittance-service/internal/infrastructure/logx"
	"remittance-service/internal/infrastructure/memstore"
	"remittance-service/internal/infrastructure/metrics"
	"remittance-service/internal/infrastructure/pg"
	"remittance-service/internal/infrastructure/provider"
	redisstore "remittance-service/internal/infrastructure/redis"
	"remittance-service/internal/infrastructure/worker"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var (
	ErrMissingDBURL     = errors.New("DATABASE_URL is required for STORAGE=pg")
	ErrMissingJWTSecret = errors.New("JWT_SECRET is required")
)

const eventQueueSize = 1024

type Stores struct {
	Quotes    application.QuoteRepo
	Transfers application.TransferRepo
	UoW       application.UnitOfWork
	Ping      func(ctx context.Context) error
}

func ProvideLogger(cfg config.Config) *zap.Logger { return logx.Init(cfg.LogLevel) }

func ProvideConfig() config.Config { return config.Load() }

func ProvideDB(ctx context.Context, log *zap.Logger, cfg config.Config) (*pg.DB, func(), error) {
	if cfg.DatabaseURL == "" {
		return nil, func() {}, ErrMissingDBURL
	}
	db, err := pg.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, func() {}, err
	}
	if err := db.WaitReady(ctx, infraconfig.DefaultPGReadyWait); err != nil {
		db.Close()
		return nil, func() {}, err
	}
	if err := pg.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, func() {}, err
	}
	cleanup := func() {
		log.Info("closing pg")
		db.Close()
	}
	return db, cleanup, nil
}

// ProvideStores selects the store by STORAGE ("pg" or "memory").
func ProvideStores(ctx context.Context, log *zap.Logger, cfg config.Config) (Stores, func(), error) {
	switch cfg.Storage {
	case "pg":
		db, cleanup, err := ProvideDB(ctx, log, cfg)
		if err != nil {
			return Stores{}, func() {}, err
		}
		return Stores{
			Quotes:    pg.NewQuoteRepo(db),
			Transfers: pg.NewTransferRepo(db),
			UoW:       &pg.UnitOfWork{Pool: db.Pool, LockTimeout: cfg.LockTimeout},
			Ping:      db.Ping,
		}, cleanup, nil
	case "memory", "":
		log.Warn("using in-memory storage; data is lost on restart")
		store := memstore.New(memstore.WithLockWait(cfg.LockTimeout))
		return Stores{
			Quotes:    memstore.NewQuoteRepo(store),
			Transfers: memstore.NewTransferRepo(store),
			UoW:       &memstore.UnitOfWork{Store: store},
			Ping:      store.Ping,
		}, func() {}, nil
	default:
		return Stores{}, func() {}, fmt.Errorf("unsupported STORAGE=%q", cfg.Storage)
	}
}

func ProvideRateSource(cfg config.Config) (application.RateSource, error) {
	switch cfg.Provider {
	case "feed":
		return &provider.FeedRateSource{
			URL:              cfg.ExchangeRateAPI,
			Timeout:          cfg.RateFetchTimeout,
			MaxDecimalDigits: cfg.MaxDecimalDigits,
			Client:           &httpx.Client{HTTP: &http.Client{Timeout: cfg.RateFetchTimeout}},
		}, nil
	case "fake", "":
		return provider.DefaultFake(), nil
	default:
		return nil, fmt.Errorf("unsupported PROVIDER=%q", cfg.Provider)
	}
}

// ProvideIdempotency builds the redis store when IDEMPOTENCY_BACKEND=redis.
func ProvideIdempotency(cfg config.Config) (application.IdempotencyStore, func(), error) {
	if cfg.IdempotencyBackend != "redis" {
		return application.NoopIdempotency{}, func() {}, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	return redisstore.New(client, cfg.RedisTTL), func() { _ = client.Close() }, nil
}

// ProvidePublisher returns the kafka publisher behind an in-memory queue, or
// a noop publisher when no brokers are configured. run forwards queued events.
func ProvidePublisher(log *zap.Logger, cfg config.Config) (pub application.EventPublisher, run func(ctx context.Context), cleanup func()) {
	if len(cfg.KafkaBrokers) == 0 {
		return application.NoopPublisher{}, func(context.Context) {}, func() {}
	}
	kp := kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, infraconfig.DefaultKafkaWriteTimeout)
	q := worker.NewChanPublisher(kp, eventQueueSize, infraconfig.DefaultKafkaWriteTimeout)
	cleanup = func() {
		if err := kp.Close(); err != nil {
			log.Warn("kafka.close_failed", zap.Error(err))
		}
	}
	return q, q.Start, cleanup
}

func ProvideQuoteSettings(cfg config.Config) (application.QuoteSettings, error) {
	fees, err := cfg.FeeSchedule()
	if err != nil {
		return application.QuoteSettings{}, err
	}
	return application.QuoteSettings{
		Lifetime:       cfg.QuoteExpirePeriod,
		Fees:           fees,
		FractionDigits: domain.FractionDigits,
	}, nil
}

func ProvideSettlementSettings(cfg config.Config) (application.SettlementSettings, error) {
	limits, err := cfg.DailyLimits()
	if err != nil {
		return application.SettlementSettings{}, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return application.SettlementSettings{}, err
	}
	return application.SettlementSettings{DailyLimits: limits, Location: loc}, nil
}

func ProvideAuthenticator(cfg config.Config) (*auth.JWTAuthenticator, error) {
	if cfg.JWTSecret == "" {
		return nil, ErrMissingJWTSecret
	}
	return auth.NewJWTAuthenticator(cfg.JWTSecret), nil
}

// App is the assembled API process.
type App struct {
	Handler http.Handler
	// Background runs until ctx is done.
	Background []func(ctx context.Context)
	cleanups   []func()
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.cleanups) - 1; i >= 0; i-- {
		a.cleanups[i]()
	}
}

func InitAPI(ctx context.Context, log *zap.Logger, cfg config.Config) (*App, error) {
	app := &App{}
	fail := func(err error) (*App, error) {
		app.Close()
		return nil, err
	}

	authn, err := ProvideAuthenticator(cfg)
	if err != nil {
		return fail(err)
	}
	quoteSettings, err := ProvideQuoteSettings(cfg)
	if err != nil {
		return fail(fmt.Errorf("quote settings: %w", err))
	}
	settlementSettings, err := ProvideSettlementSettings(cfg)
	if err != nil {
		return fail(fmt.Errorf("settlement settings: %w", err))
	}
	rates, err := ProvideRateSource(cfg)
	if err != nil {
		return fail(err)
	}
	stores, closeStores, err := ProvideStores(ctx, log, cfg)
	if err != nil {
		return fail(fmt.Errorf("stores: %w", err))
	}
	app.cleanups = append(app.cleanups, closeStores)
	idem, closeIdem, err := ProvideIdempotency(cfg)
	if err != nil {
		return fail(err)
	}
	app.cleanups = append(app.cleanups, closeIdem)
	pub, runPub, closePub := ProvidePublisher(log, cfg)
	app.cleanups = append(app.cleanups, closePub)
	app.Background = append(app.Background, runPub)

	m := metrics.New()
	quotes := application.NewQuoteService(stores.Quotes, rates, quoteSettings,
		application.WithQuoteLogger(log),
		application.WithQuoteMetrics(m),
		application.WithIdempotency(idem),
	)
	settlements := application.NewSettlementService(stores.Quotes, stores.Transfers, stores.UoW, settlementSettings,
		application.WithSettlementLogger(log),
		application.WithSettlementMetrics(m),
		application.WithEventPublisher(pub),
	)

	srv := httpserver.NewServer(quotes, settlements, authn)
	srv.SetReadyCheck(stores.Ping)
	srv.SetMetricsHandler(m.Handler())
	app.Handler = httpserver.NewRouter(srv)
	return app, nil
}
