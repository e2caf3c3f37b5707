// Package app arma el servicio a partir de la config: store, cache, limiter,
// métricas, pipeline y router HTTP.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	rdb "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/dropDatabas3/pdfsummary/internal/cache"
	"github.com/dropDatabas3/pdfsummary/internal/config"
	"github.com/dropDatabas3/pdfsummary/internal/extractor"
	healthctrl "github.com/dropDatabas3/pdfsummary/internal/http/controllers/health"
	sumctrl "github.com/dropDatabas3/pdfsummary/internal/http/controllers/summaries"
	mw "github.com/dropDatabas3/pdfsummary/internal/http/middlewares"
	"github.com/dropDatabas3/pdfsummary/internal/http/router"
	healthsvc "github.com/dropDatabas3/pdfsummary/internal/http/services/health"
	"github.com/dropDatabas3/pdfsummary/internal/jwt"
	"github.com/dropDatabas3/pdfsummary/internal/metrics"
	"github.com/dropDatabas3/pdfsummary/internal/observability/logger"
	"github.com/dropDatabas3/pdfsummary/internal/pipeline"
	"github.com/dropDatabas3/pdfsummary/internal/rate"
	"github.com/dropDatabas3/pdfsummary/internal/store"
	_ "github.com/dropDatabas3/pdfsummary/internal/store/pg"
	_ "github.com/dropDatabas3/pdfsummary/internal/store/sqlite"
	"github.com/dropDatabas3/pdfsummary/internal/summarizer"
)

// Version se completa con -ldflags en el build.
var Version = "dev"

type App struct {
	cfg     *config.Config
	repo    store.Repository
	cache   cache.Client
	metrics *metrics.Metrics
	handler http.Handler

	// overrides (tests)
	registry   *prometheus.Registry
	summarizer summarizer.Summarizer
	extractor  pipeline.Extractor
}

type Option func(*App)

// WithRegistry usa un registry propio en vez del global.
func WithRegistry(reg *prometheus.Registry) Option { return func(a *App) { a.registry = reg } }

// WithSummarizer reemplaza el cliente Gemini.
func WithSummarizer(s summarizer.Summarizer) Option { return func(a *App) { a.summarizer = s } }

// WithExtractor reemplaza el extractor HTTP+PDF.
func WithExtractor(e pipeline.Extractor) Option { return func(a *App) { a.extractor = e } }

// New construye todas las dependencias. Si algo falla se cierra lo ya abierto.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (_ *App, err error) {
	a := &App{cfg: cfg}
	for _, o := range opts {
		o(a)
	}
	log := logger.Named("app")

	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	// 1) Store
	a.repo, err = store.Open(ctx, store.Config{
		Driver:          cfg.Storage.Driver,
		DSN:             cfg.Storage.DSN,
		MaxOpenConns:    cfg.Storage.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Storage.Postgres.MaxIdleConns,
		ConnMaxLifetime: config.MustDuration(cfg.Storage.Postgres.ConnMaxLifetime),
	})
	if err != nil {
		return nil, fmt.Errorf("app: open store: %w", err)
	}
	if cfg.Flags.Migrate {
		res, err := a.repo.Migrate(ctx)
		if err != nil {
			return nil, fmt.Errorf("app: migrate: %w", err)
		}
		log.Info("migrations applied",
			logger.Int("applied", len(res.Applied)), logger.Int("skipped", len(res.Skipped)), logger.Duration(res.Duration))
	}

	// 2) Cache
	a.cache, err = cache.New(ctx, cache.Config{
		Driver:   cfg.Cache.Kind,
		Addr:     cfg.Cache.Redis.Addr,
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
		Prefix:   cfg.Cache.Redis.Prefix,
	})
	if err != nil {
		return nil, fmt.Errorf("app: cache: %w", err)
	}

	// 3) Métricas
	a.metrics, err = metrics.New(a.registry)
	if err != nil {
		return nil, fmt.Errorf("app: metrics: %w", err)
	}
	if p, ok := a.repo.(interface{ PoolStats() *pgxpool.Stat }); ok {
		if err := a.metrics.RegisterPool(p.PoolStats); err != nil {
			return nil, fmt.Errorf("app: pool metrics: %w", err)
		}
	}

	// 4) Pipeline
	if a.summarizer == nil {
		a.summarizer, err = summarizer.NewGemini(ctx, summarizer.Config{
			APIKey:          cfg.Summarizer.APIKey,
			Model:           cfg.Summarizer.Model,
			Temperature:     cfg.Summarizer.Temperature,
			TopP:            cfg.Summarizer.TopP,
			TopK:            cfg.Summarizer.TopK,
			MaxOutputTokens: cfg.Summarizer.MaxOutputTokens,
		})
		if err != nil {
			return nil, err
		}
	}
	if a.extractor == nil {
		a.extractor = extractor.New(extractor.Options{
			MaxFileBytes: cfg.Extractor.MaxFileBytes,
			MaxPages:     cfg.Extractor.MaxPages,
		})
	}
	adapter := store.NewAdapter(a.repo,
		store.WithKnownUserCache(a.cache, config.MustDuration(cfg.Cache.KnownUserTTL)))

	p := pipeline.New(pipeline.Options{
		Extractor:     a.extractor,
		Summarizer:    a.summarizer,
		Persister:     adapter,
		Observer:      a.metrics,
		MaxInputChars: cfg.Summarizer.MaxInputChars,
	})

	// 5) Auth
	verifier, err := jwt.NewVerifier(jwt.Config{
		HMACSecret:    cfg.Auth.HMACSecret,
		PublicKeyFile: cfg.Auth.PublicKeyFile,
		Issuer:        cfg.Auth.Issuer,
		Audience:      cfg.Auth.Audience,
	})
	if err != nil {
		return nil, fmt.Errorf("app: jwt: %w", err)
	}

	// 6) HTTP
	health := healthsvc.NewService(healthsvc.Deps{
		DBCheck:    a.repo.Ping,
		CacheCheck: a.cache.Ping,
		CacheStats: a.cache.Stats,
		CacheKind:  cfg.Cache.Kind,
		Version:    Version,
	})
	a.handler = router.New(router.Deps{
		Summaries:      sumctrl.NewController(p, cfg.Server.MaxBodyBytes),
		Health:         healthctrl.NewController(health),
		Verifier:       verifier,
		RateLimit:      a.rateLimit(),
		CORSOrigins:    cfg.Server.CORSAllowedOrigins,
		Metrics:        a.metrics.Middleware,
		MetricsHandler: a.metrics.Handler(),
	})

	log.Info("app ready",
		logger.String("store", a.repo.Name()),
		logger.String("cache", cfg.Cache.Kind),
		logger.Bool("rate_limit", cfg.Rate.Enabled),
	)
	return a, nil
}

// rateLimit elige Redis si el cache es Redis (ventana compartida entre
// réplicas), si no memoria.
func (a *App) rateLimit() mw.RateLimitConfig {
	if !a.cfg.Rate.Enabled {
		return mw.RateLimitConfig{}
	}
	window := config.MustDuration(a.cfg.Rate.Window)
	maxReq := a.cfg.Rate.MaxRequests

	var l rate.Limiter
	if rc, ok := a.cache.(interface{ Raw() *rdb.Client }); ok {
		prefix := "rl:"
		if p := strings.TrimSpace(a.cfg.Cache.Redis.Prefix); p != "" {
			prefix = p + ":rl:"
		}
		l = rate.NewRedisLimiter(rc.Raw(), prefix, maxReq, window)
	} else {
		l = rate.NewMemoryLimiter(maxReq, window)
	}
	return mw.RateLimitConfig{Limiter: l, Max: int64(maxReq), Observer: a.metrics}
}

// Handler devuelve el handler raíz (tests y servidores embebidos).
func (a *App) Handler() http.Handler { return a.handler }

// Run sirve HTTP hasta que ctx se cancele y luego hace shutdown ordenado.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.cfg.Server.Addr,
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.L().Info("http listening", logger.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), config.MustDuration(a.cfg.Server.ShutdownTimeout))
		defer cancel()
		logger.L().Info("http shutting down")
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}

// Close libera store y cache.
func (a *App) Close() error {
	var errs []error
	if a.cache != nil {
		errs = append(errs, a.cache.Close())
	}
	if a.repo != nil {
		errs = append(errs, a.repo.Close())
	}
	return errors.Join(errs...)
}

// Migrate abre el store y aplica las migraciones, sin levantar el resto.
func Migrate(ctx context.Context, cfg *config.Config) (*store.MigrationResult, error) {
	repo, err := store.Open(ctx, store.Config{Driver: cfg.Storage.Driver, DSN: cfg.Storage.DSN})
	if err != nil {
		return nil, err
	}
	defer repo.Close()
	return repo.Migrate(ctx)
}
