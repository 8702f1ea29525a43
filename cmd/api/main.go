package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/travelglobe/travelglobe-go/internal/cache"
	"github.com/travelglobe/travelglobe-go/internal/config"
	"github.com/travelglobe/travelglobe-go/internal/crypto"
	"github.com/travelglobe/travelglobe-go/internal/handler"
	"github.com/travelglobe/travelglobe-go/internal/middleware"
	"github.com/travelglobe/travelglobe-go/internal/model"
	"github.com/travelglobe/travelglobe-go/internal/repository"
	"github.com/travelglobe/travelglobe-go/internal/service"
	"github.com/travelglobe/travelglobe-go/internal/upstream"
)

type accountStores struct {
	users  service.UserStore
	travel service.TravelStore
	db     *sql.DB
}

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, using environment variables")
	}

	cfg := config.Load()
	setupLogger(cfg)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	svcMetrics := service.NewMetrics(reg)
	cacheMetrics := cache.NewMetrics(reg)

	tokens := crypto.NewTokenIssuer(cfg.JWTSecret, cfg.JWTExpiry)

	stores, err := openStores(cfg)
	if err != nil {
		slog.Warn("database connection failed, account routes disabled", "error", err)
	}
	if stores.db != nil {
		defer stores.db.Close()
	}

	routes := handler.RouterConfig{
		Verifier:      tokens,
		Metrics:       promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		AuthRateLimit: middleware.RateLimit(5, 10),
	}

	var travelService *service.TravelService
	if err == nil {
		authService, err := service.NewAuthService(stores.users, tokens, svcMetrics)
		if err != nil {
			slog.Error("auth service init failed", "error", err)
			os.Exit(1)
		}
		travelService = service.NewTravelService(stores.travel, svcMetrics)

		routes.Auth = handler.NewAuthHandler(authService)
		routes.Travel = handler.NewTravelHandler(travelService)
		routes.Users = stores.users
	}

	infoStore, newsStore, closeCache := openCaches(cfg)
	defer closeCache()

	httpClient := upstream.NewHTTPClient(cfg.UpstreamTimeout)
	cacheOpts := cache.Options{FetchTimeout: cfg.UpstreamTimeout, Metrics: cacheMetrics}
	enrichment := service.NewEnrichmentService(service.EnrichmentConfig{
		Countries: upstream.NewRestCountriesClient(cfg.RestCountriesURL, httpClient),
		News:      upstream.NewGNewsClient(cfg.GNewsURL, cfg.GNewsAPIKey, cfg.NewsRatePerMinute, httpClient),
		InfoCache: cache.NewProxy("country_info", infoStore, cacheOpts),
		NewsCache: cache.NewProxy("country_news", newsStore, cacheOpts),
		InfoTTL:   cfg.CountryInfoTTL,
		NewsTTL:   cfg.NewsTTL,
	})
	routes.Enrichment = handler.NewEnrichmentHandler(enrichment, travelService)

	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.Host, cfg.Port),
		Handler:           handler.NewRouter(routes),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", srv.Addr, "env", cfg.Env, "storage", cfg.Storage)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}

func setupLogger(cfg config.Config) {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	var h slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if cfg.IsProduction() {
		h = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(h))
}

// openStores returns the account stores for cfg.Storage. A MySQL failure
// is returned so the caller can serve 503s instead of exiting.
func openStores(cfg config.Config) (accountStores, error) {
	if cfg.Storage == "memory" {
		slog.Warn("using in-memory account storage, data is lost on restart")
		mem := repository.NewMemoryStore()
		return accountStores{users: mem, travel: mem}, nil
	}

	db, err := repository.NewDB(cfg.DatabaseDSN)
	if err != nil {
		return accountStores{}, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := repository.Migrate(ctx, db); err != nil {
		db.Close()
		return accountStores{}, err
	}

	return accountStores{
		users:  repository.NewUserRepository(db),
		travel: repository.NewTravelRepository(db),
		db:     db,
	}, nil
}

// openCaches picks Redis when REDIS_URL is set and reachable, otherwise a
// per-process LRU.
func openCaches(cfg config.Config) (cache.Store[json.RawMessage], cache.Store[[]model.NewsArticle], func()) {
	if cfg.RedisURL != "" {
		client, err := openRedis(cfg.RedisURL)
		if err == nil {
			slog.Info("using redis enrichment cache")
			return cache.NewRedisStore[json.RawMessage](client, "travelglobe:country-info:"),
				cache.NewRedisStore[[]model.NewsArticle](client, "travelglobe:country-news:"),
				func() { client.Close() }
		}
		slog.Warn("redis unavailable, falling back to in-process cache", "error", err)
	}

	infoStore, err := cache.NewMemoryStore[json.RawMessage](cfg.CacheMaxEntries)
	if err != nil {
		slog.Error("cache init failed", "error", err)
		os.Exit(1)
	}
	newsStore, err := cache.NewMemoryStore[[]model.NewsArticle](cfg.CacheMaxEntries)
	if err != nil {
		slog.Error("cache init failed", "error", err)
		os.Exit(1)
	}
	return infoStore, newsStore, func() {}
}

func openRedis(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, errors.Join(errors.New("redis ping failed"), err)
	}
	return client, nil
}
