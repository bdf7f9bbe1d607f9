package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	catcache "github.com/radieske/sports-feed-platform/internal/catalog/cache"
	"github.com/radieske/sports-feed-platform/internal/catalog/ingest"
	"github.com/radieske/sports-feed-platform/internal/catalog/query"
	"github.com/radieske/sports-feed-platform/internal/catalog/repo"
	httpapi "github.com/radieske/sports-feed-platform/internal/feed-api/http"
	"github.com/radieske/sports-feed-platform/internal/shared/cache"
	"github.com/radieske/sports-feed-platform/internal/shared/config"
	"github.com/radieske/sports-feed-platform/internal/shared/db"
	"github.com/radieske/sports-feed-platform/internal/shared/logger"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	// Postgres
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg", zap.Error(err))
	}
	defer pg.Close()

	repository := repo.NewPostgres(pg)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := repository.EnsureSchema(ctx); err != nil {
		cancel()
		log.Fatal("schema", zap.Error(err))
	}
	cancel()
	log.Info("catalog schema ready")

	// Redis
	rdb, err := cache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	matchCache := catcache.New(rdb)

	// Métricas Prometheus da ingestão
	applied := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "feed_api_messages_applied_total", Help: "mensagens aplicadas por tipo"}, []string{"kind"})
	duplicates := prometheus.NewCounter(prometheus.CounterOpts{Name: "feed_api_messages_duplicate_total", Help: "mensagens rejeitadas por duplicidade"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "feed_api_errors_total", Help: "erros por estágio"}, []string{"stage"})
	prometheus.MustRegister(applied, duplicates, errorsBy)

	engine := &ingest.Engine{
		Log:         log,
		Store:       repository,
		Cache:       matchCache,
		OnApplied:   func(kind string) { applied.WithLabelValues(kind).Inc() },
		OnDuplicate: duplicates.Inc,
		OnError:     func(stage string) { errorsBy.WithLabelValues(stage).Inc() },
	}

	querySvc := &query.Service{
		Store:   repository,
		Cache:   matchCache,
		BaseURL: cfg.PublicBaseURL,
	}

	// HTTP público
	api := httpapi.NewServer(log, engine, querySvc)
	apiSrv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler: api.Router(),
	}

	// metrics/health
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsMux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := pg.PingContext(r.Context()); err != nil {
			http.Error(w, "pg", http.StatusServiceUnavailable)
			return
		}
		if err := rdb.Ping(r.Context()).Err(); err != nil {
			http.Error(w, "redis", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	go func() {
		addr := fmt.Sprintf(":%s", cfg.MetricsPort)
		log.Info("metrics/health", zap.String("addr", addr))
		_ = http.ListenAndServe(addr, metricsMux)
	}()

	log.Info("feed-api listening", zap.String("addr", fmt.Sprintf(":%s", cfg.HTTPPort)))
	if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("api", zap.Error(err))
	}
}
