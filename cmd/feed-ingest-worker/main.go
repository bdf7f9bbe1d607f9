package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	catcache "github.com/radieske/sports-feed-platform/internal/catalog/cache"
	"github.com/radieske/sports-feed-platform/internal/catalog/ingest"
	"github.com/radieske/sports-feed-platform/internal/catalog/repo"
	"github.com/radieske/sports-feed-platform/internal/feed-ingest/consumer"
	sharedcache "github.com/radieske/sports-feed-platform/internal/shared/cache"
	"github.com/radieske/sports-feed-platform/internal/shared/config"
	"github.com/radieske/sports-feed-platform/internal/shared/db"
	"github.com/radieske/sports-feed-platform/internal/shared/kafka"
	"github.com/radieske/sports-feed-platform/internal/shared/logger"
	"github.com/radieske/sports-feed-platform/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Inicializa dependências: Postgres e Redis
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()

	repository := repo.NewPostgres(pg)

	sctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	if err := repository.EnsureSchema(sctx); err != nil {
		cancel()
		log.Fatal("schema", zap.Error(err))
	}
	cancel()

	rdb, err := sharedcache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer rdb.Close()

	// Consumer no tópico de provedores (consumer group feed-ingest) + DLQ
	reader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicProviderMessages, "feed-ingest")
	defer reader.Close()

	dlq := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicProviderDLQ)
	defer dlq.Close()

	// Métricas Prometheus do worker
	consumed := prometheus.NewCounter(prometheus.CounterOpts{Name: "feed_ingest_messages_consumed_total", Help: "mensagens consumidas"})
	appliedCnt := prometheus.NewCounter(prometheus.CounterOpts{Name: "feed_ingest_messages_applied_total", Help: "mensagens aplicadas ao catálogo"})
	dlqCnt := prometheus.NewCounter(prometheus.CounterOpts{Name: "feed_ingest_dlq_total", Help: "mensagens enviadas à DLQ"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "feed_ingest_errors_total", Help: "erros por estágio"}, []string{"stage"})
	prometheus.MustRegister(consumed, appliedCnt, dlqCnt, errorsBy)

	engine := &ingest.Engine{
		Log:   log,
		Store: repository,
		Cache: catcache.New(rdb),
	}

	proc := &consumer.Consumer{
		Log:        log,
		Reader:     reader,
		Engine:     engine,
		DLQ:        dlq,
		OnConsumed: consumed.Inc,
		OnApplied:  appliedCnt.Inc,
		OnDLQ:      dlqCnt.Inc,
		OnError:    func(stage string) { errorsBy.WithLabelValues(stage).Inc() },
	}

	// metrics/health
	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, func(hctx context.Context) error {
		if err := pg.PingContext(hctx); err != nil {
			return err
		}
		return rdb.Ping(hctx).Err()
	})
	defer metricsSrv.Close()
	log.Info("metrics/health", zap.String("addr", metricsSrv.Addr))

	log.Info("feed-ingest-worker consuming", zap.String("topic", cfg.TopicProviderMessages))
	if err := proc.Run(ctx); err != nil && err != context.Canceled {
		log.Fatal("consumer", zap.Error(err))
	}
	log.Info("feed-ingest-worker stopped")
}
