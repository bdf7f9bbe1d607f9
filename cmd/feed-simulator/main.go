package main

import (
	"context"
	"encoding/json"
	"math/rand"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/sports-feed-platform/internal/shared/config"
	"github.com/radieske/sports-feed-platform/internal/shared/kafka"
	"github.com/radieske/sports-feed-platform/internal/shared/logger"
	"github.com/radieske/sports-feed-platform/internal/shared/metrics"
	"github.com/radieske/sports-feed-platform/pkg/contracts/messages"
)

// fixtures publicadas em loop: primeiro o NewEvent, depois UpdateOdds com
// odds perturbadas a cada tick
var fixtures = []messages.Event{
	{
		ID:        994839351740,
		Name:      "Real Madrid vs Barcelona",
		StartTime: "2018-06-20 10:30:00",
		Sport:     messages.Sport{ID: 221, Name: "Football"},
		Markets: []messages.Market{
			{
				ID:   385086549360973300,
				Name: "1st Half Winner",
				Selections: []messages.Selection{
					{ID: 5737666888266680000, Name: "Real Madrid", Odds: 1.85},
					{ID: 5737666888266680001, Name: "Draw", Odds: 3.20},
					{ID: 5737666888266680002, Name: "Barcelona", Odds: 2.25},
				},
			},
			{
				ID:   385086549360973400,
				Name: "Winner",
				Selections: []messages.Selection{
					{ID: 5737666888266680100, Name: "Real Madrid", Odds: 1.44},
					{ID: 5737666888266680101, Name: "Draw", Odds: 4.10},
					{ID: 5737666888266680102, Name: "Barcelona", Odds: 2.90},
				},
			},
		},
	},
	{
		ID:        994839351741,
		Name:      "Liverpool vs Manchester City",
		StartTime: "2018-06-21 18:00:00",
		Sport:     messages.Sport{ID: 221, Name: "Football"},
		Markets: []messages.Market{
			{
				ID:   385086549360973500,
				Name: "Winner",
				Selections: []messages.Selection{
					{ID: 5737666888266680200, Name: "Liverpool", Odds: 2.10},
					{ID: 5737666888266680201, Name: "Draw", Odds: 3.60},
					{ID: 5737666888266680202, Name: "Manchester City", Odds: 2.05},
				},
			},
		},
	},
}

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	writer := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicProviderMessages)
	defer writer.Close()

	published := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "feed_sim_messages_published_total", Help: "mensagens publicadas por tipo"}, []string{"kind"})
	prometheus.MustRegister(published)

	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, func(context.Context) error { return nil })
	defer metricsSrv.Close()

	log.Info("feed-simulator publishing", zap.String("topic", cfg.TopicProviderMessages))

	msgID := time.Now().UnixNano()
	nextID := func() int64 { msgID++; return msgID }

	// NewEvent uma vez por fixture
	for _, ev := range fixtures {
		if err := publish(ctx, writer, messages.Envelope{
			ID:    nextID(),
			Type:  string(messages.KindNewEvent),
			Event: ev,
		}); err != nil {
			log.Fatal("publish new event", zap.Error(err))
		}
		published.WithLabelValues(string(messages.KindNewEvent)).Inc()
		log.Info("published NewEvent", zap.Int64("event_id", ev.ID))
	}

	// UpdateOdds em loop
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("feed-simulator stopped")
			return
		case <-ticker.C:
			ev := fixtures[rand.Intn(len(fixtures))]
			update := messages.Event{ID: ev.ID, Markets: make([]messages.Market, 0, len(ev.Markets))}
			for _, mk := range ev.Markets {
				upd := messages.Market{ID: mk.ID}
				for _, sel := range mk.Selections {
					jitter := 0.9 + rand.Float64()*0.2
					upd.Selections = append(upd.Selections, messages.Selection{
						ID:   sel.ID,
						Odds: round2(sel.Odds * jitter),
					})
				}
				update.Markets = append(update.Markets, upd)
			}

			if err := publish(ctx, writer, messages.Envelope{
				ID:    nextID(),
				Type:  string(messages.KindUpdateOdds),
				Event: update,
			}); err != nil {
				log.Warn("publish update odds", zap.Error(err))
				continue
			}
			published.WithLabelValues(string(messages.KindUpdateOdds)).Inc()
			log.Debug("published UpdateOdds", zap.Int64("event_id", ev.ID))
		}
	}
}

func publish(ctx context.Context, w *kafka.Writer, env messages.Envelope) error {
	payload, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return kafka.WriteJSON(ctx, w, strconv.FormatInt(env.Event.ID, 10), payload)
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}
