package consumer

import (
	"context"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/sports-feed-platform/internal/catalog/ingest"
	"github.com/radieske/sports-feed-platform/internal/catalog/repo"
	skafka "github.com/radieske/sports-feed-platform/internal/shared/kafka"
	"github.com/radieske/sports-feed-platform/pkg/contracts/messages"
)

// Consumer consome mensagens de provedores do Kafka e aplica ao catálogo
// pelo mesmo engine da ingestão HTTP. Payloads irrecuperáveis vão para a DLQ.
// Callbacks de métricas podem ser usadas para monitoramento de cada etapa.
type Consumer struct {
	Log    *zap.Logger
	Reader *kafka.Reader
	Engine *ingest.Engine
	DLQ    *kafka.Writer // opcional

	OnConsumed func()       // métricas (counter++)
	OnApplied  func()       // métricas
	OnDLQ      func()       // métricas
	OnError    func(string) // métricas por fase
}

// Run inicia o loop principal de consumo e aplicação das mensagens Kafka
func (c *Consumer) Run(ctx context.Context) error {
	for {
		key, value, err := skafka.ReadNext(ctx, c.Reader)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err() // encerra se o contexto for cancelado
			}
			c.Log.Warn("kafka read failed", zap.Error(err))
			if c.OnError != nil {
				c.OnError("read")
			}
			time.Sleep(500 * time.Millisecond)
			continue
		}

		if c.OnConsumed != nil {
			c.OnConsumed()
		}

		msg, err := messages.Parse(value)
		if err != nil {
			c.Log.Warn("invalid provider message", zap.Error(err))
			if c.OnError != nil {
				c.OnError("decode")
			}
			c.toDLQ(ctx, key, value)
			continue
		}

		if err := c.Engine.Apply(ctx, msg); err != nil {
			switch {
			case errors.Is(err, repo.ErrDuplicateMessage):
				// reentrega do consumer group; já aplicado, segue adiante
				c.Log.Debug("message already applied", zap.Int64("message_id", msg.ID))
			case errors.Is(err, repo.ErrDuplicateID),
				errors.Is(err, repo.ErrForeignKey),
				errors.Is(err, repo.ErrInvalidPayload):
				c.Log.Warn("provider message rejected",
					zap.Int64("message_id", msg.ID), zap.Error(err))
				if c.OnError != nil {
					c.OnError("apply")
				}
				c.toDLQ(ctx, key, value)
			default:
				c.Log.Warn("store apply failed",
					zap.Int64("message_id", msg.ID), zap.Error(err))
				if c.OnError != nil {
					c.OnError("store")
				}
				time.Sleep(500 * time.Millisecond)
			}
			continue
		}

		if c.OnApplied != nil {
			c.OnApplied()
		}
	}
}

func (c *Consumer) toDLQ(ctx context.Context, key, value []byte) {
	if c.DLQ == nil {
		return
	}
	if err := skafka.WriteJSON(ctx, c.DLQ, string(key), value); err != nil {
		c.Log.Warn("dlq publish failed", zap.Error(err))
		if c.OnError != nil {
			c.OnError("dlq")
		}
		return
	}
	if c.OnDLQ != nil {
		c.OnDLQ()
	}
}
