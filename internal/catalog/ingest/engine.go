package ingest

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/radieske/sports-feed-platform/internal/catalog/repo"
	"github.com/radieske/sports-feed-platform/pkg/contracts/messages"
)

// Store aplica uma mensagem de provedor como uma unidade atômica,
// ledger incluído.
type Store interface {
	ApplyNewEvent(ctx context.Context, m *messages.Message) error
	ApplyOddsUpdate(ctx context.Context, m *messages.Message) error
}

// Invalidator descarta a projeção cacheada de um evento após mutação.
type Invalidator interface {
	Invalidate(ctx context.Context, eventID int64) error
}

// Engine aplica mensagens de provedores ao catálogo, deduplicando pelo ledger.
// Serve tanto a ingestão HTTP (feed-api) quanto a via Kafka (feed-ingest-worker).
// Callbacks de métricas podem ser usadas para monitoramento de cada etapa.
type Engine struct {
	Log   *zap.Logger
	Store Store
	Cache Invalidator // opcional

	OnApplied   func(kind string) // métricas (counter++)
	OnDuplicate func()            // métricas
	OnError     func(stage string)
}

// Apply despacha a mensagem pela variante fechada de tipo e, em caso de
// sucesso, invalida o cache do evento afetado.
func (e *Engine) Apply(ctx context.Context, m *messages.Message) error {
	var err error
	switch m.Kind {
	case messages.KindNewEvent:
		err = e.Store.ApplyNewEvent(ctx, m)
	case messages.KindUpdateOdds:
		err = e.Store.ApplyOddsUpdate(ctx, m)
	default:
		// Parse barra tipos desconhecidos antes daqui; guarda para chamadas diretas
		return messages.ErrUnknownMessageType
	}

	if err != nil {
		if errors.Is(err, repo.ErrDuplicateMessage) {
			e.Log.Info("duplicate message ignored", zap.Int64("message_id", m.ID))
			if e.OnDuplicate != nil {
				e.OnDuplicate()
			}
			return err
		}
		if e.OnError != nil {
			e.OnError("store")
		}
		return err
	}

	if e.Cache != nil {
		if cerr := e.Cache.Invalidate(ctx, m.Event.ID); cerr != nil {
			// cache é best effort; a fonte de verdade já comitou
			e.Log.Warn("cache invalidation failed", zap.Int64("event_id", m.Event.ID), zap.Error(cerr))
		}
	}

	e.Log.Info("message applied",
		zap.Int64("message_id", m.ID),
		zap.String("kind", string(m.Kind)),
		zap.Int64("event_id", m.Event.ID),
	)
	if e.OnApplied != nil {
		e.OnApplied(string(m.Kind))
	}
	return nil
}
