package repo

import (
	"context"
	"fmt"
)

// Schema do catálogo: cinco relações com FK e índices por coluna de FK.
// Ids são fornecidos pelos provedores (int64), nunca gerados localmente.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS sports (
		id   BIGINT PRIMARY KEY,
		name TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS events (
		id         BIGINT PRIMARY KEY,
		name       TEXT NOT NULL,
		start_time BIGINT NOT NULL,
		sport_id   BIGINT NOT NULL REFERENCES sports(id)
	)`,
	`CREATE TABLE IF NOT EXISTS markets (
		id       BIGINT PRIMARY KEY,
		name     TEXT NOT NULL,
		event_id BIGINT NOT NULL REFERENCES events(id)
	)`,
	`CREATE TABLE IF NOT EXISTS selections (
		id        BIGINT PRIMARY KEY,
		name      TEXT NOT NULL,
		odds      DOUBLE PRECISION NOT NULL CHECK (odds > 0),
		market_id BIGINT NOT NULL REFERENCES markets(id),
		event_id  BIGINT NOT NULL REFERENCES events(id)
	)`,
	`CREATE TABLE IF NOT EXISTS messages (
		id BIGINT PRIMARY KEY
	)`,
	`CREATE INDEX IF NOT EXISTS events_sport_id_idx ON events(sport_id)`,
	`CREATE INDEX IF NOT EXISTS markets_event_id_idx ON markets(event_id)`,
	`CREATE INDEX IF NOT EXISTS selections_market_id_idx ON selections(market_id)`,
	`CREATE INDEX IF NOT EXISTS selections_event_id_idx ON selections(event_id)`,
}

// EnsureSchema cria tabelas e índices que ainda não existem.
// Chamado no boot de cada serviço; todas as sentenças são idempotentes.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	for _, q := range schemaStatements {
		if _, err := p.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
