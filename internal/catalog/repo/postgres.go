package repo

import (
	"context"
	"database/sql"

	"github.com/radieske/sports-feed-platform/pkg/contracts/messages"
)

// Postgres implementa o catálogo normalizado e o ledger de mensagens.
// Cada mensagem de provedor é aplicada em uma única transação: catálogo e
// ledger comitam juntos, então uma reentrega nunca reaplica linhas.
type Postgres struct{ db *sql.DB }

// NewPostgres retorna uma instância do repositório do catálogo
func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

// ApplyNewEvent insere esporte (se ausente), evento, mercados e seleções de
// uma mensagem NewEvent, e registra a mensagem no ledger. Tudo ou nada:
// leitores nunca observam um evento parcialmente inserido.
func (p *Postgres) ApplyNewEvent(ctx context.Context, m *messages.Message) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	dup, err := hasProcessed(ctx, tx, m.ID)
	if err != nil {
		return err
	}
	if dup {
		return ErrDuplicateMessage
	}

	// reivindica a mensagem antes de tocar o catálogo: entregas concorrentes
	// do mesmo id serializam no índice único do ledger, não nas PKs do catálogo
	if err := markProcessed(ctx, tx, m.ID); err != nil {
		return translatePQ(err)
	}

	ev := m.Event
	if err := upsertSport(ctx, tx, ev.Sport.ID, ev.Sport.Name); err != nil {
		return translatePQ(err)
	}
	if err := insertEvent(ctx, tx, ev.ID, ev.Name, m.StartUnix, ev.Sport.ID); err != nil {
		return translatePQ(err)
	}
	for _, mk := range ev.Markets {
		if err := insertMarket(ctx, tx, mk.ID, mk.Name, ev.ID); err != nil {
			return translatePQ(err)
		}
		for _, sel := range mk.Selections {
			if err := insertSelection(ctx, tx, sel.ID, sel.Name, sel.Odds, mk.ID, ev.ID); err != nil {
				return translatePQ(err)
			}
		}
	}

	return translatePQ(tx.Commit())
}

// ApplyOddsUpdate atualiza as odds das seleções de uma mensagem UpdateOdds
// pela tripla (selection, market, event) e registra a mensagem no ledger.
// Uma tripla sem linha correspondente é um no-op silencioso, como no feed
// de origem.
func (p *Postgres) ApplyOddsUpdate(ctx context.Context, m *messages.Message) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	dup, err := hasProcessed(ctx, tx, m.ID)
	if err != nil {
		return err
	}
	if dup {
		return ErrDuplicateMessage
	}

	if err := markProcessed(ctx, tx, m.ID); err != nil {
		return translatePQ(err)
	}

	ev := m.Event
	for _, mk := range ev.Markets {
		for _, sel := range mk.Selections {
			if err := updateSelectionOdds(ctx, tx, sel.ID, mk.ID, ev.ID, sel.Odds); err != nil {
				return translatePQ(err)
			}
		}
	}

	return translatePQ(tx.Commit())
}

// Primitivas do catálogo, sempre dentro da transação da mensagem.

func hasProcessed(ctx context.Context, tx *sql.Tx, messageID int64) (bool, error) {
	var id int64
	err := tx.QueryRowContext(ctx, `SELECT id FROM messages WHERE id=$1`, messageID).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func markProcessed(ctx context.Context, tx *sql.Tx, messageID int64) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO messages(id) VALUES($1)`, messageID)
	return err
}

// upsertSport insere se ausente; primeira escrita vence, colisão de nome
// sob id reutilizado é ignorada.
func upsertSport(ctx context.Context, tx *sql.Tx, id int64, name string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO sports(id, name) VALUES($1, $2) ON CONFLICT (id) DO NOTHING`,
		id, name)
	return err
}

func insertEvent(ctx context.Context, tx *sql.Tx, id int64, name string, startTime int64, sportID int64) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO events(id, name, start_time, sport_id) VALUES($1, $2, $3, $4)`,
		id, name, startTime, sportID)
	return err
}

func insertMarket(ctx context.Context, tx *sql.Tx, id int64, name string, eventID int64) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO markets(id, name, event_id) VALUES($1, $2, $3)`,
		id, name, eventID)
	return err
}

func insertSelection(ctx context.Context, tx *sql.Tx, id int64, name string, odds float64, marketID, eventID int64) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO selections(id, name, odds, market_id, event_id) VALUES($1, $2, $3, $4, $5)`,
		id, name, odds, marketID, eventID)
	return err
}

func updateSelectionOdds(ctx context.Context, tx *sql.Tx, selectionID, marketID, eventID int64, odds float64) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE selections SET odds=$1 WHERE id=$2 AND market_id=$3 AND event_id=$4`,
		odds, selectionID, marketID, eventID)
	return err
}
