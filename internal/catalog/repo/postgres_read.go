package repo

import (
	"context"
)

// MatchByID retorna o join plano de um evento com esporte, mercados e
// seleções. LEFT JOIN: evento sem mercados ainda retorna a linha de cabeçalho.
func (p *Postgres) MatchByID(ctx context.Context, eventID int64) ([]MatchRow, error) {
	const q = `
		SELECT e.id, e.name, e.start_time, s.id, s.name,
		       m.id, m.name, sel.id, sel.name, sel.odds
		FROM events e
		JOIN sports s ON s.id = e.sport_id
		LEFT JOIN markets m ON m.event_id = e.id
		LEFT JOIN selections sel ON sel.market_id = m.id AND sel.event_id = e.id
		WHERE e.id = $1
		ORDER BY m.id, sel.id;
	`
	rows, err := p.db.QueryContext(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MatchRow
	for rows.Next() {
		var r MatchRow
		if err := rows.Scan(&r.EventID, &r.EventName, &r.StartTime, &r.SportID, &r.SportName,
			&r.MarketID, &r.MarketName, &r.SelectionID, &r.SelectionName, &r.Odds); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// EventsByName retorna os eventos com o nome dado; nome não é único.
func (p *Postgres) EventsByName(ctx context.Context, name string) ([]EventRow, error) {
	const q = `SELECT id, name, start_time FROM events WHERE name = $1;`
	return p.queryEvents(ctx, q, name)
}

// EventsBySportOrdered retorna os eventos de um esporte em ordem crescente
// de início.
func (p *Postgres) EventsBySportOrdered(ctx context.Context, sportName string) ([]EventRow, error) {
	const q = `
		SELECT e.id, e.name, e.start_time
		FROM events e
		JOIN sports s ON s.id = e.sport_id
		WHERE s.name = $1
		ORDER BY e.start_time ASC;
	`
	return p.queryEvents(ctx, q, sportName)
}

func (p *Postgres) queryEvents(ctx context.Context, q string, args ...any) ([]EventRow, error) {
	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EventRow
	for rows.Next() {
		var e EventRow
		if err := rows.Scan(&e.ID, &e.Name, &e.StartTime); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
