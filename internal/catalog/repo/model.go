package repo

import "database/sql"

// MatchRow é uma linha do join plano evento⨝esporte⨝mercado⨝seleção.
// Mercado e seleção são anuláveis: um evento pode existir sem mercados.
type MatchRow struct {
	EventID       int64
	EventName     string
	StartTime     int64 // epoch segundos
	SportID       int64
	SportName     string
	MarketID      sql.NullInt64
	MarketName    sql.NullString
	SelectionID   sql.NullInt64
	SelectionName sql.NullString
	Odds          sql.NullFloat64
}

// EventRow é a projeção leve usada nas listagens.
type EventRow struct {
	ID        int64
	Name      string
	StartTime int64
}
