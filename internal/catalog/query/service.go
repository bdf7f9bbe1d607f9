package query

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/radieske/sports-feed-platform/internal/catalog/repo"
	"github.com/radieske/sports-feed-platform/pkg/contracts/messages"
)

// Store são as projeções de leitura do catálogo.
type Store interface {
	MatchByID(ctx context.Context, eventID int64) ([]repo.MatchRow, error)
	EventsByName(ctx context.Context, name string) ([]repo.EventRow, error)
	EventsBySportOrdered(ctx context.Context, sportName string) ([]repo.EventRow, error)
}

// MatchCache é o cache opcional da projeção completa de um match.
type MatchCache interface {
	GetMatch(ctx context.Context, eventID int64, dst any) (bool, error)
	SetMatch(ctx context.Context, eventID int64, v any, ttl time.Duration) error
}

type Sport struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Selection struct {
	ID   int64   `json:"id"`
	Name string  `json:"name"`
	Odds float64 `json:"odds"`
}

type Market struct {
	ID         int64       `json:"id"`
	Name       string      `json:"name"`
	Selections []Selection `json:"selections"`
}

// Match é a projeção completa servida em GET match/{id}.
type Match struct {
	ID        int64    `json:"id"`
	URL       string   `json:"url"`
	Name      string   `json:"name"`
	StartTime string   `json:"startTime"`
	Sport     Sport    `json:"sport"`
	Markets   []Market `json:"markets"`
}

// MatchSummary é a projeção leve das listagens (sem mercados).
type MatchSummary struct {
	ID        int64  `json:"id"`
	URL       string `json:"url"`
	Name      string `json:"name"`
	StartTime string `json:"startTime"`
}

const matchTTL = 30 * time.Second

// Service monta respostas aninhadas a partir das linhas planas do catálogo.
type Service struct {
	Store   Store
	Cache   MatchCache // opcional
	BaseURL string
}

// MatchByID monta o match completo: mercados deduplicados pelo par (id, nome)
// do resultado plano, seleções agrupadas sob o mercado correspondente.
func (s *Service) MatchByID(ctx context.Context, eventID int64) (*Match, error) {
	if s.Cache != nil {
		var cached Match
		if ok, _ := s.Cache.GetMatch(ctx, eventID, &cached); ok {
			return &cached, nil
		}
	}

	rows, err := s.Store.MatchByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, repo.ErrNotFound
	}

	head := rows[0]
	m := &Match{
		ID:        head.EventID,
		URL:       s.matchURL(head.EventID),
		Name:      head.EventName,
		StartTime: messages.FormatStartTime(head.StartTime),
		Sport:     Sport{ID: head.SportID, Name: head.SportName},
		Markets:   make([]Market, 0),
	}

	type marketKey struct {
		id   int64
		name string
	}
	seen := make(map[marketKey]int)
	for _, r := range rows {
		if !r.MarketID.Valid {
			continue // evento sem mercados
		}
		k := marketKey{id: r.MarketID.Int64, name: r.MarketName.String}
		idx, ok := seen[k]
		if !ok {
			m.Markets = append(m.Markets, Market{
				ID:         k.id,
				Name:       k.name,
				Selections: make([]Selection, 0),
			})
			idx = len(m.Markets) - 1
			seen[k] = idx
		}
		if r.SelectionID.Valid {
			m.Markets[idx].Selections = append(m.Markets[idx].Selections, Selection{
				ID:   r.SelectionID.Int64,
				Name: r.SelectionName.String,
				Odds: r.Odds.Float64,
			})
		}
	}

	if s.Cache != nil {
		_ = s.Cache.SetMatch(ctx, eventID, m, matchTTL)
	}
	return m, nil
}

// MatchesByName retorna zero ou mais resumos; o nome não é único.
func (s *Service) MatchesByName(ctx context.Context, name string) ([]MatchSummary, error) {
	rows, err := s.Store.EventsByName(ctx, name)
	if err != nil {
		return nil, err
	}
	return s.summaries(rows), nil
}

// MatchesBySport retorna os resumos de um esporte em ordem crescente de início.
func (s *Service) MatchesBySport(ctx context.Context, sportName string) ([]MatchSummary, error) {
	rows, err := s.Store.EventsBySportOrdered(ctx, sportName)
	if err != nil {
		return nil, err
	}
	return s.summaries(rows), nil
}

func (s *Service) summaries(rows []repo.EventRow) []MatchSummary {
	out := make([]MatchSummary, 0, len(rows))
	for _, e := range rows {
		out = append(out, MatchSummary{
			ID:        e.ID,
			URL:       s.matchURL(e.ID),
			Name:      e.Name,
			StartTime: messages.FormatStartTime(e.StartTime),
		})
	}
	return out
}

func (s *Service) matchURL(eventID int64) string {
	return fmt.Sprintf("%s/api/v1/resources/match/%d", strings.TrimRight(s.BaseURL, "/"), eventID)
}
