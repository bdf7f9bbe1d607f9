package query

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/radieske/sports-feed-platform/internal/catalog/repo"
)

type fakeStore struct {
	matchRows []repo.MatchRow
	events    []repo.EventRow
	calls     int
}

func (f *fakeStore) MatchByID(context.Context, int64) ([]repo.MatchRow, error) {
	f.calls++
	return f.matchRows, nil
}

func (f *fakeStore) EventsByName(context.Context, string) ([]repo.EventRow, error) {
	return f.events, nil
}

func (f *fakeStore) EventsBySportOrdered(context.Context, string) ([]repo.EventRow, error) {
	return f.events, nil
}

func n64(v int64) sql.NullInt64      { return sql.NullInt64{Int64: v, Valid: true} }
func nstr(v string) sql.NullString   { return sql.NullString{String: v, Valid: true} }
func nf64(v float64) sql.NullFloat64 { return sql.NullFloat64{Float64: v, Valid: true} }

const startUnix = 1529490600 // 2018-06-20 10:30:00 UTC

func matchRow(marketID int64, marketName string, selID int64, selName string, odds float64) repo.MatchRow {
	return repo.MatchRow{
		EventID:       994839351740,
		EventName:     "Real Madrid vs Barcelona",
		StartTime:     startUnix,
		SportID:       221,
		SportName:     "Football",
		MarketID:      n64(marketID),
		MarketName:    nstr(marketName),
		SelectionID:   n64(selID),
		SelectionName: nstr(selName),
		Odds:          nf64(odds),
	}
}

func TestMatchByIDAssemblesTree(t *testing.T) {
	store := &fakeStore{matchRows: []repo.MatchRow{
		matchRow(385086549360973300, "1st Half Winner", 1, "Real Madrid", 1.01),
		matchRow(385086549360973300, "1st Half Winner", 2, "Barcelona", 1.10),
		matchRow(385086549360973400, "Winner", 3, "Real Madrid", 1.44),
		matchRow(385086549360973400, "Winner", 4, "Barcelona", 2.90),
	}}
	s := &Service{Store: store, BaseURL: "http://127.0.0.1:8080"}

	m, err := s.MatchByID(context.Background(), 994839351740)
	if err != nil {
		t.Fatalf("match by id: %v", err)
	}

	if m.ID != 994839351740 || m.Name != "Real Madrid vs Barcelona" {
		t.Fatalf("header = %+v", m)
	}
	if m.URL != "http://127.0.0.1:8080/api/v1/resources/match/994839351740" {
		t.Fatalf("url = %q", m.URL)
	}
	if m.StartTime != "2018-06-20 10:30:00" {
		t.Fatalf("startTime = %q", m.StartTime)
	}
	if m.Sport.ID != 221 || m.Sport.Name != "Football" {
		t.Fatalf("sport = %+v", m.Sport)
	}
	// mercados deduplicados pelo par (id, nome), seleções agrupadas uma vez
	if len(m.Markets) != 2 {
		t.Fatalf("markets = %+v", m.Markets)
	}
	if m.Markets[0].Name != "1st Half Winner" || len(m.Markets[0].Selections) != 2 {
		t.Fatalf("first market = %+v", m.Markets[0])
	}
	if m.Markets[1].Selections[1].Odds != 2.90 {
		t.Fatalf("odds = %v", m.Markets[1].Selections[1].Odds)
	}
}

func TestMatchByIDNotFound(t *testing.T) {
	s := &Service{Store: &fakeStore{}, BaseURL: "http://127.0.0.1:8080"}
	_, err := s.MatchByID(context.Background(), 42)
	if !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestMatchByIDWithoutMarkets(t *testing.T) {
	// LEFT JOIN devolve a linha de cabeçalho com colunas de mercado nulas
	store := &fakeStore{matchRows: []repo.MatchRow{{
		EventID:   7,
		EventName: "Header Only",
		StartTime: startUnix,
		SportID:   221,
		SportName: "Football",
	}}}
	s := &Service{Store: store, BaseURL: "http://127.0.0.1:8080"}

	m, err := s.MatchByID(context.Background(), 7)
	if err != nil {
		t.Fatalf("match by id: %v", err)
	}
	if m.Markets == nil || len(m.Markets) != 0 {
		t.Fatalf("markets = %#v, want empty non-nil", m.Markets)
	}
}

type fakeCache struct {
	stored map[int64]*Match
	hits   int
}

func (f *fakeCache) GetMatch(_ context.Context, id int64, dst any) (bool, error) {
	m, ok := f.stored[id]
	if !ok {
		return false, nil
	}
	f.hits++
	*dst.(*Match) = *m
	return true, nil
}

func (f *fakeCache) SetMatch(_ context.Context, id int64, v any, _ time.Duration) error {
	f.stored[id] = v.(*Match)
	return nil
}

func TestMatchByIDServedFromCache(t *testing.T) {
	store := &fakeStore{matchRows: []repo.MatchRow{
		matchRow(1, "Winner", 2, "Real Madrid", 1.44),
	}}
	cache := &fakeCache{stored: make(map[int64]*Match)}
	s := &Service{Store: store, Cache: cache, BaseURL: "http://127.0.0.1:8080"}

	if _, err := s.MatchByID(context.Background(), 994839351740); err != nil {
		t.Fatalf("first read: %v", err)
	}
	if _, err := s.MatchByID(context.Background(), 994839351740); err != nil {
		t.Fatalf("second read: %v", err)
	}
	if store.calls != 1 || cache.hits != 1 {
		t.Fatalf("store calls = %d, cache hits = %d", store.calls, cache.hits)
	}
}

func TestMatchesByNameSummaries(t *testing.T) {
	store := &fakeStore{events: []repo.EventRow{
		{ID: 1, Name: "Derby", StartTime: startUnix},
		{ID: 2, Name: "Derby", StartTime: startUnix + 3600},
	}}
	s := &Service{Store: store, BaseURL: "http://127.0.0.1:8080/"}

	list, err := s.MatchesByName(context.Background(), "Derby")
	if err != nil {
		t.Fatalf("matches by name: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("list = %+v", list)
	}
	// barra final da base não pode duplicar na URL canônica
	if list[0].URL != "http://127.0.0.1:8080/api/v1/resources/match/1" {
		t.Fatalf("url = %q", list[0].URL)
	}
	if list[1].StartTime != "2018-06-20 11:30:00" {
		t.Fatalf("startTime = %q", list[1].StartTime)
	}
}

func TestMatchesBySportKeepsStoreOrder(t *testing.T) {
	store := &fakeStore{events: []repo.EventRow{
		{ID: 1, Name: "Early", StartTime: 100},
		{ID: 2, Name: "Late", StartTime: 200},
	}}
	s := &Service{Store: store, BaseURL: "http://127.0.0.1:8080"}

	list, err := s.MatchesBySport(context.Background(), "Football")
	if err != nil {
		t.Fatalf("matches by sport: %v", err)
	}
	if list[0].ID != 1 || list[1].ID != 2 {
		t.Fatalf("order = %+v", list)
	}
}
