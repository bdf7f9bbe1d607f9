package ingest

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/radieske/sports-feed-platform/internal/catalog/repo"
	"github.com/radieske/sports-feed-platform/pkg/contracts/messages"
)

type fakeStore struct {
	applied map[int64]messages.Kind
	fail    error
}

func newFakeStore() *fakeStore { return &fakeStore{applied: make(map[int64]messages.Kind)} }

func (f *fakeStore) apply(m *messages.Message, kind messages.Kind) error {
	if f.fail != nil {
		return f.fail
	}
	if _, ok := f.applied[m.ID]; ok {
		return repo.ErrDuplicateMessage
	}
	f.applied[m.ID] = kind
	return nil
}

func (f *fakeStore) ApplyNewEvent(_ context.Context, m *messages.Message) error {
	return f.apply(m, messages.KindNewEvent)
}

func (f *fakeStore) ApplyOddsUpdate(_ context.Context, m *messages.Message) error {
	return f.apply(m, messages.KindUpdateOdds)
}

type fakeInvalidator struct{ invalidated []int64 }

func (f *fakeInvalidator) Invalidate(_ context.Context, eventID int64) error {
	f.invalidated = append(f.invalidated, eventID)
	return nil
}

func newEngine(store Store, inv Invalidator) *Engine {
	return &Engine{Log: zap.NewNop(), Store: store, Cache: inv}
}

func msg(id int64, kind messages.Kind, eventID int64) *messages.Message {
	return &messages.Message{ID: id, Kind: kind, Event: messages.Event{ID: eventID}}
}

func TestApplyDispatchesByKind(t *testing.T) {
	store := newFakeStore()
	inv := &fakeInvalidator{}
	e := newEngine(store, inv)

	if err := e.Apply(context.Background(), msg(1, messages.KindNewEvent, 100)); err != nil {
		t.Fatalf("new event: %v", err)
	}
	if err := e.Apply(context.Background(), msg(2, messages.KindUpdateOdds, 100)); err != nil {
		t.Fatalf("update odds: %v", err)
	}

	if store.applied[1] != messages.KindNewEvent || store.applied[2] != messages.KindUpdateOdds {
		t.Fatalf("applied = %v", store.applied)
	}
	if len(inv.invalidated) != 2 || inv.invalidated[0] != 100 {
		t.Fatalf("invalidated = %v", inv.invalidated)
	}
}

func TestApplyDuplicateMessage(t *testing.T) {
	store := newFakeStore()
	inv := &fakeInvalidator{}
	e := newEngine(store, inv)

	var dups int
	e.OnDuplicate = func() { dups++ }

	if err := e.Apply(context.Background(), msg(7, messages.KindNewEvent, 100)); err != nil {
		t.Fatalf("first apply: %v", err)
	}
	err := e.Apply(context.Background(), msg(7, messages.KindNewEvent, 100))
	if !errors.Is(err, repo.ErrDuplicateMessage) {
		t.Fatalf("err = %v, want ErrDuplicateMessage", err)
	}
	if dups != 1 {
		t.Fatalf("duplicate callback fired %d times", dups)
	}
	// a segunda entrega não deve invalidar o cache de novo
	if len(inv.invalidated) != 1 {
		t.Fatalf("invalidated = %v", inv.invalidated)
	}
}

func TestApplyUnknownKindNeverTouchesStore(t *testing.T) {
	store := newFakeStore()
	e := newEngine(store, nil)

	err := e.Apply(context.Background(), &messages.Message{ID: 9, Kind: "CancelEvent"})
	if !errors.Is(err, messages.ErrUnknownMessageType) {
		t.Fatalf("err = %v, want ErrUnknownMessageType", err)
	}
	if len(store.applied) != 0 {
		t.Fatalf("store mutated by unknown kind: %v", store.applied)
	}
}

func TestApplyStoreErrorFiresCallback(t *testing.T) {
	store := newFakeStore()
	store.fail = errors.New("connection reset")
	e := newEngine(store, nil)

	var stages []string
	e.OnError = func(stage string) { stages = append(stages, stage) }

	if err := e.Apply(context.Background(), msg(3, messages.KindNewEvent, 100)); err == nil {
		t.Fatal("expected error")
	}
	if len(stages) != 1 || stages[0] != "store" {
		t.Fatalf("stages = %v", stages)
	}
}
