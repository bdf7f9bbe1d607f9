package messages

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Contrato de mensagens recebidas de provedores externos.
// O mesmo envelope entra por HTTP (feed-api) e por Kafka (feed-ingest-worker).

// TimeLayout é o formato textual de startTime usado pelos provedores.
// Os horários são "naive": interpretados e renderizados sempre em UTC,
// sem conversão de fuso.
const TimeLayout = "2006-01-02 15:04:05"

type Kind string

const (
	KindNewEvent   Kind = "NewEvent"
	KindUpdateOdds Kind = "UpdateOdds"
)

var (
	ErrUnknownMessageType = errors.New("unknown message_type")
	ErrInvalidMessage     = errors.New("invalid provider message")
)

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

type Event struct {
	ID        int64    `json:"id"`
	Name      string   `json:"name"`
	StartTime string   `json:"startTime"`
	Sport     Sport    `json:"sport"`
	Markets   []Market `json:"markets"`
}

// Envelope é a forma bruta no fio.
type Envelope struct {
	ID    int64  `json:"id"`
	Type  string `json:"message_type"`
	Event Event  `json:"event"`
}

// Message é o envelope já decodificado: o tipo vira uma variante fechada
// e o startTime vira um instante absoluto (epoch segundos).
type Message struct {
	ID        int64
	Kind      Kind
	Event     Event
	StartUnix int64 // preenchido apenas para NewEvent
}

// Parse decodifica e valida um envelope de provedor. Tipos desconhecidos e
// payloads malformados são rejeitados aqui, antes de tocar o ledger.
func Parse(raw []byte) (*Message, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}

	m := &Message{ID: env.ID, Event: env.Event}

	switch env.Type {
	case string(KindNewEvent):
		m.Kind = KindNewEvent
	case string(KindUpdateOdds):
		m.Kind = KindUpdateOdds
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessageType, env.Type)
	}

	if env.Event.ID == 0 {
		return nil, fmt.Errorf("%w: missing event id", ErrInvalidMessage)
	}
	for _, mk := range env.Event.Markets {
		for _, sel := range mk.Selections {
			if sel.Odds <= 0 {
				return nil, fmt.Errorf("%w: selection %d odds must be positive", ErrInvalidMessage, sel.ID)
			}
		}
	}

	if m.Kind == KindNewEvent {
		if env.Event.Sport.ID == 0 {
			return nil, fmt.Errorf("%w: missing sport id", ErrInvalidMessage)
		}
		ts, err := ParseStartTime(env.Event.StartTime)
		if err != nil {
			return nil, err
		}
		m.StartUnix = ts
	}

	return m, nil
}

// ParseStartTime converte o startTime textual do provedor em epoch segundos.
func ParseStartTime(s string) (int64, error) {
	t, err := time.ParseInLocation(TimeLayout, s, time.UTC)
	if err != nil {
		return 0, fmt.Errorf("%w: bad startTime %q", ErrInvalidMessage, s)
	}
	return t.Unix(), nil
}

// FormatStartTime renderiza um instante armazenado de volta à forma textual.
func FormatStartTime(ts int64) string {
	return time.Unix(ts, 0).UTC().Format(TimeLayout)
}
