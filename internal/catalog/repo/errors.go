package repo

import (
	"errors"

	"github.com/lib/pq"
)

var (
	// ErrDuplicateMessage indica mensagem já registrada no ledger
	ErrDuplicateMessage = errors.New("message already processed")
	// ErrDuplicateID indica reuso de id de evento/mercado/seleção
	ErrDuplicateID = errors.New("duplicate id")
	// ErrForeignKey indica payload referenciando sport/event/market inexistente
	ErrForeignKey = errors.New("unknown reference")
	// ErrInvalidPayload indica violação de CHECK (ex.: odds <= 0)
	ErrInvalidPayload = errors.New("invalid payload")
	// ErrNotFound indica consulta sem linhas
	ErrNotFound = errors.New("not found")
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
	pqCheckViolation      = "23514"
)

// translatePQ converte códigos de constraint do Postgres na taxonomia do domínio.
// A unique constraint do ledger é o backstop de idempotência sob concorrência:
// duas entregas simultâneas do mesmo id resultam em um commit e um ErrDuplicateMessage.
func translatePQ(err error) error {
	var pqe *pq.Error
	if !errors.As(err, &pqe) {
		return err
	}
	switch pqe.Code {
	case pqUniqueViolation:
		if pqe.Table == "messages" {
			return ErrDuplicateMessage
		}
		return ErrDuplicateID
	case pqForeignKeyViolation:
		return ErrForeignKey
	case pqCheckViolation:
		return ErrInvalidPayload
	}
	return err
}
