package dto

// IngestAck confirma a aplicação de uma mensagem de provedor
type IngestAck struct {
	Status    string `json:"status"`
	MessageID int64  `json:"messageId"`
}

// ErrorResponse carrega uma mensagem curta legível; nunca detalhes internos
type ErrorResponse struct {
	Error string `json:"error"`
}
