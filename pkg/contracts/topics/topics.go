package topics

const (
	// Mensagens de provedores externos
	ProviderMessages = "provider_messages"

	// DLQ
	ProviderMessagesDLQ = "provider_messages_dlq"
)
