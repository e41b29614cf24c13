package mail

import "errors"

var (
	// ErrNoRecipient is returned when a message has no recipient address.
	ErrNoRecipient = errors.New("mail: message has no recipient")
	// ErrDelivery is returned when the provider rejects a message.
	ErrDelivery = errors.New("mail: delivery failed")
	// ErrUnknownProvider is returned by Open for unsupported providers.
	ErrUnknownProvider = errors.New("mail: unknown provider")
)
