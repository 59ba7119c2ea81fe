package adapter

import "errors"

var (
	ErrUnknownBackend = errors.New("unknown mailer backend")

	ErrWebhookRejected    = errors.New("mail webhook rejected the message")
	ErrWebhookUnavailable = errors.New("mail webhook unavailable")
)
