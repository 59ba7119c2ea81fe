package adapter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/MKhiriev/go-auth-gate/internal/config"
	"github.com/MKhiriev/go-auth-gate/internal/logger"
	"github.com/MKhiriev/go-auth-gate/internal/service"
	"github.com/MKhiriev/go-auth-gate/internal/utils"
	"github.com/MKhiriev/go-auth-gate/models"
)

// NewMailer builds the mail hand-off selected by cfg.Backend.
// pusher is only used by the queue backend and may be nil otherwise.
func NewMailer(cfg config.Mailer, pusher ListPusher, log *logger.Logger) (service.Mailer, error) {
	switch cfg.Backend {
	case config.MailerBackendQueue:
		if pusher == nil {
			return nil, fmt.Errorf("%w: queue backend without a cache", ErrUnknownBackend)
		}
		return NewQueueMailer(pusher, cfg.QueueName), nil
	case config.MailerBackendWebhook:
		return NewWebhookMailer(utils.NewHTTPClient(cfg.Timeout), cfg.WebhookURL), nil
	case config.MailerBackendLog:
		return NewLogMailer(log), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}

// queueMailer pushes JSON-encoded messages to a Redis list.
type queueMailer struct {
	pusher ListPusher
	queue  string
}

func NewQueueMailer(pusher ListPusher, queue string) service.Mailer {
	return &queueMailer{pusher: pusher, queue: queue}
}

func (q *queueMailer) Send(ctx context.Context, msg models.EmailMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("error encoding email message: %w", err)
	}

	if err = q.pusher.Push(ctx, q.queue, string(payload)); err != nil {
		return fmt.Errorf("error pushing email message to %s: %w", q.queue, err)
	}

	return nil
}

// webhookMailer POSTs every message to a delivery endpoint.
type webhookMailer struct {
	client *utils.HTTPClient
	url    string
}

func NewWebhookMailer(client *utils.HTTPClient, url string) service.Mailer {
	return &webhookMailer{client: client, url: url}
}

func (w *webhookMailer) Send(ctx context.Context, msg models.EmailMessage) error {
	resp, err := w.client.R().
		SetContext(ctx).
		SetBody(msg).
		Post(w.url)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWebhookUnavailable, err)
	}

	return mapWebhookError(resp)
}

// logMailer writes message envelopes to the log instead of delivering them.
// Tokens are not logged.
type logMailer struct {
	log *logger.Logger
}

func NewLogMailer(log *logger.Logger) service.Mailer {
	return &logMailer{log: log}
}

func (l *logMailer) Send(ctx context.Context, msg models.EmailMessage) error {
	l.log.Info().
		Str("func", "logMailer.Send").
		Str("type", string(msg.Type)).
		Str("to", msg.To).
		Msg("email not delivered, log backend")
	return nil
}
