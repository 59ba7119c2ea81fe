// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package adapter hands outbound emails off to the delivery side.
//
// Rendering and SMTP delivery live outside this service. Each backend only
// serialises a [models.EmailMessage] and passes it on: to a Redis list
// consumed by a mail worker, to an HTTP webhook, or to the log in development.
// [NewMailer] picks the backend from configuration.
//
// Error values defined in errors.go are mapped from webhook status codes by
// mapWebhookError so that callers can use [errors.Is] regardless of backend.
package adapter

import (
	"context"
)

// ListPusher is the part of the shared cache the queue backend needs.
type ListPusher interface {
	// Push appends value to the tail of list.
	Push(ctx context.Context, list, value string) error
}
