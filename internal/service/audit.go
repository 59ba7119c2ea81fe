package service

import (
	"context"
	"sync"
	"time"

	"github.com/MKhiriev/go-auth-gate/internal/logger"
	"github.com/MKhiriev/go-auth-gate/internal/store"
	"github.com/MKhiriev/go-auth-gate/internal/utils"
	"github.com/MKhiriev/go-auth-gate/models"
	"github.com/google/uuid"
)

const (
	auditSuffixSuccess = "_SUCCESS"
	auditSuffixFail    = "_FAIL"
)

// auditRecorder writes audit events out of band. Each write runs in its own
// goroutine on a context detached from the request, so a slow or failing
// audit store never delays or fails the caller.
type auditRecorder struct {
	events  store.AuditRepository
	timeout time.Duration
	now     func() time.Time

	wg sync.WaitGroup
}

func NewAuditRecorder(events store.AuditRepository, timeout time.Duration) Auditor {
	return &auditRecorder{
		events:  events,
		timeout: timeout,
		now:     time.Now,
	}
}

// Record queues one event. The client ip is taken from ctx.
func (a *auditRecorder) Record(ctx context.Context, userID *uuid.UUID, action, details string) {
	event := models.AuditEvent{
		UserID:    userID,
		Action:    action,
		Details:   details,
		IPAddress: utils.ClientIPFromContext(ctx),
		Timestamp: a.now(),
	}

	detached := context.WithoutCancel(ctx)

	a.wg.Go(func() {
		writeCtx, cancel := context.WithTimeout(detached, a.timeout)
		defer cancel()

		if err := a.events.Create(writeCtx, event); err != nil {
			logger.FromContext(detached).Warn().Err(err).
				Str("func", "auditRecorder.Record").
				Str("action", event.Action).
				Msg("audit event dropped")
		}
	})
}

// RecordOutcome records action suffixed with _SUCCESS when err is nil and
// _FAIL otherwise, using the error message as details.
func (a *auditRecorder) RecordOutcome(ctx context.Context, userID *uuid.UUID, action string, err error) {
	if err == nil {
		a.Record(ctx, userID, action+auditSuffixSuccess, "")
		return
	}
	a.Record(ctx, userID, action+auditSuffixFail, auditDetails(err))
}

// Wait blocks until every queued event was written or dropped.
func (a *auditRecorder) Wait() {
	a.wg.Wait()
}

// auditDetails never leaks unclassified internals into the audit table.
func auditDetails(err error) string {
	if KindOf(err) == "" {
		return "internal error"
	}
	return err.Error()
}
