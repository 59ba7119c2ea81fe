package store

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-auth-gate/internal/logger"
	"github.com/MKhiriev/go-auth-gate/models"
)

type auditRepository struct {
	*DB
	logger *logger.Logger
}

func NewAuditRepository(db *DB, logger *logger.Logger) AuditRepository {
	return &auditRepository{
		DB:     db,
		logger: logger,
	}
}

func (a *auditRepository) Create(ctx context.Context, event models.AuditEvent) error {
	query, args, err := buildInsertAuditQuery(event)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	ctx, cancel := a.bounded(ctx)
	defer cancel()

	if _, err = a.DB.ExecContext(ctx, query, args...); err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "auditRepository.Create").
			Str("action", event.Action).
			Msg("failed to insert audit event")
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return nil
}
