package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MKhiriev/go-auth-gate/internal/logger"
	"github.com/MKhiriev/go-auth-gate/models"
	"github.com/google/uuid"
)

// sessionRepository keeps refresh sessions in the refresh_sessions table.
// Expired rows are invisible to FindByToken and removed by DeleteExpired.
type sessionRepository struct {
	*DB
	logger *logger.Logger
}

func NewSessionRepository(db *DB, logger *logger.Logger) SessionRepository {
	return &sessionRepository{
		DB:     db,
		logger: logger,
	}
}

func (s *sessionRepository) Create(ctx context.Context, session models.RefreshSession) (models.RefreshSession, error) {
	log := logger.FromContext(ctx)

	query, args, err := buildInsertSessionQuery(session)
	if err != nil {
		return models.RefreshSession{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	ctx, cancel := s.bounded(ctx)
	defer cancel()

	if err = s.DB.QueryRowContext(ctx, query, args...).Scan(&session.ID, &session.CreatedAt); err != nil {
		log.Err(err).
			Str("func", "sessionRepository.Create").
			Str("user_id", session.UserID.String()).
			Msg("failed to insert refresh session")
		return models.RefreshSession{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return session, nil
}

func (s *sessionRepository) FindByToken(ctx context.Context, token string) (models.RefreshSession, error) {
	log := logger.FromContext(ctx)

	query, args, err := buildFindSessionByTokenQuery(token)
	if err != nil {
		return models.RefreshSession{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var session models.RefreshSession
	err = s.withRetry(ctx, func(ctx context.Context) error {
		return s.DB.QueryRowContext(ctx, query, args...).Scan(
			&session.ID,
			&session.Token,
			&session.UserID,
			&session.CreatedAt,
			&session.ExpiresAt,
		)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return models.RefreshSession{}, ErrSessionNotFound
	}
	if err != nil {
		log.Err(err).Str("func", "sessionRepository.FindByToken").Msg("failed to query refresh session")
		return models.RefreshSession{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return session, nil
}

// DeleteByToken is idempotent: deleting an unknown token is not an error.
func (s *sessionRepository) DeleteByToken(ctx context.Context, token string) error {
	query, args, err := buildDeleteSessionByTokenQuery(token)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	_, err = s.exec(ctx, "sessionRepository.DeleteByToken", query, args)
	return err
}

func (s *sessionRepository) DeleteAllByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	query, args, err := buildDeleteSessionsByUserQuery(userID)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	return s.exec(ctx, "sessionRepository.DeleteAllByUserID", query, args)
}

func (s *sessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	query, args, err := buildDeleteExpiredSessionsQuery()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	return s.exec(ctx, "sessionRepository.DeleteExpired", query, args)
}

func (s *sessionRepository) exec(ctx context.Context, fn, query string, args []any) (int64, error) {
	log := logger.FromContext(ctx)

	var n int64
	err := s.withRetry(ctx, func(ctx context.Context) error {
		result, execErr := s.DB.ExecContext(ctx, query, args...)
		if execErr != nil {
			return execErr
		}
		n, execErr = result.RowsAffected()
		return execErr
	})
	if err != nil {
		log.Err(err).Str("func", fn).Msg("failed to execute statement")
		return 0, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return n, nil
}
