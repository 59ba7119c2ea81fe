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

type twoFactorRepository struct {
	*DB
	logger *logger.Logger
}

func NewTwoFactorRepository(db *DB, logger *logger.Logger) TwoFactorRepository {
	return &twoFactorRepository{
		DB:     db,
		logger: logger,
	}
}

func (t *twoFactorRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (models.TwoFactorSecret, error) {
	log := logger.FromContext(ctx)

	query, args, err := buildFindTwoFactorQuery(userID)
	if err != nil {
		return models.TwoFactorSecret{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var (
		secret models.TwoFactorSecret
		codes  string
	)
	err = t.withRetry(ctx, func(ctx context.Context) error {
		return t.DB.QueryRowContext(ctx, query, args...).Scan(
			&secret.UserID,
			&secret.SecretKey,
			&secret.Enabled,
			&codes,
			&secret.CreatedAt,
			&secret.VerifiedAt,
		)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return models.TwoFactorSecret{}, ErrTwoFactorNotFound
	}
	if err != nil {
		log.Err(err).
			Str("func", "twoFactorRepository.FindByUserID").
			Str("user_id", userID.String()).
			Msg("failed to query two-factor record")
		return models.TwoFactorSecret{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	secret.BackupCodes = splitBackupCodes(codes)
	return secret, nil
}

func (t *twoFactorRepository) Upsert(ctx context.Context, secret models.TwoFactorSecret) error {
	log := logger.FromContext(ctx)

	query, args, err := buildUpsertTwoFactorQuery(secret)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	ctx, cancel := t.bounded(ctx)
	defer cancel()

	if _, err = t.DB.ExecContext(ctx, query, args...); err != nil {
		log.Err(err).
			Str("func", "twoFactorRepository.Upsert").
			Str("user_id", secret.UserID.String()).
			Msg("failed to upsert two-factor record")
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return nil
}

func (t *twoFactorRepository) Update(ctx context.Context, secret models.TwoFactorSecret) error {
	query, args, err := buildUpdateTwoFactorQuery(secret)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	n, err := t.exec(ctx, "twoFactorRepository.Update", query, args)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrTwoFactorNotFound
	}

	return nil
}

func (t *twoFactorRepository) ConsumeBackupCode(ctx context.Context, userID uuid.UUID, previous, updated []string) error {
	query, args, err := buildConsumeBackupCodeQuery(userID, previous, updated)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	n, err := t.exec(ctx, "twoFactorRepository.ConsumeBackupCode", query, args)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrBackupCodeConflict
	}

	return nil
}

// DeleteByUserID is idempotent.
func (t *twoFactorRepository) DeleteByUserID(ctx context.Context, userID uuid.UUID) error {
	query, args, err := buildDeleteTwoFactorQuery(userID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	_, err = t.exec(ctx, "twoFactorRepository.DeleteByUserID", query, args)
	return err
}

func (t *twoFactorRepository) exec(ctx context.Context, fn, query string, args []any) (int64, error) {
	log := logger.FromContext(ctx)

	ctx, cancel := t.bounded(ctx)
	defer cancel()

	result, err := t.DB.ExecContext(ctx, query, args...)
	if err != nil {
		log.Err(err).Str("func", fn).Msg("failed to execute statement")
		return 0, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return result.RowsAffected()
}
