package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MKhiriev/go-auth-gate/internal/logger"
	"github.com/MKhiriev/go-auth-gate/models"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
)

// userRepository is the PostgreSQL-backed implementation of [UserRepository].
//
// All methods obtain a context-scoped logger via [logger.FromContext] for
// structured, request-level tracing of database interactions.
type userRepository struct {
	logger *logger.Logger
	db     *DB
}

func NewUserRepository(db *DB, logger *logger.Logger) UserRepository {
	logger.Debug().Msg("creating user repository")
	return &userRepository{
		db:     db,
		logger: logger,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (models.User, error) {
	var (
		user models.User
		role string
	)
	err := row.Scan(
		&user.UserID,
		&user.FirstName,
		&user.LastName,
		&user.Email,
		&user.PasswordHash,
		&role,
		&user.IsActive,
		&user.IsVerified,
		&user.VerificationToken,
		&user.VerifiedAt,
		&user.DeletedAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return models.User{}, err
	}

	user.PlatformRole, err = models.ParsePlatformRole(role)
	if err != nil {
		return models.User{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	return user, nil
}

func (r *userRepository) FindActiveByEmail(ctx context.Context, email string) (models.User, error) {
	return r.findOne(ctx, "*userRepository.FindActiveByEmail", func() (string, []any, error) {
		return buildFindUserByEmailQuery(email, true)
	})
}

func (r *userRepository) FindAnyByEmail(ctx context.Context, email string) (models.User, error) {
	return r.findOne(ctx, "*userRepository.FindAnyByEmail", func() (string, []any, error) {
		return buildFindUserByEmailQuery(email, false)
	})
}

func (r *userRepository) FindByID(ctx context.Context, userID uuid.UUID) (models.User, error) {
	return r.findOne(ctx, "*userRepository.FindByID", func() (string, []any, error) {
		return buildFindUserByIDQuery(userID)
	})
}

func (r *userRepository) FindAnyByID(ctx context.Context, userID uuid.UUID) (models.User, error) {
	return r.findOne(ctx, "*userRepository.FindAnyByID", func() (string, []any, error) {
		return buildFindAnyUserByIDQuery(userID)
	})
}

func (r *userRepository) FindByVerificationToken(ctx context.Context, token string) (models.User, error) {
	return r.findOne(ctx, "*userRepository.FindByVerificationToken", func() (string, []any, error) {
		return buildFindUserByVerificationTokenQuery(token)
	})
}

func (r *userRepository) findOne(ctx context.Context, fn string, build func() (string, []any, error)) (models.User, error) {
	log := logger.FromContext(ctx)

	query, args, err := build()
	if err != nil {
		log.Err(err).Str("func", fn).Msg("failed to build query")
		return models.User{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var user models.User
	err = r.db.withRetry(ctx, func(ctx context.Context) error {
		var scanErr error
		user, scanErr = scanUser(r.db.QueryRowContext(ctx, query, args...))
		return scanErr
	})
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	if err != nil {
		log.Err(err).Str("func", fn).Msg("error querying user")
		return models.User{}, fmt.Errorf("unexpected DB error: %w", err)
	}

	return user, nil
}

// Create persists a new user and returns it with the server-assigned
// timestamps. The email is stored lower-cased.
//
// PostgreSQL unique_violation (23505) → [ErrEmailAlreadyExists].
func (r *userRepository) Create(ctx context.Context, user models.User) (models.User, error) {
	log := logger.FromContext(ctx)

	query, args, err := buildInsertUserQuery(user)
	if err != nil {
		log.Err(err).Str("func", "*userRepository.Create").Msg("failed to build query")
		return models.User{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	ctx, cancel := r.db.bounded(ctx)
	defer cancel()

	if err = r.db.QueryRowContext(ctx, query, args...).Scan(&user.CreatedAt, &user.UpdatedAt); err != nil {
		log.Err(err).Str("func", "*userRepository.Create").Msg("error inserting user")

		switch postgresError(err) {
		case pgerrcode.UniqueViolation:
			return models.User{}, ErrEmailAlreadyExists
		default:
			return models.User{}, fmt.Errorf("unexpected DB error: %w", err)
		}
	}

	return user, nil
}

// Update overwrites the mutable columns of an existing user. Moving the
// account onto an address another account holds → [ErrEmailAlreadyExists].
func (r *userRepository) Update(ctx context.Context, user models.User) error {
	query, args, err := buildUpdateUserQuery(user)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	return r.execAffectingOne(ctx, "*userRepository.Update", query, args)
}

// SoftDelete deactivates the account and stamps deleted_at. Deleting an
// already deleted account reports [ErrUserNotFound].
func (r *userRepository) SoftDelete(ctx context.Context, userID uuid.UUID) error {
	query, args, err := buildSoftDeleteUserQuery(userID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	return r.execAffectingOne(ctx, "*userRepository.SoftDelete", query, args)
}

func (r *userRepository) execAffectingOne(ctx context.Context, fn, query string, args []any) error {
	log := logger.FromContext(ctx)

	ctx, cancel := r.db.bounded(ctx)
	defer cancel()

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Err(err).Str("func", fn).Msg("error executing statement")
		if postgresError(err) == pgerrcode.UniqueViolation {
			return ErrEmailAlreadyExists
		}
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	if rowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}
