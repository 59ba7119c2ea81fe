package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/MKhiriev/go-auth-gate/internal/config"
	"github.com/MKhiriev/go-auth-gate/internal/logger"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// retry delays for reads that failed with a retryable Postgres error.
var retryDelays = []time.Duration{50 * time.Millisecond, 150 * time.Millisecond}

func NewConnectPostgres(ctx context.Context, cfg config.Storage, log *logger.Logger) (*DB, error) {
	// establish connection
	conn, err := sql.Open("pgx", cfg.DB.DSN)
	if err != nil {
		log.Err(err).Str("func", "NewConnectPostgres").Msg("error occurred during database connection")
		return nil, fmt.Errorf("error occurred during database connection: %w", err)
	}

	// setup connections
	if cfg.DB.MaxOpenConns > 0 {
		conn.SetMaxOpenConns(cfg.DB.MaxOpenConns)
		conn.SetMaxIdleConns(cfg.DB.MaxOpenConns)
	}

	// ping database
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err = conn.PingContext(pingCtx); err != nil {
		log.Err(err).Str("func", "NewConnectPostgres").Msg("error connecting database (ping)")
		_ = conn.Close()
		return nil, err
	}
	log.Info().Str("func", "NewConnectPostgres").Msg("connected to database successfully")

	return newDB(conn, cfg.CallTimeout, log), nil
}

func newDB(conn *sql.DB, callTimeout time.Duration, log *logger.Logger) *DB {
	return &DB{
		DB:                 conn,
		logger:             log,
		callTimeout:        callTimeout,
		errorClassificator: NewPostgresErrorClassifier(),
	}
}

// bounded derives the per-call context.
func (db *DB) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	if db.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, db.callTimeout)
}

// withRetry runs op, retrying it while the failure is classified as
// retryable. Each attempt gets its own call timeout.
func (db *DB) withRetry(ctx context.Context, op func(ctx context.Context) error) error {
	var err error
	for attempt := 0; ; attempt++ {
		callCtx, cancel := db.bounded(ctx)
		err = op(callCtx)
		cancel()

		if err == nil || attempt >= len(retryDelays) || db.errorClassificator.Classify(err) != Retryable {
			return err
		}

		logger.FromContext(ctx).Warn().Err(err).
			Str("func", "*DB.withRetry").
			Int("attempt", attempt+1).
			Msg("retryable database error")

		select {
		case <-ctx.Done():
			return errors.Join(err, ctx.Err())
		case <-time.After(retryDelays[attempt]):
		}
	}
}

func postgresError(err error) string {
	var pgErr *pgconn.PgError
	// if postgres returns error
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}

	return ""
}
