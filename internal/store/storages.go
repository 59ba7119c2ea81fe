package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/MKhiriev/go-auth-gate/internal/cache"
	"github.com/MKhiriev/go-auth-gate/internal/config"
	"github.com/MKhiriev/go-auth-gate/internal/logger"
)

// Storages groups the durable repositories and the shared TTL cache.
type Storages struct {
	UserRepository      UserRepository
	TwoFactorRepository TwoFactorRepository
	SessionRepository   SessionRepository
	AuditRepository     AuditRepository
	Cache               cache.Cache

	db *DB
}

// NewStorages connects to Postgres, applies pending migrations and opens the
// cache backend selected in cfg.Cache.
func NewStorages(ctx context.Context, cfg *config.StructuredConfig, log *logger.Logger) (*Storages, error) {
	log.Info().Msg("creating new storages...")

	db, err := NewConnectPostgres(ctx, cfg.Storage, log)
	if err != nil {
		return nil, fmt.Errorf("postgres connection error: %w", err)
	}

	if err = db.Migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	kv, err := cache.New(ctx, cfg.Cache, cfg.Storage.CallTimeout, log)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("cache connection error: %w", err)
	}

	return &Storages{
		UserRepository:      NewUserRepository(db, log),
		TwoFactorRepository: NewTwoFactorRepository(db, log),
		SessionRepository:   NewSessionRepository(db, log),
		AuditRepository:     NewAuditRepository(db, log),
		Cache:               kv,
		db:                  db,
	}, nil
}

// Ping reports whether the database is reachable. Used by the health service.
func (s *Storages) Ping(ctx context.Context) error {
	if s.db == nil {
		return errors.New("storages are not connected")
	}
	ctx, cancel := s.db.bounded(ctx)
	defer cancel()
	return s.db.PingContext(ctx)
}

func (s *Storages) Close() error {
	var errs []error
	if s.Cache != nil {
		errs = append(errs, s.Cache.Close())
	}
	if s.db != nil {
		errs = append(errs, s.db.Close())
	}
	return errors.Join(errs...)
}
