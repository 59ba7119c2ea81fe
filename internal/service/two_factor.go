package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image/png"
	"slices"
	"time"

	"github.com/MKhiriev/go-auth-gate/internal/config"
	"github.com/MKhiriev/go-auth-gate/internal/logger"
	"github.com/MKhiriev/go-auth-gate/internal/store"
	"github.com/MKhiriev/go-auth-gate/internal/utils"
	"github.com/MKhiriev/go-auth-gate/models"
	"github.com/google/uuid"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	backupCodeCount  = 8
	backupCodeDigits = 8
	totpPeriod       = 30
	qrCodeSize       = 200
)

// twoFactorService drives the per-user disabled → pending-setup → enabled
// TOTP state machine.
type twoFactorService struct {
	secrets store.TwoFactorRepository
	users   store.UserRepository
	hasher  *PasswordHasher

	issuer string
	skew   uint
	now    func() time.Time
}

func NewTwoFactorService(secrets store.TwoFactorRepository, users store.UserRepository, hasher *PasswordHasher, cfg config.Auth) TwoFactorService {
	return &twoFactorService{
		secrets: secrets,
		users:   users,
		hasher:  hasher,
		issuer:  cfg.TOTPIssuer,
		skew:    cfg.TOTPSkew,
		now:     time.Now,
	}
}

func (s *twoFactorService) validateOpts() totp.ValidateOpts {
	return totp.ValidateOpts{
		Period:    totpPeriod,
		Skew:      s.skew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	}
}

// find returns the record of userID; ok is false when none exists.
func (s *twoFactorService) find(ctx context.Context, userID uuid.UUID) (models.TwoFactorSecret, bool, error) {
	secret, err := s.secrets.FindByUserID(ctx, userID)
	if errors.Is(err, store.ErrTwoFactorNotFound) {
		return models.TwoFactorSecret{}, false, nil
	}
	if err != nil {
		return models.TwoFactorSecret{}, false, fmt.Errorf("error loading 2FA record: %w", err)
	}
	return secret, true, nil
}

// BeginSetup generates a fresh secret and backup codes and stores them
// disabled. The raw codes are returned exactly once.
func (s *twoFactorService) BeginSetup(ctx context.Context, userID uuid.UUID) (models.TwoFactorSetup, error) {
	log := logger.FromContext(ctx)

	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, store.ErrUserNotFound) {
		return models.TwoFactorSetup{}, ErrUserNotFound
	}
	if err != nil {
		return models.TwoFactorSetup{}, fmt.Errorf("error loading user: %w", err)
	}

	existing, ok, err := s.find(ctx, userID)
	if err != nil {
		return models.TwoFactorSetup{}, err
	}
	if ok && existing.Enabled {
		return models.TwoFactorSetup{}, ErrTwoFactorAlreadyEnabled
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.issuer,
		AccountName: user.Email,
		Period:      totpPeriod,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return models.TwoFactorSetup{}, fmt.Errorf("error generating TOTP secret: %w", err)
	}

	codes, err := utils.NumericCodes(backupCodeCount, backupCodeDigits)
	if err != nil {
		return models.TwoFactorSetup{}, err
	}

	hashed := make([]string, 0, len(codes))
	for _, code := range codes {
		h, err := s.hasher.Hash(code)
		if err != nil {
			return models.TwoFactorSetup{}, err
		}
		hashed = append(hashed, h)
	}

	qr, err := qrCodeDataURI(key)
	if err != nil {
		return models.TwoFactorSetup{}, err
	}

	if err = s.secrets.Upsert(ctx, models.TwoFactorSecret{
		UserID:      userID,
		SecretKey:   key.Secret(),
		Enabled:     false,
		BackupCodes: hashed,
	}); err != nil {
		log.Err(err).Str("func", "twoFactorService.BeginSetup").Msg("error storing 2FA record")
		return models.TwoFactorSetup{}, fmt.Errorf("error storing 2FA record: %w", err)
	}

	return models.TwoFactorSetup{
		QRCodeURI:       qr,
		ProvisioningURI: key.URL(),
		SecretKey:       key.Secret(),
		BackupCodes:     codes,
	}, nil
}

func qrCodeDataURI(key *otp.Key) (string, error) {
	img, err := key.Image(qrCodeSize, qrCodeSize)
	if err != nil {
		return "", fmt.Errorf("error rendering QR code: %w", err)
	}

	var buf bytes.Buffer
	if err = png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("error encoding QR code: %w", err)
	}

	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// ConfirmSetup enables 2FA once the user proves possession of the secret.
func (s *twoFactorService) ConfirmSetup(ctx context.Context, userID uuid.UUID, code string) error {
	secret, ok, err := s.find(ctx, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrTwoFactorNotSetUp
	}
	if secret.Enabled {
		return ErrTwoFactorAlreadyEnabled
	}

	if !s.validTOTP(code, secret.SecretKey) {
		return ErrInvalidSetupCode
	}

	now := s.now()
	secret.Enabled = true
	secret.VerifiedAt = &now

	// Update matches on the secret, so a setup restarted in between is
	// not enabled with a secret the user never saw.
	if err = s.secrets.Update(ctx, secret); err != nil {
		if errors.Is(err, store.ErrTwoFactorNotFound) {
			return ErrTwoFactorSetupReplaced
		}
		return fmt.Errorf("error enabling 2FA: %w", err)
	}

	return nil
}

func (s *twoFactorService) validTOTP(code, secret string) bool {
	ok, err := totp.ValidateCustom(code, secret, s.now(), s.validateOpts())
	return err == nil && ok
}

// IsEnabled reports whether login for userID needs a second factor.
func (s *twoFactorService) IsEnabled(ctx context.Context, userID uuid.UUID) (bool, error) {
	secret, ok, err := s.find(ctx, userID)
	if err != nil {
		return false, err
	}
	return ok && secret.Enabled, nil
}

func (s *twoFactorService) Status(ctx context.Context, userID uuid.UUID) (models.TwoFactorStatus, error) {
	enabled, err := s.IsEnabled(ctx, userID)
	if err != nil {
		return models.TwoFactorStatus{}, err
	}
	return models.TwoFactorStatus{Enabled: enabled}, nil
}

// VerifyAtLogin accepts a current TOTP code or an unused backup code.
// A matching backup code is invalidated in place. Users without an enabled
// record pass trivially.
func (s *twoFactorService) VerifyAtLogin(ctx context.Context, userID uuid.UUID, code string) (bool, error) {
	secret, ok, err := s.find(ctx, userID)
	if err != nil {
		return false, err
	}
	if !ok || !secret.Enabled {
		return true, nil
	}

	if s.validTOTP(code, secret.SecretKey) {
		return true, nil
	}

	return s.consumeBackupCode(ctx, secret, code)
}

func (s *twoFactorService) consumeBackupCode(ctx context.Context, secret models.TwoFactorSecret, code string) (bool, error) {
	for i, hash := range secret.BackupCodes {
		if hash == models.UsedBackupCode || !s.hasher.Matches(hash, code) {
			continue
		}

		updated := slices.Clone(secret.BackupCodes)
		updated[i] = models.UsedBackupCode

		err := s.secrets.ConsumeBackupCode(ctx, secret.UserID, secret.BackupCodes, updated)
		if errors.Is(err, store.ErrBackupCodeConflict) {
			// a concurrent login consumed a code first
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("error consuming backup code: %w", err)
		}

		logger.FromContext(ctx).Info().
			Str("func", "twoFactorService.consumeBackupCode").
			Str("user_id", secret.UserID.String()).
			Int("remaining", secret.RemainingBackupCodes()-1).
			Msg("backup code used")

		return true, nil
	}

	return false, nil
}

// Disable re-verifies the password and removes the 2FA record.
func (s *twoFactorService) Disable(ctx context.Context, userID uuid.UUID, password string) error {
	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, store.ErrUserNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("error loading user: %w", err)
	}

	if !s.hasher.Matches(user.PasswordHash, password) {
		return ErrIncorrectPassword
	}

	_, ok, err := s.find(ctx, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrTwoFactorNotSetUp
	}

	if err = s.secrets.DeleteByUserID(ctx, userID); err != nil {
		return fmt.Errorf("error deleting 2FA record: %w", err)
	}

	return nil
}
