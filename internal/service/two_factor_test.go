package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/MKhiriev/go-auth-gate/internal/mock"
	"github.com/MKhiriev/go-auth-gate/internal/store"
	"github.com/MKhiriev/go-auth-gate/models"
	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// newTestTwoFactorSvc is a helper that wires twoFactorService to gomock repositories.
func newTestTwoFactorSvc(t *testing.T, ctrl *gomock.Controller, clock *fakeClock) (
	*twoFactorService,
	*mock.MockTwoFactorRepository,
	*mock.MockUserRepository,
) {
	t.Helper()
	secrets := mock.NewMockTwoFactorRepository(ctrl)
	users := mock.NewMockUserRepository(ctrl)

	svc := NewTwoFactorService(secrets, users, newTestHasher(t), testAuthConfig()).(*twoFactorService)
	svc.now = clock.Now

	return svc, secrets, users
}

func currentCode(t *testing.T, secret string, at time.Time) string {
	t.Helper()
	code, err := totp.GenerateCode(secret, at)
	require.NoError(t, err)
	return code
}

// ── BeginSetup ───────────────────────────────────────────────────────────────

func TestTwoFactor_BeginSetup_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, secrets, users := newTestTwoFactorSvc(t, ctrl, newFakeClock())
	ctx := context.Background()
	userID := uuid.New()

	var stored models.TwoFactorSecret

	users.EXPECT().FindByID(ctx, userID).Return(models.User{UserID: userID, Email: "a@x.com"}, nil)
	secrets.EXPECT().FindByUserID(ctx, userID).Return(models.TwoFactorSecret{}, store.ErrTwoFactorNotFound)
	secrets.EXPECT().Upsert(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, s models.TwoFactorSecret) error {
		stored = s
		return nil
	})

	setup, err := svc.BeginSetup(ctx, userID)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(setup.QRCodeURI, "data:image/png;base64,"))
	assert.True(t, strings.HasPrefix(setup.ProvisioningURI, "otpauth://totp/"))
	assert.Contains(t, setup.ProvisioningURI, "issuer=go-auth-gate")
	assert.NotEmpty(t, setup.SecretKey)

	require.Len(t, setup.BackupCodes, 8)
	for _, code := range setup.BackupCodes {
		assert.Len(t, code, 8)
		assert.Regexp(t, `^[0-9]{8}$`, code)
	}

	// persisted disabled, with hashed codes only
	assert.Equal(t, userID, stored.UserID)
	assert.Equal(t, setup.SecretKey, stored.SecretKey)
	assert.False(t, stored.Enabled)
	require.Len(t, stored.BackupCodes, 8)
	for i, hash := range stored.BackupCodes {
		assert.NotEqual(t, setup.BackupCodes[i], hash)
		assert.True(t, svc.hasher.Matches(hash, setup.BackupCodes[i]))
	}
}

func TestTwoFactor_BeginSetup_AlreadyEnabled(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, secrets, users := newTestTwoFactorSvc(t, ctrl, newFakeClock())
	ctx := context.Background()
	userID := uuid.New()

	users.EXPECT().FindByID(ctx, userID).Return(models.User{UserID: userID}, nil)
	secrets.EXPECT().FindByUserID(ctx, userID).Return(models.TwoFactorSecret{UserID: userID, Enabled: true}, nil)

	_, err := svc.BeginSetup(ctx, userID)
	assert.ErrorIs(t, err, ErrTwoFactorAlreadyEnabled)
}

func TestTwoFactor_BeginSetup_PendingSetupIsReplaced(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, secrets, users := newTestTwoFactorSvc(t, ctrl, newFakeClock())
	ctx := context.Background()
	userID := uuid.New()

	users.EXPECT().FindByID(ctx, userID).Return(models.User{UserID: userID, Email: "a@x.com"}, nil)
	secrets.EXPECT().FindByUserID(ctx, userID).Return(models.TwoFactorSecret{UserID: userID, SecretKey: "OLDSECRET"}, nil)
	secrets.EXPECT().Upsert(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, s models.TwoFactorSecret) error {
		assert.NotEqual(t, "OLDSECRET", s.SecretKey)
		return nil
	})

	_, err := svc.BeginSetup(ctx, userID)
	require.NoError(t, err)
}

// ── ConfirmSetup ─────────────────────────────────────────────────────────────

func TestTwoFactor_ConfirmSetup(t *testing.T) {
	clock := newFakeClock()
	key, err := totp.Generate(totp.GenerateOpts{Issuer: "go-auth-gate", AccountName: "a@x.com"})
	require.NoError(t, err)
	secret := key.Secret()

	tests := []struct {
		name    string
		record  models.TwoFactorSecret
		findErr error
		code    string
		update  bool
		wantErr error
	}{
		{name: "valid code", record: models.TwoFactorSecret{SecretKey: secret}, code: currentCode(t, secret, clock.Now()), update: true},
		{name: "previous step within skew", record: models.TwoFactorSecret{SecretKey: secret}, code: currentCode(t, secret, clock.Now().Add(-30*time.Second)), update: true},
		{name: "wrong code", record: models.TwoFactorSecret{SecretKey: secret}, code: "000000", wantErr: ErrInvalidSetupCode},
		{name: "backup-code shaped", record: models.TwoFactorSecret{SecretKey: secret}, code: "12345678", wantErr: ErrInvalidSetupCode},
		{name: "stale code", record: models.TwoFactorSecret{SecretKey: secret}, code: currentCode(t, secret, clock.Now().Add(-5*time.Minute)), wantErr: ErrInvalidSetupCode},
		{name: "no setup", findErr: store.ErrTwoFactorNotFound, code: "123456", wantErr: ErrTwoFactorNotSetUp},
		{name: "already enabled", record: models.TwoFactorSecret{SecretKey: secret, Enabled: true}, code: "123456", wantErr: ErrTwoFactorAlreadyEnabled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			svc, secrets, _ := newTestTwoFactorSvc(t, ctrl, clock)
			ctx := context.Background()
			userID := uuid.New()
			tt.record.UserID = userID

			secrets.EXPECT().FindByUserID(ctx, userID).Return(tt.record, tt.findErr)
			if tt.update {
				secrets.EXPECT().Update(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, s models.TwoFactorSecret) error {
					assert.True(t, s.Enabled)
					assert.Equal(t, secret, s.SecretKey)
					require.NotNil(t, s.VerifiedAt)
					assert.Equal(t, clock.Now(), *s.VerifiedAt)
					return nil
				})
			}

			err := svc.ConfirmSetup(ctx, userID, tt.code)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestTwoFactor_ConfirmSetup_SecretReplacedConcurrently(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	clock := newFakeClock()
	key, err := totp.Generate(totp.GenerateOpts{Issuer: "go-auth-gate", AccountName: "a@x.com"})
	require.NoError(t, err)

	svc, secrets, _ := newTestTwoFactorSvc(t, ctrl, clock)
	ctx := context.Background()
	userID := uuid.New()

	secrets.EXPECT().FindByUserID(ctx, userID).Return(models.TwoFactorSecret{UserID: userID, SecretKey: key.Secret()}, nil)
	secrets.EXPECT().Update(ctx, gomock.Any()).Return(store.ErrTwoFactorNotFound)

	err = svc.ConfirmSetup(ctx, userID, currentCode(t, key.Secret(), clock.Now()))
	assert.ErrorIs(t, err, ErrTwoFactorSetupReplaced)
}

// ── VerifyAtLogin ────────────────────────────────────────────────────────────

func TestTwoFactor_VerifyAtLogin_NotRequired(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, secrets, _ := newTestTwoFactorSvc(t, ctrl, newFakeClock())
	ctx := context.Background()

	missing, pending := uuid.New(), uuid.New()
	secrets.EXPECT().FindByUserID(ctx, missing).Return(models.TwoFactorSecret{}, store.ErrTwoFactorNotFound)
	secrets.EXPECT().FindByUserID(ctx, pending).Return(models.TwoFactorSecret{UserID: pending, SecretKey: "X"}, nil)

	ok, err := svc.VerifyAtLogin(ctx, missing, "anything")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.VerifyAtLogin(ctx, pending, "anything")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestTwoFactor_VerifyAtLogin_TOTP(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	clock := newFakeClock()
	svc, secrets, _ := newTestTwoFactorSvc(t, ctrl, clock)
	ctx := context.Background()
	userID := uuid.New()

	key, err := totp.Generate(totp.GenerateOpts{Issuer: "go-auth-gate", AccountName: "a@x.com"})
	require.NoError(t, err)

	secrets.EXPECT().FindByUserID(ctx, userID).Return(models.TwoFactorSecret{
		UserID: userID, SecretKey: key.Secret(), Enabled: true,
	}, nil).Times(2)

	ok, err := svc.VerifyAtLogin(ctx, userID, currentCode(t, key.Secret(), clock.Now()))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.VerifyAtLogin(ctx, userID, "000000")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTwoFactor_VerifyAtLogin_BackupCodeIsSingleUse(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, secrets, _ := newTestTwoFactorSvc(t, ctrl, newFakeClock())
	ctx := context.Background()
	userID := uuid.New()

	codes := []string{"11111111", "22222222", "33333333"}
	record := models.TwoFactorSecret{UserID: userID, SecretKey: "JBSWY3DPEHPK3PXP", Enabled: true}
	for _, c := range codes {
		record.BackupCodes = append(record.BackupCodes, mustHash(t, svc.hasher, c))
	}

	// the repository reflects whatever was last persisted
	secrets.EXPECT().FindByUserID(ctx, userID).DoAndReturn(
		func(context.Context, uuid.UUID) (models.TwoFactorSecret, error) { return record, nil },
	).AnyTimes()
	secrets.EXPECT().ConsumeBackupCode(ctx, userID, gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, _ uuid.UUID, previous, updated []string) error {
			assert.Equal(t, record.BackupCodes, previous)
			record.BackupCodes = updated
			return nil
		},
	).Times(1)

	ok, err := svc.VerifyAtLogin(ctx, userID, "22222222")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, models.UsedBackupCode, record.BackupCodes[1])
	assert.Equal(t, 2, record.RemainingBackupCodes())

	ok, err = svc.VerifyAtLogin(ctx, userID, "22222222")
	require.NoError(t, err)
	assert.False(t, ok, "a used backup code never verifies again")
}

func TestTwoFactor_VerifyAtLogin_BackupCodeRace(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, secrets, _ := newTestTwoFactorSvc(t, ctrl, newFakeClock())
	ctx := context.Background()
	userID := uuid.New()

	record := models.TwoFactorSecret{
		UserID: userID, SecretKey: "JBSWY3DPEHPK3PXP", Enabled: true,
		BackupCodes: []string{mustHash(t, svc.hasher, "11111111")},
	}

	secrets.EXPECT().FindByUserID(ctx, userID).Return(record, nil)
	secrets.EXPECT().ConsumeBackupCode(ctx, userID, gomock.Any(), gomock.Any()).Return(store.ErrBackupCodeConflict)

	ok, err := svc.VerifyAtLogin(ctx, userID, "11111111")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTwoFactor_VerifyAtLogin_StoreError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, secrets, _ := newTestTwoFactorSvc(t, ctrl, newFakeClock())
	ctx := context.Background()
	userID := uuid.New()
	boom := errors.New("db down")

	secrets.EXPECT().FindByUserID(ctx, userID).Return(models.TwoFactorSecret{}, boom)

	_, err := svc.VerifyAtLogin(ctx, userID, "123456")
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, KindOf(err))
}

// ── Status / Disable ─────────────────────────────────────────────────────────

func TestTwoFactor_Status(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, secrets, _ := newTestTwoFactorSvc(t, ctrl, newFakeClock())
	ctx := context.Background()
	userID := uuid.New()

	secrets.EXPECT().FindByUserID(ctx, userID).Return(models.TwoFactorSecret{Enabled: true}, nil)

	status, err := svc.Status(ctx, userID)
	require.NoError(t, err)
	assert.True(t, status.Enabled)
}

func TestTwoFactor_Disable(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, secrets, users := newTestTwoFactorSvc(t, ctrl, newFakeClock())
	ctx := context.Background()
	user := verifiedUser(t, svc.hasher, "a@x.com", "P@ssw0rd1")

	users.EXPECT().FindByID(ctx, user.UserID).Return(user, nil).Times(3)

	// wrong password: nothing else is touched
	err := svc.Disable(ctx, user.UserID, "wrong")
	assert.ErrorIs(t, err, ErrIncorrectPassword)

	secrets.EXPECT().FindByUserID(ctx, user.UserID).Return(models.TwoFactorSecret{}, store.ErrTwoFactorNotFound)
	err = svc.Disable(ctx, user.UserID, "P@ssw0rd1")
	assert.ErrorIs(t, err, ErrTwoFactorNotSetUp)

	gomock.InOrder(
		secrets.EXPECT().FindByUserID(ctx, user.UserID).Return(models.TwoFactorSecret{UserID: user.UserID, Enabled: true}, nil),
		secrets.EXPECT().DeleteByUserID(ctx, user.UserID).Return(nil),
	)
	require.NoError(t, svc.Disable(ctx, user.UserID, "P@ssw0rd1"))
}
