package service

import (
	"context"
	"testing"
	"time"

	"github.com/MKhiriev/go-auth-gate/internal/cache"
	"github.com/MKhiriev/go-auth-gate/internal/mock"
	"github.com/MKhiriev/go-auth-gate/internal/store"
	"github.com/MKhiriev/go-auth-gate/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type emailChangeFixture struct {
	svc      UserService
	users    *mock.MockUserRepository
	notifier *mock.MockNotifier
	kv       *cache.MemoryCache
	clock    *fakeClock
	user     models.User
}

func newEmailChangeFixture(t *testing.T, ctrl *gomock.Controller) *emailChangeFixture {
	t.Helper()

	clock := newFakeClock()
	kv := cache.NewMemoryCache(cache.WithClock(clock.Now))
	hasher := newTestHasher(t)
	auditor := mock.NewMockAuditor(ctrl)
	auditor.EXPECT().RecordOutcome(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()

	f := &emailChangeFixture{
		users:    mock.NewMockUserRepository(ctrl),
		notifier: mock.NewMockNotifier(ctrl),
		kv:       kv,
		clock:    clock,
		user:     verifiedUser(t, hasher, "old@x.com", "P@ssw0rd1"),
	}
	f.svc = NewUserService(Dependencies{
		Users:    f.users,
		Cache:    kv,
		Limiter:  NewRateLimiter(kv, testRules()),
		Hasher:   hasher,
		Auditor:  auditor,
		Notifier: f.notifier,
	}, testAuthConfig())

	return f
}

// request runs a successful RequestEmailChange and returns the mailed token.
func (f *emailChangeFixture) request(t *testing.T, ctx context.Context, newEmail string) string {
	t.Helper()

	var token string
	f.users.EXPECT().FindByID(ctx, f.user.UserID).Return(f.user, nil)
	f.users.EXPECT().FindAnyByEmail(ctx, newEmail).Return(models.User{}, store.ErrUserNotFound)
	f.notifier.EXPECT().SendEmailChangeNotice(ctx, f.user, newEmail)
	f.notifier.EXPECT().SendEmailChangeVerification(ctx, f.user, newEmail, gomock.Any()).
		Do(func(_ context.Context, _ models.User, _, tok string) { token = tok })

	require.NoError(t, f.svc.RequestEmailChange(ctx, f.user.UserID, "P@ssw0rd1", newEmail))
	require.NotEmpty(t, token)
	return token
}

func TestUserService_EmailChange_RoundTrip(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newEmailChangeFixture(t, ctrl)
	ctx := context.Background()

	token := f.request(t, ctx, "new@x.com")

	ttl, err := f.kv.TTL(ctx, emailChangeKeyPrefix+token)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, ttl)

	f.users.EXPECT().FindByID(ctx, f.user.UserID).Return(f.user, nil)
	f.users.EXPECT().FindAnyByEmail(ctx, "new@x.com").Return(models.User{}, store.ErrUserNotFound)
	f.users.EXPECT().Update(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, u models.User) error {
		assert.Equal(t, f.user.UserID, u.UserID)
		assert.Equal(t, "new@x.com", u.Email)
		assert.True(t, u.IsVerified)
		return nil
	})

	require.NoError(t, f.svc.ConfirmEmailChange(ctx, token))

	err = f.svc.ConfirmEmailChange(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidEmailChangeToken, "the token is single-use")
}

func TestUserService_RequestEmailChange_NormalizesAddress(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newEmailChangeFixture(t, ctrl)
	ctx := context.Background()

	f.users.EXPECT().FindByID(ctx, f.user.UserID).Return(f.user, nil)
	f.users.EXPECT().FindAnyByEmail(ctx, "new@x.com").Return(models.User{}, store.ErrUserNotFound)
	f.notifier.EXPECT().SendEmailChangeNotice(ctx, f.user, "new@x.com")
	f.notifier.EXPECT().SendEmailChangeVerification(ctx, f.user, "new@x.com", gomock.Any())

	assert.NoError(t, f.svc.RequestEmailChange(ctx, f.user.UserID, "P@ssw0rd1", "  New@X.com "))
}

func TestUserService_RequestEmailChange_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		password string
		newEmail string
		holder   *models.User
		wantErr  error
	}{
		{name: "wrong password", password: "wrong", newEmail: "new@x.com", wantErr: ErrIncorrectPassword},
		{name: "same address", password: "P@ssw0rd1", newEmail: "OLD@x.com", wantErr: ErrEmailUnchanged},
		{name: "address taken", password: "P@ssw0rd1", newEmail: "taken@x.com", holder: &models.User{UserID: uuid.New()}, wantErr: ErrEmailAlreadyExists},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			f := newEmailChangeFixture(t, ctrl)
			ctx := context.Background()

			f.users.EXPECT().FindByID(ctx, f.user.UserID).Return(f.user, nil)
			if tt.holder != nil {
				f.users.EXPECT().FindAnyByEmail(ctx, tt.newEmail).Return(*tt.holder, nil)
			}

			err := f.svc.RequestEmailChange(ctx, f.user.UserID, tt.password, tt.newEmail)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestUserService_ConfirmEmailChange_Rejections(t *testing.T) {
	t.Run("unknown token", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		f := newEmailChangeFixture(t, ctrl)
		err := f.svc.ConfirmEmailChange(context.Background(), "nope")
		assert.ErrorIs(t, err, ErrInvalidEmailChangeToken)
	})

	t.Run("expired token", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		f := newEmailChangeFixture(t, ctrl)
		ctx := context.Background()
		token := f.request(t, ctx, "new@x.com")

		f.clock.Advance(2 * time.Hour)

		err := f.svc.ConfirmEmailChange(ctx, token)
		assert.ErrorIs(t, err, ErrInvalidEmailChangeToken)
	})

	t.Run("address claimed after the request", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		f := newEmailChangeFixture(t, ctrl)
		ctx := context.Background()
		token := f.request(t, ctx, "new@x.com")

		f.users.EXPECT().FindByID(ctx, f.user.UserID).Return(f.user, nil)
		f.users.EXPECT().FindAnyByEmail(ctx, "new@x.com").Return(models.User{UserID: uuid.New()}, nil)

		err := f.svc.ConfirmEmailChange(ctx, token)
		assert.ErrorIs(t, err, ErrEmailAlreadyExists)
	})

	t.Run("unique constraint on update", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		f := newEmailChangeFixture(t, ctrl)
		ctx := context.Background()
		token := f.request(t, ctx, "new@x.com")

		f.users.EXPECT().FindByID(ctx, f.user.UserID).Return(f.user, nil)
		f.users.EXPECT().FindAnyByEmail(ctx, "new@x.com").Return(models.User{}, store.ErrUserNotFound)
		f.users.EXPECT().Update(ctx, gomock.Any()).Return(store.ErrEmailAlreadyExists)

		err := f.svc.ConfirmEmailChange(ctx, token)
		assert.ErrorIs(t, err, ErrEmailAlreadyExists)
	})

	t.Run("account gone", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		f := newEmailChangeFixture(t, ctrl)
		ctx := context.Background()
		token := f.request(t, ctx, "new@x.com")

		f.users.EXPECT().FindByID(ctx, f.user.UserID).Return(models.User{}, store.ErrUserNotFound)

		err := f.svc.ConfirmEmailChange(ctx, token)
		assert.ErrorIs(t, err, ErrInvalidEmailChangeToken)
	})
}
