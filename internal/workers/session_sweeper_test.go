package workers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MKhiriev/go-auth-gate/internal/logger"
	"github.com/MKhiriev/go-auth-gate/internal/mock"
	"go.uber.org/mock/gomock"
)

func TestSessionSweeper_SweepsUntilCancelled(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sessions := mock.NewMockSessionRepository(ctrl)
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	sessions.EXPECT().DeleteExpired(gomock.Any()).DoAndReturn(func(context.Context) (int64, error) {
		calls++
		if calls == 2 {
			cancel()
			return 0, errors.New("connection reset")
		}
		return 3, nil
	}).MinTimes(2)

	done := make(chan struct{})
	go func() {
		NewSessionSweeper(sessions, 5*time.Millisecond, logger.Nop()).Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not stop after cancel")
	}
}

func TestSessionSweeper_DisabledInterval(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sessions := mock.NewMockSessionRepository(ctrl)

	// no DeleteExpired call is expected
	NewSessionSweeper(sessions, 0, logger.Nop()).Run(context.Background())
}
