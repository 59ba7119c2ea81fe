package service

import (
	"context"
	"sync"
	"time"

	"github.com/MKhiriev/go-auth-gate/internal/logger"
	"github.com/MKhiriev/go-auth-gate/models"
)

// emailNotifier hands outbound emails to a Mailer without blocking the
// caller. Delivery failures are logged and dropped.
type emailNotifier struct {
	mailer  Mailer
	timeout time.Duration

	wg sync.WaitGroup
}

func NewEmailNotifier(mailer Mailer, timeout time.Duration) Notifier {
	return &emailNotifier{mailer: mailer, timeout: timeout}
}

func (n *emailNotifier) SendVerification(ctx context.Context, user models.User, token string) {
	n.send(ctx, models.EmailMessage{
		Type:      models.EmailVerification,
		To:        user.Email,
		FirstName: user.FirstName,
		Token:     token,
	})
}

func (n *emailNotifier) SendPasswordReset(ctx context.Context, user models.User, token string) {
	n.send(ctx, models.EmailMessage{
		Type:      models.EmailPasswordReset,
		To:        user.Email,
		FirstName: user.FirstName,
		Token:     token,
	})
}

// SendEmailChangeNotice tells the current address that a change to
// newEmail was requested.
func (n *emailNotifier) SendEmailChangeNotice(ctx context.Context, user models.User, newEmail string) {
	n.send(ctx, models.EmailMessage{
		Type:      models.EmailChangeNotice,
		To:        user.Email,
		FirstName: user.FirstName,
		NewEmail:  newEmail,
	})
}

func (n *emailNotifier) SendEmailChangeVerification(ctx context.Context, user models.User, newEmail, token string) {
	n.send(ctx, models.EmailMessage{
		Type:      models.EmailChangeVerification,
		To:        newEmail,
		FirstName: user.FirstName,
		Token:     token,
		NewEmail:  newEmail,
	})
}

func (n *emailNotifier) send(ctx context.Context, msg models.EmailMessage) {
	detached := context.WithoutCancel(ctx)

	n.wg.Go(func() {
		sendCtx, cancel := context.WithTimeout(detached, n.timeout)
		defer cancel()

		if err := n.mailer.Send(sendCtx, msg); err != nil {
			logger.FromContext(detached).Err(err).
				Str("func", "emailNotifier.send").
				Str("type", string(msg.Type)).
				Msg("email hand-off failed")
		}
	})
}

// Wait blocks until every pending hand-off finished.
func (n *emailNotifier) Wait() {
	n.wg.Wait()
}
