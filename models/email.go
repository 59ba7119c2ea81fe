package models

// EmailType selects the template the mail delivery side renders.
type EmailType string

const (
	EmailVerification  EmailType = "verification"
	EmailPasswordReset EmailType = "password_reset"

	// EmailChangeNotice goes to the current address; EmailChangeVerification
	// carries the confirmation token to the new one.
	EmailChangeNotice       EmailType = "email_change_notice"
	EmailChangeVerification EmailType = "email_change_verification"
)

// EmailMessage is a queued outbound email. Rendering and delivery happen
// outside this service.
type EmailMessage struct {
	Type      EmailType `json:"type"`
	To        string    `json:"to"`
	FirstName string    `json:"first_name"`
	Token     string    `json:"token,omitempty"`

	// NewEmail is set on email change messages only.
	NewEmail string `json:"new_email,omitempty"`
}
