package models

import (
	"time"

	"github.com/google/uuid"
)

// UsedBackupCode replaces a backup code hash once the code has been consumed.
const UsedBackupCode = "USED"

// TwoFactorSecret is the per-user TOTP configuration.
//
// A row is created disabled when setup starts, flips to enabled after the
// first valid code and is removed entirely when the user disables 2FA.
type TwoFactorSecret struct {
	UserID uuid.UUID

	// SecretKey is the base32 TOTP shared secret.
	SecretKey string

	Enabled bool

	// BackupCodes holds bcrypt hashes of the one-time backup codes in issue
	// order. Consumed entries are replaced by [UsedBackupCode].
	BackupCodes []string

	CreatedAt  time.Time
	VerifiedAt *time.Time
}

// RemainingBackupCodes returns the number of backup codes not yet consumed.
func (s TwoFactorSecret) RemainingBackupCodes() int {
	n := 0
	for _, c := range s.BackupCodes {
		if c != UsedBackupCode {
			n++
		}
	}
	return n
}

// TableName returns the name of the database table
// associated with the TwoFactorSecret model.
func (s TwoFactorSecret) TableName() string {
	return "two_factor_auth"
}

// TwoFactorSetup is returned exactly once when a user begins 2FA setup.
// The raw backup codes are never retrievable again.
type TwoFactorSetup struct {
	// QRCodeURI is a data:image/png;base64 payload of the provisioning QR code.
	QRCodeURI string `json:"qrCodeUri"`

	// ProvisioningURI is the otpauth:// URI encoded in the QR code.
	ProvisioningURI string `json:"provisioningUri"`

	SecretKey   string   `json:"secretKey"`
	BackupCodes []string `json:"backupCodes"`
}

// TwoFactorStatus describes whether 2FA is active for the caller.
type TwoFactorStatus struct {
	Enabled bool `json:"enabled"`
}
