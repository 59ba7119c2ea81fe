package store

import "errors"

// Sentinel errors returned by repository methods to signal well-known failure
// conditions. Callers should use [errors.Is] to match against these values.
var (
	// ErrEmailAlreadyExists is returned when an insert hits the unique
	// index on lower(email). Soft-deleted rows keep their email.
	ErrEmailAlreadyExists = errors.New("email already exists")

	// ErrUserNotFound is returned when no (matching) user row exists.
	ErrUserNotFound = errors.New("user not found")

	// ErrTwoFactorNotFound is returned when the user has no 2FA row.
	ErrTwoFactorNotFound = errors.New("two-factor record not found")

	// ErrBackupCodeConflict is returned when the backup code list changed
	// between read and write, i.e. a concurrent login consumed a code first.
	ErrBackupCodeConflict = errors.New("backup codes were modified concurrently")

	// ErrSessionNotFound is returned when no unexpired refresh session
	// matches the token.
	ErrSessionNotFound = errors.New("refresh session not found")
)

// Low-level database operation errors.
var (
	ErrBuildingSQLQuery = errors.New("error building sql query")
	ErrExecutingQuery   = errors.New("error executing sql query")
	ErrScanningRow      = errors.New("failed to scan row")
	ErrScanningRows     = errors.New("failed to scan rows")
)
