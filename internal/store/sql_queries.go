package store

import (
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/MKhiriev/go-auth-gate/models"
	"github.com/google/uuid"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var userColumns = []string{
	"user_id",
	"first_name",
	"last_name",
	"email",
	"password_hash",
	"platform_role",
	"is_active",
	"is_verified",
	"verification_token",
	"verified_at",
	"deleted_at",
	"created_at",
	"updated_at",
}

var twoFactorColumns = []string{
	"user_id",
	"secret_key",
	"enabled",
	"backup_codes",
	"created_at",
	"verified_at",
}

var sessionColumns = []string{
	"id",
	"token",
	"user_id",
	"created_at",
	"expires_at",
}

// backupCodeSeparator never occurs in bcrypt output.
const backupCodeSeparator = ","

func joinBackupCodes(codes []string) string {
	return strings.Join(codes, backupCodeSeparator)
}

func splitBackupCodes(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, backupCodeSeparator)
}

// ── users ──

func buildFindUserByEmailQuery(email string, activeOnly bool) (string, []any, error) {
	q := psql.Select(userColumns...).
		From(models.User{}.TableName()).
		Where("lower(email) = lower(?)", email)
	if activeOnly {
		q = q.Where(sq.Eq{"is_active": true}).Where(sq.Eq{"deleted_at": nil})
	}
	return q.Limit(1).ToSql()
}

func buildFindUserByIDQuery(userID uuid.UUID) (string, []any, error) {
	return psql.Select(userColumns...).
		From(models.User{}.TableName()).
		Where(sq.Eq{"user_id": userID.String()}).
		Where(sq.Eq{"is_active": true}).
		Where(sq.Eq{"deleted_at": nil}).
		ToSql()
}

func buildFindAnyUserByIDQuery(userID uuid.UUID) (string, []any, error) {
	return psql.Select(userColumns...).
		From(models.User{}.TableName()).
		Where(sq.Eq{"user_id": userID.String()}).
		ToSql()
}

func buildFindUserByVerificationTokenQuery(token string) (string, []any, error) {
	return psql.Select(userColumns...).
		From(models.User{}.TableName()).
		Where(sq.Eq{"verification_token": token}).
		Where(sq.Eq{"deleted_at": nil}).
		Limit(1).
		ToSql()
}

func buildInsertUserQuery(user models.User) (string, []any, error) {
	return psql.Insert(models.User{}.TableName()).
		Columns(
			"user_id",
			"first_name",
			"last_name",
			"email",
			"password_hash",
			"platform_role",
			"is_active",
			"is_verified",
			"verification_token",
		).
		Values(
			user.UserID.String(),
			user.FirstName,
			user.LastName,
			strings.ToLower(user.Email),
			user.PasswordHash,
			string(user.PlatformRole),
			user.IsActive,
			user.IsVerified,
			user.VerificationToken,
		).
		Suffix("RETURNING created_at, updated_at").
		ToSql()
}

func buildUpdateUserQuery(user models.User) (string, []any, error) {
	return psql.Update(models.User{}.TableName()).
		Set("first_name", user.FirstName).
		Set("last_name", user.LastName).
		Set("email", strings.ToLower(user.Email)).
		Set("password_hash", user.PasswordHash).
		Set("platform_role", string(user.PlatformRole)).
		Set("is_active", user.IsActive).
		Set("is_verified", user.IsVerified).
		Set("verification_token", user.VerificationToken).
		Set("verified_at", user.VerifiedAt).
		Set("deleted_at", user.DeletedAt).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"user_id": user.UserID.String()}).
		ToSql()
}

func buildSoftDeleteUserQuery(userID uuid.UUID) (string, []any, error) {
	return psql.Update(models.User{}.TableName()).
		Set("is_active", false).
		Set("deleted_at", sq.Expr("now()")).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"user_id": userID.String()}).
		Where(sq.Eq{"deleted_at": nil}).
		ToSql()
}

// ── two-factor ──

func buildFindTwoFactorQuery(userID uuid.UUID) (string, []any, error) {
	return psql.Select(twoFactorColumns...).
		From(models.TwoFactorSecret{}.TableName()).
		Where(sq.Eq{"user_id": userID.String()}).
		ToSql()
}

func buildUpsertTwoFactorQuery(secret models.TwoFactorSecret) (string, []any, error) {
	return psql.Insert(models.TwoFactorSecret{}.TableName()).
		Columns("user_id", "secret_key", "enabled", "backup_codes", "verified_at").
		Values(secret.UserID.String(), secret.SecretKey, secret.Enabled, joinBackupCodes(secret.BackupCodes), secret.VerifiedAt).
		Suffix(`ON CONFLICT (user_id) DO UPDATE SET
			secret_key   = EXCLUDED.secret_key,
			enabled      = EXCLUDED.enabled,
			backup_codes = EXCLUDED.backup_codes,
			verified_at  = EXCLUDED.verified_at,
			created_at   = now()`).
		ToSql()
}

// buildUpdateTwoFactorQuery matches on the secret as well, so a record
// replaced by a concurrent setup is left untouched.
func buildUpdateTwoFactorQuery(secret models.TwoFactorSecret) (string, []any, error) {
	return psql.Update(models.TwoFactorSecret{}.TableName()).
		Set("enabled", secret.Enabled).
		Set("backup_codes", joinBackupCodes(secret.BackupCodes)).
		Set("verified_at", secret.VerifiedAt).
		Where(sq.Eq{"user_id": secret.UserID.String()}).
		Where(sq.Eq{"secret_key": secret.SecretKey}).
		ToSql()
}

func buildConsumeBackupCodeQuery(userID uuid.UUID, previous, updated []string) (string, []any, error) {
	return psql.Update(models.TwoFactorSecret{}.TableName()).
		Set("backup_codes", joinBackupCodes(updated)).
		Where(sq.Eq{"user_id": userID.String()}).
		Where(sq.Eq{"backup_codes": joinBackupCodes(previous)}).
		ToSql()
}

func buildDeleteTwoFactorQuery(userID uuid.UUID) (string, []any, error) {
	return psql.Delete(models.TwoFactorSecret{}.TableName()).
		Where(sq.Eq{"user_id": userID.String()}).
		ToSql()
}

// ── refresh sessions ──

func buildInsertSessionQuery(session models.RefreshSession) (string, []any, error) {
	return psql.Insert(models.RefreshSession{}.TableName()).
		Columns("token", "user_id", "expires_at").
		Values(session.Token, session.UserID.String(), session.ExpiresAt).
		Suffix("RETURNING id, created_at").
		ToSql()
}

func buildFindSessionByTokenQuery(token string) (string, []any, error) {
	return psql.Select(sessionColumns...).
		From(models.RefreshSession{}.TableName()).
		Where(sq.Eq{"token": token}).
		Where("expires_at > now()").
		ToSql()
}

func buildDeleteSessionByTokenQuery(token string) (string, []any, error) {
	return psql.Delete(models.RefreshSession{}.TableName()).
		Where(sq.Eq{"token": token}).
		ToSql()
}

func buildDeleteSessionsByUserQuery(userID uuid.UUID) (string, []any, error) {
	return psql.Delete(models.RefreshSession{}.TableName()).
		Where(sq.Eq{"user_id": userID.String()}).
		ToSql()
}

func buildDeleteExpiredSessionsQuery() (string, []any, error) {
	return psql.Delete(models.RefreshSession{}.TableName()).
		Where("expires_at <= now()").
		ToSql()
}

// ── audit ──

func buildInsertAuditQuery(event models.AuditEvent) (string, []any, error) {
	return psql.Insert(models.AuditEvent{}.TableName()).
		Columns("user_id", "action", "details", "ip_address", "timestamp").
		Values(nullableUUID(event.UserID), event.Action, event.Details, event.IPAddress, event.Timestamp).
		ToSql()
}

func nullableUUID(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return id.String()
}
