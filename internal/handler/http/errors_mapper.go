package http

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/MKhiriev/go-auth-gate/internal/logger"
	"github.com/MKhiriev/go-auth-gate/internal/service"
	"github.com/MKhiriev/go-auth-gate/internal/utils"
)

// internalErrorMessage is the only text an unclassified failure ever shows.
const internalErrorMessage = "Internal server error"

var kindStatusMap = map[service.ErrorKind]int{
	service.KindInvalidCredentials:      http.StatusUnauthorized,
	service.KindInvalidTwoFactorSession: http.StatusUnauthorized,
	service.KindInvalidTwoFactorCode:    http.StatusUnauthorized,
	service.KindInvalidRefreshToken:     http.StatusUnauthorized,
	service.KindTokenInvalid:            http.StatusUnauthorized,
	service.KindUnauthenticated:         http.StatusUnauthorized,

	service.KindAccountInactive:  http.StatusForbidden,
	service.KindEmailNotVerified: http.StatusForbidden,
	service.KindForbidden:        http.StatusForbidden,

	service.KindUserNotFound:      http.StatusNotFound,
	service.KindTwoFactorNotSetUp: http.StatusNotFound,

	service.KindEmailAlreadyExists:      http.StatusConflict,
	service.KindAccountSoftDeleted:      http.StatusConflict,
	service.KindTwoFactorAlreadyEnabled: http.StatusConflict,
	service.KindTwoFactorSetupReplaced:  http.StatusConflict,

	service.KindAccountLocked:     http.StatusTooManyRequests,
	service.KindRateLimitExceeded: http.StatusTooManyRequests,

	service.KindIncorrectPassword:        http.StatusBadRequest,
	service.KindPasswordsSame:            http.StatusBadRequest,
	service.KindInvalidInput:             http.StatusBadRequest,
	service.KindInvalidVerificationToken: http.StatusBadRequest,
	service.KindInvalidResetToken:        http.StatusBadRequest,
	service.KindAlreadyVerified:          http.StatusBadRequest,
	service.KindAccountAlreadyActive:     http.StatusBadRequest,
	service.KindInvalidSetupCode:         http.StatusBadRequest,
	service.KindEmailUnchanged:           http.StatusBadRequest,
	service.KindInvalidEmailChangeToken:  http.StatusBadRequest,
}

func statusFromError(err error) int {
	if status, ok := kindStatusMap[service.KindOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// writeError renders err as a failed envelope. Typed errors keep their
// message; anything else is logged and replaced by a generic text.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFromError(err)
	if status == http.StatusInternalServerError {
		logger.FromRequest(r).Err(err).Str("func", "writeError").Msg("unexpected error")
		utils.WriteFailure(w, status, internalErrorMessage)
		return
	}

	if status == http.StatusTooManyRequests {
		setRetryAfter(w, err)
	}

	utils.WriteFailure(w, status, err.Error())
}

func setRetryAfter(w http.ResponseWriter, err error) {
	var authErr *service.AuthError
	if !errors.As(err, &authErr) || authErr.RetryAfter <= 0 {
		return
	}

	secs := int64(math.Ceil(authErr.RetryAfter.Seconds()))
	w.Header().Set(retryAfterHeader, strconv.FormatInt(secs, 10))
}
