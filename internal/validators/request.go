package validators

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/MKhiriev/go-auth-gate/models"
	"github.com/go-playground/validator/v10"
)

// RequestValidator implements Validator for the HTTP request models using
// the `validate` struct tags declared on them.
type RequestValidator struct {
	validate *validator.Validate
}

// NewRequestValidator constructs a RequestValidator that reports fields by
// their JSON names.
func NewRequestValidator() Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	return &RequestValidator{validate: v}
}

// Validate checks a request model. When fields are given only those struct
// fields (by Go name) are checked.
//
// Returns ErrUnsupportedType for anything that is not a known request model.
func (v *RequestValidator) Validate(ctx context.Context, obj any, fields ...string) error {
	switch obj.(type) {
	case models.RegisterRequest, *models.RegisterRequest,
		models.LoginRequest, *models.LoginRequest,
		models.TwoFactorLoginRequest, *models.TwoFactorLoginRequest,
		models.RefreshRequest, *models.RefreshRequest,
		models.LogoutRequest, *models.LogoutRequest,
		models.CredentialsRequest, *models.CredentialsRequest,
		models.ForgotPasswordRequest, *models.ForgotPasswordRequest,
		models.ResetPasswordRequest, *models.ResetPasswordRequest,
		models.UpdateProfileRequest, *models.UpdateProfileRequest,
		models.ChangePasswordRequest, *models.ChangePasswordRequest,
		models.EmailChangeRequest, *models.EmailChangeRequest,
		models.UpdateUserStatusRequest, *models.UpdateUserStatusRequest,
		models.UpdateUserRoleRequest, *models.UpdateUserRoleRequest,
		models.TwoFactorCodeRequest, *models.TwoFactorCodeRequest,
		models.PasswordRequest, *models.PasswordRequest:
	default:
		return ErrUnsupportedType
	}

	var err error
	if len(fields) > 0 {
		err = v.validate.StructPartialCtx(ctx, obj, fields...)
	} else {
		err = v.validate.StructCtx(ctx, obj)
	}

	return describe(err)
}

// describe flattens validator errors into one readable message.
func describe(err error) error {
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fieldMessage(fe))
	}

	return fmt.Errorf("%w: %s", ErrInvalidRequest, strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return fe.Field() + " must be a valid email address"
	case "numeric":
		return fe.Field() + " must contain only digits"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "len":
		return fmt.Sprintf("%s must be exactly %s characters", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", fe.Field(), fe.Param())
	default:
		return fe.Field() + " is invalid"
	}
}
