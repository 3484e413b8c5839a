// Package validation checks request bodies against their struct tags and
// reports the first failing field in a human-readable message.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

const passwordSymbols = "!@#$%^&*"

// Error describes the first field that failed validation.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Invalid builds an Error for checks that live outside struct tags.
func Invalid(field, message string) *Error {
	return &Error{Field: field, Message: message}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	if err := v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return StrongPassword(fl.Field().String())
	}); err != nil {
		panic(fmt.Sprintf("register password validation: %v", err))
	}
	return v
}

// Struct validates v and returns *Error for the first failing field.
func Struct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return &Error{Field: fe.Field(), Message: message(fe)}
	}
	return fmt.Errorf("validate: %w", err)
}

// StrongPassword requires 5-10 characters with an ASCII lowercase letter, an
// ASCII uppercase letter, an ASCII digit and one of !@#$%^&*.
func StrongPassword(password string) bool {
	if n := len([]rune(password)); n < 5 || n > 10 {
		return false
	}
	var lower, upper, digit, symbol bool
	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(passwordSymbols, r):
			symbol = true
		}
	}
	return lower && upper && digit && symbol
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%q is required", field)
	case "alphanum":
		return fmt.Sprintf("%q must only contain alpha-numeric characters", field)
	case "email":
		return fmt.Sprintf("%q must be a valid email", field)
	case "password":
		return fmt.Sprintf("%q must be 5-10 characters and contain at least one uppercase letter, one lowercase letter, one number, and one special character (%s)", field, passwordSymbols)
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%q length must be at least %s characters long", field, fe.Param())
		}
		return fmt.Sprintf("%q must be greater than or equal to %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%q length must be less than or equal to %s characters long", field, fe.Param())
		}
		return fmt.Sprintf("%q must be less than or equal to %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%q must be greater than %s", field, fe.Param())
	default:
		return fmt.Sprintf("%q is invalid", field)
	}
}
