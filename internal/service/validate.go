package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	domainauth "github.com/arco-rh/arco-client/internal/domain/auth"
	apperrors "github.com/arco-rh/arco-client/internal/errors"
	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// payloadValidator returns the shared validator. Field names in errors are the JSON names
// the API uses, so they can be matched against server-side field errors.
func payloadValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
		v.RegisterStructValidation(registrationRules, domainauth.Registration{})
		validate = v
	})
	return validate
}

// registrationRules requires the company block when registering a company account.
func registrationRules(sl validator.StructLevel) {
	reg, ok := sl.Current().Interface().(domainauth.Registration)
	if !ok {
		return
	}
	if reg.Role == domainauth.RoleCompany && reg.Company == nil {
		sl.ReportError(reg.Company, "empresa", "Company", "required_if", string(domainauth.RoleCompany))
	}
}

// validatePayload checks v and reports the first failing field as a validation AppError.
func validatePayload(v any) error {
	err := payloadValidator().Struct(v)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) || len(ve) == 0 {
		return apperrors.Validationf("invalid request: %v", err)
	}
	fe := ve[0]
	return apperrors.ValidationField(fe.Namespace()[strings.Index(fe.Namespace(), ".")+1:], fieldError(fe))
}

func fieldError(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "required_if":
		return fmt.Sprintf("%s is required when rol is %s", field, fe.Param())
	case "email":
		return field + " must be a valid email"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "nefield":
		return field + " must differ from the current password"
	case "url":
		return field + " must be a valid URL"
	default:
		return fmt.Sprintf("%s failed validation (%s)", field, fe.Tag())
	}
}
