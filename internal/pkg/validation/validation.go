// Package validation wraps go-playground/validator with form-friendly errors
// and the coercion rules shared by the listing and profile forms.
package validation

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"homesocial-backend/internal/pkg/constants"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func instance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})
		_ = validate.RegisterValidation("profile_role", func(fl validator.FieldLevel) bool {
			return constants.IsSelfAssignableRole(fl.Field().String())
		})
	})
	return validate
}

// FieldError is a single field-level violation, named by the field's json key.
type FieldError struct {
	Field   string
	Tag     string
	Param   string
	Message string
}

func (e *FieldError) Error() string {
	return e.Message
}

// Struct validates v and returns the first violation as a *FieldError.
func Struct(v interface{}) error {
	err := instance().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	return &FieldError{
		Field:   fe.Field(),
		Tag:     fe.Tag(),
		Param:   fe.Param(),
		Message: message(fe),
	}
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	isString := fe.Kind() == reflect.String
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		if isString {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if isString {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "len":
		return fmt.Sprintf("%s must be exactly %s characters", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "profile_role":
		roles := make([]string, 0, len(constants.SelfAssignableRoles))
		for _, r := range constants.SelfAssignableRoles {
			roles = append(roles, string(r))
		}
		return fmt.Sprintf("%s must be one of: %s", field, strings.Join(roles, ", "))
	}
	return fmt.Sprintf("%s is invalid", field)
}

// OptionalFloat coerces form input: blank is nil, anything else must parse.
func OptionalFloat(field, s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return nil, &FieldError{Field: field, Tag: "number", Message: fmt.Sprintf("%s must be a number", field)}
	}
	return &f, nil
}

// OptionalInt is OptionalFloat for whole numbers.
func OptionalInt(field, s string) (*int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return nil, &FieldError{Field: field, Tag: "number", Message: fmt.Sprintf("%s must be a whole number", field)}
	}
	return &i, nil
}

// NullIfEmpty trims s and returns nil for blank input.
func NullIfEmpty(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
