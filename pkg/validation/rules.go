package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/clinicflow/backend/pkg/apperror"
)

// DateLayout is the calendar date format accepted on the wire.
const DateLayout = "2006-01-02"

var (
	slugPattern  = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	cpfPattern   = regexp.MustCompile(`^(\d{3}\.\d{3}\.\d{3}-\d{2}|\d{11})$`)
	phonePattern = regexp.MustCompile(`^(\(\d{2}\)\s?)?\d{4,5}-?\d{4}$`)
)

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(fieldName)

	mustRegister(v, "slug", func(fl validator.FieldLevel) bool {
		return slugPattern.MatchString(fl.Field().String())
	})
	mustRegister(v, "cpf", func(fl validator.FieldLevel) bool {
		return cpfPattern.MatchString(fl.Field().String())
	})
	mustRegister(v, "phonebr", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	mustRegister(v, "strongpassword", func(fl validator.FieldLevel) bool {
		return IsStrongPassword(fl.Field().String())
	})
	mustRegister(v, "pastdate", func(fl validator.FieldLevel) bool {
		t, err := time.Parse(DateLayout, fl.Field().String())
		return err == nil && t.Before(time.Now())
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s validation: %v", tag, err))
	}
}

// IsSlug reports whether s is lowercase alphanumeric words joined by single hyphens.
func IsSlug(s string) bool { return slugPattern.MatchString(s) }

// IsStrongPassword reports whether s has an uppercase letter, a lowercase letter and a digit.
func IsStrongPassword(s string) bool {
	var upper, lower, digit bool
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return upper && lower && digit
}

func fieldName(fld reflect.StructField) string {
	for _, tag := range []string{"json", "form", "uri"} {
		name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return strings.ToLower(fld.Name)
}

// Struct validates v's `validate` tags and returns one FieldError per failure.
func Struct(v interface{}) []apperror.FieldError {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []apperror.FieldError{{Field: "", Message: err.Error()}}
	}
	out := make([]apperror.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, apperror.FieldError{Field: fe.Field(), Message: message(fe)})
	}
	return out
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	isText := fe.Kind() == reflect.String
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "min":
		if isText {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if isText {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gte", "gt":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "lte", "lt":
		return fmt.Sprintf("%s must be less than or equal to %s", field, fe.Param())
	case "uuid", "uuid4":
		return fmt.Sprintf("%s must be a valid UUID", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "slug":
		return fmt.Sprintf("%s must contain only lowercase letters, numbers and single hyphens", field)
	case "strongpassword":
		return fmt.Sprintf("%s must contain an uppercase letter, a lowercase letter and a number", field)
	case "cpf":
		return fmt.Sprintf("%s must be in the format 000.000.000-00 or 00000000000", field)
	case "phonebr":
		return fmt.Sprintf("%s must be a valid phone number", field)
	case "pastdate":
		return fmt.Sprintf("%s must be a date in the past", field)
	case "datetime":
		if fe.Param() == DateLayout {
			return fmt.Sprintf("%s must be a date in YYYY-MM-DD format", field)
		}
		return fmt.Sprintf("%s must be an ISO 8601 datetime", field)
	default:
		return fmt.Sprintf("%s failed validation for %s", field, fe.Tag())
	}
}
