// Package validation checks request payloads and reports every rejected field.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"
	"unicode"

	"devconnector/internal/models"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2006-01",
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("date", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if s == "" {
			return true
		}
		_, err := ParseDate(s)
		return err == nil
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.RegisterValidation("nonempty", func(fl validator.FieldLevel) bool {
		switch fl.Field().Kind() {
		case reflect.Slice, reflect.Map, reflect.Array, reflect.String:
			return fl.Field().Len() > 0
		default:
			return !fl.Field().IsZero()
		}
	})
	return v
}

// ParseDate accepts RFC 3339 timestamps, plain dates and year-month values.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

// Struct validates s and returns a VALIDATION_ERROR AppError listing each failing field.
func Struct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return fmt.Errorf("validation failed: %w", err)
	}

	fields := make([]models.FieldError, 0, len(ve))
	for _, fe := range ve {
		fields = append(fields, models.FieldError{
			Field:   fe.Field(),
			Message: message(fe),
		})
	}
	return models.NewFieldValidationError(fields)
}

func message(fe validator.FieldError) string {
	label := humanize(fe.Field())
	switch fe.Tag() {
	case "required", "notblank", "nonempty":
		return label + " is required"
	case "email":
		return "Please include a valid email"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", label, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", label, fe.Param())
	case "url":
		return label + " must be a valid URL"
	case "date":
		return label + " must be a valid date"
	default:
		return fmt.Sprintf("%s is invalid", label)
	}
}

// humanize turns a json field name into a label: "fieldOfStudy" -> "Field of study".
func humanize(field string) string {
	var b strings.Builder
	for i, r := range field {
		switch {
		case i == 0:
			b.WriteRune(unicode.ToUpper(r))
		case unicode.IsUpper(r):
			b.WriteRune(' ')
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
