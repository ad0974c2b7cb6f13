package validation

import (
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/kbukum/minutes/errors"
)

var (
	validate *validator.Validate
	once     sync.Once
)

// FieldError is one failed field in a Validation error's details.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func getValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(fieldName)
	})
	return validate
}

func fieldName(fld reflect.StructField) string {
	for _, tag := range []string{"json", "mapstructure"} {
		name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			return toSnakeCase(fld.Name)
		}
		if name != "" {
			return name
		}
	}
	return toSnakeCase(fld.Name)
}

// Validate checks s against its `validate` tags. A nil error means s is valid;
// otherwise the error is an *errors.AppError with code INVALID_INPUT and a
// "fields" detail.
func Validate(s any) error {
	err := getValidator().Struct(s)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.Validation("validation failed").WithCause(err)
	}

	fields := make([]FieldError, 0, len(verrs))
	messages := make([]string, 0, len(verrs))
	for _, e := range verrs {
		fe := FieldError{Field: fieldPath(e), Message: message(e)}
		fields = append(fields, fe)
		messages = append(messages, fe.Field+": "+fe.Message)
	}

	return errors.Validation(strings.Join(messages, "; ")).WithDetail("fields", fields)
}

// fieldPath drops the top-level struct name from the namespace so nested
// config fields read "capture.silence" rather than "Config.capture.silence".
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return e.Field()
}

func message(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "min":
		if e.Kind() == reflect.String {
			return "must be at least " + e.Param() + " characters"
		}
		return "must be at least " + e.Param()
	case "max":
		if e.Kind() == reflect.String {
			return "must be at most " + e.Param() + " characters"
		}
		return "must be at most " + e.Param()
	case "gt":
		return "must be greater than " + e.Param()
	case "gte":
		return "must be " + e.Param() + " or more"
	case "url", "http_url":
		return "must be a valid URL"
	case "hostname_port":
		return "must be host:port"
	case "oneof":
		return "must be one of: " + e.Param()
	case "printascii":
		return "must be printable ASCII"
	default:
		return "is invalid"
	}
}

func toSnakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
