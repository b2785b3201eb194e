package validate

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	reEmail = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	reID    = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

	v = validator.New()
)

func Email(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) == 0 || len(s) > 50 {
		return "", false
	}
	return s, reEmail.MatchString(s)
}

// ID validates a simple resource identifier (product/category ids).
func ID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && reID.MatchString(s)
}

// Password enforces a simple length window for login checks.
func Password(s string) bool {
	l := len(s)
	return l >= 8 && l <= 64
}

// Struct runs tag-based validation on a form DTO and flattens the result
// into a field→message map for inline rendering. Empty map means valid.
func Struct(dto any) map[string]string {
	err := v.Struct(dto)
	if err == nil {
		return nil
	}
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]string{"form": err.Error()}
	}
	out := make(map[string]string, len(errs))
	for _, fe := range errs {
		out[fe.Field()] = message(fe)
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "min":
		return fe.Field() + " is too short"
	case "max":
		return fe.Field() + " is too long"
	case "gt":
		return fe.Field() + " must be greater than " + fe.Param()
	case "gte":
		return fe.Field() + " must be at least " + fe.Param()
	case "email":
		return "please enter a valid email address"
	}
	return fe.Field() + " is invalid"
}
