// Package validation provides request and payload validation built on
// go-playground/validator, with flowchart-specific rules registered on
// top of the standard tag set.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validate is the package-level validator instance with all custom
// rules registered.
var Validate *validator.Validate

func init() {
	Validate = validator.New()
	if err := RegisterRules(Validate); err != nil {
		panic(err)
	}
}

var keyPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// RegisterRules installs the flowchart rules on v. The HTTP layer calls
// this on gin's binding engine so request tags and this package agree.
func RegisterRules(v *validator.Validate) error {
	if err := v.RegisterValidation("step_kind", validateStepKind); err != nil {
		return err
	}
	if err := v.RegisterValidation("session_key", validateSessionKey); err != nil {
		return err
	}
	if err := v.RegisterValidation("template_id", validateSessionKey); err != nil {
		return err
	}

	// Report field names by their JSON tag so API errors match the wire.
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
	return nil
}

// validateStepKind accepts the four flowchart node kinds, ignoring
// case; kinds are lowercased during delta normalization anyway.
func validateStepKind(fl validator.FieldLevel) bool {
	switch strings.ToLower(fl.Field().String()) {
	case "start", "process", "decision", "end":
		return true
	}
	return false
}

// validateSessionKey matches the sanitized session key alphabet. The
// same rule covers template ids, which share it.
func validateSessionKey(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	return s != "" && len(s) <= 320 && keyPattern.MatchString(s)
}

// ValidationError describes one failed field.
type ValidationError struct {
	Field   string      `json:"field"`
	Value   interface{} `json:"value"`
	Message string      `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors collects every failed field of one payload.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Struct validates s with the package instance and returns
// ValidationErrors on failure.
func Struct(s interface{}) error {
	if err := Validate.Struct(s); err != nil {
		return Format(err)
	}
	return nil
}

// Format converts go-playground field errors into ValidationErrors.
// Errors from other sources pass through unchanged, so it is safe to
// feed it whatever gin's binding returns.
func Format(err error) error {
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return err
	}
	out := make(ValidationErrors, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		out = append(out, ValidationError{
			Field:   fe.Field(),
			Value:   fe.Value(),
			Message: messageFor(fe),
		})
	}
	return out
}

// messageFor renders a human-readable message for one field error.
func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "field is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("minimum value/length is %s", fe.Param())
	case "max":
		return fmt.Sprintf("maximum value/length is %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "step_kind":
		return "must be a step kind (start, process, decision, end)"
	case "session_key":
		return "must contain only letters, digits, underscore, hyphen"
	case "template_id":
		return "must be a template id (letters, digits, underscore, hyphen)"
	default:
		return fmt.Sprintf("validation failed: %s", fe.Tag())
	}
}
