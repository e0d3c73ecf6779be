package schema

import (
	"fmt"
	"strings"
	"time"

	"formcraft/internal/model"
)

// FieldError is the failed check of a single field
type FieldError struct {
	FieldID string `json:"fieldId"`
	Message string `json:"message"`
}

func (e *FieldError) Error() string {
	return e.Message
}

// Errors maps field ids to the message of their failed check
type Errors map[string]string

// Validator applies field rules to submitted values
type Validator struct {
	patterns *PatternCache
}

// NewValidator creates a validator compiling patterns through the cache
func NewValidator(patterns *PatternCache) *Validator {
	if patterns == nil {
		patterns = NewPatternCache(128, time.Hour)
	}
	return &Validator{patterns: patterns}
}

var defaultValidator = NewValidator(nil)

// Validate checks value against field with the default validator
func Validate(field model.FormField, value model.Value) *FieldError {
	return defaultValidator.Validate(field, value)
}

// ValidateFields checks a batch of fields with the default validator
func ValidateFields(fields []model.FormField, data map[string]model.Value) (Errors, bool) {
	return defaultValidator.ValidateFields(fields, data)
}

// Validate runs the required, length and pattern checks in that order and
// returns the first failure, or nil.
func (v *Validator) Validate(field model.FormField, value model.Value) *FieldError {
	fail := func(msg string) *FieldError {
		return &FieldError{FieldID: field.ID, Message: msg}
	}

	if field.Required && isMissing(value) {
		return fail(fmt.Sprintf("%s is required", field.Label))
	}

	rule := field.Validation
	if rule == nil || !value.Truthy() {
		return nil
	}

	if n, ok := value.Len(); ok {
		if rule.MinLength != nil && *rule.MinLength > 0 && n < *rule.MinLength {
			return fail(fmt.Sprintf("%s must be at least %d characters", field.Label, *rule.MinLength))
		}
		if rule.MaxLength != nil && *rule.MaxLength > 0 && n > *rule.MaxLength {
			return fail(fmt.Sprintf("%s must be no more than %d characters", field.Label, *rule.MaxLength))
		}
	}

	if rule.Pattern != "" {
		re, err := v.patterns.Compile(rule.Pattern)
		if err != nil || !re.MatchString(value.Text()) {
			return fail(patternMessage(field))
		}
	}

	return nil
}

// ValidateFields validates every field independently and reports all
// failures at once. ok is true only when no field failed.
func (v *Validator) ValidateFields(fields []model.FormField, data map[string]model.Value) (Errors, bool) {
	errs := make(Errors)
	for _, field := range fields {
		if fe := v.Validate(field, data[field.ID]); fe != nil {
			errs[field.ID] = fe.Message
		}
	}
	return errs, len(errs) == 0
}

// Only absent values and blank strings are missing; 0, false and empty
// lists satisfy a required field.
func isMissing(value model.Value) bool {
	switch value.Kind {
	case model.KindNull:
		return true
	case model.KindString:
		return strings.TrimSpace(value.Str) == ""
	default:
		return false
	}
}

func patternMessage(field model.FormField) string {
	switch field.Type {
	case model.FieldTypeEmail:
		return "Please enter a valid email address"
	case model.FieldTypePhone:
		return "Please enter a valid phone number"
	default:
		return fmt.Sprintf("%s format is invalid", field.Label)
	}
}
