package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Sentinel-Gate/intentresolver/internal/domain/timenorm"
)

// RegisterCustomValidators registers resolver-specific validation rules.
// Must be called before validating Config.
func RegisterCustomValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("timezone_id", validateTimezone); err != nil {
		return fmt.Errorf("failed to register timezone_id validator: %w", err)
	}
	if err := v.RegisterValidation("duration", validateDuration); err != nil {
		return fmt.Errorf("failed to register duration validator: %w", err)
	}
	return nil
}

// validateTimezone accepts IANA names and UTC/GMT offsets.
func validateTimezone(fl validator.FieldLevel) bool {
	_, err := timenorm.ParseTimezone(fl.Field().String())
	return err == nil
}

// validateDuration accepts positive Go durations such as "15s" or "10m".
func validateDuration(fl validator.FieldLevel) bool {
	d, err := time.ParseDuration(fl.Field().String())
	return err == nil && d > 0
}

// Validate validates the Config using struct tags and custom cross-field rules.
// Returns an error if validation fails, with actionable error messages.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())

	if err := RegisterCustomValidators(v); err != nil {
		return err
	}

	if err := v.Struct(c); err != nil {
		return formatValidationErrors(err)
	}

	if err := c.validateUniquePolicyNames(); err != nil {
		return err
	}

	return nil
}

// validateUniquePolicyNames ensures rejection messages identify one rule.
func (c *Config) validateUniquePolicyNames() error {
	seen := make(map[string]int, len(c.Policies))
	for i, p := range c.Policies {
		if j, exists := seen[p.Name]; exists {
			return fmt.Errorf("policies[%d]: duplicate name %q (also policies[%d])", i, p.Name, j)
		}
		seen[p.Name] = i
	}
	return nil
}

// formatValidationErrors converts validator.ValidationErrors to user-friendly messages.
func formatValidationErrors(err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		var messages []string
		for _, e := range validationErrors {
			messages = append(messages, formatSingleValidationError(e))
		}
		return errors.New(strings.Join(messages, "; "))
	}
	return err
}

// formatSingleValidationError creates a user-friendly message for a single validation error.
func formatSingleValidationError(e validator.FieldError) string {
	field := e.Namespace()
	tag := e.Tag()

	switch tag {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "required_if":
		return fmt.Sprintf("%s is required when %s", field, strings.Replace(e.Param(), " ", " is ", 1))
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, e.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "timezone_id":
		return fmt.Sprintf("%s must be an IANA timezone or a UTC offset", field)
	case "duration":
		return fmt.Sprintf("%s must be a positive duration such as \"15s\"", field)
	default:
		return fmt.Sprintf("%s failed validation: %s", field, tag)
	}
}
