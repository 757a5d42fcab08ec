package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/mod/semver"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidationError lists the settings that failed validation.
type ValidationError struct {
	Errors validator.ValidationErrors
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		msgs = append(msgs, fmt.Sprintf("%s %s", fieldName(fe), msgForTag(fe)))
	}
	return strings.Join(msgs, "; ")
}

// Fields returns a map of setting names to error messages.
func (e *ValidationError) Fields() map[string]string {
	fields := make(map[string]string, len(e.Errors))
	for _, fe := range e.Errors {
		fields[fieldName(fe)] = msgForTag(fe)
	}
	return fields
}

func fieldName(fe validator.FieldError) string {
	switch fe.Field() {
	case "BaseURL":
		return "base URL"
	case "APIKey":
		return "API key"
	case "APIVersion":
		return "API version"
	default:
		return fe.Field()
	}
}

func msgForTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "url":
		return "must be a valid URL"
	case "http_url":
		return "must be an http or https URL"
	default:
		return fmt.Sprintf("failed on '%s' validation", fe.Tag())
	}
}

func validateStruct(s any) error {
	if err := validate.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return &ValidationError{Errors: verrs}
		}
		return err
	}
	return nil
}

// ValidateProfile checks a profile before it is stored.
func ValidateProfile(p Profile) error {
	if err := validateStruct(p); err != nil {
		return err
	}
	if p.APIVersion != "" {
		return ValidateAPIVersion(p.APIVersion)
	}
	return nil
}

// ValidateAPIVersion accepts version path segments of the form v1, v1.2 or
// v1.2.3.
func ValidateAPIVersion(version string) error {
	if !semver.IsValid(version) || semver.Prerelease(version) != "" || semver.Build(version) != "" {
		return fmt.Errorf("invalid API version %q (expected a form like v1 or v1.2)", version)
	}
	return nil
}
