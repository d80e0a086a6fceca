package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/campuspulse/server/internal/app/models"
	"github.com/campuspulse/server/internal/pkg/apperrors"
)

// Validation rule patterns
var (
	// EmailPattern is the general email shape; the college-domain suffix is
	// checked separately against configuration.
	EmailPattern = `^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`

	// PasswordMinLength is the minimum accepted password length
	PasswordMinLength = 8

	// Name validation min/max length
	NameMinLength = 2
	NameMaxLength = 100
)

var emailRegex = regexp.MustCompile(EmailPattern)

// ValidateCollegeEmail checks the general email shape and that the address
// belongs to the configured college domain.
func ValidateCollegeEmail(email, domain string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return apperrors.NewValidationError("email cannot be empty")
	}
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("%w: malformed address", apperrors.ErrInvalidEmail)
	}
	if domain != "" && !strings.HasSuffix(strings.ToLower(email), "@"+strings.ToLower(domain)) {
		return fmt.Errorf("%w: email must belong to the %s domain", apperrors.ErrInvalidEmail, domain)
	}
	return nil
}

// ValidateEmail checks only the general email shape, for addresses outside
// the college domain such as a faculty advisor's.
func ValidateEmail(email string) error {
	if !emailRegex.MatchString(strings.TrimSpace(email)) {
		return fmt.Errorf("%w: malformed address", apperrors.ErrInvalidEmail)
	}
	return nil
}

// ValidatePassword checks password strength requirements
func ValidatePassword(password string) error {
	if password == "" {
		return apperrors.NewValidationError("password cannot be empty")
	}
	if len(password) < PasswordMinLength {
		return fmt.Errorf("%w: password must be at least %d characters long", apperrors.ErrInvalidPassword, PasswordMinLength)
	}

	hasLetter := false
	hasDigit := false
	for _, char := range password {
		if unicode.IsLetter(char) {
			hasLetter = true
		}
		if unicode.IsDigit(char) {
			hasDigit = true
		}
	}
	if !hasLetter {
		return fmt.Errorf("%w: password must contain at least one letter", apperrors.ErrInvalidPassword)
	}
	if !hasDigit {
		return fmt.Errorf("%w: password must contain at least one digit", apperrors.ErrInvalidPassword)
	}

	return nil
}

// ValidateName checks a display name's length bounds
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if len(name) < NameMinLength || len(name) > NameMaxLength {
		return apperrors.NewValidationError(fmt.Sprintf("name must be between %d and %d characters", NameMinLength, NameMaxLength))
	}
	return nil
}

// ValidateFormSchema checks an event's registration-form field descriptors:
// non-empty, unique ids, known types, options present for choice types.
func ValidateFormSchema(fields []models.FormField) error {
	if len(fields) == 0 {
		return apperrors.NewValidationError("registration form must have at least one field")
	}

	seen := make(map[string]struct{}, len(fields))
	for i, f := range fields {
		if strings.TrimSpace(f.ID) == "" {
			return apperrors.NewValidationError(fmt.Sprintf("form field %d is missing an id", i))
		}
		if _, dup := seen[f.ID]; dup {
			return apperrors.NewValidationError(fmt.Sprintf("duplicate form field id %q", f.ID))
		}
		seen[f.ID] = struct{}{}

		if strings.TrimSpace(f.Label) == "" {
			return apperrors.NewValidationError(fmt.Sprintf("form field %q is missing a label", f.ID))
		}
		if !models.ValidFieldType(f.Type) {
			return apperrors.NewValidationError(fmt.Sprintf("form field %q has unknown type %q", f.ID, f.Type))
		}
		if f.Type.RequiresOptions() && len(f.Options) == 0 {
			return apperrors.NewValidationError(fmt.Sprintf("form field %q of type %s needs options", f.ID, f.Type))
		}
	}

	return nil
}

// ValidateResponses checks submitted registration answers against an
// event's form schema: required fields answered, choice answers drawn from
// the declared options, no answers to fields the form never declared.
func ValidateResponses(fields []models.FormField, responses map[string]any) error {
	byID := make(map[string]models.FormField, len(fields))
	for _, f := range fields {
		byID[f.ID] = f
	}

	for id := range responses {
		if _, ok := byID[id]; !ok {
			return apperrors.NewValidationError(fmt.Sprintf("response for undeclared field %q", id))
		}
	}

	for _, f := range fields {
		value, answered := responses[f.ID]
		if !answered || isEmptyAnswer(value) {
			if f.Required {
				return apperrors.NewValidationError(fmt.Sprintf("field %q is required", f.ID))
			}
			continue
		}

		if f.Type.RequiresOptions() {
			if err := checkOptionMembership(f, value); err != nil {
				return err
			}
		}
	}

	return nil
}

func isEmptyAnswer(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []any:
		return len(v) == 0
	}
	return false
}

func checkOptionMembership(f models.FormField, value any) error {
	allowed := make(map[string]struct{}, len(f.Options))
	for _, o := range f.Options {
		allowed[o] = struct{}{}
	}

	check := func(s string) error {
		if _, ok := allowed[s]; !ok {
			return apperrors.NewValidationError(fmt.Sprintf("field %q does not allow value %q", f.ID, s))
		}
		return nil
	}

	switch v := value.(type) {
	case string:
		return check(v)
	case []any:
		// Checkbox fields submit a list of selections
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return apperrors.NewValidationError(fmt.Sprintf("field %q has a non-string selection", f.ID))
			}
			if err := check(s); err != nil {
				return err
			}
		}
		return nil
	default:
		return apperrors.NewValidationError(fmt.Sprintf("field %q has an unsupported answer type", f.ID))
	}
}
