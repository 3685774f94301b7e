package usersvc

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mkrupp/jwtauth/internal/domain"
)

const (
	fieldUsername  = "username"
	fieldPassword  = "password"
	fieldFirstName = "firstName"
	fieldLastName  = "lastName"

	minUsernameLength = 1
	minPasswordLength = 10
	maxPasswordBytes  = 72 // bcrypt ignores anything past this
)

// Registration is a validated registration request.
type Registration struct {
	Username  string
	Password  string
	FirstName string
	LastName  string
}

// ValidateRegistration checks a decoded JSON body in a fixed order and
// reports the first failure. Username and password are never trimmed
// silently; padded values are refused. Names are trimmed.
func ValidateRegistration(body map[string]any) (Registration, *domain.ValidationError) {
	for _, field := range []string{fieldUsername, fieldPassword} {
		if _, ok := body[field]; !ok {
			return Registration{}, domain.NewValidationError(field, "Missing field")
		}
	}

	for _, field := range []string{fieldUsername, fieldPassword, fieldFirstName, fieldLastName} {
		if v, ok := body[field]; ok {
			if _, isString := v.(string); !isString {
				return Registration{}, domain.NewValidationError(field, "Incorrect field type: expected string")
			}
		}
	}

	reg := Registration{
		Username:  body[fieldUsername].(string), //nolint:forcetypeassert
		Password:  body[fieldPassword].(string), //nolint:forcetypeassert
		FirstName: optionalString(body, fieldFirstName),
		LastName:  optionalString(body, fieldLastName),
	}

	if strings.TrimSpace(reg.Username) != reg.Username {
		return Registration{}, domain.NewValidationError(fieldUsername, "Cannot start or end with whitespace")
	}

	if strings.TrimSpace(reg.Password) != reg.Password {
		return Registration{}, domain.NewValidationError(fieldPassword, "Cannot start or end with whitespace")
	}

	if utf8.RuneCountInString(reg.Username) < minUsernameLength {
		return Registration{}, tooShort(fieldUsername, minUsernameLength)
	}

	if utf8.RuneCountInString(reg.Password) < minPasswordLength {
		return Registration{}, tooShort(fieldPassword, minPasswordLength)
	}

	if len(reg.Password) > maxPasswordBytes {
		return Registration{}, domain.NewValidationError(fieldPassword,
			fmt.Sprintf("Must be at most %d characters long", maxPasswordBytes))
	}

	return reg, nil
}

func tooShort(field string, n int) *domain.ValidationError {
	return domain.NewValidationError(field, fmt.Sprintf("Must be at least %d characters long", n))
}

func optionalString(body map[string]any, field string) string {
	s, _ := body[field].(string)

	return strings.TrimSpace(s)
}
