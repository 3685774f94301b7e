package domain

import "fmt"

// ValidationError describes why a registration payload was refused.
type ValidationError struct {
	Code     int    `json:"code"`
	Reason   string `json:"reason"`
	Message  string `json:"message"`
	Location string `json:"location"`
}

// NewValidationError creates a 422 ValidationError for the given field.
func NewValidationError(location, message string) *ValidationError {
	return &ValidationError{
		Code:     422,
		Reason:   "ValidationError",
		Message:  message,
		Location: location,
	}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Location, e.Message)
}
