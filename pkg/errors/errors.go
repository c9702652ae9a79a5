package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents different types of errors in the system
type ErrorType string

const (
	// ErrorTypeNotFound indicates a resource was not found
	ErrorTypeNotFound ErrorType = "NOT_FOUND"

	// ErrorTypeValidation indicates a validation error
	ErrorTypeValidation ErrorType = "VALIDATION"

	// ErrorTypeInternal indicates an internal server error
	ErrorTypeInternal ErrorType = "INTERNAL"

	// ErrorTypeExternal indicates an error from external service
	ErrorTypeExternal ErrorType = "EXTERNAL"
)

// Reason is a stable, machine-readable code shown to patients through a
// dedicated message. Every refusal of the booking flow carries one.
type Reason string

const (
	ReasonSpecialtyRequired      Reason = "SPECIALTY_REQUIRED"
	ReasonFacilityRequired       Reason = "FACILITY_REQUIRED"
	ReasonDateRequired           Reason = "DATE_REQUIRED"
	ReasonFacilityNotOffered     Reason = "FACILITY_NOT_OFFERED"
	ReasonDateNotOffered         Reason = "DATE_NOT_OFFERED"
	ReasonInvalidAnswer          Reason = "INVALID_ANSWER"
	ReasonInvalidTransition      Reason = "INVALID_TRANSITION"
	ReasonTriageIncomplete       Reason = "TRIAGE_INCOMPLETE"
	ReasonAlreadyConfirmed       Reason = "ALREADY_CONFIRMED"
	ReasonNoFacilityForSpecialty Reason = "NO_FACILITY_FOR_SPECIALTY"
	ReasonNoDatesAvailable       Reason = "NO_DATES_AVAILABLE"
	ReasonDirectoryUnavailable   Reason = "DIRECTORY_UNAVAILABLE"
	ReasonLocationUnavailable    Reason = "LOCATION_UNAVAILABLE"
	ReasonLocationDenied         Reason = "LOCATION_DENIED"
	ReasonBookingRejected        Reason = "BOOKING_REJECTED"
	ReasonBookingUnavailable     Reason = "BOOKING_UNAVAILABLE"
	ReasonSessionNotFound        Reason = "SESSION_NOT_FOUND"
	ReasonInvalidRequest         Reason = "INVALID_REQUEST"
)

var reasonMessages = map[Reason]string{
	ReasonSpecialtyRequired:      "please choose a specialty first",
	ReasonFacilityRequired:       "please choose a health facility first",
	ReasonDateRequired:           "please choose an appointment date first",
	ReasonFacilityNotOffered:     "the chosen facility does not offer this specialty",
	ReasonDateNotOffered:         "the chosen date is not available at this facility",
	ReasonInvalidAnswer:          "the answer does not match the question",
	ReasonInvalidTransition:      "this step is not available right now",
	ReasonTriageIncomplete:       "please complete the triage questionnaire before confirming",
	ReasonAlreadyConfirmed:       "this booking has already been confirmed",
	ReasonNoFacilityForSpecialty: "no facility offers this specialty",
	ReasonNoDatesAvailable:       "this facility has no available dates for the chosen specialty",
	ReasonDirectoryUnavailable:   "could not reach the facility directory",
	ReasonLocationUnavailable:    "could not determine your location",
	ReasonLocationDenied:         "location access was denied; facilities are listed without distance",
	ReasonBookingRejected:        "the booking was rejected",
	ReasonBookingUnavailable:     "could not reach the booking service",
	ReasonSessionNotFound:        "booking session not found or expired",
	ReasonInvalidRequest:         "the request is invalid",
}

// Message returns the user-visible message for the reason
func (r Reason) Message() string {
	if msg, ok := reasonMessages[r]; ok {
		return msg
	}
	return string(r)
}

// AppError represents an application error
type AppError struct {
	Type    ErrorType
	Reason  Reason
	Message string
	Err     error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements the unwrap interface
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeNotFound,
		Message: message,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeValidation,
		Reason:  ReasonInvalidRequest,
		Message: message,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeInternal,
		Message: message,
		Err:     err,
	}
}

// NewExternalError creates a new external service error
func NewExternalError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeExternal,
		Message: message,
		Err:     err,
	}
}

// NewRefusal creates a validation error carrying a reason code. The message
// is the reason's user-visible text.
func NewRefusal(reason Reason) *AppError {
	return &AppError{
		Type:    ErrorTypeValidation,
		Reason:  reason,
		Message: reason.Message(),
	}
}

// NewCollaboratorError creates an external error for a failed collaborator
// call, keeping the reason so the caller can tell failures apart.
func NewCollaboratorError(reason Reason, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeExternal,
		Reason:  reason,
		Message: reason.Message(),
		Err:     err,
	}
}

// NewSessionNotFoundError creates a not found error for a missing booking session
func NewSessionNotFoundError(sessionID string) *AppError {
	return &AppError{
		Type:    ErrorTypeNotFound,
		Reason:  ReasonSessionNotFound,
		Message: fmt.Sprintf("booking session %s not found", sessionID),
	}
}

// As returns the AppError in err's chain, if any
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// ReasonOf returns the reason code attached to err, or "" when none
func ReasonOf(err error) Reason {
	if appErr, ok := As(err); ok {
		return appErr.Reason
	}
	return ""
}

// IsType reports whether err is an AppError of the given type
func IsType(err error, t ErrorType) bool {
	appErr, ok := As(err)
	return ok && appErr.Type == t
}
