package models

import "errors"

// Validation failures. These block a submission before any network call.
var (
	ErrMissingField         = errors.New("please fill in all required fields")
	ErrInvalidAttendance    = errors.New("attendance must be Yes or No")
	ErrMissingAttendeeCount = errors.New("please select the number of people attending")
	ErrInvalidAttendeeCount = errors.New("number attending must be a positive whole number")
	ErrMissingArrivalDate   = errors.New("please select your arrival date")
	ErrInvalidArrivalDate   = errors.New("arrival date must look like YYYY-MM-DD")
	ErrMissingEvents        = errors.New("please select at least one event you will attend")
	ErrUnknownEvent         = errors.New("unknown event")
	ErrInvalidEmailFormat   = errors.New("invalid email format")
)

// Delivery failures
var (
	ErrStore         = errors.New("failed to save data")
	ErrTransport     = errors.New("transport failure")
	ErrUnknownServer = errors.New("server rejected the submission")
)

// ValidationError ties a validation failure to the offending field
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Err.Error()
	}
	return e.Field + ": " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Invalid returns a *ValidationError for field
func Invalid(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}
