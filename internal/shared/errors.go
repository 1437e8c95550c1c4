package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig   = fmt.Errorf("configuration not found")
	ErrInvalidConfig   = fmt.Errorf("invalid configuration")
	ErrUnknownDriver   = fmt.Errorf("unknown storage driver")
	ErrStorageFailure  = fmt.Errorf("storage operation failed")
	ErrMissingArgument = fmt.Errorf("missing required argument")

	// Authentication errors
	ErrAuthFailed         = fmt.Errorf("authentication failed")
	ErrNotAuthenticated   = fmt.Errorf("not authenticated")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrRegistration       = fmt.Errorf("registration failed")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrCourseNotFound     = fmt.Errorf("course not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
