package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Authentication errors
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrAccountNotApproved = fmt.Errorf("account not approved")
	ErrNotAuthenticated   = fmt.Errorf("not authenticated")
	ErrSessionExpired     = fmt.Errorf("session expired")
	ErrNoRefreshToken     = fmt.Errorf("no refresh token available")
	ErrRefreshFailed      = fmt.Errorf("token refresh failed")
	ErrProfileFetch       = fmt.Errorf("failed to fetch profile")

	// API and transport errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrNetwork            = fmt.Errorf("network error")
	ErrInvalidResponse    = fmt.Errorf("invalid API response")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrFestivalNotFound   = fmt.Errorf("festival not found")

	// Storage errors
	ErrStorage = fmt.Errorf("storage error")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
