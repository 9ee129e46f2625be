package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTokenExpired     = fmt.Errorf("authentication expired")
	ErrSessionExpired   = fmt.Errorf("session expired")
	ErrMissingVerifier  = fmt.Errorf("missing code verifier")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// Storage errors
	ErrKeyNotFound   = fmt.Errorf("key not found")
	ErrCorruptState  = fmt.Errorf("corrupt stored state")
	ErrSceneNotFound = fmt.Errorf("scene not found")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
