package shared

import "fmt"

var (
	// Configuration errors
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Authentication errors
	ErrAuthFailed         = fmt.Errorf("authentication failed")
	ErrNotAuthenticated   = fmt.Errorf("not authenticated")
	ErrMissingCredentials = fmt.Errorf("missing credentials")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrUsernameTaken      = fmt.Errorf("username already taken")
	ErrForbidden          = fmt.Errorf("forbidden")

	// API and service errors
	ErrAPIRequest       = fmt.Errorf("API request failed")
	ErrProductNotFound  = fmt.Errorf("product not found")
	ErrFavoriteNotFound = fmt.Errorf("favorite not found")
	ErrAlreadyFavorite  = fmt.Errorf("product is already a favorite")

	// Input validation errors
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
