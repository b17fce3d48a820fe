package auth

import "errors"

var (
	ErrEmailPasswordRequired = errors.New("Email and password are required")
	ErrInvalidEmail          = errors.New("Invalid Email")
	ErrIncorrectPassword     = errors.New("Incorrect Password")
	ErrNotAuthenticated      = errors.New("Not authenticated")
	ErrEmailTaken            = errors.New("An account with this email already exists")
	ErrInvalidRole           = errors.New("Role must be donor or recipient")
	ErrWeakPassword          = errors.New("Password must be at least 8 characters and include a letter, a number and a special character")
	ErrInvalidFullname       = errors.New("Please enter a valid full name")
	ErrEmailFormat           = errors.New("Please enter a valid email address")
)

// IsClientError reports whether err is one of the input errors above (400/401 rather than 500).
func IsClientError(err error) bool {
	for _, e := range []error{
		ErrEmailPasswordRequired, ErrInvalidEmail, ErrIncorrectPassword, ErrNotAuthenticated,
		ErrEmailTaken, ErrInvalidRole, ErrWeakPassword, ErrInvalidFullname, ErrEmailFormat,
	} {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}
