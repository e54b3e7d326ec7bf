package service

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrDuplicateAccount   = errors.New("duplicate_account")
	ErrInvalidInput       = errors.New("invalid_request")
	ErrInvalidRefresh     = errors.New("invalid_refresh_token")
	ErrInsufficientRole   = errors.New("insufficient_role")
	ErrIdentityNotFound   = errors.New("identity_not_found")
)

// ErrUserNotFound is returned by admin operations naming a user that does
// not exist. The guard uses ErrIdentityNotFound instead.
var ErrUserNotFound = errors.New("user_not_found")
