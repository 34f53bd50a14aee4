package auth

import "errors"

var (
	// ErrRegistrationFailed hides whether an email is already taken.
	ErrRegistrationFailed = errors.New("registration failed")
	// ErrInvalidCredentials covers both unknown emails and wrong passwords.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrGenAccessToken is returned when we cannot create a JWT.
	ErrGenAccessToken = errors.New("failed to generate access token")
	// ErrInvalidToken is returned for expired, malformed or forged tokens.
	ErrInvalidToken = errors.New("invalid token")
	// ErrUserNotFound is returned when a token refers to a deleted user.
	ErrUserNotFound = errors.New("user not found")
	// ErrUsersStore wraps document store failures.
	ErrUsersStore = errors.New("users store failure")
)
