package services

import "errors"

var (
	ErrValidationFailed = errors.New("validation failed")

	ErrTournamentNotFound = errors.New("tournament not found")
	ErrUserNotFound       = errors.New("user not found")

	ErrInvalidBracketType    = errors.New("invalid bracket type specified")
	ErrInvalidSnapshot       = errors.New("invalid bracket snapshot")
	ErrBracketNotGeneratable = errors.New("bracket type cannot be generated automatically")
	ErrNotEnoughTeams        = errors.New("not enough teams to generate a bracket")
	ErrTooManyTournaments    = errors.New("too many tournaments requested")
	ErrExportDisabled        = errors.New("bracket export storage is not configured")

	ErrPasswordTooShort       = errors.New("password is too short")
	ErrInvalidEmail           = errors.New("invalid email address")
	ErrInvalidRole            = errors.New("invalid user role")
	ErrInvalidAction          = errors.New("invalid permission action")
	ErrUserEmailConflict      = errors.New("email address is already in use")
	ErrAuthInvalidCredentials = errors.New("invalid email or password")
	ErrAuthInvalidToken       = errors.New("invalid or expired token")
)
