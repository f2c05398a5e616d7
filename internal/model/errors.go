package model

import "errors"

var (
	// Identity related errors
	ErrUserNotFound       = errors.New("user not found")
	ErrDuplicateEmail     = errors.New("email already exists")
	ErrDuplicateUsername  = errors.New("username already exists")
	ErrWeakPassword       = errors.New("password too weak")
	ErrInvalidRole        = errors.New("invalid role")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Session related errors
	ErrSessionNotFound = errors.New("login session not found")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")

	// Watchlist related errors
	ErrMovieNotFound      = errors.New("movie not found")
	ErrAlreadyInWatchlist = errors.New("movie already in watchlist")
	ErrNotInWatchlist     = errors.New("movie not in watchlist")
	ErrInvalidSortField   = errors.New("invalid sort field")
	ErrInvalidStatus      = errors.New("invalid watchlist status")

	// Generic errors
	ErrInvalidInput = errors.New("invalid input")
)
