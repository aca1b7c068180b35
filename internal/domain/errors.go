package domain

import "errors"

// Expected failures; everything else reaching the transport layer is a 500.
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTooManyAttempts    = errors.New("too many attempts")
	ErrEmailTaken         = errors.New("email already registered")
	ErrNotFound           = errors.New("not found")
)
