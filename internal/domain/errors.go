package domain

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrNotFoundOrForbidden = errors.New("not found or not authorized")
	ErrDuplicateIdentity   = errors.New("email or username already exists")
	ErrInvalidCredentials  = errors.New("invalid email/username or password")
	ErrInvalidToken        = errors.New("invalid token")
	ErrUnauthenticated     = errors.New("unauthenticated")
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidInput        = errors.New("invalid input")
)
