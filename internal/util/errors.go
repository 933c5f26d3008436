package util

import "errors"

var (
	ErrMissingID      = errors.New("id is required")
	ErrInvalidPayload = errors.New("invalid request body")
	ErrSessionUnknown = errors.New("session state not yet determined")
)
