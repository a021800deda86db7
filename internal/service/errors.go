package service

import "errors"

// ErrInvalidInput marks request values the service refuses; handlers map it to 400.
var ErrInvalidInput = errors.New("invalid input")
