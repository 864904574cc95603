package service

import "errors"

// ErrInvalidInput marks request validation failures.
var ErrInvalidInput = errors.New("invalid input")
