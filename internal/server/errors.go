package server

import "errors"

var (
	ErrClosed        = errors.New("server is closed")
	ErrInvalidConfig = errors.New("invalid server configuration")
)
