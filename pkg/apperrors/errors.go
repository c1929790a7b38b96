package apperrors

import "errors"

var (
	ErrTableNotFound  = errors.New("table not found")
	ErrColumnNotFound = errors.New("column not found")
	ErrSourceNotFound = errors.New("source file not found")
	ErrUnknownKind    = errors.New("unknown message kind")
	ErrTimeout        = errors.New("request timeout")
	ErrNotRunning     = errors.New("client not running")
)
