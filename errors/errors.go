package errors

import "fmt"

var (
	ErrWorkerPanic        = fmt.Errorf("worker panic")
	ErrOutboxClosed       = fmt.Errorf("outbox closed")
	ErrUnknownMessage     = fmt.Errorf("unknown message type")
	ErrEmptyMessage       = fmt.Errorf("empty chat message")
	ErrUnsupportedPayload = fmt.Errorf("unsupported payload")
	ErrInvalidClientID    = fmt.Errorf("invalid client id")
	ErrUnauthorized       = fmt.Errorf("unauthorized")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrSessionNotFound    = fmt.Errorf("session not found")
	ErrInvalidHash        = fmt.Errorf("invalid hash format")
)
