package membership

import "errors"

var (
	ErrNotFound             = errors.New("not found")
	ErrUnsupportedEventType = errors.New("event type is not supported")
	ErrMissingProspectID    = errors.New("missing prospect id")
	ErrInvalidRecord        = errors.New("invalid record")
	ErrInvalidMessage       = errors.New("invalid message")
)
