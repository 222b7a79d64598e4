package player

import (
	"errors"
	"fmt"
)

var (
	// ErrNoVideoID is returned when a URL carries no video ID.
	ErrNoVideoID = errors.New("no video id in url")
	// ErrTemplate is returned when the player page template is unusable.
	ErrTemplate = errors.New("player template error")
	// ErrSerialize is returned when the load parameters can't be encoded.
	ErrSerialize = errors.New("player parameters serialization error")
	// ErrUnknownEvent marks an event envelope with an unrecognised host.
	ErrUnknownEvent = errors.New("unknown player event")
	// ErrMalformedPayload marks an event whose data is missing or unknown.
	ErrMalformedPayload = errors.New("malformed event payload")
	// ErrNoSurface is returned when the player has nothing to render into.
	ErrNoSurface = errors.New("no surface attached")
)

// DecodeError describes an event envelope that could not be applied.
type DecodeError struct {
	Event string
	Data  string
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s (data=%q): %s", e.Event, e.Data, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
