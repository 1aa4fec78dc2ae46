package locator

import "errors"

var (
	ErrOutOfBounds    = errors.New("locator: field out of bounds")
	ErrNotConnected   = errors.New("locator: not connected")
	ErrBadFrameMarker = errors.New("locator: unexpected frame marker")
	ErrFrameTooLarge  = errors.New("locator: frame too large")
)
