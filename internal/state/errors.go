package state

import "errors"

var (
	// ErrStale is returned when no locator message arrived within the stale threshold.
	ErrStale = errors.New("state: locator data is stale")
	// ErrNoFix is returned when no locator message has been decoded yet.
	ErrNoFix = errors.New("state: no locator fix received")
	// ErrNotConnected is returned while the radio bridge link is down.
	ErrNotConnected = errors.New("state: radio bridge not connected")
	// ErrNoConfig is returned before the first prelaunch message.
	ErrNoConfig = errors.New("state: no deploy configuration received")
)
