package types

import "fmt"

// LinkError wraps errors from the locator link with additional context.
type LinkError struct {
	Err         error
	Message     string
	Recoverable bool
}

func (e *LinkError) Error() string {
	return fmt.Sprintf("locator link error: %s: %v", e.Message, e.Err)
}

func (e *LinkError) Unwrap() error {
	return e.Err
}
