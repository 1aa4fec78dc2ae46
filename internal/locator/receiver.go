package locator

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// FrameReader is the subset of Client used by the Receiver.
type FrameReader interface {
	ReadFrame() ([]byte, error)
}

// MessageHandler consumes one locator message. Decoder implements it.
type MessageHandler interface {
	Handle(msg []byte) error
}

// Receiver pumps frames from a link into a handler.
type Receiver struct {
	link    FrameReader
	handler MessageHandler
	logger  *logrus.Logger
	session string
}

// NewReceiver creates a Receiver. session tags log lines for one connection.
func NewReceiver(link FrameReader, handler MessageHandler, logger *logrus.Logger, session string) *Receiver {
	return &Receiver{link: link, handler: handler, logger: logger, session: session}
}

// Run blocks, reading frames until ctx is cancelled or the link fails.
// Decode errors are logged and the frame dropped.
func (r *Receiver) Run(ctx context.Context) error {
	done := make(chan error, 1)
	go r.readLoop(done)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}

func (r *Receiver) readLoop(done chan<- error) {
	for {
		msg, err := r.link.ReadFrame()
		if err != nil {
			if errors.Is(err, ErrBadFrameMarker) || errors.Is(err, ErrFrameTooLarge) {
				done <- fmt.Errorf("bridge stream out of sync: %w", err)
				return
			}
			done <- err
			return
		}
		if err := r.handler.Handle(msg); err != nil {
			r.logger.WithError(err).WithFields(logrus.Fields{
				"session": r.session,
				"length":  len(msg),
			}).Warn("Dropping undecodable locator message")
		}
	}
}
