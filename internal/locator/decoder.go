package locator

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/steampigeon/flightmanager/pkg/types"
)

// StateStore is implemented by state.Manager.
// Defined here (consuming side) to avoid import cycles.
type StateStore interface {
	Flight() types.FlightState
	CommitFlight(fs types.FlightState)
	CommitPrelaunch(fs types.FlightState, cfg types.DeployConfig)
}

// Decoder dispatches locator messages to the matching decode function and
// commits the result. It must be fed from a single goroutine.
type Decoder struct {
	store  StateStore
	logger *logrus.Logger
	now    func() time.Time
}

// NewDecoder creates a Decoder that commits into store.
func NewDecoder(store StateStore, logger *logrus.Logger) *Decoder {
	return &Decoder{store: store, logger: logger, now: time.Now}
}

// Handle decodes one message. Unrecognized headers are ignored. A decode
// error leaves the store untouched.
func (d *Decoder) Handle(msg []byte) error {
	typ, err := Classify(msg)
	if err != nil {
		return fmt.Errorf("classify message: %w", err)
	}

	switch typ {
	case MessagePrelaunch:
		next, cfg, err := DecodePrelaunch(d.store.Flight(), msg)
		if err != nil {
			return err
		}
		next.LastMessageTime = d.now()
		d.store.CommitPrelaunch(next, cfg)

		d.logger.WithFields(logrus.Fields{
			"device":  cfg.DeviceName,
			"mode":    cfg.DeployMode.String(),
			"battery": next.BatteryVoltage,
		}).Debug("Decoded prelaunch message")

	case MessageTelemetry:
		prev := d.store.Flight()
		next, n, err := DecodeTelemetry(prev, msg)
		if err != nil {
			return err
		}
		next.LastMessageTime = d.now()
		d.store.CommitFlight(next)

		if next.Phase != prev.Phase {
			d.logger.WithFields(logrus.Fields{
				"from": prev.Phase.String(),
				"to":   next.Phase.String(),
			}).Info("Flight phase changed")
		}
		d.logger.WithFields(logrus.Fields{
			"phase":   next.Phase.String(),
			"samples": n,
		}).Debug("Decoded telemetry message")

	default:
		d.logger.WithFields(logrus.Fields{
			"header": fmt.Sprintf("%x", msg[:HeaderSize]),
			"length": len(msg),
		}).Debug("Ignoring message with unknown header")
	}
	return nil
}
