package locator

import (
	"fmt"

	"github.com/steampigeon/flightmanager/pkg/types"
)

// DecodeTelemetry decodes a telemetry message on top of prev and returns the
// new state plus the number of AGL samples written.
//
// In flight the message carries a full second of samples; otherwise only
// index 0 is written. Samples past the written count are carried over from
// prev unchanged.
func DecodeTelemetry(prev types.FlightState, msg []byte) (types.FlightState, int, error) {
	r := fieldReader{buf: msg}
	next := prev

	next.Latitude = types.Degrees(r.coordinate(offLatitude))
	next.Longitude = types.Degrees(r.coordinate(offLongitude))
	next.FixQuality = r.u8(offFixQuality)
	next.Satellites = r.u8(offSatellites)
	next.HDOP = types.Reading(r.f32(offHDOP))

	if phase, ok := types.ParseFlightPhase(r.u8(offFlightPhase)); ok {
		next.Phase = phase
	}

	n := 1
	if next.Phase.InFlight() {
		n = types.SamplesPerSecond
	}
	for i := 0; i < n; i++ {
		next.AGL[i] = types.Reading(r.f32(offAGLSamples+i*aglSampleWidth) / AltimeterScale)
	}
	next.SamplesWritten = n

	if r.err != nil {
		return types.FlightState{}, 0, fmt.Errorf("decode telemetry: %w", r.err)
	}
	return next, n, nil
}
