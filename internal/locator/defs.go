package locator

import "github.com/steampigeon/flightmanager/pkg/types"

// Scale divisors applied to raw wire values.
const (
	AltimeterScale     = 10
	AccelerometerScale = 2048
)

// Field offsets shared by both message types.
const (
	offLatitude   = 11
	offLongitude  = 19
	offFixQuality = 27
	offSatellites = 28
	offHDOP       = 29
)

// Prelaunch message layout.
const (
	offStatus               = 40
	offAltitudeAGL          = 41
	offAccelX               = 43
	offAccelY               = 45
	offAccelZ               = 47
	offDeployMode           = 49
	offLaunchDetectAltitude = 50
	offDroguePrimaryDelay   = 52
	offDrogueBackupDelay    = 53
	offMainPrimaryAltitude  = 54
	offMainBackupAltitude   = 56
	offDeploySignalDuration = 58
	offDeviceName           = 59
	deviceNameWidth         = 12
	offBatteryVoltage       = 71

	PrelaunchMinLength = offBatteryVoltage + 2
)

// Telemetry message layout. The first AGL sample shares its first byte with
// the flight phase byte; that is how the firmware packs it.
const (
	offFlightPhase = 40
	offAGLSamples  = 40
	aglSampleWidth = 4

	TelemetryMinLength = offAGLSamples + aglSampleWidth*types.SamplesPerSecond
)

// Status byte bit table (prelaunch offset 40).
//
//	bit 3  altimeter OK
//	bit 2  accelerometer OK
//	bit 1  deploy channel 1 armed
//	bit 0  deploy channel 2 armed
const (
	statusAltimeter     = 1 << 3
	statusAccelerometer = 1 << 2
	statusChannel1Armed = 1 << 1
	statusChannel2Armed = 1 << 0
)

// Status is the decoded prelaunch status byte.
type Status struct {
	Altimeter     bool
	Accelerometer bool
	Channel1Armed bool
	Channel2Armed bool
}

// ParseStatus decodes the status byte using the bit table above.
func ParseStatus(b byte) Status {
	return Status{
		Altimeter:     b&statusAltimeter != 0,
		Accelerometer: b&statusAccelerometer != 0,
		Channel1Armed: b&statusChannel1Armed != 0,
		Channel2Armed: b&statusChannel2Armed != 0,
	}
}
