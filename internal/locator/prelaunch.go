package locator

import (
	"fmt"
	"math"

	"github.com/steampigeon/flightmanager/pkg/types"
)

// DecodePrelaunch decodes a prelaunch message on top of prev. It returns the
// new flight state and the locator's deploy configuration. On error nothing
// is returned and prev stays authoritative.
//
// G-force and orientation are both derived from prev's accelerometer
// reading, not the one carried by msg.
func DecodePrelaunch(prev types.FlightState, msg []byte) (types.FlightState, types.DeployConfig, error) {
	r := fieldReader{buf: msg}
	next := prev

	ref := magnitude(prev.Accelerometer)

	next.Latitude = types.Degrees(r.coordinate(offLatitude))
	next.Longitude = types.Degrees(r.coordinate(offLongitude))
	next.FixQuality = r.u8(offFixQuality) - '0'
	next.Satellites = r.u8(offSatellites)
	next.HDOP = types.Reading(r.f32(offHDOP))

	status := ParseStatus(r.u8(offStatus))
	next.AltimeterOK = status.Altimeter
	next.AccelerometerOK = status.Accelerometer
	next.DeployChannel1Armed = status.Channel1Armed
	next.DeployChannel2Armed = status.Channel2Armed

	next.AltitudeAGL = float32(r.u16(offAltitudeAGL)) / AltimeterScale

	next.Accelerometer = types.Accelerometer{
		X: r.i16(offAccelX),
		Y: r.i16(offAccelY),
		Z: r.i16(offAccelZ),
	}
	next.GForce = float32(ref / AccelerometerScale)
	next.Orientation = classifyOrientation(float64(prev.Accelerometer.X) / ref)

	next.BatteryVoltage = r.u16(offBatteryVoltage)

	cfg := types.DeployConfig{
		DeployMode:                types.DeployMode(r.u8(offDeployMode)),
		LaunchDetectAltitude:      int(r.u16(offLaunchDetectAltitude)),
		DroguePrimaryDeployDelay:  int(r.i8(offDroguePrimaryDelay)),
		DrogueBackupDeployDelay:   int(r.i8(offDrogueBackupDelay)),
		MainPrimaryDeployAltitude: int(r.u16(offMainPrimaryAltitude)),
		MainBackupDeployAltitude:  int(r.u16(offMainBackupAltitude)),
		DeploySignalDuration:      int(r.i8(offDeploySignalDuration)),
		DeviceName:                r.text(offDeviceName, deviceNameWidth),
	}

	if r.err != nil {
		return types.FlightState{}, types.DeployConfig{}, fmt.Errorf("decode prelaunch: %w", r.err)
	}
	return next, cfg, nil
}

func magnitude(a types.Accelerometer) float64 {
	x, y, z := float64(a.X), float64(a.Y), float64(a.Z)
	return math.Sqrt(x*x + y*y + z*z)
}

// classifyOrientation maps the X axis share of total force to a label. A NaN
// ratio (no previous reading) falls through to side.
func classifyOrientation(ratio float64) types.Orientation {
	switch {
	case ratio < -0.5:
		return types.OrientationUp
	case ratio > 0.5:
		return types.OrientationDown
	default:
		return types.OrientationSide
	}
}
