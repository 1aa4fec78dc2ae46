package types

import "time"

// SamplesPerSecond is the locator's altimeter sample rate. A telemetry
// message sent in flight carries one second of samples.
const SamplesPerSecond = 20

// Coordinate is a position in decimal degrees.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Accelerometer is a raw three-axis reading in sensor counts.
type Accelerometer struct {
	X int16 `json:"x"`
	Y int16 `json:"y"`
	Z int16 `json:"z"`
}

// Orientation is the coarse attitude of the locator derived from the
// dominant accelerometer axis.
type Orientation string

const (
	OrientationUp   Orientation = "up"
	OrientationDown Orientation = "down"
	OrientationSide Orientation = "side"
)

// FlightState is the most recent known status of the locator.
type FlightState struct {
	LastMessageTime time.Time `json:"last_message_time"`

	Latitude   Degrees `json:"latitude"`
	Longitude  Degrees `json:"longitude"`
	FixQuality uint8   `json:"fix_quality"`
	Satellites uint8   `json:"satellites"`
	HDOP       Reading `json:"hdop"`

	AltimeterOK         bool `json:"altimeter_ok"`
	AccelerometerOK     bool `json:"accelerometer_ok"`
	DeployChannel1Armed bool `json:"deploy_channel_1_armed"`
	DeployChannel2Armed bool `json:"deploy_channel_2_armed"`

	AltitudeAGL    float32       `json:"altitude_agl_m"`
	Accelerometer  Accelerometer `json:"accelerometer"`
	GForce         float32       `json:"g_force"`
	Orientation    Orientation   `json:"orientation"`
	BatteryVoltage uint16        `json:"battery_voltage"`
	Phase          FlightPhase   `json:"flight_phase"`

	// AGL holds the altitude samples of the last telemetry message. Only the
	// first SamplesWritten entries came from that message; the rest are left
	// over from earlier ones.
	AGL            [SamplesPerSecond]Reading `json:"agl_samples_m"`
	SamplesWritten int                       `json:"samples_written"`
}

// Position returns the locator's last GPS fix.
func (s FlightState) Position() Coordinate {
	return Coordinate{Latitude: float64(s.Latitude), Longitude: float64(s.Longitude)}
}

// HasFix reports whether both coordinates decoded to finite values.
func (s FlightState) HasFix() bool {
	return s.Latitude.Finite() && s.Longitude.Finite()
}

// DeployConfig is the locator's persisted deployment configuration.
type DeployConfig struct {
	DeployMode                DeployMode `json:"deploy_mode"`
	LaunchDetectAltitude      int        `json:"launch_detect_altitude_m"`
	DroguePrimaryDeployDelay  int        `json:"drogue_primary_deploy_delay_s"`
	DrogueBackupDeployDelay   int        `json:"drogue_backup_deploy_delay_s"`
	MainPrimaryDeployAltitude int        `json:"main_primary_deploy_altitude_m"`
	MainBackupDeployAltitude  int        `json:"main_backup_deploy_altitude_m"`
	DeploySignalDuration      int        `json:"deploy_signal_duration"`
	DeviceName                string     `json:"device_name"`
}

// Geometry holds the handheld-side outputs: compass heading and the vector
// from the handheld to the locator.
type Geometry struct {
	Heading           float64    `json:"heading_deg"`
	LastHeading       float64    `json:"last_heading_deg"`
	BearingToLocator  float64    `json:"bearing_to_locator_deg"`
	DistanceToLocator int        `json:"distance_to_locator_m"`
	Handheld          Coordinate `json:"handheld"`
}
