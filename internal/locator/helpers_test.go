package locator

import (
	"encoding/binary"
	"math"

	"github.com/steampigeon/flightmanager/pkg/types"
)

// prelaunchFields describes a prelaunch message in wire units.
type prelaunchFields struct {
	lat, lon    float64 // ddmm.mmmm
	fixQuality  byte    // ASCII digit
	satellites  byte
	hdop        float32
	status      byte
	agl         uint16 // decimeters
	ax, ay, az  int16
	mode        byte
	launchAlt   uint16
	drogueDelay [2]byte
	mainAlt     [2]uint16
	duration    byte
	name        string
	battery     uint16
}

func samplePrelaunch() prelaunchFields {
	return prelaunchFields{
		lat:         4230.5,
		lon:         -7130.25,
		fixQuality:  '1',
		satellites:  9,
		hdop:        0.9,
		status:      0x0F,
		agl:         1234,
		ax:          2048,
		mode:        2,
		launchAlt:   30,
		drogueDelay: [2]byte{1, 2},
		mainAlt:     [2]uint16{150, 120},
		duration:    10,
		name:        "Pigeon-1",
		battery:     3700,
	}
}

func putGPS(buf []byte, off int, v float64) {
	binary.LittleEndian.PutUint64(buf[off:], math.Float64bits(v))
}

func putFloat(buf []byte, off int, v float32) {
	binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(v))
}

func (f prelaunchFields) encode() []byte {
	buf := make([]byte, PrelaunchMinLength)
	copy(buf, PrelaunchHeader)
	putGPS(buf, offLatitude, f.lat)
	putGPS(buf, offLongitude, f.lon)
	buf[offFixQuality] = f.fixQuality
	buf[offSatellites] = f.satellites
	putFloat(buf, offHDOP, f.hdop)
	buf[offStatus] = f.status
	binary.LittleEndian.PutUint16(buf[offAltitudeAGL:], f.agl)
	binary.LittleEndian.PutUint16(buf[offAccelX:], uint16(f.ax))
	binary.LittleEndian.PutUint16(buf[offAccelY:], uint16(f.ay))
	binary.LittleEndian.PutUint16(buf[offAccelZ:], uint16(f.az))
	buf[offDeployMode] = f.mode
	binary.LittleEndian.PutUint16(buf[offLaunchDetectAltitude:], f.launchAlt)
	buf[offDroguePrimaryDelay] = f.drogueDelay[0]
	buf[offDrogueBackupDelay] = f.drogueDelay[1]
	binary.LittleEndian.PutUint16(buf[offMainPrimaryAltitude:], f.mainAlt[0])
	binary.LittleEndian.PutUint16(buf[offMainBackupAltitude:], f.mainAlt[1])
	buf[offDeploySignalDuration] = f.duration
	copy(buf[offDeviceName:offDeviceName+deviceNameWidth], f.name)
	binary.LittleEndian.PutUint16(buf[offBatteryVoltage:], f.battery)
	return buf
}

// telemetryFields describes a telemetry message in wire units.
type telemetryFields struct {
	lat, lon   float64
	fixQuality byte
	satellites byte
	hdop       float32
	phase      byte
	samples    [types.SamplesPerSecond]float32 // decimeters
}

func sampleTelemetry(phase types.FlightPhase) telemetryFields {
	f := telemetryFields{
		lat:        4230.75,
		lon:        -7130.5,
		fixQuality: 2,
		satellites: 11,
		hdop:       1.2,
		phase:      byte(phase),
	}
	for i := range f.samples {
		f.samples[i] = float32(1000 + 10*i)
	}
	return f
}

func (f telemetryFields) encode() []byte {
	buf := make([]byte, TelemetryMinLength)
	copy(buf, TelemetryHeader)
	putGPS(buf, offLatitude, f.lat)
	putGPS(buf, offLongitude, f.lon)
	buf[offFixQuality] = f.fixQuality
	buf[offSatellites] = f.satellites
	putFloat(buf, offHDOP, f.hdop)
	for i, s := range f.samples {
		putFloat(buf, offAGLSamples+i*aglSampleWidth, s)
	}
	// The phase byte overlays the low byte of the first sample.
	buf[offFlightPhase] = f.phase
	return buf
}

// firstSample returns the AGL value the decoder derives from the bytes that
// share space with the phase byte.
func firstSample(msg []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(msg[offAGLSamples:])) / AltimeterScale
}
