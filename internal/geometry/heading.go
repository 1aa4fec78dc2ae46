// Package geometry computes the handheld compass heading and the bearing and
// distance from the handheld to the locator.
package geometry

import "math"

// Vector3 is a three-axis sensor sample in device coordinates.
type Vector3 struct {
	X, Y, Z float64
}

// Matrix3 is a row-major 3x3 rotation matrix.
type Matrix3 [9]float64

// Axis names a device axis for RemapCoordinateSystem. Negated axes set the
// 0x80 bit.
type Axis int

const (
	AxisX      Axis = 1
	AxisY      Axis = 2
	AxisZ      Axis = 3
	AxisMinusX      = AxisX | 0x80
	AxisMinusY      = AxisY | 0x80
	AxisMinusZ      = AxisZ | 0x80
)

// gravity matches the value Android uses for its free-fall cutoff.
const gravity = 9.81

// RotationMatrix builds the device-to-world rotation from a gravity vector
// and a geomagnetic vector. ok is false when the device is in free fall or
// the field is parallel to gravity; the matrix is then all zeros.
func RotationMatrix(gravityVec, geomagnetic Vector3) (Matrix3, bool) {
	ax, ay, az := gravityVec.X, gravityVec.Y, gravityVec.Z
	normsqA := ax*ax + ay*ay + az*az
	if normsqA < 0.01*gravity*gravity {
		return Matrix3{}, false
	}

	ex, ey, ez := geomagnetic.X, geomagnetic.Y, geomagnetic.Z
	hx := ey*az - ez*ay
	hy := ez*ax - ex*az
	hz := ex*ay - ey*ax
	normH := math.Sqrt(hx*hx + hy*hy + hz*hz)
	if normH < 0.1 {
		return Matrix3{}, false
	}

	invH := 1 / normH
	hx, hy, hz = hx*invH, hy*invH, hz*invH
	invA := 1 / math.Sqrt(normsqA)
	ax, ay, az = ax*invA, ay*invA, az*invA

	mx := ay*hz - az*hy
	my := az*hx - ax*hz
	mz := ax*hy - ay*hx

	return Matrix3{
		hx, hy, hz,
		mx, my, mz,
		ax, ay, az,
	}, true
}

// RemapCoordinateSystem expresses m in a frame whose X and Y axes are the
// given device axes. ok is false for an invalid axis pair.
func RemapCoordinateSystem(m Matrix3, x, y Axis) (Matrix3, bool) {
	if x&0x7C != 0 || y&0x7C != 0 {
		return Matrix3{}, false
	}
	if x&0x3 == y&0x3 {
		return Matrix3{}, false
	}

	z := x ^ y
	xi := int(x&0x3) - 1
	yi := int(y&0x3) - 1
	zi := int(z&0x3) - 1

	// Flip Z when the requested frame is left-handed.
	axisY := (zi + 1) % 3
	axisZ := (zi + 2) % 3
	if (xi^axisY)|(yi^axisZ) != 0 {
		z ^= 0x80
	}

	sx, sy, sz := x >= 0x80, y >= 0x80, z >= 0x80

	var out Matrix3
	for row := 0; row < 3; row++ {
		base := row * 3
		for col := 0; col < 3; col++ {
			switch col {
			case xi:
				out[base+col] = signed(m[base], sx)
			case yi:
				out[base+col] = signed(m[base+1], sy)
			case zi:
				out[base+col] = signed(m[base+2], sz)
			}
		}
	}
	return out, true
}

func signed(v float64, negate bool) float64 {
	if negate {
		return -v
	}
	return v
}

// Orientation returns azimuth, pitch and roll in radians.
func Orientation(m Matrix3) (azimuth, pitch, roll float64) {
	azimuth = math.Atan2(m[1], m[4])
	pitch = math.Asin(-m[7])
	roll = math.Atan2(-m[6], m[8])
	return azimuth, pitch, roll
}

// Heading returns the handheld compass heading in degrees [0, 360) for a
// device held upright facing the map: X stays, Z takes the place of Y.
// Degenerate sensor input yields 0.
func Heading(accel, mag Vector3) float64 {
	r, _ := RotationMatrix(accel, mag)
	remapped, _ := RemapCoordinateSystem(r, AxisX, AxisZ)
	azimuth, _, _ := Orientation(remapped)
	return NormalizeDegrees(azimuth * 180 / math.Pi)
}

// NormalizeDegrees maps any angle into [0, 360).
func NormalizeDegrees(deg float64) float64 {
	d := math.Mod(deg, 360)
	if d < 0 {
		d += 360
	}
	// Folds -0 and values that round up to 360 onto 0.
	if d >= 360 || d == 0 {
		return 0
	}
	return d
}
