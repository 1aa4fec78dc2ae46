package locator

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// field returns buf[off:off+width] or an ErrOutOfBounds error.
func field(buf []byte, off, width int) ([]byte, error) {
	if off < 0 || off+width > len(buf) {
		return nil, fmt.Errorf("%w: offset %d width %d in %d-byte message", ErrOutOfBounds, off, width, len(buf))
	}
	return buf[off : off+width], nil
}

// Byte reads a single byte.
func Byte(buf []byte, off int) (byte, error) {
	b, err := field(buf, off, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// Int8 reads a single two's-complement byte.
func Int8(buf []byte, off int) (int8, error) {
	b, err := Byte(buf, off)
	if err != nil {
		return 0, err
	}
	return int8(b), nil //nolint:gosec // intentional reinterpretation of the wire bits
}

// Uint16 reads a little-endian unsigned 16-bit value.
func Uint16(buf []byte, off int) (uint16, error) {
	b, err := field(buf, off, 2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// Int16 reads a little-endian two's-complement 16-bit value.
func Int16(buf []byte, off int) (int16, error) {
	v, err := Uint16(buf, off)
	if err != nil {
		return 0, err
	}
	return int16(v), nil //nolint:gosec // intentional reinterpretation of the wire bits
}

// Float32 reads a little-endian IEEE-754 single.
func Float32(buf []byte, off int) (float32, error) {
	b, err := field(buf, off, 4)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(b)), nil
}

// Float64 reads a little-endian IEEE-754 double.
func Float64(buf []byte, off int) (float64, error) {
	b, err := field(buf, off, 8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b)), nil
}

// GPSCoordinate reads an NMEA-style ddmm.mmmm double and converts it to
// decimal degrees. 4230.5 becomes 42 + 30.5/60.
func GPSCoordinate(buf []byte, off int) (float64, error) {
	raw, err := Float64(buf, off)
	if err != nil {
		return 0, err
	}
	return DegreesMinutes(raw), nil
}

// DegreesMinutes converts a ddmm.mmmm value to decimal degrees. The degree
// part truncates toward zero, so southern and western values stay negative.
func DegreesMinutes(raw float64) float64 {
	deg := math.Trunc(raw / 100)
	return deg + (raw-deg*100)/60
}

// Text reads a fixed-width UTF-8 field and trims trailing NUL padding.
func Text(buf []byte, off, width int) (string, error) {
	b, err := field(buf, off, width)
	if err != nil {
		return "", err
	}
	return string(bytes.TrimRight(b, "\x00")), nil
}
