package types

import (
	"encoding/json"
	"math"
)

// Reading is a single-precision sensor value as received from the locator.
// Corrupt frames can carry NaN or infinities; those encode as JSON null.
type Reading float32

// Finite reports whether r is neither NaN nor infinite.
func (r Reading) Finite() bool {
	return finite(float64(r))
}

func (r Reading) MarshalJSON() ([]byte, error) {
	if !r.Finite() {
		return []byte("null"), nil
	}
	return json.Marshal(float32(r))
}

// UnmarshalJSON decodes null back to NaN.
func (r *Reading) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = Reading(math.NaN())
		return nil
	}
	var v float32
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*r = Reading(v)
	return nil
}

// Degrees is a decoded GPS coordinate in decimal degrees. Like Reading it
// encodes non-finite values as JSON null.
type Degrees float64

// Finite reports whether d is neither NaN nor infinite.
func (d Degrees) Finite() bool {
	return finite(float64(d))
}

func (d Degrees) MarshalJSON() ([]byte, error) {
	if !d.Finite() {
		return []byte("null"), nil
	}
	return json.Marshal(float64(d))
}

// UnmarshalJSON decodes null back to NaN.
func (d *Degrees) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = Degrees(math.NaN())
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*d = Degrees(v)
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
