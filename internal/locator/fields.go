package locator

// fieldReader reads fixed-offset fields from one message and keeps the first
// error, so a decode can read every field and check once at the end.
type fieldReader struct {
	buf []byte
	err error
}

func (r *fieldReader) u8(off int) byte {
	if r.err != nil {
		return 0
	}
	v, err := Byte(r.buf, off)
	r.err = err
	return v
}

func (r *fieldReader) i8(off int) int8 {
	if r.err != nil {
		return 0
	}
	v, err := Int8(r.buf, off)
	r.err = err
	return v
}

func (r *fieldReader) u16(off int) uint16 {
	if r.err != nil {
		return 0
	}
	v, err := Uint16(r.buf, off)
	r.err = err
	return v
}

func (r *fieldReader) i16(off int) int16 {
	if r.err != nil {
		return 0
	}
	v, err := Int16(r.buf, off)
	r.err = err
	return v
}

func (r *fieldReader) f32(off int) float32 {
	if r.err != nil {
		return 0
	}
	v, err := Float32(r.buf, off)
	r.err = err
	return v
}

func (r *fieldReader) coordinate(off int) float64 {
	if r.err != nil {
		return 0
	}
	v, err := GPSCoordinate(r.buf, off)
	r.err = err
	return v
}

func (r *fieldReader) text(off, width int) string {
	if r.err != nil {
		return ""
	}
	v, err := Text(r.buf, off, width)
	r.err = err
	return v
}
