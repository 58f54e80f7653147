// Package joystick is an external collaborator of the rc_radio link: it
// samples two analog sticks (four axes) and produces an
// rcradio.ControlData reading. It is not part of the link layer's
// public surface.
//
// Out of scope: a calibration UI, and mixing more than one stick's axes
// together.
package joystick

import rcradio "github.com/inductivekickback/rc-radio"

// Axis reads one analog input, returning a raw sample in [0, 4095] (a
// 12-bit ADC range).
type Axis interface {
	Read() (raw uint16, err error)
}

// Reader samples four axes and maps them onto ControlData's fields. The
// throttle axis is unsigned (0..4095 maps to 0..255); the other three
// are bipolar about their configured center (mapped to -128..127).
type Reader struct {
	throttle Axis
	pitch    Axis
	roll     Axis
	yaw      Axis

	center uint16
	span   uint16
}

// Option adjusts Reader construction.
type Option func(*Reader)

// WithCenter overrides the neutral-stick raw value used to center the
// bipolar axes. Defaults to 2048 (half of a 12-bit range).
func WithCenter(raw uint16) Option {
	return func(r *Reader) { r.center = raw }
}

// New returns a Reader sampling the given axes. throttle maps to
// ControlData.Throttle; pitch, roll, yaw map to their like-named
// bipolar fields.
func New(throttle, pitch, roll, yaw Axis, opts ...Option) *Reader {
	r := &Reader{
		throttle: throttle,
		pitch:    pitch,
		roll:     roll,
		yaw:      yaw,
		center:   2048,
		span:     2048,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Read samples all four axes and returns the resulting ControlData. An
// error from any axis aborts the read and returns it; partial samples
// are not mixed with stale ones.
func (r *Reader) Read() (rcradio.ControlData, error) {
	t, err := r.throttle.Read()
	if err != nil {
		return rcradio.ControlData{}, err
	}
	p, err := r.pitch.Read()
	if err != nil {
		return rcradio.ControlData{}, err
	}
	ro, err := r.roll.Read()
	if err != nil {
		return rcradio.ControlData{}, err
	}
	y, err := r.yaw.Read()
	if err != nil {
		return rcradio.ControlData{}, err
	}

	return rcradio.ControlData{
		Throttle: scaleUnsigned(t),
		Pitch:    r.scaleBipolar(p),
		Roll:     r.scaleBipolar(ro),
		Yaw:      r.scaleBipolar(y),
	}, nil
}

// scaleUnsigned maps a 12-bit ADC sample onto a full uint8 range.
func scaleUnsigned(raw uint16) uint8 {
	if raw > 4095 {
		raw = 4095
	}
	return uint8(uint32(raw) * 255 / 4095)
}

// scaleBipolar maps raw around r.center onto [-128, 127], clamping
// anything the configured span can't account for.
func (r *Reader) scaleBipolar(raw uint16) int8 {
	delta := int32(raw) - int32(r.center)
	scaled := delta * 127 / int32(r.span)
	if scaled > 127 {
		scaled = 127
	}
	if scaled < -128 {
		scaled = -128
	}
	return int8(scaled)
}
