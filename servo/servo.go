// Package servo is an external collaborator of the rc_radio link: it
// converts a received rcradio.ControlData field into a hobby-servo PWM
// pulse and drives a GPIO pin with it. It is not part of the link
// layer's public surface.
//
// periph.io has no standalone hobby-servo driver, so the pulse is
// generated with a software timing loop bit-banging a GPIO pin on a
// fixed period, rather than a hardware PWM peripheral binding.
//
// Out of scope: ESC arming sequences and brushed-motor H-bridge control,
// which belong to their own actuator packages rather than this one.
package servo

import (
	"sync/atomic"
	"time"
)

// Pin is the single GPIO output the servo drives.
type Pin interface {
	// Set drives the pin high (true) or low (false).
	Set(high bool) error
}

const (
	period   = 20 * time.Millisecond
	minPulse = 1 * time.Millisecond
	maxPulse = 2 * time.Millisecond
)

// Driver bit-bangs a standard 50 Hz hobby-servo PWM signal on Pin,
// driven by a single background goroutine so pulse width updates never
// race with the timing loop.
type Driver struct {
	pin     Pin
	pulseNs atomic.Int64

	stopCh chan struct{}
	doneCh chan struct{}
}

// New starts a Driver holding pin at its neutral pulse width
// (1.5ms, the servo midpoint) until the first SetValue call.
func New(pin Pin) *Driver {
	d := &Driver{
		pin:    pin,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
	d.pulseNs.Store(int64((minPulse + maxPulse) / 2))
	go d.run()
	return d
}

// SetValue maps an 8-bit signed control value (-128..127, e.g.
// ControlData.Pitch/Roll/Yaw) onto the servo's pulse-width range and
// takes effect on the next PWM period.
func (d *Driver) SetValue(v int8) {
	span := int64(maxPulse - minPulse)
	frac := (int64(v) + 128) * span / 255
	d.pulseNs.Store(int64(minPulse) + frac)
}

// SetValueUnsigned maps an 8-bit unsigned control value (0..255, e.g.
// ControlData.Throttle) onto the servo's pulse-width range.
func (d *Driver) SetValueUnsigned(v uint8) {
	span := int64(maxPulse - minPulse)
	frac := int64(v) * span / 255
	d.pulseNs.Store(int64(minPulse) + frac)
}

// Close stops the driver's timing loop and releases the pin low.
func (d *Driver) Close() error {
	close(d.stopCh)
	<-d.doneCh
	return d.pin.Set(false)
}

func (d *Driver) run() {
	defer close(d.doneCh)
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		pulse := time.Duration(d.pulseNs.Load())
		d.pin.Set(true)

		timer := time.NewTimer(pulse)
		select {
		case <-timer.C:
		case <-d.stopCh:
			timer.Stop()
			d.pin.Set(false)
			return
		}
		d.pin.Set(false)

		select {
		case <-ticker.C:
		case <-d.stopCh:
			return
		}
	}
}
