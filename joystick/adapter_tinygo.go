//go:build tinygo

package joystick

import "machine"

// TinyGoAxis adapts a machine.ADC to the Axis interface.
type TinyGoAxis struct {
	adc machine.ADC
}

// NewTinyGoAxis configures pin as an analog input.
func NewTinyGoAxis(pin machine.Pin) *TinyGoAxis {
	adc := machine.ADC{Pin: pin}
	adc.Configure(machine.ADCConfig{})
	return &TinyGoAxis{adc: adc}
}

func (a *TinyGoAxis) Read() (uint16, error) {
	// machine.ADC.Get returns a full-scale 16-bit reading; rescale to
	// the 12-bit range the rest of this package works in.
	return a.adc.Get() >> 4, nil
}
