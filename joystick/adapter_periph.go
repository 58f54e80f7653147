//go:build !tinygo

package joystick

import (
	"fmt"

	"periph.io/x/conn/v3/analog"
)

// PeriphAxis adapts a periph.io analog.PinADC to the Axis interface.
type PeriphAxis struct {
	pin analog.PinADC
}

// NewPeriphAxis wraps pin for use as a Reader axis.
func NewPeriphAxis(pin analog.PinADC) *PeriphAxis {
	return &PeriphAxis{pin: pin}
}

func (a *PeriphAxis) Read() (uint16, error) {
	sample, err := a.pin.Read()
	if err != nil {
		return 0, fmt.Errorf("joystick: adc read: %w", err)
	}
	if sample.Raw < 0 {
		return 0, nil
	}
	if sample.Raw > 4095 {
		return 4095, nil
	}
	return uint16(sample.Raw), nil
}
