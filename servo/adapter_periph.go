//go:build !tinygo

package servo

import "periph.io/x/conn/v3/gpio"

// PeriphPin adapts a periph.io gpio.PinIO to the Pin interface.
type PeriphPin struct {
	pin gpio.PinIO
}

// NewPeriphPin wraps pin, configuring it as an output held low.
func NewPeriphPin(pin gpio.PinIO) (*PeriphPin, error) {
	if err := pin.Out(gpio.Low); err != nil {
		return nil, err
	}
	return &PeriphPin{pin: pin}, nil
}

func (p *PeriphPin) Set(high bool) error {
	if high {
		return p.pin.Out(gpio.High)
	}
	return p.pin.Out(gpio.Low)
}
