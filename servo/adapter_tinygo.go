//go:build tinygo

package servo

import "machine"

// TinyGoPin adapts a machine.Pin to the Pin interface.
type TinyGoPin struct {
	pin machine.Pin
}

// NewTinyGoPin configures pin as an output held low.
func NewTinyGoPin(pin machine.Pin) *TinyGoPin {
	pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	pin.Low()
	return &TinyGoPin{pin: pin}
}

func (p *TinyGoPin) Set(high bool) error {
	p.pin.Set(high)
	return nil
}
