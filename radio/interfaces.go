package radio

// Level represents the logical level of a GPIO pin.
type Level bool

const (
	Low  Level = false
	High Level = true
)

// Pull represents the internal pull-up/down resistor state of a pin.
type Pull uint8

const (
	PullNoChange Pull = iota
	PullFloat
	PullDown
	PullUp
)

// Edge represents the signal edge that triggers a Pin.Watch callback.
type Edge uint8

const (
	NoEdge Edge = iota
	RisingEdge
	FallingEdge
	BothEdges
)

// SPI is a generic full-duplex SPI connection, satisfied by both the
// periph.io and TinyGo adapters.
type SPI interface {
	// Tx sends w and reads into r. len(r) must be >= len(w).
	Tx(w, r []byte) error
}

// Pin is a generic GPIO pin, used here for the radio's CE (chip enable)
// and, optionally, IRQ lines.
type Pin interface {
	Out(l Level) error
	In(pull Pull) error
	Read() Level
	// Watch installs handler to run on edge. In the periph.io adapter
	// handler runs on its own goroutine, standing in for the hardware's
	// pin interrupt; in the TinyGo adapter it runs from the pin-change
	// interrupt itself.
	Watch(edge Edge, handler func()) error
	Unwatch() error
}
