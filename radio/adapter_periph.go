//go:build !tinygo

package radio

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// realPin wraps a periph.io gpio.PinIO to satisfy the Pin interface.
type realPin struct {
	gpio.PinIO
	stopWatch chan struct{}
}

func (p *realPin) Out(l Level) error {
	if l == High {
		return p.PinIO.Out(gpio.High)
	}
	return p.PinIO.Out(gpio.Low)
}

func (p *realPin) In(pull Pull) error {
	var pPull gpio.Pull
	switch pull {
	case PullFloat:
		pPull = gpio.Float
	case PullDown:
		pPull = gpio.PullDown
	case PullUp:
		pPull = gpio.PullUp
	default:
		pPull = gpio.PullNoChange
	}
	return p.PinIO.In(pPull, gpio.NoEdge)
}

func (p *realPin) Read() Level {
	if p.PinIO.Read() == gpio.High {
		return High
	}
	return Low
}

func (p *realPin) Watch(edge Edge, handler func()) error {
	var pEdge gpio.Edge
	switch edge {
	case RisingEdge:
		pEdge = gpio.RisingEdge
	case FallingEdge:
		pEdge = gpio.FallingEdge
	case BothEdges:
		pEdge = gpio.BothEdges
	default:
		pEdge = gpio.NoEdge
	}

	if err := p.PinIO.In(gpio.PullUp, pEdge); err != nil {
		return err
	}

	p.stopWatch = make(chan struct{})
	go func() {
		for {
			if p.PinIO.WaitForEdge(-1) {
				select {
				case <-p.stopWatch:
					return
				default:
					handler()
				}
			} else {
				select {
				case <-p.stopWatch:
					return
				default:
				}
			}
		}
	}()
	return nil
}

func (p *realPin) Unwatch() error {
	if p.stopWatch != nil {
		close(p.stopWatch)
		p.stopWatch = nil
	}
	return p.PinIO.In(gpio.PullUp, gpio.NoEdge)
}

type periphSPI struct {
	conn spi.Conn
}

func (s *periphSPI) Tx(w, r []byte) error {
	return s.conn.Tx(w, r)
}

// Config describes the Linux/periph.io hardware wiring for one radio.
type Config struct {
	// CEPin is the GPIO pin (BCM numbering) for chip enable.
	CEPin int
	// IRQPin is the GPIO pin (BCM numbering) for the interrupt line.
	// Optional; if zero, the dispatch loop polls instead.
	IRQPin int
	// SPIBusPath is the spidev path, e.g. "/dev/spidev0.0".
	SPIBusPath string
	// SPIClockHz is the SPI clock frequency. Defaults to 4 MHz.
	SPIClockHz int
}

// New opens the periph.io host, SPI bus, and GPIO pins described by c
// and returns a Device ready for rcradio.RadioPort.Init.
func New(c Config) (*Device, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("radio: periph.io host init: %w", err)
	}

	if c.SPIBusPath == "" {
		c.SPIBusPath = "/dev/spidev0.0"
	}
	port, err := spireg.Open(c.SPIBusPath)
	if err != nil {
		return nil, fmt.Errorf("radio: open SPI port: %w", err)
	}

	if c.SPIClockHz == 0 {
		c.SPIClockHz = 4_000_000
	}
	conn, err := port.Connect(physic.Frequency(c.SPIClockHz)*physic.Hertz, spi.Mode0, 8)
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("radio: SPI connect: %w", err)
	}

	if c.CEPin == 0 {
		c.CEPin = 25
	}
	ceName := fmt.Sprintf("GPIO%d", c.CEPin)
	cePin := gpioreg.ByName(ceName)
	if cePin == nil {
		port.Close()
		return nil, fmt.Errorf("radio: CE pin %s not found", ceName)
	}

	var irqWrapper Pin
	if c.IRQPin != 0 {
		irqName := fmt.Sprintf("GPIO%d", c.IRQPin)
		irqPin := gpioreg.ByName(irqName)
		if irqPin == nil {
			port.Close()
			return nil, fmt.Errorf("radio: IRQ pin %s not found", irqName)
		}
		irqWrapper = &realPin{PinIO: irqPin}
	}

	return newDevice(&periphSPI{conn: conn}, &realPin{PinIO: cePin}, irqWrapper), nil
}
