// Package radio implements rcradio.RadioPort against a from-scratch,
// register-level shockburst-style radio driver, adapted from a
// synchronous nRF24L01+ driver into the event-driven shape the link
// state machine needs: a dispatch goroutine decodes STATUS on every IRQ
// edge (or poll tick) and invokes the registered callback with
// rcradio.RadioEvent, rather than returning results synchronously.
package radio

import (
	"fmt"
	"sync"
	"time"

	rcradio "github.com/inductivekickback/rc-radio"
)

// Register addresses.
const (
	regConfig     = 0x00
	regEnAA       = 0x01
	regEnRxAddr   = 0x02
	regSetupAW    = 0x03
	regSetupRetr  = 0x04
	regRFCh       = 0x05
	regRFSetup    = 0x06
	regStatus     = 0x07
	regRxAddrP0   = 0x0A
	regTxAddr     = 0x10
	regRxPwP0     = 0x11
	regDynPD      = 0x1C
	regFeature    = 0x1D
	regFIFOStatus = 0x17
)

// Commands.
const (
	cmdRRegister       = 0x00
	cmdWRegister       = 0x20
	cmdRRxPayload      = 0x61
	cmdWTxPayload      = 0xA0
	cmdFlushTX         = 0xE1
	cmdFlushRX         = 0xE2
	cmdRRxPlWidth      = 0x60
	cmdWAckPayload     = 0xA8
	cmdWTxPayloadNoAck = 0xB0
	cmdNop             = 0xFF
)

// STATUS bits.
const (
	statusRxDR   = 1 << 6
	statusTxDS   = 1 << 5
	statusMaxRT  = 1 << 4
)

// CONFIG bits.
const (
	configPrimRX  = 1 << 0
	configPwrUp   = 1 << 1
	configCRCO    = 1 << 2
	configEnCRC   = 1 << 3
)

// pollInterval is how often the dispatch loop polls STATUS when no IRQ
// pin is wired up.
const pollInterval = 200 * time.Microsecond

// cePulse is how long CE is held high to latch a TX payload into the
// air, per the shockburst state machine's minimum CE-high requirement.
const cePulse = 15 * time.Microsecond

// Device drives the radio hardware and implements rcradio.RadioPort.
// Construct it via New (periph.io under build tag !tinygo, or machine
// under build tag tinygo); both variants call newDevice with the wired
// SPI/Pin ports.
type Device struct {
	conn SPI
	ce   Pin
	irq  Pin

	mu         sync.Mutex
	onEvent    func(rcradio.RadioEvent)
	base       [4]byte
	prefix     byte
	inRX       bool
	ackPending bool
	closed     bool

	stopCh  chan struct{}
	irqChan chan struct{}

	scratch [10]byte
}

func newDevice(conn SPI, ce, irq Pin) *Device {
	return &Device{conn: conn, ce: ce, irq: irq}
}

// Init configures the radio per cfg: the requested bitrate, selective
// auto-ack, zero (or more) hardware retransmits, and dynamic payload
// length on pipe 0 (the protocol's three frame shapes -- 3, 4, and 8
// bytes -- all share pipe 0, so a fixed payload width can't serve all
// of them). It registers cfg.OnEvent and starts the dispatch goroutine.
func (d *Device) Init(cfg rcradio.RadioConfig) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if cfg.OnEvent == nil {
		return fmt.Errorf("radio: OnEvent callback is required")
	}
	d.onEvent = cfg.OnEvent
	d.closed = false

	if err := d.ce.Out(Low); err != nil {
		return fmt.Errorf("radio: CE out: %w", err)
	}

	d.writeRegister(regConfig, configEnCRC|configCRCO)
	d.writeRegister(regEnRxAddr, 0x01) // pipe 0 only
	d.writeRegister(regSetupAW, 0x03)  // 5-byte addresses
	if cfg.AutoAck {
		d.writeRegister(regEnAA, 0x01)
	} else {
		d.writeRegister(regEnAA, 0x00)
	}
	retr := byte(0)
	if cfg.RetransmitN > 0 {
		retr = byte(cfg.RetransmitN) & 0x0F
	}
	d.writeRegister(regSetupRetr, 0x10|retr) // 500us ARD
	d.writeRegister(regRFSetup, rfSetupForBitrate(cfg.BitrateMbps))
	// Dynamic payload length + ack payloads, since this protocol's three
	// frame shapes don't share one static width.
	d.writeRegister(regFeature, 0x06) // EN_DPL | EN_ACK_PAY
	d.writeRegister(regDynPD, 0x01)   // pipe 0
	d.flushTX()
	d.flushRX()
	d.clearStatus()

	d.writeRegister(regConfig, configEnCRC|configCRCO|configPwrUp)
	time.Sleep(1500 * time.Microsecond) // power-up settling time

	d.stopCh = make(chan struct{})
	if d.irq != nil {
		d.irqChan = make(chan struct{}, 1)
		if err := d.irq.Watch(FallingEdge, func() {
			select {
			case d.irqChan <- struct{}{}:
			default:
			}
		}); err != nil {
			return fmt.Errorf("radio: IRQ watch: %w", err)
		}
	}
	go d.dispatchLoop()

	globalLogger.Info("radio: initialized")
	return nil
}

// rfSetupForBitrate maps a requested air data rate to the RF_SETUP
// bits. This protocol only ever requests 1 Mbps, but the mapping
// covers the adjacent rates the underlying silicon supports.
func rfSetupForBitrate(mbps int) byte {
	switch {
	case mbps >= 2:
		return 0x0E // RF_DR_HIGH, PA max
	case mbps == 0: // 250 kbps
		return 0x26 // RF_DR_LOW, PA max
	default: // 1 Mbps
		return 0x06 // RF_DR_HIGH=0, RF_DR_LOW=0, PA max
	}
}

func (d *Device) SetBaseAddress(base [4]byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.base = base
	d.writeAddressRegs()
	return nil
}

func (d *Device) SetPrefixes(prefix byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.prefix = prefix
	d.writeAddressRegs()
	return nil
}

// writeAddressRegs writes the combined 5-byte address to both
// RX_ADDR_P0 (receiver identity) and TX_ADDR (transmitter destination);
// a one-way link only ever talks to one peer at a time so both
// registers always agree. Called with d.mu held.
func (d *Device) writeAddressRegs() {
	addr := [5]byte{d.base[0], d.base[1], d.base[2], d.base[3], d.prefix}
	d.writeRegisterN(regRxAddrP0, addr[:])
	d.writeRegisterN(regTxAddr, addr[:])
}

func (d *Device) SetRFChannel(channel byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.writeRegister(regRFCh, channel&0x7F)
	return nil
}

// SetTXPower sets the transmit power, rounded up to the next of the
// four PA levels a plain nRF24L01+ exposes (-18, -12, -6, 0 dBm).
// The bind/operating power levels this protocol uses (-12, +4, +8 dBm)
// run above that range, so anything above 0 dBm lands on PA max; a
// PA/LNA-equipped variant wanting the higher levels distinguished needs
// its own vendor-specific power table instead of this mapping.
func (d *Device) SetTXPower(dBm int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	cur := d.readRegister(regRFSetup)
	d.writeRegister(regRFSetup, (cur &^ 0x06) | paBitsFor(dBm))
	return nil
}

// paBitsFor rounds dBm up to the next PA level (values above 0 dBm
// are capped at PA max) and returns that level's two RF_SETUP bits: 0x00 = -18dBm, 0x02 = -12dBm, 0x04 = -6dBm, 0x06 = 0dBm (PA max).
func paBitsFor(dBm int) byte {
	switch {
	case dBm <= -18:
		return 0x00
	case dBm <= -12:
		return 0x02
	case dBm <= -6:
		return 0x04
	default:
		return 0x06
	}
}

// WritePayload queues data for transmission on pipe 0. While the radio
// is in RX mode it is queued as the pipe-0 ACK payload (selective
// auto-ack's reply to the next ack-requested frame received); otherwise
// it's a normal TX payload, latched into the air by a CE pulse.
func (d *Device) WritePayload(data []byte, noAck bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.readRegister(regFIFOStatus)&0x20 != 0 { // TX FIFO full
		return rcradio.ErrNoMemory
	}

	if d.inRX {
		d.writeRegisterN(cmdWAckPayload, data)
		d.ackPending = true
		return nil
	}

	cmd := byte(cmdWTxPayload)
	if noAck {
		cmd = cmdWTxPayloadNoAck
	}
	d.writeRegisterN(cmd, data)

	d.ce.Out(High)
	time.Sleep(cePulse)
	d.ce.Out(Low)
	return nil
}

func (d *Device) StartRX() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	cur := d.readRegister(regConfig)
	d.writeRegister(regConfig, cur|configPrimRX)
	if err := d.ce.Out(High); err != nil {
		return err
	}
	d.inRX = true
	return nil
}

// StopRX leaves receive mode. While a preloaded ACK payload is still
// draining (selective auto-ack replying to an incoming ack-requested
// frame), it returns rcradio.ErrNotInRxMode; callers must retry until
// the dispatch loop observes TX_DS and clears ackPending.
func (d *Device) StopRX() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ackPending {
		return rcradio.ErrNotInRxMode
	}
	if err := d.ce.Out(Low); err != nil {
		return err
	}
	cur := d.readRegister(regConfig)
	d.writeRegister(regConfig, cur&^byte(configPrimRX))
	d.inRX = false
	return nil
}

func (d *Device) FlushTX() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.flushTX()
	return nil
}

// Disable fully powers the radio down and stops the dispatch goroutine.
// No further events are delivered afterward.
func (d *Device) Disable() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.ce.Out(Low)
	d.writeRegister(regConfig, 0x00) // power down
	if d.irq != nil {
		d.irq.Unwatch()
	}
	close(d.stopCh)
	d.mu.Unlock()
	return nil
}

func (d *Device) flushTX() { d.transact([]byte{cmdFlushTX}, nil) }
func (d *Device) flushRX() { d.transact([]byte{cmdFlushRX}, nil) }

func (d *Device) clearStatus() {
	d.writeRegister(regStatus, statusRxDR|statusTxDS|statusMaxRT)
}

func (d *Device) writeRegister(reg, val byte) {
	d.writeRegisterN(cmdWRegister|reg, []byte{val})
}

func (d *Device) writeRegisterN(cmd byte, data []byte) {
	w := append([]byte{cmd}, data...)
	d.transact(w, nil)
}

func (d *Device) readRegister(reg byte) byte {
	w := [2]byte{cmdRRegister | reg, cmdNop}
	r := d.scratch[:2]
	d.transact(w[:], r)
	return r[1]
}

// transact performs one SPI transfer, toggling CE is the caller's
// responsibility (not every command needs it). Called with d.mu held.
func (d *Device) transact(w []byte, r []byte) {
	if r == nil {
		r = make([]byte, len(w))
	}
	if err := d.conn.Tx(w, r); err != nil {
		globalLogger.Error("radio: spi transfer failed")
	}
}

// dispatchLoop stands in for the radio's hardware interrupt: it wakes
// on an IRQ edge (or, lacking an IRQ pin, on a fixed poll tick), reads
// STATUS once, and turns whichever completion bits are set into
// rcradio.RadioEvent callbacks, clearing each bit as it's handled.
func (d *Device) dispatchLoop() {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	wake := d.irqChan
	for {
		if wake == nil {
			select {
			case <-d.stopCh:
				return
			case <-ticker.C:
			}
		} else {
			select {
			case <-d.stopCh:
				return
			case <-wake:
			}
		}
		d.handleStatus()
	}
}

func (d *Device) handleStatus() {
	d.mu.Lock()
	status := d.readRegister(regStatus)

	var (
		ev       rcradio.RadioEvent
		hasEvent bool
		payload  []byte
	)

	if status&statusRxDR != 0 {
		payload = d.readPayload()
		d.writeRegister(regStatus, statusRxDR)
	}
	if status&statusTxDS != 0 {
		d.ackPending = false
		d.writeRegister(regStatus, statusTxDS)
	}
	if status&statusMaxRT != 0 {
		d.flushTX()
		d.writeRegister(regStatus, statusMaxRT)
	}
	onEvent := d.onEvent
	d.mu.Unlock()

	if onEvent == nil {
		return
	}

	// Deliver in a fixed order -- rx before tx-success before tx-failed
	// -- matching the original hardware's single-IRQ-line semantics
	// where all three conditions could in principle be latched at once.
	if payload != nil {
		onEvent(rcradio.RadioEvent{Kind: rcradio.RadioRxReceived, Payload: payload})
	}
	if status&statusTxDS != 0 {
		ev = rcradio.RadioEvent{Kind: rcradio.RadioTxSuccess}
		hasEvent = true
	}
	if hasEvent {
		onEvent(ev)
	}
	if status&statusMaxRT != 0 {
		onEvent(rcradio.RadioEvent{Kind: rcradio.RadioTxFailed})
	}
}

// readPayload reads the dynamic-length payload waiting in the RX FIFO.
// Called with d.mu held.
func (d *Device) readPayload() []byte {
	w := [2]byte{cmdRRxPlWidth, cmdNop}
	r := make([]byte, 2)
	d.transact(w[:], r)
	n := r[1]
	if n == 0 || n > 32 {
		d.flushRX()
		return nil
	}

	w2 := make([]byte, int(n)+1)
	w2[0] = cmdRRxPayload
	r2 := make([]byte, len(w2))
	d.transact(w2, r2)
	return r2[1:]
}
