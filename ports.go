package rcradio

import "errors"

// RadioEventKind identifies an asynchronous completion event delivered
// by a RadioPort.
type RadioEventKind uint8

const (
	// RadioTxSuccess fires when a queued frame was transmitted (and, if
	// ack-requested, acknowledged). For a receiver in BINDING this also
	// fires once its preloaded ACK token is actually drained by the
	// following frame.
	RadioTxSuccess RadioEventKind = iota
	// RadioTxFailed fires when the max retransmit count was exhausted.
	RadioTxFailed
	// RadioRxReceived fires when a frame is available to read.
	RadioRxReceived
)

// RadioEvent is delivered to the callback registered with RadioPort.Init.
// Payload is only populated for RadioRxReceived.
type RadioEvent struct {
	Kind    RadioEventKind
	Payload []byte
}

// RadioConfig configures a RadioPort for this protocol: 1 Mbps, a
// maximum payload size wide enough for the largest frame (the 8-byte
// bind ACK token; control data is 4 bytes and bind info 3), selective
// auto-ack, and zero hardware retransmits (loss recovery is
// handled by the link state machine's own hop/re-arm discipline, not by
// hardware retries).
type RadioConfig struct {
	BitrateMbps    int
	MaxPayloadSize int
	AutoAck        bool
	RetransmitN    int
	OnEvent        func(RadioEvent)
}

// ErrNotInRxMode is returned by RadioPort.StopRX while the radio is
// still completing an ACK transmission. Callers must spin on it until
// it clears; the spin is bounded by one on-air frame time.
var ErrNotInRxMode = errors.New("rcradio: radio not in rx mode")

// ErrNoMemory is returned by RadioPort.WritePayload when the TX queue is
// full.
var ErrNoMemory = errors.New("rcradio: no memory for tx payload")

// RadioPort abstracts the shockburst-style radio hardware the link
// drives. Implementations live in rcradio/radio.
type RadioPort interface {
	// Init configures the radio per cfg and registers its event
	// callback. It must be called before any other method, and again
	// after Disable before the radio is used once more.
	Init(cfg RadioConfig) error
	// SetBaseAddress sets the 4-byte base address shared by all pipes.
	SetBaseAddress(base [4]byte) error
	// SetPrefixes sets the 1-byte pipe-0 address prefix.
	SetPrefixes(prefix byte) error
	// SetRFChannel tunes to channel (0..100).
	SetRFChannel(channel byte) error
	// SetTXPower sets the transmit power, in dBm.
	SetTXPower(dBm int) error
	// WritePayload queues one frame on pipe 0. Transmission begins
	// immediately if the radio is idle. noAck suppresses the
	// ack-request bit.
	WritePayload(data []byte, noAck bool) error
	// StartRX enters receive mode.
	StartRX() error
	// StopRX leaves receive mode. It returns ErrNotInRxMode while an ACK
	// is still draining; callers must retry.
	StopRX() error
	// FlushTX drops any queued TX payloads.
	FlushTX() error
	// Disable fully powers the radio down. No further events are
	// delivered afterward.
	Disable() error
}

// TimerCompareChannel identifies one of a TimerPort's three independent
// compare channels.
type TimerCompareChannel uint8

const (
	TimerCompare0 TimerCompareChannel = iota
	TimerCompare1
	TimerCompare2
)

// TimerPort abstracts a free-running microsecond counter with at least
// three independently programmable compare channels. Implementations
// live in rcradio/timer.
type TimerPort interface {
	// Init configures the timer and registers the match callback. It
	// must be called exactly once before any other method.
	Init(onMatch func(TimerCompareChannel)) error
	// Compare programs channel to fire when the counter reaches ticksUs
	// microseconds (measured from the counter's last zero, not from the
	// moment of the call), optionally auto-clearing the counter on match
	// and repeating.
	Compare(channel TimerCompareChannel, ticksUs uint32, autoClear, repeating bool) error
	// CaptureGet reads channel's currently programmed compare value.
	CaptureGet(channel TimerCompareChannel) (uint32, error)
	// CompareWrite atomically rewrites channel's compare value without
	// otherwise disturbing the running counter or its auto-clear/repeat
	// configuration.
	CompareWrite(channel TimerCompareChannel, ticksUs uint32) error
	// Clear resets the free-running counter to zero.
	Clear() error
	// ClearEvents clears any pending match events.
	ClearEvents() error
	// Enable starts the counter.
	Enable() error
	// Disable stops the counter. No further match callbacks are
	// delivered afterward.
	Disable() error
}
