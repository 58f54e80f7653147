package rcradio

import (
	"fmt"
	"sync"
)

// Mode distinguishes a Link configured as a transmitter from one
// configured as a receiver.
type Mode uint8

const (
	ModeTransmitter Mode = iota
	ModeReceiver
)

// State is the link's lifecycle state. The only legal transitions are
// DISABLED<->ENABLED->BINDING->STARTED->BINDING (on sustained packet
// loss) or ->DISABLED from any state.
type State uint8

const (
	StateDisabled State = iota
	StateEnabled
	StateBinding
	StateStarted
)

func (s State) String() string {
	switch s {
	case StateDisabled:
		return "DISABLED"
	case StateEnabled:
		return "ENABLED"
	case StateBinding:
		return "BINDING"
	case StateStarted:
		return "STARTED"
	default:
		return "UNKNOWN"
	}
}

// Event identifies a notification delivered to the callback registered
// at construction time.
type Event uint8

const (
	// EventBinding fires whenever the link (re)enters BINDING.
	EventBinding Event = iota
	// EventBound fires once binding succeeds. context is a *BindInfo.
	EventBound
	// EventDataSent fires after each successful control-data
	// transmission in STARTED, on a transmitter only.
	EventDataSent
	// EventDataReceived fires for each accepted control-data frame, on a
	// receiver only. context is a *ControlData valid only for the
	// duration of the callback.
	EventDataReceived
	// EventPacketDropped fires on a receiver for each missed rendezvous
	// slot, whether or not it leads to a rebind.
	EventPacketDropped
)

func (e Event) String() string {
	switch e {
	case EventBinding:
		return "binding"
	case EventBound:
		return "bound"
	case EventDataSent:
		return "data_sent"
	case EventDataReceived:
		return "data_received"
	case EventPacketDropped:
		return "packet_dropped"
	default:
		return "unknown_event"
	}
}

// EventHandler receives link notifications. context is non-nil only for
// EventBound (*BindInfo) and EventDataReceived (*ControlData).
type EventHandler func(event Event, context any)

// Timing constants, all in microseconds.
const (
	overheadUs              = 300
	rxWideningUs            = 100
	rxSafetyUs              = 100
	packetOnAirUs           = 107 // preamble(8)+PCF(11)+CRC(16)+address(40)+data(32) bits on air at 1 Mbps
	bindingTXPower          = -12 // dBm
	operatingTXPowerDefault = 4   // dBm; hardware-dependent, +4 or +8
)

// Link is the protocol state machine for one role (transmitter or
// receiver). One Link is created per role and owns the radio and timer
// ports for its entire enabled lifetime.
type Link struct {
	mode Mode

	mu               sync.Mutex
	state            State
	bindInfo         BindInfo
	hopIndex         int
	missedPackets    int
	radioInitialized bool

	buf *doubleBuffer

	radio    RadioPort
	timer    TimerPort
	callback EventHandler
}

// NewTransmitter constructs a Link in transmitter mode. rate must be in
// [MinTransmitRateHz, MaxTransmitRateHz] and identity must be a valid
// Identity, otherwise ErrInvalidParam is returned. callback may be nil;
// the transmitter only ever emits EventBinding/EventBound/EventDataSent,
// none of which an application is required to observe.
//
// No radio activity occurs until the first SetData call following
// Enable: this is intentional so the transmitter never emits zeroed
// control data while the application is still starting up.
func NewTransmitter(rate uint16, identity Identity, radio RadioPort, timer TimerPort, callback EventHandler) (*Link, error) {
	if rate < MinTransmitRateHz || rate > MaxTransmitRateHz {
		return nil, fmt.Errorf("%w: %w: transmit_rate_hz %d out of [%d, %d]", ErrPkg, ErrInvalidParam, rate, MinTransmitRateHz, MaxTransmitRateHz)
	}
	if !identity.Valid() {
		return nil, fmt.Errorf("%w: %w: unknown identity %d", ErrPkg, ErrInvalidParam, identity)
	}

	l := &Link{
		mode:     ModeTransmitter,
		bindInfo: BindInfo{TransmitterChannel: identity, TransmitRateHz: rate},
		buf:      newDoubleBuffer(),
		radio:    radio,
		timer:    timer,
		callback: callback,
	}
	if err := timer.Init(l.onTimerMatch); err != nil {
		return nil, fmt.Errorf("%w: timer init: %w", ErrPkg, err)
	}
	return l, nil
}

// NewReceiver constructs a Link in receiver mode. callback must be
// non-nil (otherwise the application could never observe received
// data), or ErrInvalidParam is returned.
func NewReceiver(radio RadioPort, timer TimerPort, callback EventHandler) (*Link, error) {
	if callback == nil {
		return nil, fmt.Errorf("%w: %w: receiver callback must not be nil", ErrPkg, ErrInvalidParam)
	}

	l := &Link{
		mode:     ModeReceiver,
		buf:      newDoubleBuffer(),
		radio:    radio,
		timer:    timer,
		callback: callback,
	}
	if err := timer.Init(l.onTimerMatch); err != nil {
		return nil, fmt.Errorf("%w: timer init: %w", ErrPkg, err)
	}
	return l, nil
}

// Mode reports whether l is a transmitter or receiver.
func (l *Link) Mode() Mode {
	return l.mode
}

// State reports the link's current lifecycle state. It is safe to call
// concurrently with all other Link methods.
func (l *Link) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

func (l *Link) emit(event Event, context any) {
	if l.callback != nil {
		l.callback(event, context)
	}
}

// Enable starts the link. For a receiver it immediately runs the bind
// start-up (address/channel = bind, preload the ACK token, start_rx). For
// a transmitter it only marks the link ENABLED; binding begins on the
// first SetData call. Enable returns ErrInvalidParam if the link is not
// currently DISABLED (interpreted as "already enabled").
func (l *Link) Enable() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state != StateDisabled {
		return fmt.Errorf("%w: %w: link is not DISABLED", ErrPkg, ErrInvalidParam)
	}

	if l.mode == ModeReceiver {
		return l.startBindingLocked()
	}

	l.state = StateEnabled
	return nil
}

// Disable shuts the link down. It is idempotent: calling it from any
// state, including DISABLED, leaves the link DISABLED without error. No
// further events are delivered to the callback afterward. Disable must
// not be called from within an event callback.
func (l *Link) Disable() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch l.state {
	case StateDisabled:
		return nil
	case StateBinding, StateStarted:
		if err := l.timer.Disable(); err != nil {
			globalLogger.Warn("rcradio: timer disable failed during Disable")
		}
		if err := l.radio.Disable(); err != nil {
			globalLogger.Warn("rcradio: radio disable failed during Disable")
		}
		l.radioInitialized = false
	}

	l.state = StateDisabled
	return nil
}

// SetData updates the control record the transmitter sends on its next
// slot. It is only valid for a transmitter that is not DISABLED;
// otherwise it returns ErrInvalidState and has no effect on the pending
// buffer. The very first call after Enable transitions the link from
// ENABLED to BINDING and starts the radio.
func (l *Link) SetData(data ControlData) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.mode != ModeTransmitter {
		return fmt.Errorf("%w: %w: SetData is only valid for a transmitter", ErrPkg, ErrInvalidState)
	}
	if l.state == StateDisabled {
		return fmt.Errorf("%w: %w: link is DISABLED", ErrPkg, ErrInvalidState)
	}

	l.buf.Write(data)

	if l.state == StateEnabled {
		return l.startBindingLocked()
	}
	return nil
}

// radioInitConfigFor returns the RadioConfig this protocol always uses:
// 1 Mbps, selective auto-ack, zero hardware retransmits. The payload
// size must accommodate the largest frame on the wire, the 8-byte bind
// ACK token.
func radioInitConfigFor(onEvent func(RadioEvent)) RadioConfig {
	return RadioConfig{
		BitrateMbps:    1,
		MaxPayloadSize: 8,
		AutoAck:        true,
		RetransmitN:    0,
		OnEvent:        onEvent,
	}
}

// startBindingLocked moves the link into BINDING and starts the radio.
// Called with l.mu held. The STARTED->BINDING rebind path (link_rx.go)
// does its own, narrower restart and never calls this.
func (l *Link) startBindingLocked() error {
	l.state = StateBinding

	if !l.radioInitialized {
		if err := l.radio.Init(radioInitConfigFor(l.onRadioEvent)); err != nil {
			l.state = StateDisabled
			return fmt.Errorf("%w: radio init: %w", ErrPkg, err)
		}
		l.radioInitialized = true
	}

	if l.mode == ModeReceiver {
		if err := l.radio.SetBaseAddress(bindAddress.Base()); err != nil {
			return err
		}
		if err := l.radio.SetPrefixes(bindAddress.Prefix()); err != nil {
			return err
		}
		if err := l.radio.SetRFChannel(bindChannel); err != nil {
			return err
		}
		if err := l.writeAckPayload(); err != nil {
			return err
		}
		if err := l.radio.StartRX(); err != nil {
			return err
		}
	} else {
		if err := l.radio.SetBaseAddress(bindAddress.Base()); err != nil {
			return err
		}
		if err := l.radio.SetPrefixes(bindAddress.Prefix()); err != nil {
			return err
		}
		if err := l.radio.SetRFChannel(bindChannel); err != nil {
			return err
		}
		if err := l.radio.SetTXPower(bindingTXPower); err != nil {
			return err
		}
		if err := l.writeBindInfoPayload(); err != nil {
			return err
		}

		interval := uint32(1_000_000 / uint32(l.bindInfo.TransmitRateHz))
		if err := l.timer.Compare(TimerCompare0, interval, true, true); err != nil {
			return err
		}
		if err := l.timer.Enable(); err != nil {
			return err
		}
	}

	l.emit(EventBinding, nil)
	return nil
}

func (l *Link) writeAckPayload() error {
	tok := bindAckToken
	return l.radio.WritePayload(tok[:], false)
}

func (l *Link) writeBindInfoPayload() error {
	enc := l.bindInfo.Encode()
	return l.radio.WritePayload(enc[:], false)
}

// onTimerMatch is the callback registered with the TimerPort. It stands
// in for the timer ISR: in real hardware it would run at a priority
// preemptible by the radio ISR; here both event sources serialize
// through the same mutex, held only for the duration of the handler.
func (l *Link) onTimerMatch(channel TimerCompareChannel) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state != StateBinding && l.state != StateStarted {
		return
	}

	if l.mode == ModeTransmitter {
		l.onTimerMatchTx(channel)
	} else {
		l.onTimerMatchRx(channel)
	}
}

// onRadioEvent is the callback registered with the RadioPort. It stands
// in for the radio ISR.
func (l *Link) onRadioEvent(ev RadioEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state != StateBinding && l.state != StateStarted {
		return
	}

	if l.mode == ModeTransmitter {
		l.onRadioEventTx(ev)
	} else {
		l.onRadioEventRx(ev)
	}
}
