package rcradio

// fakeRadio is a same-package test double for RadioPort. It records the
// most recent configuration so tests can assert on it directly, rather
// than simulating a full radio.
type fakeRadio struct {
	initCfg   RadioConfig
	base      [4]byte
	prefix    byte
	channel   byte
	txPowerDB int
	inRX      bool
	lastWrite []byte
	lastNoAck bool
	disabled  bool

	flushCount int

	failNextWriteNoMem bool
	failStopRXOnce     bool
}

func (f *fakeRadio) Init(cfg RadioConfig) error {
	f.initCfg = cfg
	return nil
}

func (f *fakeRadio) SetBaseAddress(base [4]byte) error {
	f.base = base
	return nil
}

func (f *fakeRadio) SetPrefixes(prefix byte) error {
	f.prefix = prefix
	return nil
}

func (f *fakeRadio) SetRFChannel(channel byte) error {
	f.channel = channel
	return nil
}

func (f *fakeRadio) SetTXPower(dBm int) error {
	f.txPowerDB = dBm
	return nil
}

func (f *fakeRadio) WritePayload(data []byte, noAck bool) error {
	if f.failNextWriteNoMem {
		f.failNextWriteNoMem = false
		return ErrNoMemory
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	f.lastWrite = cp
	f.lastNoAck = noAck
	return nil
}

func (f *fakeRadio) StartRX() error {
	f.inRX = true
	return nil
}

func (f *fakeRadio) StopRX() error {
	if f.failStopRXOnce {
		f.failStopRXOnce = false
		return ErrNotInRxMode
	}
	f.inRX = false
	return nil
}

func (f *fakeRadio) FlushTX() error {
	f.flushCount++
	return nil
}

func (f *fakeRadio) Disable() error {
	f.disabled = true
	return nil
}

// fakeTimer is a same-package test double for TimerPort.
type fakeTimer struct {
	onMatch func(TimerCompareChannel)

	compareVal  [3]uint32
	autoClear   [3]bool
	repeating   [3]bool
	enabled     bool
	disabled    bool
	clearCount  int
	clearEvents int
}

func (f *fakeTimer) Init(onMatch func(TimerCompareChannel)) error {
	f.onMatch = onMatch
	return nil
}

func (f *fakeTimer) Compare(channel TimerCompareChannel, ticksUs uint32, autoClear, repeating bool) error {
	f.compareVal[channel] = ticksUs
	f.autoClear[channel] = autoClear
	f.repeating[channel] = repeating
	return nil
}

func (f *fakeTimer) CaptureGet(channel TimerCompareChannel) (uint32, error) {
	return f.compareVal[channel], nil
}

func (f *fakeTimer) CompareWrite(channel TimerCompareChannel, ticksUs uint32) error {
	f.compareVal[channel] = ticksUs
	return nil
}

func (f *fakeTimer) Clear() error {
	f.clearCount++
	return nil
}

func (f *fakeTimer) ClearEvents() error {
	f.clearEvents++
	return nil
}

func (f *fakeTimer) Enable() error {
	f.enabled = true
	return nil
}

func (f *fakeTimer) Disable() error {
	f.enabled = false
	f.disabled = true
	return nil
}

// fire invokes the registered match callback directly, as a same-package
// stand-in for a timer interrupt.
func (f *fakeTimer) fire(channel TimerCompareChannel) {
	if f.onMatch != nil {
		f.onMatch(channel)
	}
}

// recordingCallback collects every (event, context) pair delivered to it.
type recordingCallback struct {
	events []Event
	last   any
}

func (r *recordingCallback) handle(event Event, context any) {
	r.events = append(r.events, event)
	r.last = context
}

func (r *recordingCallback) count(e Event) int {
	n := 0
	for _, ev := range r.events {
		if ev == e {
			n++
		}
	}
	return n
}
