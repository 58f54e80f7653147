package rcradio

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTransmitterRejectsOutOfRangeRate(t *testing.T) {
	_, err := NewTransmitter(9, IdentityA, &fakeRadio{}, &fakeTimer{}, nil)
	require.ErrorIs(t, err, ErrInvalidParam)

	_, err = NewTransmitter(501, IdentityA, &fakeRadio{}, &fakeTimer{}, nil)
	require.ErrorIs(t, err, ErrInvalidParam)

	l, err := NewTransmitter(10, IdentityA, &fakeRadio{}, &fakeTimer{}, nil)
	require.NoError(t, err)
	require.NotNil(t, l)

	l, err = NewTransmitter(500, IdentityA, &fakeRadio{}, &fakeTimer{}, nil)
	require.NoError(t, err)
	require.NotNil(t, l)
}

func TestNewTransmitterRejectsUnknownIdentity(t *testing.T) {
	_, err := NewTransmitter(100, Identity(5), &fakeRadio{}, &fakeTimer{}, nil)
	require.ErrorIs(t, err, ErrInvalidParam)
}

func TestNewReceiverRequiresCallback(t *testing.T) {
	_, err := NewReceiver(&fakeRadio{}, &fakeTimer{}, nil)
	require.ErrorIs(t, err, ErrInvalidParam)
}

func TestEnableRejectsWhenNotDisabled(t *testing.T) {
	cb := &recordingCallback{}
	l, err := NewReceiver(&fakeRadio{}, &fakeTimer{}, cb.handle)
	require.NoError(t, err)

	require.NoError(t, l.Enable())
	err = l.Enable()
	require.ErrorIs(t, err, ErrInvalidParam)
}

func TestSetDataOnDisabledReturnsInvalidState(t *testing.T) {
	l, err := NewTransmitter(100, IdentityA, &fakeRadio{}, &fakeTimer{}, nil)
	require.NoError(t, err)

	err = l.SetData(ControlData{Throttle: 1})
	require.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, StateDisabled, l.State())
}

func TestSetDataOnReceiverReturnsInvalidState(t *testing.T) {
	cb := &recordingCallback{}
	l, err := NewReceiver(&fakeRadio{}, &fakeTimer{}, cb.handle)
	require.NoError(t, err)
	require.NoError(t, l.Enable())

	err = l.SetData(ControlData{})
	require.ErrorIs(t, err, ErrInvalidState)
}

// TestTransmitterEnableDoesNotStartRadio documents the transmitter's
// startup discipline: it stays inert after Enable, only starting the
// radio on the first SetData, so it never emits zeroed payloads.
func TestTransmitterEnableDoesNotStartRadio(t *testing.T) {
	radio := &fakeRadio{}
	l, err := NewTransmitter(100, IdentityA, radio, &fakeTimer{}, nil)
	require.NoError(t, err)

	require.NoError(t, l.Enable())
	assert.Equal(t, StateEnabled, l.State())
	assert.Nil(t, radio.initCfg.OnEvent)
}

func TestTransmitterFirstSetDataStartsBinding(t *testing.T) {
	fr := &fakeRadio{}
	ft := &fakeTimer{}
	cb := &recordingCallback{}
	l, err := NewTransmitter(100, IdentityA, fr, ft, cb.handle)
	require.NoError(t, err)
	require.NoError(t, l.Enable())

	require.NoError(t, l.SetData(ControlData{Throttle: 0x80}))

	assert.Equal(t, StateBinding, l.State())
	assert.Equal(t, bindAddress.Base(), fr.base)
	assert.Equal(t, bindAddress.Prefix(), fr.prefix)
	assert.Equal(t, bindChannel, fr.channel)
	assert.Equal(t, bindingTXPower, fr.txPowerDB)
	assert.True(t, ft.enabled)
	assert.Equal(t, 1, cb.count(EventBinding))

	wantBind := BindInfo{TransmitterChannel: IdentityA, TransmitRateHz: 100}.Encode()
	assert.Equal(t, wantBind[:], fr.lastWrite)
}

func TestTransmitterBindCompletionAndOperatingPhase(t *testing.T) {
	fr := &fakeRadio{}
	ft := &fakeTimer{}
	cb := &recordingCallback{}
	l, err := NewTransmitter(100, IdentityA, fr, ft, cb.handle)
	require.NoError(t, err)
	require.NoError(t, l.Enable())
	require.NoError(t, l.SetData(ControlData{Throttle: 0x80}))

	// Every compare-0 fire in BINDING re-sends the bind-info frame.
	ft.fire(TimerCompare0)
	wantBind := BindInfo{TransmitterChannel: IdentityA, TransmitRateHz: 100}.Encode()
	assert.Equal(t, wantBind[:], fr.lastWrite)

	// Receiver's ACK arrives.
	fr.initCfg.OnEvent(RadioEvent{Kind: RadioRxReceived, Payload: bindAckToken[:]})

	assert.Equal(t, StateStarted, l.State())
	require.Equal(t, 1, cb.count(EventBound))
	bound := cb.last.(*BindInfo)
	assert.Equal(t, IdentityA, bound.TransmitterChannel)
	assert.EqualValues(t, 100, bound.TransmitRateHz)
	assert.Equal(t, addressFor(IdentityA).Base(), fr.base)
	assert.Equal(t, operatingTXPowerDefault, fr.txPowerDB)
	assert.Equal(t, channelAt(IdentityA, 0), fr.channel)

	// Operating phase: compare-0 writes the pending control record as
	// an ack-less frame.
	ft.fire(TimerCompare0)
	want := ControlData{Throttle: 0x80}.Encode()
	assert.Equal(t, want[:], fr.lastWrite)
	assert.True(t, fr.lastNoAck)

	// tx_success advances the hop and emits data_sent.
	fr.initCfg.OnEvent(RadioEvent{Kind: RadioTxSuccess})
	assert.Equal(t, channelAt(IdentityA, 1), fr.channel)
	assert.Equal(t, 1, cb.count(EventDataSent))
}

func TestTransmitterTxFailedFlushesAndStaysSilent(t *testing.T) {
	fr := &fakeRadio{}
	ft := &fakeTimer{}
	cb := &recordingCallback{}
	l, err := NewTransmitter(100, IdentityA, fr, ft, cb.handle)
	require.NoError(t, err)
	require.NoError(t, l.Enable())
	require.NoError(t, l.SetData(ControlData{}))
	cb.events = nil // drop the EventBinding emitted by the first SetData

	fr.initCfg.OnEvent(RadioEvent{Kind: RadioTxFailed})

	assert.Equal(t, 1, fr.flushCount)
	assert.Empty(t, cb.events)
}

func TestDisableIsIdempotentAndStopsFurtherEvents(t *testing.T) {
	fr := &fakeRadio{}
	ft := &fakeTimer{}
	cb := &recordingCallback{}
	l, err := NewTransmitter(100, IdentityA, fr, ft, cb.handle)
	require.NoError(t, err)
	require.NoError(t, l.Enable())
	require.NoError(t, l.SetData(ControlData{}))

	require.NoError(t, l.Disable())
	assert.Equal(t, StateDisabled, l.State())
	assert.True(t, fr.disabled)
	assert.True(t, ft.disabled)

	// Idempotent.
	require.NoError(t, l.Disable())
	assert.Equal(t, StateDisabled, l.State())

	err = l.SetData(ControlData{Throttle: 9})
	require.ErrorIs(t, err, ErrInvalidState)

	before := len(cb.events)
	ft.fire(TimerCompare0)
	assert.Len(t, cb.events, before)
}

func TestReceiverEnableStartsBinding(t *testing.T) {
	fr := &fakeRadio{}
	ft := &fakeTimer{}
	cb := &recordingCallback{}
	l, err := NewReceiver(fr, ft, cb.handle)
	require.NoError(t, err)

	require.NoError(t, l.Enable())

	assert.Equal(t, StateBinding, l.State())
	assert.Equal(t, bindAddress.Base(), fr.base)
	assert.Equal(t, bindChannel, fr.channel)
	assert.True(t, fr.inRX)
	assert.Equal(t, bindAckToken[:], fr.lastWrite)
	assert.Equal(t, 1, cb.count(EventBinding))
}

func TestReceiverMalformedBindFrameStaysArmed(t *testing.T) {
	fr := &fakeRadio{}
	ft := &fakeTimer{}
	cb := &recordingCallback{}
	l, err := NewReceiver(fr, ft, cb.handle)
	require.NoError(t, err)
	require.NoError(t, l.Enable())

	fr.lastWrite = nil
	fr.initCfg.OnEvent(RadioEvent{Kind: RadioRxReceived, Payload: []byte{1, 2}}) // wrong length

	assert.Equal(t, StateBinding, l.State())
	assert.Equal(t, bindAckToken[:], fr.lastWrite)
	assert.Equal(t, 0, cb.count(EventBound))
}

func TestReceiverRejectsOutOfRangeRateInBindInfo(t *testing.T) {
	fr := &fakeRadio{}
	ft := &fakeTimer{}
	cb := &recordingCallback{}
	l, err := NewReceiver(fr, ft, cb.handle)
	require.NoError(t, err)
	require.NoError(t, l.Enable())

	bad := BindInfo{TransmitterChannel: IdentityA, TransmitRateHz: 5}.Encode()
	fr.initCfg.OnEvent(RadioEvent{Kind: RadioRxReceived, Payload: bad[:]})

	assert.Equal(t, StateBinding, l.State())
	assert.Equal(t, 0, cb.count(EventBound))
}

func TestReceiverAcceptsBindAndProgramsRendezvous(t *testing.T) {
	fr := &fakeRadio{}
	ft := &fakeTimer{}
	cb := &recordingCallback{}
	l, err := NewReceiver(fr, ft, cb.handle)
	require.NoError(t, err)
	require.NoError(t, l.Enable())

	info := BindInfo{TransmitterChannel: IdentityB, TransmitRateHz: 100}.Encode()
	fr.initCfg.OnEvent(RadioEvent{Kind: RadioRxReceived, Payload: info[:]})

	require.Equal(t, StateStarted, l.State())
	require.Equal(t, 1, cb.count(EventBound))
	bound := cb.last.(*BindInfo)
	assert.Equal(t, IdentityB, bound.TransmitterChannel)

	const interval = uint32(1_000_000 / 100)
	// packetOnAir computed independently of the package's own constant:
	// preamble(8)+PCF(11)+CRC(16)+address(40)+data(32) bits at 1 Mbps.
	const packetOnAir = uint32(8 + 11 + 16 + 40 + 32)
	assert.Equal(t, interval+rxSafetyUs, ft.compareVal[TimerCompare1])
	assert.True(t, ft.autoClear[TimerCompare1])
	assert.Equal(t, interval-overheadUs-packetOnAir-rxWideningUs, ft.compareVal[TimerCompare0])
	assert.False(t, ft.autoClear[TimerCompare0])
	assert.Equal(t, addressFor(IdentityB).Base(), fr.base)
	assert.Equal(t, channelAt(IdentityB, 0), fr.channel)
	assert.False(t, fr.inRX)
}

func TestReceiverSpinsOnStopRXDuringBindCompletion(t *testing.T) {
	fr := &fakeRadio{failStopRXOnce: true}
	ft := &fakeTimer{}
	cb := &recordingCallback{}
	l, err := NewReceiver(fr, ft, cb.handle)
	require.NoError(t, err)
	require.NoError(t, l.Enable())

	info := BindInfo{TransmitterChannel: IdentityA, TransmitRateHz: 100}.Encode()
	fr.initCfg.OnEvent(RadioEvent{Kind: RadioRxReceived, Payload: info[:]})

	require.Equal(t, StateStarted, l.State())
	assert.False(t, fr.inRX)
}

func TestReceiverDataReceivedAdvancesHopAndResyncs(t *testing.T) {
	fr := &fakeRadio{}
	ft := &fakeTimer{}
	cb := &recordingCallback{}
	l, err := NewReceiver(fr, ft, cb.handle)
	require.NoError(t, err)
	require.NoError(t, l.Enable())
	info := BindInfo{TransmitterChannel: IdentityA, TransmitRateHz: 100}.Encode()
	fr.initCfg.OnEvent(RadioEvent{Kind: RadioRxReceived, Payload: info[:]})

	data := ControlData{Throttle: 0x80}.Encode()
	fr.initCfg.OnEvent(RadioEvent{Kind: RadioRxReceived, Payload: data[:]})

	assert.Equal(t, 1, ft.clearCount)
	assert.Equal(t, channelAt(IdentityA, 1), fr.channel)
	require.Equal(t, 1, cb.count(EventDataReceived))
	got := cb.last.(*ControlData)
	assert.Equal(t, uint8(0x80), got.Throttle)
}

func TestReceiverIgnoresWrongSizedDataFrame(t *testing.T) {
	fr := &fakeRadio{}
	ft := &fakeTimer{}
	cb := &recordingCallback{}
	l, err := NewReceiver(fr, ft, cb.handle)
	require.NoError(t, err)
	require.NoError(t, l.Enable())
	info := BindInfo{TransmitterChannel: IdentityA, TransmitRateHz: 100}.Encode()
	fr.initCfg.OnEvent(RadioEvent{Kind: RadioRxReceived, Payload: info[:]})

	ft.clearCount = 0
	fr.initCfg.OnEvent(RadioEvent{Kind: RadioRxReceived, Payload: []byte{1, 2, 3}})

	assert.Equal(t, 0, ft.clearCount)
	assert.Equal(t, 0, cb.count(EventDataReceived))
}

// TestReceiverMissedSlotsBelowToleranceStayStarted checks the
// 49th-miss boundary: 49 packet_dropped events, still STARTED, hop
// advanced 49 times.
func TestReceiverMissedSlotsBelowToleranceStayStarted(t *testing.T) {
	fr := &fakeRadio{}
	ft := &fakeTimer{}
	cb := &recordingCallback{}
	l, err := NewReceiver(fr, ft, cb.handle)
	require.NoError(t, err)
	require.NoError(t, l.Enable())
	info := BindInfo{TransmitterChannel: IdentityA, TransmitRateHz: 100}.Encode()
	fr.initCfg.OnEvent(RadioEvent{Kind: RadioRxReceived, Payload: info[:]})

	for i := 0; i < 49; i++ {
		ft.fire(TimerCompare1)
	}

	assert.Equal(t, StateStarted, l.State())
	assert.Equal(t, 49, cb.count(EventPacketDropped))
	assert.Equal(t, 1, cb.count(EventBinding)) // only the initial binding event
	assert.Equal(t, channelAt(IdentityA, 49%channelMapLen), fr.channel)
}

// TestReceiverMissedSlotsAtToleranceRebinds checks the 50th-miss
// boundary: sustained loss falls back to BINDING without re-init.
func TestReceiverMissedSlotsAtToleranceRebinds(t *testing.T) {
	fr := &fakeRadio{}
	ft := &fakeTimer{}
	cb := &recordingCallback{}
	l, err := NewReceiver(fr, ft, cb.handle)
	require.NoError(t, err)
	require.NoError(t, l.Enable())
	info := BindInfo{TransmitterChannel: IdentityA, TransmitRateHz: 100}.Encode()
	fr.initCfg.OnEvent(RadioEvent{Kind: RadioRxReceived, Payload: info[:]})

	for i := 0; i < 50; i++ {
		ft.fire(TimerCompare1)
	}

	assert.Equal(t, StateBinding, l.State())
	assert.Equal(t, 50, cb.count(EventPacketDropped))
	assert.Equal(t, 2, cb.count(EventBinding)) // initial + post-loss rebind
	assert.True(t, ft.disabled)
	assert.Equal(t, bindAddress.Base(), fr.base)
	assert.Equal(t, bindChannel, fr.channel)
}

func TestReceiverFirstMissWidensOnNextSuccess(t *testing.T) {
	fr := &fakeRadio{}
	ft := &fakeTimer{}
	cb := &recordingCallback{}
	l, err := NewReceiver(fr, ft, cb.handle)
	require.NoError(t, err)
	require.NoError(t, l.Enable())
	info := BindInfo{TransmitterChannel: IdentityA, TransmitRateHz: 100}.Encode()
	fr.initCfg.OnEvent(RadioEvent{Kind: RadioRxReceived, Payload: info[:]})

	c0Before := ft.compareVal[TimerCompare0]
	c1Before := ft.compareVal[TimerCompare1]

	ft.fire(TimerCompare1) // first miss: shrink both windows

	assert.Equal(t, c0Before-rxSafetyUs, ft.compareVal[TimerCompare0])
	assert.Equal(t, c1Before-rxSafetyUs, ft.compareVal[TimerCompare1])

	data := ControlData{}.Encode()
	fr.initCfg.OnEvent(RadioEvent{Kind: RadioRxReceived, Payload: data[:]})

	// First success after a miss widens both back.
	assert.Equal(t, c0Before, ft.compareVal[TimerCompare0])
	assert.Equal(t, c1Before, ft.compareVal[TimerCompare1])
}

func TestErrorsWrapErrPkg(t *testing.T) {
	_, err := NewTransmitter(1, IdentityA, &fakeRadio{}, &fakeTimer{}, nil)
	assert.True(t, errors.Is(err, ErrPkg))
}
