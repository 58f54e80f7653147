package rcradio

import "errors"

// onTimerMatchTx handles a timer compare-channel match while in
// transmitter mode. Called with l.mu held.
func (l *Link) onTimerMatchTx(channel TimerCompareChannel) {
	if channel != TimerCompare0 {
		return
	}

	switch l.state {
	case StateBinding:
		if err := l.writeBindInfoPayload(); err != nil {
			l.flushTxOnNoMemory(err)
		}
	case StateStarted:
		data, _ := l.buf.Read()
		enc := data.Encode()
		if err := l.radio.WritePayload(enc[:], true); err != nil {
			l.flushTxOnNoMemory(err)
		}
	}
}

// flushTxOnNoMemory flushes the TX queue on a no-memory write failure:
// the next period will retry. Any other write error is logged but
// otherwise swallowed, since transient on-air errors recover on their
// own within one hop period.
func (l *Link) flushTxOnNoMemory(err error) {
	if !errors.Is(err, ErrNoMemory) {
		globalLogger.Warn("rcradio: write_payload failed")
		return
	}
	globalLogger.Warn("rcradio: write_payload out of memory, flushing tx queue")
	if ferr := l.radio.FlushTX(); ferr != nil {
		globalLogger.Error("rcradio: flush_tx failed")
	}
}

// onRadioEventTx handles a radio completion event while in transmitter
// mode. Called with l.mu held.
func (l *Link) onRadioEventTx(ev RadioEvent) {
	switch ev.Kind {
	case RadioTxSuccess:
		if l.state == StateStarted {
			l.advanceHop()
			l.emit(EventDataSent, nil)
		}
	case RadioTxFailed:
		// Transient on-air failure: flush and retry next period. Never
		// surfaced to the application; only the receiver's missed-slot
		// counter decides when the link is actually down.
		if err := l.radio.FlushTX(); err != nil {
			globalLogger.Error("rcradio: flush_tx failed after tx_failed")
		}
	case RadioRxReceived:
		if l.state == StateBinding && isBindAck(ev.Payload) {
			l.completeBind()
		}
	}
}

// incrementHopIndex advances to the next hop without touching the
// radio. Called with l.mu held.
func (l *Link) incrementHopIndex() {
	l.hopIndex = (l.hopIndex + 1) % channelMapLen
}

// setChannelForHop reprograms the radio's RF channel for the current hop
// index. Called with l.mu held.
func (l *Link) setChannelForHop() {
	if err := l.radio.SetRFChannel(channelAt(l.bindInfo.TransmitterChannel, l.hopIndex)); err != nil {
		globalLogger.Error("rcradio: set_rf_channel failed")
	}
}

// advanceHop moves to the next hop and immediately reprograms the
// radio's RF channel. Used by the transmitter, where no stop_rx is
// needed between the two (the radio is not in RX mode while
// transmitting). Called with l.mu held.
func (l *Link) advanceHop() {
	l.incrementHopIndex()
	l.setChannelForHop()
}

// completeBind switches the transmitter from the bind address/channel to
// the bound identity's operating address and first hop channel, and
// transitions BINDING->STARTED. Called with l.mu held.
func (l *Link) completeBind() {
	addr := addressFor(l.bindInfo.TransmitterChannel)

	if err := l.radio.SetBaseAddress(addr.Base()); err != nil {
		globalLogger.Error("rcradio: set_base_address failed during bind completion")
	}
	if err := l.radio.SetPrefixes(addr.Prefix()); err != nil {
		globalLogger.Error("rcradio: set_prefixes failed during bind completion")
	}
	if err := l.radio.SetTXPower(operatingTXPowerDefault); err != nil {
		globalLogger.Error("rcradio: set_tx_power failed during bind completion")
	}

	l.hopIndex = 0
	if err := l.radio.SetRFChannel(channelAt(l.bindInfo.TransmitterChannel, l.hopIndex)); err != nil {
		globalLogger.Error("rcradio: set_rf_channel failed during bind completion")
	}

	l.state = StateStarted
	info := l.bindInfo
	l.emit(EventBound, &info)
}
