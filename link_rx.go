package rcradio

// onTimerMatchRx handles a timer compare-channel match while in receiver
// mode. Called with l.mu held.
//
// Compare0 fires just before the transmitter's expected arrival and puts
// the radio into RX; compare1 is the rendezvous deadline and, absent a
// frame, means a missed slot.
func (l *Link) onTimerMatchRx(channel TimerCompareChannel) {
	if l.state != StateStarted {
		return
	}

	switch channel {
	case TimerCompare0:
		if err := l.radio.StartRX(); err != nil {
			globalLogger.Error("rcradio: start_rx failed at rendezvous window open")
		}
	case TimerCompare1:
		l.onMissedSlot()
	}
}

// onMissedSlot runs when compare1 (the rendezvous deadline) fires with
// no frame having arrived. Called with l.mu held.
func (l *Link) onMissedSlot() {
	l.missedPackets++

	if l.missedPackets < missedPacketTolerance {
		if l.missedPackets == 1 {
			// First-miss window shrink: anticipate drift by pulling both
			// compare windows in by rxSafetyUs. Applied only on the 0->1
			// missed-packet transition, never on later consecutive misses.
			l.shiftCompareWindows(-rxSafetyUs)
		}

		l.incrementHopIndex()
		if err := l.radio.StopRX(); err != nil && err != ErrNotInRxMode {
			globalLogger.Error("rcradio: stop_rx failed after missed slot")
		}
		l.setChannelForHop()
		l.emit(EventPacketDropped, nil)
		return
	}

	// Sustained link loss: tolerance exceeded. Fall back to BINDING
	// without re-initializing the radio: re-initializing here has been
	// observed to leave the receiver unreliably enabled.
	if err := l.timer.Disable(); err != nil {
		globalLogger.Error("rcradio: timer disable failed on sustained loss")
	}
	if err := l.radio.StopRX(); err != nil && err != ErrNotInRxMode {
		globalLogger.Error("rcradio: stop_rx failed on sustained loss")
	}
	l.emit(EventPacketDropped, nil)

	if err := l.radio.SetBaseAddress(bindAddress.Base()); err != nil {
		globalLogger.Error("rcradio: set_base_address failed returning to bind")
	}
	if err := l.radio.SetPrefixes(bindAddress.Prefix()); err != nil {
		globalLogger.Error("rcradio: set_prefixes failed returning to bind")
	}
	if err := l.radio.SetRFChannel(bindChannel); err != nil {
		globalLogger.Error("rcradio: set_rf_channel failed returning to bind")
	}
	if err := l.writeAckPayload(); err != nil {
		globalLogger.Error("rcradio: write ack payload failed returning to bind")
	}
	if err := l.radio.StartRX(); err != nil {
		globalLogger.Error("rcradio: start_rx failed returning to bind")
	}

	l.state = StateBinding
	l.emit(EventBinding, nil)
}

// shiftCompareWindows reads both rendezvous compare channels and
// rewrites them by delta microseconds (which may be negative), relative
// to whatever the running counter already has programmed. Called with
// l.mu held.
func (l *Link) shiftCompareWindows(delta int32) {
	for _, ch := range []TimerCompareChannel{TimerCompare0, TimerCompare1} {
		ticks, err := l.timer.CaptureGet(ch)
		if err != nil {
			globalLogger.Error("rcradio: capture_get failed adjusting rendezvous window")
			continue
		}
		newTicks := int64(ticks) + int64(delta)
		if newTicks < 0 {
			newTicks = 0
		}
		if err := l.timer.CompareWrite(ch, uint32(newTicks)); err != nil {
			globalLogger.Error("rcradio: compare_write failed adjusting rendezvous window")
		}
	}
}

// onRadioEventRx handles a radio completion event while in receiver
// mode. Called with l.mu held.
func (l *Link) onRadioEventRx(ev RadioEvent) {
	switch ev.Kind {
	case RadioRxReceived:
		switch l.state {
		case StateBinding:
			l.onBindInfoReceived(ev.Payload)
		case StateStarted:
			l.onControlDataReceived(ev.Payload)
		}
	case RadioTxFailed:
		if err := l.radio.FlushTX(); err != nil {
			globalLogger.Error("rcradio: flush_tx failed after tx_failed")
		}
	case RadioTxSuccess:
		// The ACK payload being drained fires this event too; no
		// receiver-side action is required.
	}
}

// onBindInfoReceived validates and, if valid, accepts a bind-info frame
// received while BINDING. Called with l.mu held.
func (l *Link) onBindInfoReceived(payload []byte) {
	info, ok := DecodeBindInfo(payload)
	if !ok || !info.TransmitterChannel.Valid() ||
		info.TransmitRateHz < MinTransmitRateHz || info.TransmitRateHz > MaxTransmitRateHz {
		// Malformed or out-of-range: keep listening with the ACK token
		// still armed; no state transition.
		if err := l.writeAckPayload(); err != nil {
			globalLogger.Error("rcradio: re-arming ack payload failed")
		}
		return
	}

	l.bindInfo = info
	l.hopIndex = 0
	l.missedPackets = 0

	interval := uint32(1_000_000 / uint32(info.TransmitRateHz))

	// Compare1 is the rendezvous deadline, auto-clearing and repeating.
	if err := l.timer.Compare(TimerCompare1, interval+rxSafetyUs, true, true); err != nil {
		globalLogger.Error("rcradio: programming rendezvous deadline failed")
	}
	// Compare0 opens the rendezvous window just before expected arrival.
	windowOpen := interval - overheadUs - packetOnAirUs - rxWideningUs
	if err := l.timer.Compare(TimerCompare0, windowOpen, false, true); err != nil {
		globalLogger.Error("rcradio: programming rendezvous window failed")
	}
	if err := l.timer.ClearEvents(); err != nil {
		globalLogger.Error("rcradio: clearing pending timer events failed")
	}
	if err := l.timer.Enable(); err != nil {
		globalLogger.Error("rcradio: enabling rendezvous timer failed")
	}

	// The radio still needs to drain the ACK payload it already queued;
	// spin until it finishes (bounded by one on-air frame time).
	for {
		err := l.radio.StopRX()
		if err == nil {
			break
		}
		if err != ErrNotInRxMode {
			globalLogger.Error("rcradio: stop_rx failed completing bind")
			break
		}
	}

	addr := addressFor(info.TransmitterChannel)
	if err := l.radio.SetBaseAddress(addr.Base()); err != nil {
		globalLogger.Error("rcradio: set_base_address failed completing bind")
	}
	if err := l.radio.SetPrefixes(addr.Prefix()); err != nil {
		globalLogger.Error("rcradio: set_prefixes failed completing bind")
	}
	if err := l.radio.SetRFChannel(channelAt(info.TransmitterChannel, l.hopIndex)); err != nil {
		globalLogger.Error("rcradio: set_rf_channel failed completing bind")
	}

	l.state = StateStarted
	boundInfo := l.bindInfo
	l.emit(EventBound, &boundInfo)
}

// onControlDataReceived handles a frame received while STARTED. Called
// with l.mu held.
func (l *Link) onControlDataReceived(payload []byte) {
	data, ok := DecodeControlData(payload)
	if !ok {
		// Size mismatch: ignore entirely, do not clear or advance.
		return
	}

	// Resynchronize the deadline to actual arrival, before advancing the
	// hop, so the deadline is measured from this packet, not the
	// previously scheduled slot.
	if err := l.timer.Clear(); err != nil {
		globalLogger.Error("rcradio: timer clear failed on data receipt")
	}

	l.incrementHopIndex()
	if err := l.radio.StopRX(); err != nil && err != ErrNotInRxMode {
		globalLogger.Error("rcradio: stop_rx failed on data receipt")
	}
	l.setChannelForHop()

	if l.missedPackets != 0 {
		// First-success window widen: undo the earlier shrink now that a
		// frame has actually arrived. Applied only on the nonzero->0
		// missed-packet transition.
		l.shiftCompareWindows(rxSafetyUs)
		l.missedPackets = 0
	}

	l.emit(EventDataReceived, &data)
}
