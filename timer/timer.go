// Package timer implements rcradio.TimerPort with a free-running
// software microsecond counter, modeled after a shared hardware counter
// feeding three independent compare channels. Microsecond granularity
// is adequate since the tightest interval the protocol ever programs is
// 2000us (500 Hz).
package timer

import (
	"fmt"
	"sync"
	"time"

	rcradio "github.com/inductivekickback/rc-radio"
)

const numChannels = 3

type channelState struct {
	armed     bool
	compareUs uint32
	autoClear bool
	repeating bool
	version   uint64
	cancel    *time.Timer
}

// SoftwareTimer is a software stand-in for the hardware timer peripheral
// the link state machine drives: one free-running counter shared by
// three independently programmable compare channels.
//
// The counter itself isn't tracked as an integer tick count; instead
// counterStart records the wall-clock instant the counter last read
// zero, and each channel's fire time is counterStart plus its programmed
// offset. A match that auto-clears resets counterStart and reschedules
// every still-armed channel from the new zero, exactly as a hardware
// counter reset would change what every compare register means.
type SoftwareTimer struct {
	mu           sync.Mutex
	onMatch      func(rcradio.TimerCompareChannel)
	running      bool
	counterStart time.Time
	channels     [numChannels]channelState
}

// New returns an unconfigured SoftwareTimer; call Init before any other
// method.
func New() *SoftwareTimer {
	return &SoftwareTimer{}
}

func (t *SoftwareTimer) Init(onMatch func(rcradio.TimerCompareChannel)) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if onMatch == nil {
		return fmt.Errorf("timer: onMatch callback is required")
	}
	t.onMatch = onMatch
	return nil
}

// Compare programs channel to fire ticksUs microseconds from the
// counter's current zero point. If the timer is already running the
// channel is scheduled immediately; otherwise it takes effect on the
// next Enable, matching a hardware CC register's contents surviving
// across a peripheral disable.
func (t *SoftwareTimer) Compare(channel rcradio.TimerCompareChannel, ticksUs uint32, autoClear, repeating bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if int(channel) >= numChannels {
		return fmt.Errorf("timer: invalid channel %d", channel)
	}

	ch := &t.channels[channel]
	ch.armed = true
	ch.compareUs = ticksUs
	ch.autoClear = autoClear
	ch.repeating = repeating

	if t.running {
		t.scheduleChannelLocked(channel)
	}
	return nil
}

func (t *SoftwareTimer) CaptureGet(channel rcradio.TimerCompareChannel) (uint32, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if int(channel) >= numChannels {
		return 0, fmt.Errorf("timer: invalid channel %d", channel)
	}
	return t.channels[channel].compareUs, nil
}

// CompareWrite atomically rewrites channel's compare value, relative to
// the currently running counter, without disturbing its auto-clear or
// repeat configuration.
func (t *SoftwareTimer) CompareWrite(channel rcradio.TimerCompareChannel, ticksUs uint32) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if int(channel) >= numChannels {
		return fmt.Errorf("timer: invalid channel %d", channel)
	}
	t.channels[channel].compareUs = ticksUs
	if t.running && t.channels[channel].armed {
		t.scheduleChannelLocked(channel)
	}
	return nil
}

// Clear resets the free-running counter to zero and reschedules every
// armed channel relative to the new zero, exactly as Enable does.
func (t *SoftwareTimer) Clear() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resetCounterLocked()
	return nil
}

// ClearEvents clears any pending match. Since this implementation
// delivers a match synchronously from the scheduled goroutine rather
// than latching a status bit for later polling, there is nothing queued
// to drop; this exists so call sites mirror the hardware sequence.
func (t *SoftwareTimer) ClearEvents() error {
	return nil
}

func (t *SoftwareTimer) Enable() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.running = true
	t.resetCounterLocked()
	return nil
}

// Disable stops the counter. Programmed compare values and their
// armed/auto-clear/repeat settings are retained, as on real hardware,
// but no further matches fire until Enable is called again.
func (t *SoftwareTimer) Disable() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.running = false
	for i := range t.channels {
		t.stopChannelLocked(rcradio.TimerCompareChannel(i))
	}
	return nil
}

// resetCounterLocked sets the counter's zero point to now and
// reschedules every armed channel relative to it. Called with t.mu
// held.
func (t *SoftwareTimer) resetCounterLocked() {
	t.counterStart = time.Now()
	for i := range t.channels {
		if t.channels[i].armed {
			t.scheduleChannelLocked(rcradio.TimerCompareChannel(i))
		}
	}
}

// scheduleChannelLocked (re)arms channel's underlying time.Timer to
// fire at counterStart+compareUs, bumping its version so a
// previously-scheduled, not-yet-delivered match is recognized as stale
// and discarded by onFire -- the software analogue of a hardware timer
// interrupt being preemptible by, and reprogrammed by, the radio
// interrupt. Called with t.mu held.
func (t *SoftwareTimer) scheduleChannelLocked(channel rcradio.TimerCompareChannel) {
	t.stopChannelLocked(channel)

	ch := &t.channels[channel]
	ch.version++
	version := ch.version

	target := t.counterStart.Add(time.Duration(ch.compareUs) * time.Microsecond)
	delay := time.Until(target)
	if delay < 0 {
		delay = 0
	}
	ch.cancel = time.AfterFunc(delay, func() {
		t.onFire(channel, version)
	})
}

func (t *SoftwareTimer) stopChannelLocked(channel rcradio.TimerCompareChannel) {
	ch := &t.channels[channel]
	if ch.cancel != nil {
		ch.cancel.Stop()
		ch.cancel = nil
	}
}

// onFire runs when channel's scheduled time.Timer expires. version
// pins it to the scheduling call that created it; if the channel has
// since been reprogrammed (a new version), this firing is stale and
// dropped.
func (t *SoftwareTimer) onFire(channel rcradio.TimerCompareChannel, version uint64) {
	t.mu.Lock()
	ch := &t.channels[channel]
	if !t.running || !ch.armed || ch.version != version {
		t.mu.Unlock()
		return
	}

	if !ch.repeating {
		ch.armed = false
	}
	if ch.autoClear {
		t.resetCounterLocked()
	}

	cb := t.onMatch
	t.mu.Unlock()

	if cb != nil {
		cb(channel)
	}
}
