// Package rcradio implements the rc_radio link-layer protocol: a
// one-way, low-latency remote-control radio link between a single
// transmitter and a single receiver over a frequency-hopping,
// shockburst-style 2.4 GHz narrowband radio.
//
// The package owns the binding handshake, the hop schedule, the
// receiver's rendezvous window with packet-loss recovery, and the
// transmit/receive state machine. It is hardware-agnostic: callers
// supply a RadioPort and a TimerPort (see the rcradio/radio and
// rcradio/timer subpackages for concrete implementations) and get back
// a Link that drives them.
package rcradio
