package rcradio

import "fmt"

// Identity selects one of five (address, channel-hop-map) presets. It
// lets independent transmitter/receiver pairs share the 2.4 GHz band
// without colliding.
type Identity uint8

const (
	IdentityA Identity = iota
	IdentityB
	IdentityC
	IdentityD
	IdentityE
	identityCount
)

func (i Identity) String() string {
	if i >= identityCount {
		return fmt.Sprintf("Identity(%d)", uint8(i))
	}
	return string(rune('A' + i))
}

// Valid reports whether i is one of IdentityA..IdentityE.
func (i Identity) Valid() bool {
	return i < identityCount
}

const (
	addrLen       = 5
	channelMapLen = 10

	// MinTransmitRateHz and MaxTransmitRateHz bound transmit_rate_hz.
	MinTransmitRateHz uint16 = 10
	MaxTransmitRateHz uint16 = 500

	// bindChannel is the RF channel used by both ends until binding
	// completes.
	bindChannel byte = 10

	// missedPacketTolerance is the number of consecutive missed slots the
	// receiver tolerates before concluding the transmitter is gone and
	// falling back to BINDING.
	missedPacketTolerance = 50
)

// Address is a 5-byte shockburst-style radio address. The last byte acts
// as the pipe prefix; the first four are the base address.
type Address [addrLen]byte

func (a Address) String() string {
	return fmt.Sprintf("%02X:%02X:%02X:%02X:%02X", a[0], a[1], a[2], a[3], a[4])
}

// Base returns the first four bytes, suitable for RadioPort.SetBaseAddress.
func (a Address) Base() [4]byte {
	return [4]byte{a[0], a[1], a[2], a[3]}
}

// Prefix returns the last byte, suitable for RadioPort.SetPrefixes.
func (a Address) Prefix() byte {
	return a[4]
}

// bindAddress is shared by every identity during the bind handshake.
var bindAddress = Address{0xAA, 0xBB, 0x55, 0xAA, 0x5A}

// channelMap[identity][hop index] is the RF channel (0..100) used on
// that hop. Values within a row are distinct.
var channelMap = [identityCount][channelMapLen]byte{
	{0, 32, 62, 92, 22, 52, 82, 12, 42, 72},
	{2, 34, 64, 94, 24, 54, 84, 14, 44, 74},
	{4, 36, 66, 96, 26, 56, 86, 16, 46, 76},
	{6, 38, 68, 98, 28, 58, 88, 18, 48, 78},
	{8, 40, 70, 100, 30, 60, 90, 20, 50, 80},
}

// operatingAddress[identity] is the address used once bound.
var operatingAddress = [identityCount]Address{
	{0xAA, 0xBB, 0xD5, 0x95, 0x55},
	{0xAA, 0xBB, 0x6A, 0x4A, 0xAA},
	{0xAA, 0xBB, 0xB5, 0x52, 0x5A},
	{0xAA, 0xBB, 0xAD, 0xA9, 0xA5},
	{0xAA, 0xBB, 0x56, 0x54, 0x2A},
}

// bindAckToken is the fixed 8-byte payload the receiver preloads as its
// selective-ACK reply during binding, so the transmitter recognizes a
// live receiver. It is the 8 printable ASCII bytes "RC_RADIO", with no
// NUL terminator -- this is a fixed-length radio frame, not a C string.
var bindAckToken = [8]byte{'R', 'C', '_', 'R', 'A', 'D', 'I', 'O'}

// channelAt is a constant-time lookup of the RF channel for identity id
// at hop index. The caller must ensure id is valid and index < channelMapLen.
func channelAt(id Identity, index int) byte {
	return channelMap[id][index]
}

// addressFor is a constant-time lookup of the operating address for id.
// The caller must ensure id is valid.
func addressFor(id Identity) Address {
	return operatingAddress[id]
}
