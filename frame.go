package rcradio

// ControlData is the 4-byte on-air control record: throttle, pitch,
// roll, and yaw. Field order and widths are fixed; the wire layout is
// little-endian with no padding (every field here is a single byte, so
// byte order is moot, but the layout itself is part of the protocol).
type ControlData struct {
	Throttle uint8
	Pitch    int8
	Roll     int8
	Yaw      int8
}

const controlDataSize = 4

// Encode returns the 4-byte wire representation of d.
func (d ControlData) Encode() [controlDataSize]byte {
	return [controlDataSize]byte{
		d.Throttle,
		byte(d.Pitch),
		byte(d.Roll),
		byte(d.Yaw),
	}
}

// DecodeControlData decodes a 4-byte control-data frame. ok is false if
// b is not exactly controlDataSize bytes.
func DecodeControlData(b []byte) (d ControlData, ok bool) {
	if len(b) != controlDataSize {
		return ControlData{}, false
	}
	return ControlData{
		Throttle: b[0],
		Pitch:    int8(b[1]),
		Roll:     int8(b[2]),
		Yaw:      int8(b[3]),
	}, true
}

// BindInfo is the 3-byte on-air bind-info descriptor: the transmitter's
// identity and its chosen update rate.
type BindInfo struct {
	TransmitterChannel Identity
	TransmitRateHz     uint16
}

const bindInfoSize = 3

// Encode produces the 3-byte little-endian wire representation of b.
func (b BindInfo) Encode() [bindInfoSize]byte {
	return [bindInfoSize]byte{
		byte(b.TransmitterChannel),
		byte(b.TransmitRateHz),
		byte(b.TransmitRateHz >> 8),
	}
}

// DecodeBindInfo decodes a 3-byte bind-info frame. ok is false if b is
// not exactly bindInfoSize bytes. It does not itself validate the
// identity or rate range; the caller (the receiver's bind handler)
// checks those and treats a bad length and an out-of-range value the
// same way, by re-arming the ACK.
func DecodeBindInfo(b []byte) (info BindInfo, ok bool) {
	if len(b) != bindInfoSize {
		return BindInfo{}, false
	}
	return BindInfo{
		TransmitterChannel: Identity(b[0]),
		TransmitRateHz:     uint16(b[1]) | uint16(b[2])<<8,
	}, true
}

// isBindAck reports whether b is exactly the bind ACK token.
func isBindAck(b []byte) bool {
	if len(b) != len(bindAckToken) {
		return false
	}
	for i := range bindAckToken {
		if b[i] != bindAckToken[i] {
			return false
		}
	}
	return true
}
