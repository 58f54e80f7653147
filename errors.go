package rcradio

import "errors"

var (
	// ErrPkg is wrapped by every error this package constructs itself,
	// so callers can test with errors.Is(err, rcradio.ErrPkg) regardless
	// of the specific failure. An error returned by a RadioPort or
	// TimerPort method while Enable or SetData starts binding (other than
	// radio Init) is passed through unwrapped.
	ErrPkg = errors.New("rcradio")

	// ErrInvalidParam is returned when a caller-supplied value is out of
	// range: an unsupported rate, an unknown identity, or a nil receiver
	// callback. It is also returned by Enable when the link is not
	// currently DISABLED.
	ErrInvalidParam = errors.New("invalid parameter")

	// ErrInvalidState is returned when an operation is attempted from a
	// state or mode that does not support it, e.g. SetData on a disabled
	// link, or SetData on a receiver.
	ErrInvalidState = errors.New("invalid state")
)
