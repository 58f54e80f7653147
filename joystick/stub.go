package joystick

// StubAxis is a deterministic Axis for hosts with no ADC wired up (CI,
// development machines): it always reports a fixed raw value, so
// cmd/rctx can run end-to-end off real hardware for smoke-testing the
// link without a joystick attached. Non-goal: simulating stick motion.
type StubAxis struct {
	Value uint16
}

func (s StubAxis) Read() (uint16, error) {
	return s.Value, nil
}
