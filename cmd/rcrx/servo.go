package main

import (
	"fmt"

	charmlog "github.com/charmbracelet/log"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/inductivekickback/rc-radio/servo"
)

// newThrottleServo opens periph.io's host and the given BCM GPIO pin and
// returns a running servo.Driver, or nil if pin is 0 (servo disabled).
func newThrottleServo(pin int, logger *charmlog.Logger) *servo.Driver {
	if pin == 0 {
		return nil
	}
	if _, err := host.Init(); err != nil {
		logger.Fatal("periph.io host init failed", "err", err)
	}
	gpioPin := gpioreg.ByName(fmt.Sprintf("GPIO%d", pin))
	if gpioPin == nil {
		logger.Fatal("servo pin not found", "pin", pin)
	}
	wrapped, err := servo.NewPeriphPin(gpioPin)
	if err != nil {
		logger.Fatal("configuring servo pin", "err", err)
	}
	return servo.New(wrapped)
}
