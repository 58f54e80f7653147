// Command rcrx is the receiver example application: it drives an
// rcradio.Link in receiver mode and forwards each received ControlData
// to a servo.
package main

import (
	"os"
	"os/signal"
	"syscall"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	rcradio "github.com/inductivekickback/rc-radio"
	"github.com/inductivekickback/rc-radio/internal/session"
	"github.com/inductivekickback/rc-radio/radio"
	"github.com/inductivekickback/rc-radio/timer"
)

func main() {
	var (
		configPath = pflag.StringP("config", "c", "rcrx.yaml", "session config file")
		servoPin   = pflag.Int("servo-pin", 0, "GPIO pin (BCM numbering) driving the throttle servo; 0 disables the servo")
		verbose    = pflag.BoolP("verbose", "v", false, "debug logging")
	)
	pflag.Parse()

	logger := charmlog.New(os.Stderr)
	if *verbose {
		logger.SetLevel(charmlog.DebugLevel)
	}
	rcradio.SetLogger(loggerAdapter{logger})
	radio.SetLogger(loggerAdapter{logger})

	cfg, err := session.Load(*configPath)
	if err != nil {
		logger.Fatal("loading session config", "err", err)
	}

	dev, err := radio.New(radio.Config{
		CEPin:      cfg.CEPin,
		IRQPin:     cfg.IRQPin,
		SPIBusPath: cfg.SPIBusPath,
		SPIClockHz: cfg.SPIClockHz,
	})
	if err != nil {
		logger.Fatal("opening radio", "err", err)
	}

	throttleServo := newThrottleServo(*servoPin, logger)

	link, err := rcradio.NewReceiver(dev, timer.New(), func(event rcradio.Event, context any) {
		switch event {
		case rcradio.EventBinding:
			logger.Info("binding")
		case rcradio.EventBound:
			info := context.(*rcradio.BindInfo)
			logger.Info("bound", "identity", info.TransmitterChannel, "rate_hz", info.TransmitRateHz)
		case rcradio.EventDataReceived:
			data := context.(*rcradio.ControlData)
			logger.Debug("data_received", "throttle", data.Throttle, "pitch", data.Pitch, "roll", data.Roll, "yaw", data.Yaw)
			if throttleServo != nil {
				throttleServo.SetValueUnsigned(data.Throttle)
			}
		case rcradio.EventPacketDropped:
			logger.Warn("packet_dropped")
		}
	})
	if err != nil {
		logger.Fatal("creating receiver", "err", err)
	}

	if err := link.Enable(); err != nil {
		logger.Fatal("enabling receiver", "err", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down")
	if throttleServo != nil {
		throttleServo.Close()
	}
	if err := link.Disable(); err != nil {
		logger.Error("disable failed", "err", err)
	}
}

type loggerAdapter struct {
	l *charmlog.Logger
}

func (a loggerAdapter) Debug(msg string) { a.l.Debug(msg) }
func (a loggerAdapter) Info(msg string)  { a.l.Info(msg) }
func (a loggerAdapter) Warn(msg string)  { a.l.Warn(msg) }
func (a loggerAdapter) Error(msg string) { a.l.Error(msg) }
