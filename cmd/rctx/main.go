// Command rctx is the transmitter example application: it samples a
// joystick and feeds readings to an rcradio.Link in transmitter mode.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	rcradio "github.com/inductivekickback/rc-radio"
	"github.com/inductivekickback/rc-radio/internal/session"
	"github.com/inductivekickback/rc-radio/joystick"
	"github.com/inductivekickback/rc-radio/radio"
	"github.com/inductivekickback/rc-radio/timer"
)

func main() {
	var (
		configPath = pflag.StringP("config", "c", "rctx.yaml", "session config file")
		identity   = pflag.StringP("identity", "i", "", "override session identity (A..E)")
		rateHz     = pflag.Uint16P("rate", "r", 0, "override session rate_hz")
		stub       = pflag.Bool("stub-joystick", false, "use fixed joystick readings instead of an ADC")
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
	if *identity != "" {
		cfg.Identity = *identity
	}
	if *rateHz != 0 {
		cfg.RateHz = *rateHz
	}

	id, ok := cfg.IdentityValue()
	if !ok {
		logger.Fatal("invalid identity", "identity", cfg.Identity)
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

	link, err := rcradio.NewTransmitter(cfg.RateHz, id, dev, timer.New(), func(event rcradio.Event, context any) {
		switch event {
		case rcradio.EventBound:
			info := context.(*rcradio.BindInfo)
			logger.Info("bound", "identity", info.TransmitterChannel, "rate_hz", info.TransmitRateHz)
		case rcradio.EventDataSent:
			logger.Debug("data_sent")
		case rcradio.EventBinding:
			logger.Info("binding")
		}
	})
	if err != nil {
		logger.Fatal("creating transmitter", "err", err)
	}

	if err := link.Enable(); err != nil {
		logger.Fatal("enabling transmitter", "err", err)
	}

	var reader *joystick.Reader
	if *stub {
		reader = joystick.New(
			joystick.StubAxis{Value: 2048},
			joystick.StubAxis{Value: 2048},
			joystick.StubAxis{Value: 2048},
			joystick.StubAxis{Value: 2048},
		)
	} else {
		logger.Fatal("no ADC binding configured; pass --stub-joystick, or wire joystick.NewPeriphAxis in this file for your hardware")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(time.Second / time.Duration(cfg.RateHz))
	defer ticker.Stop()

	logger.Info("transmitting", "identity", cfg.Identity, "rate_hz", cfg.RateHz)
	for {
		select {
		case <-ticker.C:
			data, err := reader.Read()
			if err != nil {
				logger.Error("joystick read failed", "err", err)
				continue
			}
			if err := link.SetData(data); err != nil {
				logger.Error("set_data failed", "err", err)
			}
		case <-sigCh:
			logger.Info("shutting down")
			if err := link.Disable(); err != nil {
				fmt.Fprintln(os.Stderr, err)
			}
			return
		}
	}
}

type loggerAdapter struct {
	l *charmlog.Logger
}

func (a loggerAdapter) Debug(msg string) { a.l.Debug(msg) }
func (a loggerAdapter) Info(msg string)  { a.l.Info(msg) }
func (a loggerAdapter) Warn(msg string)  { a.l.Warn(msg) }
func (a loggerAdapter) Error(msg string) { a.l.Error(msg) }
