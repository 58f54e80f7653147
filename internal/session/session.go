// Package session loads the YAML session file shared by cmd/rctx and
// cmd/rcrx, in an apply-defaults-then-validate shape (the SPI bus,
// clock and CE pin defaults match those radio.New applies), and in
// the style of madpsy-ka9q_ubersdr/kiwi_wspr's YAML-config-plus-pflag
// command surface.
package session

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	rcradio "github.com/inductivekickback/rc-radio"
)

// Config describes one radio session: which identity/rate to bind with
// and which GPIO/SPI pins the radio is wired to.
type Config struct {
	// Identity is one of "A".."E".
	Identity string `yaml:"identity"`
	// RateHz is the update rate, [10, 500].
	RateHz uint16 `yaml:"rate_hz"`

	SPIBusPath string `yaml:"spi_bus_path"`
	SPIClockHz int    `yaml:"spi_clock_hz"`
	CEPin      int    `yaml:"ce_pin"`
	IRQPin     int    `yaml:"irq_pin"`
}

// DefaultRateHz is used when RateHz is zero in the loaded file.
const DefaultRateHz = 100

// Load reads and validates the YAML session file at path.
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("session: read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("session: parse %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.RateHz == 0 {
		c.RateHz = DefaultRateHz
	}
	if c.SPIBusPath == "" {
		c.SPIBusPath = "/dev/spidev0.0"
	}
	if c.SPIClockHz == 0 {
		c.SPIClockHz = 4_000_000
	}
	if c.CEPin == 0 {
		c.CEPin = 25
	}
}

func (c Config) validate() error {
	if _, ok := c.IdentityValue(); !ok {
		return fmt.Errorf("session: unknown identity %q", c.Identity)
	}
	if c.RateHz < rcradio.MinTransmitRateHz || c.RateHz > rcradio.MaxTransmitRateHz {
		return fmt.Errorf("session: rate_hz %d out of [%d, %d]", c.RateHz, rcradio.MinTransmitRateHz, rcradio.MaxTransmitRateHz)
	}
	return nil
}

// IdentityValue parses Identity into an rcradio.Identity.
func (c Config) IdentityValue() (rcradio.Identity, bool) {
	if len(c.Identity) != 1 {
		return 0, false
	}
	id := rcradio.Identity(c.Identity[0] - 'A')
	if c.Identity[0] < 'A' || !id.Valid() {
		return 0, false
	}
	return id, true
}
