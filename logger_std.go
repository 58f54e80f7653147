//go:build !tinygo

package rcradio

import (
	charmlog "github.com/charmbracelet/log"
)

func init() {
	globalLogger = &charmLogger{l: charmlog.Default()}
}

// charmLogger backs Logger with github.com/charmbracelet/log, giving the
// default non-embedded build leveled, colored console output.
type charmLogger struct {
	l *charmlog.Logger
}

func (c *charmLogger) Debug(msg string) { c.l.Debug(msg) }
func (c *charmLogger) Info(msg string)  { c.l.Info(msg) }
func (c *charmLogger) Warn(msg string)  { c.l.Warn(msg) }
func (c *charmLogger) Error(msg string) { c.l.Error(msg) }
