// Package config holds the battpipe daemon configuration.
package config

import (
	"os"
	"strconv"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/battpipe/battpipe/pkg/utils/ptr"
)

var defaultRawConfig = &RawConfig{
	PipePath:           ptr.To("/var/run/battpipe.pipe"),
	PipeUID:            ptr.To(-1),
	PipeGID:            ptr.To(-1),
	PipeMode:           ptr.To("0666"),
	DefaultStart:       ptr.To(75),
	DefaultEnd:         ptr.To(80),
	StartThresholdPath: ptr.To("/sys/class/power_supply/BAT0/charge_control_start_threshold"),
	EndThresholdPath:   ptr.To("/sys/class/power_supply/BAT0/charge_control_end_threshold"),
	SocketPath:         ptr.To("/var/run/battpipe.sock"),
	AllowNonRootAccess: ptr.To(false),
}

// Config is the process-wide daemon configuration. It is built once at
// startup and read-only for the process lifetime; every component takes it
// (or the fields it needs) explicitly instead of reaching for globals.
type Config struct {
	PipePath string
	// PipeUID and PipeGID of -1 leave pipe ownership untouched.
	PipeUID  int
	PipeGID  int
	PipeMode os.FileMode

	DefaultStart int
	DefaultEnd   int

	StartThresholdPath string
	EndThresholdPath   string

	SocketPath         string
	AllowNonRootAccess bool
}

// Validate checks the invariants the rest of the daemon relies on.
func (c *Config) Validate() error {
	if c.PipePath == "" {
		return pkgerrors.New("pipe path must not be empty")
	}
	if c.DefaultStart < 0 || c.DefaultStart > 100 {
		return pkgerrors.Errorf("default start threshold must be between 0 and 100, got %d", c.DefaultStart)
	}
	if c.DefaultEnd < 0 || c.DefaultEnd > 100 {
		return pkgerrors.Errorf("default end threshold must be between 0 and 100, got %d", c.DefaultEnd)
	}
	if c.DefaultStart > c.DefaultEnd {
		return pkgerrors.Errorf("default start threshold %d is above default end threshold %d",
			c.DefaultStart, c.DefaultEnd)
	}
	if c.StartThresholdPath == "" || c.EndThresholdPath == "" {
		return pkgerrors.New("threshold attribute paths must not be empty")
	}
	return nil
}

// LogrusFields returns the config as structured log fields.
func (c *Config) LogrusFields() logrus.Fields {
	return logrus.Fields{
		"pipePath":     c.PipePath,
		"pipeUID":      c.PipeUID,
		"pipeGID":      c.PipeGID,
		"pipeMode":     "0" + strconv.FormatUint(uint64(c.PipeMode.Perm()), 8),
		"defaultStart": c.DefaultStart,
		"defaultEnd":   c.DefaultEnd,
		"startPath":    c.StartThresholdPath,
		"endPath":      c.EndThresholdPath,
		"socketPath":   c.SocketPath,
	}
}

// ParseMode parses an octal permission string such as "0666" or "777" into
// permission bits.
func ParseMode(s string) (os.FileMode, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 8, 32)
	if err != nil {
		return 0, pkgerrors.Wrapf(err, "cannot parse %q as octal permissions", s)
	}
	if v > 0777 {
		return 0, pkgerrors.Errorf("permissions %q exceed 0777", s)
	}
	return os.FileMode(v), nil
}
