package config

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

// LogConfig contains configuration related to logging
type LogConfig struct {
	// Valid levels include `debug`, `info`, `warn`, `error`.  Note that
	// `debug` logging may leak sensitive configuration (e.g. passwords) to the
	// agent output.
	Level string `yaml:"level" default:"info"`
	// The log output format to use.  Valid values are: `text`, `json`.
	Format string `yaml:"format" validate:"oneof=text json" default:"text"`
}

// LogrusLevel returns a logrus log level based on the configured level in
// LogConfig.
func (lc *LogConfig) LogrusLevel() (logrus.Level, error) {
	if lc.Level == "" {
		return logrus.InfoLevel, nil
	}
	level, err := logrus.ParseLevel(strings.ToLower(lc.Level))
	if err != nil {
		return logrus.InfoLevel, errors.Wrapf(err, "invalid log level %q", lc.Level)
	}
	return level, nil
}

// LogrusFormatter returns the formatter matching the configured format
func (lc *LogConfig) LogrusFormatter() logrus.Formatter {
	switch lc.Format {
	case "json":
		return &logrus.JSONFormatter{}
	default:
		return &prefixed.TextFormatter{}
	}
}

// Apply sets the level and formatter on the standard logrus logger
func (lc *LogConfig) Apply() error {
	level, err := lc.LogrusLevel()
	if err != nil {
		return err
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(lc.LogrusFormatter())
	return nil
}
