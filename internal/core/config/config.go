// Package config contains the agent's configuration model and the logic to
// load it from a YAML file.
package config

import (
	"github.com/pkg/errors"

	"github.com/gopivotal/newrelic-plugins/internal/utils"
	"github.com/gopivotal/newrelic-plugins/pkg/utils/timeutil"
)

// Config is the top level config struct for configurations that are common
// to all platforms
type Config struct {
	// Where and how to report metrics to New Relic
	NewRelic NewRelicConfig `yaml:"newrelic" default:"{}"`
	// The default interval (in seconds) at which monitors poll their target.
	// Individual monitors can override this with their own `intervalSeconds`.
	IntervalSeconds int `yaml:"intervalSeconds" default:"60"`
	// If true, metrics are printed to stdout instead of being sent to New
	// Relic.  This applies to all monitors.
	Debug bool `yaml:"debug"`
	// If true, every monitor polls exactly once, the results are flushed, and
	// the agent exits.
	TestRun bool `yaml:"testRun"`
	// Log configuration
	Logging LogConfig `yaml:"logging" default:"{}"`
	// A list of monitors to run
	Monitors []MonitorConfig `yaml:"monitors" default:"[]"`
}

// NewRelicConfig holds the settings for the Platform API writer
type NewRelicConfig struct {
	// The New Relic license key used to authenticate metric posts
	LicenseKey string `yaml:"licenseKey" neverLog:"true"`
	// Base URL of the Platform API
	Endpoint string `yaml:"endpoint" default:"https://platform-api.newrelic.com"`
	// How often buffered metrics are posted.  Defaults to the top level
	// `intervalSeconds`.
	SendIntervalSeconds int `yaml:"sendIntervalSeconds"`
	// Timeout for each post to the Platform API
	HTTPTimeout timeutil.Duration `yaml:"httpTimeout" default:"20s"`
	// The host name reported as part of the agent block.  Defaults to the
	// OS hostname.
	Hostname string `yaml:"hostname"`
}

// Validate the top level config
func (c *Config) Validate() error {
	if c.IntervalSeconds <= 0 {
		return errors.Errorf("intervalSeconds must be positive, got %d", c.IntervalSeconds)
	}
	if c.NewRelic.SendIntervalSeconds <= 0 {
		return errors.Errorf("newrelic.sendIntervalSeconds must be positive, got %d", c.NewRelic.SendIntervalSeconds)
	}
	if !c.Debug && c.NewRelic.LicenseKey == "" {
		return errors.New("newrelic.licenseKey is required unless debug mode is on")
	}
	return nil
}

// initialize populates the derived values of the config once it has been
// decoded and had its defaults set.
func (c *Config) initialize() (*Config, error) {
	c.NewRelic.SendIntervalSeconds = utils.FirstNonZero(c.NewRelic.SendIntervalSeconds, c.IntervalSeconds)

	for i := range c.Monitors {
		c.Monitors[i].IntervalSeconds = utils.FirstNonZero(c.Monitors[i].IntervalSeconds, c.IntervalSeconds)
		c.Monitors[i].Debug = c.Monitors[i].Debug || c.Debug
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}
