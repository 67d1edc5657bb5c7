package httpdmodbmx

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/gopivotal/newrelic-plugins/internal/core/config"
	"github.com/gopivotal/newrelic-plugins/pkg/core/common/httpclient"
)

// Config for both of the mod_bmx monitor types
type Config struct {
	config.MonitorConfig  `yaml:",inline"`
	httpclient.HTTPConfig `yaml:",inline"`

	// The hostname of the Apache httpd virtual host
	Host string `yaml:"host" validate:"required"`
	// The port of the virtual host
	Port uint16 `yaml:"port" default:"80"`
	// If set, stats are read from this file instead of from the server.  The
	// file must be in the same format as the /bmx endpoint output.
	StatFile string `yaml:"statFile"`
}

// ComponentName is the label of this instance in New Relic
func (c *Config) ComponentName() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// StatsURL is the mod_bmx query for the configured virtual host's lifetime
// counters
func (c *Config) StatsURL() *url.URL {
	port := strconv.Itoa(int(c.Port))
	return &url.URL{
		Scheme:   c.Scheme(),
		Host:     c.Host + ":" + port,
		Path:     "/bmx",
		RawQuery: "query=mod_bmx_vhost:Type=forever,Host=" + c.Host + ",Port=" + port,
	}
}
