// Package httpdmodbmx monitors Apache httpd through the mod_bmx status
// handler.  Two monitor types are registered: httpd_mod_bmx reports a
// virtual host's traffic counters, and httpd_mod_bmx_status reports server
// status values such as workers and connections.
package httpdmodbmx

import (
	"bytes"
	"context"
	"io"
	"io/ioutil"
	"net/http"

	"github.com/pkg/errors"
	"github.com/signalfx/golib/v3/datapoint"
	"github.com/sirupsen/logrus"

	"github.com/gopivotal/newrelic-plugins/internal/monitors"
	"github.com/gopivotal/newrelic-plugins/internal/monitors/types"
)

const (
	trafficMonitorType = "httpd_mod_bmx"
	statusMonitorType  = "httpd_mod_bmx_status"
)

var trafficMetadata = monitors.Metadata{
	MonitorType: trafficMonitorType,
	GUID:        "com.gopivotal.newrelic.plugins.httpd_mod_bmx",
	Version:     "1.0.5",
}

var statusMetadata = monitors.Metadata{
	MonitorType: statusMonitorType,
	GUID:        "com.gopivotal.newrelic.extensions.httpd_mod_bmx",
	Version:     "0.0.1",
}

func init() {
	monitors.Register(&trafficMetadata, func() interface{} { return &Monitor{report: reportTraffic} }, &Config{})
	monitors.Register(&statusMetadata, func() interface{} { return &Monitor{report: reportStatus} }, &Config{})
}

// reporter turns one cycle's stats into metrics
type reporter func(output types.Output, stats map[string]string, logger logrus.FieldLogger)

// Monitor polls mod_bmx for one virtual host
type Monitor struct {
	Output types.Output

	conf   *Config
	client *http.Client
	report reporter
	logger logrus.FieldLogger
}

// Configure the monitor
func (m *Monitor) Configure(conf *Config) (err error) {
	m.conf = conf
	m.logger = logrus.WithFields(logrus.Fields{"monitorType": conf.Type, "monitorID": conf.MonitorID})

	if conf.StatFile == "" {
		m.client, err = conf.HTTPConfig.Build()
		if err != nil {
			return errors.Wrap(err, "could not build HTTP client for mod_bmx")
		}
	}
	return nil
}

// Collect fetches the stats once and reports them
func (m *Monitor) Collect(ctx context.Context) error {
	body, err := m.fetch(ctx)
	if err != nil {
		return err
	}

	stats, err := parseStats(bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "could not read mod_bmx stats")
	}
	if len(stats) == 0 {
		m.logger.Warn("mod_bmx returned no stats")
		return nil
	}

	m.report(m.Output, stats, m.logger)
	return nil
}

func (m *Monitor) fetch(ctx context.Context) ([]byte, error) {
	if m.conf.StatFile != "" {
		body, err := ioutil.ReadFile(m.conf.StatFile)
		return body, errors.Wrapf(err, "could not read stat file %s", m.conf.StatFile)
	}

	statsURL := m.conf.StatsURL().String()
	m.logger.WithField("url", statsURL).Debug("Fetching mod_bmx stats")

	req, err := http.NewRequest("GET", statsURL, nil)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	resp, err := m.client.Do(req.WithContext(ctx))
	if err != nil {
		return nil, errors.Wrapf(err, "could not get %s", statsURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(ioutil.Discard, resp.Body)
		return nil, errors.Errorf("mod_bmx at %s returned status %d", statsURL, resp.StatusCode)
	}

	return ioutil.ReadAll(resp.Body)
}

func reportTraffic(output types.Output, stats map[string]string, logger logrus.FieldLogger) {
	for key, raw := range stats {
		if trafficSkipped[key] {
			continue
		}
		val, err := types.ParseValue(raw)
		if err != nil {
			logger.WithError(err).Debugf("Skipping mod_bmx stat %s", key)
			continue
		}
		output.SendMetric("HTTPD/"+key, unitFor(trafficUnits, key), val)
	}
}

func reportStatus(output types.Output, stats map[string]string, logger logrus.FieldLogger) {
	for key, raw := range stats {
		val, err := types.ParseValue(raw)
		if err != nil {
			logger.WithError(err).Debugf("Skipping mod_bmx status value %s", key)
			continue
		}

		unit := unitFor(statusUnits, key)
		if unit == "%" {
			f, _ := types.Float64(val)
			val = datapoint.NewFloatValue(100 * f)
		}
		output.SendMetric(statusPath(key, unit), unit, val)
	}
}

