// Package rabbitmq reports queue totals, message rates and node resource
// usage from the RabbitMQ management API.
package rabbitmq

import (
	"context"
	"io/ioutil"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"
	"github.com/signalfx/golib/v3/datapoint"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/gopivotal/newrelic-plugins/internal/monitors"
	"github.com/gopivotal/newrelic-plugins/internal/monitors/types"
)

var monitorMetadata = monitors.Metadata{
	MonitorType: "rabbitmq",
	GUID:        "com.pivotal.newrelic.plugin.rabbitmq",
	Version:     "0.0.2",
}

func init() {
	monitors.Register(&monitorMetadata, func() interface{} { return &Monitor{} }, &Config{})
}

// Monitor for the RabbitMQ management API
type Monitor struct {
	Output types.Output

	// management API base URL with any userinfo removed
	baseURL *url.URL
	client  *http.Client
	logger  logrus.FieldLogger
}

// message_stats keys by reported path
var rates = []struct {
	path string
	key  string
}{
	{"Message Rate/Acknowledge", "ack"},
	{"Message Rate/Confirm", "confirm"},
	{"Message Rate/Deliver", "deliver"},
	{"Message Rate/Publish", "publish"},
	{"Message Rate/Return", "return_unroutable"},
}

var nodeMetrics = []struct {
	path string
	unit string
	key  string
}{
	{"Node/File Descriptors", "file_descriptors", "fd_used"},
	{"Node/Sockets", "sockets", "sockets_used"},
	{"Node/Erlang Processes", "processes", "proc_used"},
	{"Node/Memory Used", "bytes", "mem_used"},
}

// Configure the monitor
func (m *Monitor) Configure(conf *Config) error {
	m.logger = logrus.WithFields(logrus.Fields{"monitorType": conf.Type, "monitorID": conf.MonitorID})

	u, err := conf.baseURL()
	if err != nil {
		return err
	}

	httpConf := conf.HTTPConfig
	httpConf.Username, httpConf.Password = conf.credentials(u)
	m.client, err = httpConf.Build()
	if err != nil {
		return errors.Wrap(err, "could not build HTTP client for RabbitMQ")
	}

	u.User = nil
	m.baseURL = u
	return nil
}

// Collect reports the overview metrics and then the metrics of the node that
// served the overview
func (m *Monitor) Collect(ctx context.Context) error {
	overview, err := m.getJSON(ctx, "api", "overview")
	if err != nil {
		return err
	}

	m.Output.SendMetric("Queued Messages/Ready", "messages", intOrZero(overview.Get("queue_totals.messages_ready")))
	m.Output.SendMetric("Queued Messages/Unacknowledged", "messages", intOrZero(overview.Get("queue_totals.messages_unacknowledged")))

	stats := overview.Get("message_stats")
	for _, r := range rates {
		rate := 0.0
		if stats.IsObject() {
			rate = stats.Get(r.key + "_details.rate").Float()
		}
		m.Output.SendMetric(r.path, "messages/sec", datapoint.NewFloatValue(rate))
	}

	nodeName := overview.Get("node").String()
	if nodeName == "" {
		m.logger.Warn("RabbitMQ overview has no node name, skipping node metrics")
		return nil
	}

	node, err := m.getJSON(ctx, "api", "nodes", nodeName)
	if err != nil {
		m.logger.WithError(err).Warn("Could not get RabbitMQ node info, skipping node metrics")
		return nil
	}

	for _, nm := range nodeMetrics {
		res := node.Get(nm.key)
		if res.Type != gjson.Number {
			continue
		}
		val, err := types.ParseValue(res.Raw)
		if err != nil {
			m.logger.WithError(err).Debugf("Skipping node value %s", nm.key)
			continue
		}
		m.Output.SendMetric(nm.path, nm.unit, val)
	}
	return nil
}

func intOrZero(res gjson.Result) datapoint.Value {
	if res.Type != gjson.Number {
		return datapoint.NewIntValue(0)
	}
	return datapoint.NewIntValue(res.Int())
}

// getJSON fetches the API path made of the given segments, each of which is
// escaped on its own
func (m *Monitor) getJSON(ctx context.Context, segments ...string) (gjson.Result, error) {
	escaped := make([]string, len(segments))
	for i := range segments {
		escaped[i] = url.PathEscape(segments[i])
	}

	u := *m.baseURL
	u.RawPath = strings.TrimSuffix(m.baseURL.EscapedPath(), "/") + "/" + strings.Join(escaped, "/")
	u.Path = strings.TrimSuffix(m.baseURL.Path, "/") + "/" + strings.Join(segments, "/")
	endpoint := u.String()

	req, err := http.NewRequest("GET", endpoint, nil)
	if err != nil {
		return gjson.Result{}, errors.WithStack(err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := m.client.Do(req.WithContext(ctx))
	if err != nil {
		return gjson.Result{}, errors.Wrapf(err, "could not get %s", endpoint)
	}
	defer resp.Body.Close()

	body, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return gjson.Result{}, errors.Wrapf(err, "could not read response from %s", endpoint)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return gjson.Result{}, errors.Errorf("%s returned status %d", endpoint, resp.StatusCode)
	}

	if !gjson.ValidBytes(body) {
		return gjson.Result{}, errors.Errorf("%s returned invalid JSON", endpoint)
	}
	return gjson.ParseBytes(body), nil
}
