// Package newrelic posts component metrics to the New Relic Platform API.
package newrelic

import (
	"bytes"
	"context"
	"io"
	"io/ioutil"
	"math"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/signalfx/golib/v3/datapoint"
	log "github.com/sirupsen/logrus"

	"github.com/gopivotal/newrelic-plugins/internal/core/config"
	"github.com/gopivotal/newrelic-plugins/pkg/core/common/httpclient"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const metricsPath = "platform/v1/metrics"

// One post per plugin GUID goes out on every flush
const maxIdleConnsPerHost = 3

// Client sends batches of datapoints to the Platform API.  It remembers when
// each plugin GUID was last reported successfully so that it can send the
// right duration.
type Client struct {
	httpClient *http.Client
	metricsURL string
	licenseKey string
	agent      AgentInfo
	// used as the duration of a GUID's first post
	defaultDuration time.Duration

	lock     sync.Mutex
	lastSent map[string]time.Time
	now      func() time.Time
}

// NewClient creates a client from the newrelic section of the config
func NewClient(conf *config.NewRelicConfig) (*Client, error) {
	base, err := url.Parse(strings.TrimSuffix(conf.Endpoint, "/") + "/")
	if err != nil {
		return nil, errors.Wrapf(err, "newrelic endpoint %s is not a valid URL", conf.Endpoint)
	}
	metricsURL, err := base.Parse(metricsPath)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	httpConf := &httpclient.HTTPConfig{HTTPTimeout: conf.HTTPTimeout}
	sendInterval := time.Duration(conf.SendIntervalSeconds) * time.Second
	httpClient, err := httpConf.BuildCustomizeTransport(func(t *http.Transport) {
		t.MaxIdleConnsPerHost = maxIdleConnsPerHost
		// Keep connections open across flushes
		if idle := 2 * sendInterval; idle > t.IdleConnTimeout {
			t.IdleConnTimeout = idle
		}
	})
	if err != nil {
		return nil, err
	}

	host := conf.Hostname
	if host == "" {
		host, err = os.Hostname()
		if err != nil {
			log.WithError(err).Warn("Could not determine hostname for New Relic agent info")
			host = "localhost"
		}
	}

	return &Client{
		httpClient:      httpClient,
		metricsURL:      metricsURL.String(),
		licenseKey:      conf.LicenseKey,
		agent:           AgentInfo{Host: host, PID: os.Getpid()},
		defaultDuration: sendInterval,
		lastSent:        map[string]time.Time{},
		now:             time.Now,
	}, nil
}

// Send posts the datapoints, one request per plugin GUID.  Every GUID is
// attempted even if an earlier one fails, and the returned error describes
// all failures.
func (c *Client) Send(ctx context.Context, dps []*datapoint.Datapoint) error {
	var errs []string
	for _, p := range groupByPlugin(dps) {
		if err := c.sendPlugin(ctx, p); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func (c *Client) duration(guid string, now time.Time) int {
	c.lock.Lock()
	last, ok := c.lastSent[guid]
	c.lock.Unlock()

	d := c.defaultDuration
	if ok {
		d = now.Sub(last)
	}
	secs := int(math.Round(d.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return secs
}

func (c *Client) sendPlugin(ctx context.Context, p *plugin) error {
	now := c.now()
	payload := p.payload(c.agent, c.duration(p.guid, now))

	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrapf(err, "could not encode metrics for %s", p.guid)
	}

	req, err := http.NewRequest("POST", c.metricsURL, bytes.NewReader(body))
	if err != nil {
		return errors.WithStack(err)
	}
	req = req.WithContext(ctx)
	req.Header.Set("X-License-Key", c.licenseKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "could not post metrics for %s", p.guid)
	}
	defer resp.Body.Close()

	respBody, _ := ioutil.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.Errorf("platform API rejected metrics for %s with status %d: %s",
			p.guid, resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	c.lock.Lock()
	c.lastSent[p.guid] = now
	c.lock.Unlock()

	log.WithFields(log.Fields{
		"guid":       p.guid,
		"components": len(payload.Components),
	}).Debug("Sent metrics to New Relic")
	return nil
}
