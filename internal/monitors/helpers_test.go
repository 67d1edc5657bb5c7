package monitors

import (
	"context"
	"errors"
	"sync"

	"github.com/signalfx/golib/v3/datapoint"

	"github.com/gopivotal/newrelic-plugins/internal/core/config"
	"github.com/gopivotal/newrelic-plugins/internal/monitors/types"
)

const fakeType = "fake"

type fakeConfig struct {
	config.MonitorConfig `yaml:",inline"`
	Host                 string `yaml:"host" validate:"required"`
	Port                 uint16 `yaml:"port" default:"1234"`
	Fail                 bool   `yaml:"fail"`
	RejectConfigure      bool   `yaml:"rejectConfigure"`
}

func (c *fakeConfig) ComponentName() string {
	return c.Host
}

func (c *fakeConfig) Validate() error {
	if c.Host == "invalid" {
		return errors.New("host is invalid")
	}
	return nil
}

type fakeMonitor struct {
	Output types.Output

	lock     sync.Mutex
	conf     *fakeConfig
	collects int
	shutdown bool
}

func (m *fakeMonitor) Configure(conf *fakeConfig) error {
	if conf.RejectConfigure {
		return errors.New("rejected")
	}
	m.conf = conf
	return nil
}

func (m *fakeMonitor) Collect(ctx context.Context) error {
	m.lock.Lock()
	m.collects++
	m.lock.Unlock()

	if m.conf.Fail {
		return errors.New("target unavailable")
	}
	m.Output.SendMetric("Fake/Value", "things", datapoint.NewIntValue(int64(m.conf.Port)))
	return nil
}

func (m *fakeMonitor) Shutdown() {
	m.lock.Lock()
	m.shutdown = true
	m.lock.Unlock()
}

func (m *fakeMonitor) collectCount() int {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.collects
}

// Keeps track of instances made by the factory so tests can inspect them
type fakeRegistry struct {
	lock      sync.Mutex
	instances []*fakeMonitor
}

func registerFake() *fakeRegistry {
	DeregisterAll()
	reg := &fakeRegistry{}
	Register(&Metadata{MonitorType: fakeType, GUID: "com.example.fake", Version: "9.9.9"}, func() interface{} {
		reg.lock.Lock()
		defer reg.lock.Unlock()
		m := &fakeMonitor{}
		reg.instances = append(reg.instances, m)
		return m
	}, &fakeConfig{})
	return reg
}

func fakeMonitorConfig(other map[string]interface{}) config.MonitorConfig {
	return config.MonitorConfig{Type: fakeType, IntervalSeconds: 60, OtherConfig: other}
}
