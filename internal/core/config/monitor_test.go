package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testMonitorConfig struct {
	MonitorConfig `yaml:",inline"`
	Host          string `yaml:"host"`
	Port          uint16 `yaml:"port"`
}

type testMonitor struct {
	conf *testMonitorConfig
	err  error
}

func (m *testMonitor) Configure(conf *testMonitorConfig) error {
	m.conf = conf
	return m.err
}

type wrongSignatureMonitor struct{}

func (m *wrongSignatureMonitor) Configure(conf *testMonitorConfig) bool {
	return true
}

func TestDecodeMonitorConfig(t *testing.T) {
	mc := &MonitorConfig{
		Type:            "test",
		IntervalSeconds: 10,
		OtherConfig: map[string]interface{}{
			"host": "localhost",
			"port": 6379,
		},
	}

	decoded, err := DecodeMonitorConfig(mc, &testMonitorConfig{})
	require.NoError(t, err)

	conf := decoded.(*testMonitorConfig)
	assert.Equal(t, "localhost", conf.Host)
	assert.Equal(t, uint16(6379), conf.Port)
	assert.Equal(t, "test", conf.Type)
	assert.Equal(t, 10, conf.IntervalSeconds)
}

func TestDecodeMonitorConfigUnknownKeys(t *testing.T) {
	mc := &MonitorConfig{
		Type:        "test",
		OtherConfig: map[string]interface{}{"host": "a", "hots": "b", "prot": 1},
	}

	_, err := DecodeMonitorConfig(mc, &testMonitorConfig{})
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "hots, prot")
	}
}

func TestDecodeMonitorConfigKnownKeysOnly(t *testing.T) {
	mc := &MonitorConfig{
		Type:        "test",
		OtherConfig: map[string]interface{}{"host": "a", "port": 80, "hots": "b"},
	}

	_, err := DecodeMonitorConfig(mc, &testMonitorConfig{})
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "unknown config option(s) for monitor test: hots")
		assert.NotContains(t, err.Error(), "port")
	}
}

func TestDecodeMonitorConfigBadTemplate(t *testing.T) {
	_, err := DecodeMonitorConfig(&MonitorConfig{Type: "test"}, &MonitorConfig{})
	assert.NoError(t, err, "a bare MonitorConfig is a valid template")

	mc := &MonitorConfig{Type: "test", OtherConfig: map[string]interface{}{"port": "notanumber"}}
	_, err = DecodeMonitorConfig(mc, &testMonitorConfig{})
	assert.Error(t, err)
}

func TestMonitorConfigHash(t *testing.T) {
	a := &MonitorConfig{Type: "redis", OtherConfig: map[string]interface{}{"host": "a"}}
	b := &MonitorConfig{Type: "redis", OtherConfig: map[string]interface{}{"host": "a"}, MonitorID: "1"}
	c := &MonitorConfig{Type: "redis", OtherConfig: map[string]interface{}{"host": "b"}}

	assert.Equal(t, a.Hash(), b.Hash(), "MonitorID should not affect the hash")
	assert.NotEqual(t, a.Hash(), c.Hash())
}

func TestCallConfigure(t *testing.T) {
	conf := &testMonitorConfig{Host: "x"}

	mon := &testMonitor{}
	require.NoError(t, CallConfigure(mon, conf))
	assert.Equal(t, conf, mon.conf)

	failing := &testMonitor{err: errors.New("bad")}
	assert.EqualError(t, CallConfigure(failing, conf), "bad")

	assert.Error(t, CallConfigure(&wrongSignatureMonitor{}, conf))
	assert.Error(t, CallConfigure(&struct{}{}, conf))
	assert.Error(t, CallConfigure(mon, &MonitorConfig{}))
}
