package monitors

import (
	"context"
	"testing"

	"github.com/signalfx/golib/v3/datapoint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gopivotal/newrelic-plugins/internal/core/common/dpmeta"
	"github.com/gopivotal/newrelic-plugins/internal/core/config"
	"github.com/gopivotal/newrelic-plugins/internal/neotest"
)

func TestConfigureSkipsBadConfigs(t *testing.T) {
	registerFake()
	defer DeregisterAll()

	mm := NewMonitorManager(make(chan []*datapoint.Datapoint, 10))
	mm.Configure([]config.MonitorConfig{
		fakeMonitorConfig(map[string]interface{}{"host": "good"}),
		fakeMonitorConfig(map[string]interface{}{}),
		fakeMonitorConfig(map[string]interface{}{"host": "invalid"}),
		fakeMonitorConfig(map[string]interface{}{"host": "typo", "prot": 1}),
		fakeMonitorConfig(map[string]interface{}{"host": "x", "rejectConfigure": true}),
		{Type: "nonexistent"},
	})
	defer mm.Shutdown()

	assert.Equal(t, 1, mm.ActiveMonitorCount())

	bad := mm.BadConfigs()
	assert.Len(t, bad, 5)
	for _, conf := range bad {
		assert.NotEmpty(t, conf.ValidationError)
	}
}

func TestConfigureRejectsNonPositiveInterval(t *testing.T) {
	reg := registerFake()
	defer DeregisterAll()

	negative := fakeMonitorConfig(map[string]interface{}{"host": "neg"})
	negative.IntervalSeconds = -1
	zero := fakeMonitorConfig(map[string]interface{}{"host": "zero"})
	zero.IntervalSeconds = 0

	mm := NewMonitorManager(make(chan []*datapoint.Datapoint, 10))
	mm.Configure([]config.MonitorConfig{negative, zero})
	defer mm.Shutdown()

	assert.Equal(t, 0, mm.ActiveMonitorCount())

	bad := mm.BadConfigs()
	require.Len(t, bad, 2)
	assert.Equal(t, "intervalSeconds must be positive, got -1", bad[negative.Hash()].ValidationError)
	assert.Equal(t, "intervalSeconds must be positive, got 0", bad[zero.Hash()].ValidationError)

	assert.NotPanics(t, mm.Start)
	for _, mon := range reg.instances {
		assert.Equal(t, 0, mon.collectCount())
	}
}

func TestConfigureRejectsDuplicates(t *testing.T) {
	registerFake()
	defer DeregisterAll()

	mm := NewMonitorManager(make(chan []*datapoint.Datapoint, 10))
	mm.Configure([]config.MonitorConfig{
		fakeMonitorConfig(map[string]interface{}{"host": "a"}),
		fakeMonitorConfig(map[string]interface{}{"host": "a"}),
		fakeMonitorConfig(map[string]interface{}{"host": "b"}),
	})
	defer mm.Shutdown()

	assert.Equal(t, 2, mm.ActiveMonitorCount())
}

func TestCollectAll(t *testing.T) {
	reg := registerFake()
	defer DeregisterAll()

	dpChan := make(chan []*datapoint.Datapoint, 10)
	mm := NewMonitorManager(dpChan)
	mm.now = neotest.FixedTime

	debugConf := fakeMonitorConfig(map[string]interface{}{"host": "db1", "port": 99})
	debugConf.Debug = true
	mm.Configure([]config.MonitorConfig{
		fakeMonitorConfig(map[string]interface{}{"host": "web1"}),
		debugConf,
	})
	defer mm.Shutdown()

	require.NoError(t, mm.CollectAll(context.Background()))

	first := <-dpChan
	require.Len(t, first, 1)
	dp := first[0]
	assert.Equal(t, "Fake/Value", dp.Metric)
	assert.Equal(t, datapoint.NewIntValue(1234), dp.Value, "default port should be applied")
	assert.Equal(t, neotest.FixedTime(), dp.Timestamp)
	assert.Equal(t, "things", dp.Meta[dpmeta.UnitMeta])
	assert.Equal(t, "web1", dp.Meta[dpmeta.ComponentMeta])
	assert.Equal(t, "com.example.fake", dp.Meta[dpmeta.GUIDMeta])
	assert.Equal(t, "9.9.9", dp.Meta[dpmeta.VersionMeta])
	assert.Equal(t, fakeType, dp.Meta[dpmeta.MonitorTypeMeta])
	assert.Equal(t, "fake-1", dp.Meta[dpmeta.MonitorIDMeta])
	assert.Nil(t, dp.Meta[dpmeta.DebugMeta])

	second := <-dpChan
	assert.Equal(t, datapoint.NewIntValue(99), second[0].Value)
	assert.Equal(t, true, second[0].Meta[dpmeta.DebugMeta])
	assert.Equal(t, "fake-2", second[0].Meta[dpmeta.MonitorIDMeta])

	for _, m := range reg.instances {
		assert.Equal(t, 1, m.collectCount())
	}
}

func TestCollectAllReportsFailures(t *testing.T) {
	registerFake()
	defer DeregisterAll()

	mm := NewMonitorManager(make(chan []*datapoint.Datapoint, 10))
	mm.Configure([]config.MonitorConfig{
		fakeMonitorConfig(map[string]interface{}{"host": "ok"}),
		fakeMonitorConfig(map[string]interface{}{"host": "down", "fail": true}),
	})
	defer mm.Shutdown()

	err := mm.CollectAll(context.Background())
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "fake-2")
		assert.NotContains(t, err.Error(), "fake-1")
	}
	assert.Equal(t, uint64(1), mm.activeMonitors[1].collectFailures.Load())
}

func TestStartPollsUntilShutdown(t *testing.T) {
	reg := registerFake()
	defer DeregisterAll()

	mm := NewMonitorManager(make(chan []*datapoint.Datapoint, 100))
	mm.Configure([]config.MonitorConfig{
		fakeMonitorConfig(map[string]interface{}{"host": "web1"}),
	})
	mm.Start()

	require.Len(t, reg.instances, 1)
	mon := reg.instances[0]
	assert.Equal(t, 1, mon.collectCount(), "first poll should happen immediately")

	mm.Shutdown()
	assert.True(t, mon.shutdown)
	assert.Equal(t, 0, mm.ActiveMonitorCount())
}

func TestDiagnosticText(t *testing.T) {
	registerFake()
	defer DeregisterAll()

	mm := NewMonitorManager(make(chan []*datapoint.Datapoint, 10))
	mm.Configure([]config.MonitorConfig{
		fakeMonitorConfig(map[string]interface{}{"host": "db1"}),
		{Type: "nonexistent"},
	})
	require.NoError(t, mm.CollectAll(context.Background()))

	text := mm.DiagnosticText()
	assert.Contains(t, text, " 1. fake-1 (fake)\n")
	assert.Contains(t, text, "    Component: db1\n")
	assert.Contains(t, text, "    Collections: 1 (0 failed, 0 over interval)\n")
	assert.Contains(t, text, "Type: nonexistent\nError: monitor type nonexistent is not supported\n")
}
