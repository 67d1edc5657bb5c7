package neotest

import (
	"sync"

	"github.com/signalfx/golib/v3/datapoint"

	"github.com/gopivotal/newrelic-plugins/internal/core/common/dpmeta"
	"github.com/gopivotal/newrelic-plugins/internal/monitors/types"
)

// TestOutput can be used in place of the normal monitor output to provide a
// simpler way of testing monitor output.
type TestOutput struct {
	dpChan chan *datapoint.Datapoint

	// Use a lock since monitors are allowed to use output from multiple
	// threads.
	lock sync.Mutex
}

var _ types.Output = &TestOutput{}

// NewTestOutput creates a new initialized TestOutput instance
func NewTestOutput() *TestOutput {
	return &TestOutput{
		dpChan: make(chan *datapoint.Datapoint, 1000),
	}
}

// SendDatapoints accepts datapoints and sticks them in a buffered queue
func (to *TestOutput) SendDatapoints(dps ...*datapoint.Datapoint) {
	for _, dp := range dps {
		to.dpChan <- dp
	}
}

// SendMetric makes a gauge with the unit attached, the same way the real
// output does
func (to *TestOutput) SendMetric(path, unit string, value datapoint.Value) {
	to.lock.Lock()
	defer to.lock.Unlock()

	dp := datapoint.New(path, nil, value, datapoint.Gauge, FixedTime())
	dp.Meta = map[interface{}]interface{}{dpmeta.UnitMeta: unit}
	to.dpChan <- dp
}

// FlushDatapoints returns all of the datapoints injected into the channel so
// far.
func (to *TestOutput) FlushDatapoints() []*datapoint.Datapoint {
	var out []*datapoint.Datapoint
	for {
		select {
		case dp := <-to.dpChan:
			out = append(out, dp)
		default:
			return out
		}
	}
}

// Metric is the (path, unit, value) view of a reported datapoint
type Metric struct {
	Unit  string
	Value datapoint.Value
}

// FlushMetrics returns what has been sent so far keyed by metric path
func (to *TestOutput) FlushMetrics() map[string]Metric {
	out := map[string]Metric{}
	for _, dp := range to.FlushDatapoints() {
		out[dp.Metric] = Metric{Unit: dpmeta.String(dp.Meta, dpmeta.UnitMeta), Value: dp.Value}
	}
	return out
}
