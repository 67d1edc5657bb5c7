package types

import (
	"github.com/signalfx/golib/v3/datapoint"
)

// MonitorID is a unique identifier for a monitor instance
type MonitorID string

// Output is the interface that monitors should use to send data to the agent
// core.  It handles adding the component, plugin and unit metadata to
// datapoints so that monitors don't have to worry about it themselves.
type Output interface {
	SendDatapoints(...*datapoint.Datapoint)
	// SendMetric emits a single gauge for the given metric path and unit
	SendMetric(path, unit string, value datapoint.Value)
}
