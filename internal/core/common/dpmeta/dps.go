package dpmeta

// constants for standard datapoint Meta fields that the agent uses
const (
	// The monitor instance id
	MonitorIDMeta = "newrelic-monitor-id"
	// The monitor type that generated the datapoint
	MonitorTypeMeta = "newrelic-monitor-type"
	// The unit label reported alongside the metric path, e.g. "bytes"
	UnitMeta = "newrelic-unit"
	// The human label of the monitored instance, usually "host:port"
	ComponentMeta = "newrelic-component"
	// The plugin GUID the component is reported under
	GUIDMeta = "newrelic-guid"
	// The plugin version sent as the agent version
	VersionMeta = "newrelic-version"
	// Set to true when the datapoint should be printed instead of reported
	DebugMeta = "newrelic-debug"
)

// String returns the string value of meta key k on a datapoint's Meta map,
// or "" if it is missing or not a string.
func String(meta map[interface{}]interface{}, k string) string {
	if s, ok := meta[k].(string); ok {
		return s
	}
	return ""
}
