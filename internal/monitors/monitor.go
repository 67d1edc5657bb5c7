// Package monitors is the core logic for monitors.  Monitors are what poll
// the target services.  They have a simple interface that all must implement:
// the Configure method, which takes one argument of the same type that you
// pass as the configTemplate to the Register function, and the Collect
// method, which runs a single poll cycle.  Optionally, monitors may implement
// the niladic Shutdown method to do cleanup.  Monitors will never be reused
// after the Shutdown method is called.
//
// Monitors send their metrics through a field named "Output" of type
// types.Output, which the manager injects before Configure is called.
package monitors

import (
	"context"

	"github.com/gopivotal/newrelic-plugins/internal/core/config"
)

// Metadata describes how a monitor type reports to New Relic
type Metadata struct {
	// The type name used in the `type` key of a monitor config
	MonitorType string
	// The plugin GUID that components of this type are reported under
	GUID string
	// The plugin version, sent as the agent version for this GUID
	Version string
}

// MonitorFactory is a niladic function that creates an unconfigured instance
// of a monitor.
type MonitorFactory func() interface{}

// MonitorFactories holds all of the registered monitor factories
var MonitorFactories = map[string]MonitorFactory{}

// These are blank (zero-value) instances of the configuration struct for a
// particular monitor type.
var configTemplates = map[string]config.MonitorCustomConfig{}

var monitorMetadatas = map[string]*Metadata{}

// Register a new monitor type with the agent.  This is intended to be called
// from the init function of the module of a specific monitor
// implementation. configTemplate should be a zero-valued struct that is of the
// same type as the parameter to the Configure method for this monitor type.
func Register(metadata *Metadata, factory MonitorFactory, configTemplate config.MonitorCustomConfig) {
	if _, ok := MonitorFactories[metadata.MonitorType]; ok {
		panic("Monitor type '" + metadata.MonitorType + "' already registered")
	}
	MonitorFactories[metadata.MonitorType] = factory
	configTemplates[metadata.MonitorType] = configTemplate
	monitorMetadatas[metadata.MonitorType] = metadata
}

// DeregisterAll unregisters all monitor types.  Primarily intended for testing
// purposes.
func DeregisterAll() {
	for k := range MonitorFactories {
		delete(MonitorFactories, k)
	}

	for k := range configTemplates {
		delete(configTemplates, k)
	}

	for k := range monitorMetadatas {
		delete(monitorMetadatas, k)
	}
}

// Collectable is implemented by every monitor.  Collect runs one poll cycle
// and returns an error if the cycle had to be skipped.
type Collectable interface {
	Collect(ctx context.Context) error
}

// Shutdownable should be implemented by all monitors that need to clean up
// resources before being destroyed.
type Shutdownable interface {
	Shutdown()
}

// ComponentNamer is implemented by monitor configs to provide the human label
// of the monitored instance, e.g. "localhost:6379".
type ComponentNamer interface {
	ComponentName() string
}
