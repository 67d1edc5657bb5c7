package monitors

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
	"github.com/signalfx/golib/v3/datapoint"
	log "github.com/sirupsen/logrus"

	"github.com/gopivotal/newrelic-plugins/internal/core/config"
	"github.com/gopivotal/newrelic-plugins/internal/monitors/types"
)

// MonitorManager coordinates the startup and shutdown of monitors based on the
// configuration provided by the user.
type MonitorManager struct {
	activeMonitors []*ActiveMonitor
	badConfigs     map[uint64]*config.MonitorConfig
	lock           sync.Mutex
	started        bool

	// Monitors send their datapoints on this channel
	DPs chan<- []*datapoint.Datapoint

	idGenerator func(monitorType string) types.MonitorID
	now         func() time.Time
}

// NewMonitorManager creates a new instance of the MonitorManager
func NewMonitorManager(dps chan<- []*datapoint.Datapoint) *MonitorManager {
	return &MonitorManager{
		activeMonitors: make([]*ActiveMonitor, 0),
		badConfigs:     make(map[uint64]*config.MonitorConfig),
		DPs:            dps,
		idGenerator:    newIDGenerator(),
		now:            time.Now,
	}
}

func newIDGenerator() func(string) types.MonitorID {
	counts := map[string]int{}
	return func(monitorType string) types.MonitorID {
		counts[monitorType]++
		return types.MonitorID(fmt.Sprintf("%s-%d", monitorType, counts[monitorType]))
	}
}

// Configure receives a list of monitor configurations and creates a monitor
// instance for each valid one.  Invalid configs are logged and skipped so that
// one bad monitor does not stop the others.  The monitors do not poll until
// Start or CollectAll is called.
func (mm *MonitorManager) Configure(confs []config.MonitorConfig) {
	mm.lock.Lock()
	defer mm.lock.Unlock()

	seen := map[uint64]bool{}
	for i := range confs {
		conf := confs[i]
		hash := conf.Hash()

		if seen[hash] {
			log.WithFields(log.Fields{
				"monitorType": conf.Type,
			}).Error("Monitor config is duplicated")
			continue
		}
		seen[hash] = true

		if err := mm.createAndConfigureNewMonitor(&conf, hash); err != nil {
			log.WithFields(log.Fields{
				"monitorType": conf.Type,
				"error":       err,
			}).Error("Could not process configuration for monitor")
			log.Debugf("Rejected monitor config: %s", spew.Sdump(conf.OtherConfig))

			conf.ValidationError = err.Error()
			mm.badConfigs[hash] = &conf
		}
	}
}

func (mm *MonitorManager) createAndConfigureNewMonitor(conf *config.MonitorConfig, hash uint64) error {
	metadata, ok := monitorMetadatas[conf.Type]
	if !ok {
		return errors.Errorf("monitor type %s is not supported", conf.Type)
	}

	monConfig, err := renderConfig(conf)
	if err != nil {
		return err
	}

	instance := MonitorFactories[conf.Type]()
	id := mm.idGenerator(conf.Type)

	am := &ActiveMonitor{
		instance:   instance,
		id:         id,
		configHash: hash,
		logger: log.WithFields(log.Fields{
			"monitorType": conf.Type,
			"monitorID":   id,
		}),
		output: &monitorOutput{
			monitorType: conf.Type,
			monitorID:   id,
			guid:        metadata.GUID,
			version:     metadata.Version,
			debug:       conf.Debug,
			dpChan:      mm.DPs,
			now:         mm.now,
		},
	}

	if err := am.configureMonitor(monConfig); err != nil {
		am.Shutdown()
		return err
	}

	am.logger.WithField("component", am.output.component).Info("Configured monitor")
	mm.activeMonitors = append(mm.activeMonitors, am)
	return nil
}

// Start begins the poll loop of every configured monitor
func (mm *MonitorManager) Start() {
	mm.lock.Lock()
	defer mm.lock.Unlock()

	if mm.started {
		return
	}
	mm.started = true

	for _, am := range mm.activeMonitors {
		am.start()
	}
}

// CollectAll runs exactly one poll cycle on every monitor, one after the
// other.  It returns an error naming the monitors whose cycle failed.
func (mm *MonitorManager) CollectAll(ctx context.Context) error {
	mm.lock.Lock()
	defer mm.lock.Unlock()

	var failed []string
	for _, am := range mm.activeMonitors {
		if err := am.collect(ctx); err != nil {
			failed = append(failed, string(am.id))
		}
	}

	if len(failed) > 0 {
		return errors.Errorf("collection failed for monitor(s): %s", strings.Join(failed, ", "))
	}
	return nil
}

// ActiveMonitorCount returns the number of monitors that were configured
// successfully
func (mm *MonitorManager) ActiveMonitorCount() int {
	mm.lock.Lock()
	defer mm.lock.Unlock()

	return len(mm.activeMonitors)
}

// BadConfigs returns the configs that were rejected, keyed by config hash
func (mm *MonitorManager) BadConfigs() map[uint64]*config.MonitorConfig {
	mm.lock.Lock()
	defer mm.lock.Unlock()

	out := make(map[uint64]*config.MonitorConfig, len(mm.badConfigs))
	for k, v := range mm.badConfigs {
		out[k] = v
	}
	return out
}

// Shutdown will shutdown all managed monitors
func (mm *MonitorManager) Shutdown() {
	mm.lock.Lock()
	defer mm.lock.Unlock()

	for i := range mm.activeMonitors {
		mm.activeMonitors[i].Shutdown()
	}
	mm.activeMonitors = nil
	mm.badConfigs = make(map[uint64]*config.MonitorConfig)
	mm.started = false
}
