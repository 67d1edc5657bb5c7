package monitors

import (
	"context"
	"reflect"
	"time"

	"github.com/pkg/errors"
	"github.com/signalfx/defaults"
	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"

	"github.com/gopivotal/newrelic-plugins/internal/core/config"
	"github.com/gopivotal/newrelic-plugins/internal/core/config/validation"
	"github.com/gopivotal/newrelic-plugins/internal/monitors/types"
	"github.com/gopivotal/newrelic-plugins/internal/utils"
)

// ActiveMonitor is a wrapper for an actual monitor instance that keeps some
// metadata about the monitor, such as a copy of its configuration and how
// its collections have gone.  It exposes methods to help manage the monitor.
type ActiveMonitor struct {
	instance   interface{}
	id         types.MonitorID
	configHash uint64
	output     *monitorOutput
	config     config.MonitorCustomConfig
	logger     logrus.FieldLogger
	// cancel function for the context that the interval loop runs under
	cancel context.CancelFunc

	collectFailures  atomic.Uint64
	collectCalls     atomic.Uint64
	intervalExceeded atomic.Uint64
}

func renderConfig(conf *config.MonitorConfig) (config.MonitorCustomConfig, error) {
	template, ok := configTemplates[conf.Type]
	if !ok {
		return nil, errors.Errorf("unknown monitor type %s", conf.Type)
	}

	monConfig, err := config.DecodeMonitorConfig(conf, template)
	if err != nil {
		return nil, err
	}

	if err := defaults.Set(monConfig); err != nil {
		return nil, errors.Wrap(err, "monitor config defaults are wrong types")
	}
	return monConfig, nil
}

func validateConfig(monConfig config.MonitorCustomConfig) error {
	if interval := monConfig.MonitorConfigCore().IntervalSeconds; interval <= 0 {
		return errors.Errorf("intervalSeconds must be positive, got %d", interval)
	}
	if err := validation.ValidateStruct(monConfig); err != nil {
		return err
	}
	return validation.ValidateCustomConfig(monConfig)
}

// Does some reflection magic to pass the right type to the Configure method of
// each monitor
func (am *ActiveMonitor) configureMonitor(monConfig config.MonitorCustomConfig) error {
	monConfig.MonitorConfigCore().MonitorID = am.id

	if err := validateConfig(monConfig); err != nil {
		return err
	}

	if namer, ok := monConfig.(ComponentNamer); ok {
		am.output.component = namer.ComponentName()
	}

	am.config = monConfig
	if !am.injectOutput() {
		return errors.Errorf("monitor %s has no Output field of type types.Output", monConfig.MonitorConfigCore().Type)
	}

	if _, ok := am.instance.(Collectable); !ok {
		return errors.Errorf("monitor %s does not implement Collect", monConfig.MonitorConfigCore().Type)
	}

	return config.CallConfigure(am.instance, monConfig)
}

func (am *ActiveMonitor) injectOutput() bool {
	instanceValue := reflect.Indirect(reflect.ValueOf(am.instance))
	if instanceValue.Kind() != reflect.Struct {
		return false
	}

	outputValue := instanceValue.FieldByName("Output")
	outputType := reflect.TypeOf((*types.Output)(nil)).Elem()
	if !outputValue.IsValid() || !outputValue.CanSet() || outputValue.Type() != outputType {
		return false
	}

	outputValue.Set(reflect.ValueOf(am.output))
	return true
}

func (am *ActiveMonitor) interval() time.Duration {
	return time.Duration(am.config.MonitorConfigCore().IntervalSeconds) * time.Second
}

// collect runs a single poll cycle and keeps count of how it went
func (am *ActiveMonitor) collect(ctx context.Context) error {
	mon := am.instance.(Collectable)

	start := time.Now()
	err := mon.Collect(ctx)
	am.collectCalls.Inc()
	if err != nil {
		am.collectFailures.Inc()
		am.logger.WithError(err).Error("Could not collect metrics, skipping this poll cycle")
	}

	elapsed := time.Since(start)
	if interval := am.interval(); interval > 0 && elapsed > interval {
		am.intervalExceeded.Inc()
		am.logger.Warnf("monitor %s took too long to run (%s) which will cause lagging metrics", am.id, elapsed)
	}
	return err
}

// start polls on the configured interval until Shutdown is called
func (am *ActiveMonitor) start() {
	var ctx context.Context
	ctx, am.cancel = context.WithCancel(context.Background())

	utils.RunOnInterval(ctx, func() {
		_ = am.collect(ctx)
	}, am.interval())
}

// Shutdown should be called when you want to stop the monitor
func (am *ActiveMonitor) Shutdown() {
	if am.cancel != nil {
		am.cancel()
	}

	if sh, ok := am.instance.(Shutdownable); ok {
		sh.Shutdown()
	}
}
