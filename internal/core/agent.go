// Package core contains the central frame of the agent that hooks up the
// various subsystems.
package core

import (
	"context"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/gopivotal/newrelic-plugins/internal/core/config"
	"github.com/gopivotal/newrelic-plugins/internal/core/writer"
	"github.com/gopivotal/newrelic-plugins/internal/monitors"
)

// Agent is what hooks up the monitors and the metric writer
type Agent struct {
	monitors   *monitors.MonitorManager
	writer     *writer.MetricWriter
	lastConfig *config.Config
}

// newAgent creates the writer and configures every monitor from conf.  The
// monitors do not start polling until told to.
func newAgent(conf *config.Config) (*Agent, error) {
	w, err := writer.New(&conf.NewRelic)
	if err != nil {
		// This is a catastrophic error if we can't write metrics.
		return nil, errors.Wrap(err, "could not configure New Relic metric writer")
	}

	agent := &Agent{
		writer:     w,
		monitors:   monitors.NewMonitorManager(w.DatapointChannel()),
		lastConfig: conf,
	}
	agent.monitors.Configure(conf.Monitors)

	if agent.monitors.ActiveMonitorCount() == 0 {
		log.Warn("No monitors are active, nothing will be reported")
	}
	return agent, nil
}

func (a *Agent) shutdown() error {
	a.monitors.Shutdown()
	err := a.writer.Shutdown()
	log.Info(a.DiagnosticText())
	return err
}

// LoadConfig reads the agent config and applies its logging settings to the
// standard logger
func LoadConfig(configPath string, overrides config.Overrides) (*config.Config, error) {
	conf, err := config.LoadConfig(configPath, overrides)
	if err != nil {
		return nil, err
	}

	if err := conf.Logging.Apply(); err != nil {
		return nil, err
	}
	log.Infof("Using log level %s", log.GetLevel().String())

	if conf.Debug {
		log.Info("Debug mode is on, metrics will be printed instead of sent to New Relic")
	}
	return conf, nil
}

// Startup the agent.  Returns a function that can be called to shutdown the
// agent, as well as a channel that will be closed when the agent has
// shutdown.
func Startup(conf *config.Config) (context.CancelFunc, <-chan struct{}, error) {
	log.Info("Starting up agent")

	agent, err := newAgent(conf)
	if err != nil {
		return nil, nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	shutdownComplete := make(chan struct{})

	agent.writer.Start()
	agent.monitors.Start()
	log.Info("Done configuring agent")

	go func() {
		<-ctx.Done()
		if err := agent.shutdown(); err != nil {
			log.WithError(err).Error("Metrics were lost during shutdown")
		}
		close(shutdownComplete)
	}()

	return cancel, shutdownComplete, nil
}

// RunOnce polls every monitor a single time, sends the results and shuts
// down.  It returns an error if any monitor config was rejected, any
// collection failed or the final send failed.
func RunOnce(ctx context.Context, conf *config.Config) error {
	log.Info("Running every monitor once")

	agent, err := newAgent(conf)
	if err != nil {
		return err
	}

	agent.writer.Start()
	collectErr := agent.monitors.CollectAll(ctx)
	badConfigs := len(agent.monitors.BadConfigs())
	flushErr := agent.shutdown()

	switch {
	case badConfigs > 0:
		return errors.Errorf("%d monitor config(s) were rejected", badConfigs)
	case collectErr != nil:
		return collectErr
	default:
		return flushErr
	}
}
