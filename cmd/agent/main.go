package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kardianos/service"
	log "github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"

	"github.com/gopivotal/newrelic-plugins/internal/core"
	"github.com/gopivotal/newrelic-plugins/internal/core/config"
)

var (
	// Version for agent
	Version string

	// BuiltTime for the agent
	BuiltTime string
)

const defaultConfigPath = "/etc/newrelic-plugins/agent.yaml"

func init() {
	log.SetFormatter(&prefixed.TextFormatter{})
	log.SetLevel(log.InfoLevel)
	log.SetOutput(os.Stdout)
}

// flags is used to store parsed flag values
type flags struct {
	// version is a bool flag for printing the agent version string
	version bool
	// configPath is a string flag for specifying the agent.yaml config file
	configPath string
	// debug is a bool flag for printing debug level information
	debug bool
	// debugMetrics prints metrics to stdout instead of sending them
	debugMetrics bool
	// testRun polls every monitor once and exits
	testRun bool
	// service is a string flag used for starting, stopping, installing or
	// uninstalling the agent as an OS service
	service string
	// logEvents is a bool flag for copying log events to the OS service
	// logger.  This is only intended to be used when the agent is launched as
	// a service.
	logEvents bool
}

// getFlags retrieves flags passed to the agent at runtime and return them in a flags struct
func getFlags() *flags {
	flags := &flags{}
	set := flag.NewFlagSet(os.Args[0], flag.ExitOnError)

	set.BoolVar(&flags.version, "version", false, "print agent version")
	set.StringVar(&flags.configPath, "config", defaultConfigPath, "agent config path")
	set.BoolVar(&flags.debug, "debug", false, "print debugging output")
	set.BoolVar(&flags.debugMetrics, "debug-metrics", false, "print metrics to stdout instead of sending them to New Relic")
	set.BoolVar(&flags.testRun, "testrun", false, "poll every monitor once, send the results and exit")
	set.StringVar(&flags.service, "service", "", "'start', 'stop', 'install' or 'uninstall' the agent as an OS service.  You may specify an alternate config file path with the -config flag when installing the service.")
	set.BoolVar(&flags.logEvents, "logEvents", false, "copy log events from the agent to the OS service logger.  This is only used when the agent is deployed as a service.")

	// The set is configured to exit on errors so we don't need to check the
	// return value here.
	_ = set.Parse(os.Args[1:])
	if len(set.Args()) > 0 {
		os.Stderr.WriteString("Non-flag parameters are not accepted\n")
		set.Usage()
		os.Exit(2)
	}
	return flags
}

func (f *flags) overrides() config.Overrides {
	return config.Overrides{Debug: f.debugMetrics, TestRun: f.testRun}
}

// loadConfig loads the config and reapplies the -debug flag, since the
// config's logging level would otherwise win
func loadConfig(flags *flags) (*config.Config, error) {
	conf, err := core.LoadConfig(flags.configPath, flags.overrides())
	if err != nil {
		return nil, err
	}
	if flags.debug {
		log.SetLevel(log.DebugLevel)
	}
	return conf, nil
}

// ServiceLogHook is a logrus log hook for emitting to the OS service logger
// (the Windows Application Event log, syslog or the system journal).  Events
// will only be raised when the agent is run as a service with the
// "-logEvents" flag enabled.
type ServiceLogHook struct {
	logger service.Logger
}

// Fire is a call back for logrus entries to be passed through the hook
func (h *ServiceLogHook) Fire(entry *log.Entry) error {
	msg, err := entry.String()
	if err != nil {
		return err
	}

	// The service logger only knows about three levels.
	switch entry.Level {
	case log.PanicLevel, log.FatalLevel, log.ErrorLevel:
		return h.logger.Error(msg)
	case log.WarnLevel:
		return h.logger.Warning(msg)
	case log.InfoLevel, log.DebugLevel:
		return h.logger.Info(msg)
	default:
		return nil
	}
}

// Levels returns the logrus levels that the ServiceLogHook handles
func (h *ServiceLogHook) Levels() []log.Level {
	return log.AllLevels
}

type program struct {
	interruptCh chan os.Signal
	exitCh      chan struct{}
	flags       *flags
}

func (p *program) Start(s service.Service) error {
	// create the exit channel that Stop() will block on until agent is shutdown
	p.exitCh = make(chan struct{}, 1)
	go runAgent(p.flags, p.interruptCh, p.exitCh)
	return nil
}

func (p *program) Stop(s service.Service) error {
	// send a signal to shut down the agent
	p.interruptCh <- os.Interrupt
	// wait for the agent to shutdown
	<-p.exitCh
	return nil
}

func runAgent(flags *flags, interruptCh chan os.Signal, exit chan struct{}) {
	defer close(exit)
	log.Info("Starting up agent version " + Version)

	conf, err := loadConfig(flags)
	if err != nil {
		log.WithFields(log.Fields{
			"error":      err,
			"configPath": flags.configPath,
		}).Error("Error loading main config")
		os.Exit(1)
	}

	sup := &supervisor{
		load:            func() (*config.Config, error) { return loadConfig(flags) },
		start:           core.Startup,
		shutdownTimeout: 30 * time.Second,
	}
	if err := sup.startWith(conf); err != nil {
		log.WithError(err).Error("Could not start the agent")
		os.Exit(4)
	}

	hupCh := make(chan os.Signal, 1)
	signal.Notify(hupCh, syscall.SIGHUP)
	defer signal.Stop(hupCh)

	if err := sup.run(interruptCh, hupCh); err != nil {
		log.WithError(err).Error("Agent stopped after a failed reload")
		os.Exit(4)
	}
}

type startFunc func(*config.Config) (context.CancelFunc, <-chan struct{}, error)

// supervisor owns the running agent.  Only the goroutine in run touches it
// after startup, so reloads and interrupts are handled one at a time.
type supervisor struct {
	load            func() (*config.Config, error)
	start           startFunc
	shutdownTimeout time.Duration

	conf     *config.Config
	shutdown context.CancelFunc
	complete <-chan struct{}
}

func (s *supervisor) startWith(conf *config.Config) error {
	shutdown, complete, err := s.start(conf)
	if err != nil {
		return err
	}
	s.conf, s.shutdown, s.complete = conf, shutdown, complete
	return nil
}

func (s *supervisor) stop() {
	s.shutdown()
	select {
	case <-s.complete:
	case <-time.After(s.shutdownTimeout):
		log.Error("Shutdown timed out, forcing process down")
	}
}

// reload swaps the running agent for one built from a freshly loaded config.
// A config that fails to load leaves the running agent alone.  If the new
// config loads but the agent cannot start with it, the previous config is
// started again.
func (s *supervisor) reload() error {
	log.Info("Reloading config and restarting monitors")

	conf, err := s.load()
	if err != nil {
		log.WithError(err).Error("Could not reload config, keeping the running agent")
		return nil
	}

	previous := s.conf
	s.stop()
	if err := s.startWith(conf); err != nil {
		log.WithError(err).Error("Could not start the agent with the reloaded config, restoring the previous one")
		return s.startWith(previous)
	}
	return nil
}

// run blocks until an interrupt arrives, reloading on every hup
func (s *supervisor) run(interruptCh, hupCh <-chan os.Signal) error {
	for {
		select {
		case <-interruptCh:
			log.Info("Interrupt signal received, stopping agent")
			s.stop()
			return nil
		case <-hupCh:
			if err := s.reload(); err != nil {
				return err
			}
		}
	}
}

// runTestRun polls once and exits non-zero if anything went wrong
func runTestRun(conf *config.Config) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := core.RunOnce(ctx, conf); err != nil {
		log.WithError(err).Error("Test run failed")
		os.Exit(1)
	}
	log.Info("Test run succeeded")
}

// runAgentService wraps the agent in the service structure from
// github.com/kardianos/service.  This structure is used even when the agent
// is not registered as a service.  The runAgent function is invoked as part
// of program.Start(), which itself is invoked by service.Service.Run().
func runAgentService(flags *flags, interruptCh chan os.Signal) {
	svcConfig := &service.Config{
		Name:        "newrelic-plugins",
		DisplayName: "New Relic Plugins Agent",
		Description: "Collects Apache httpd, RabbitMQ and Redis metrics and publishes them to New Relic",
		Arguments:   []string{"-config", flags.configPath},
	}

	// add the logEvents argument to the service to enable service logging
	if flags.logEvents {
		svcConfig.Arguments = append(svcConfig.Arguments, "-logEvents")
	}

	prgm := &program{
		interruptCh: interruptCh,
		flags:       flags,
	}

	svc, err := service.New(prgm, svcConfig)
	if err != nil {
		log.WithError(err).Error("Failed to find or create the service")
		os.Exit(1)
	}

	// The logging hook will only work when the agent is deployed as a
	// service with the "-logEvents" flag.
	if flags.logEvents {
		logger, err := svc.Logger(make(chan error, 500))
		if err != nil {
			log.WithError(err).Error("Unable to set up service logger")
		} else {
			log.AddHook(&ServiceLogHook{logger: logger})
		}
	}

	if flags.service != "" {
		// install, uninstall, start or stop the service
		err = service.Control(svc, flags.service)
	} else {
		// svc.Run() will block and run the agent even when the agent is not
		// installed as a service
		err = svc.Run()
	}

	if err != nil {
		log.WithError(err).Error("Failed to control the service")
		os.Exit(1)
	}
}

func main() {
	// set the agent version string
	core.VersionLine = fmt.Sprintf("agent-version: %s, built-time: %s", Version, BuiltTime)

	// fetch the commandline flags passed in at runtime
	flags := getFlags()

	if flags.debug {
		log.SetLevel(log.DebugLevel)
	}

	if flags.version {
		fmt.Println(core.VersionLine)
		os.Exit(0)
	}

	if flags.service == "" {
		// A test run, from the flag or the config file, never goes through
		// the service wrapper.
		conf, err := loadConfig(flags)
		if err != nil {
			log.WithFields(log.Fields{
				"error":      err,
				"configPath": flags.configPath,
			}).Error("Error loading main config")
			os.Exit(1)
		}
		if conf.TestRun {
			runTestRun(conf)
			os.Exit(0)
		}
	}

	// set up interrupt channel
	interruptCh := make(chan os.Signal, 1)
	signal.Notify(interruptCh, os.Interrupt)
	signal.Notify(interruptCh, syscall.SIGTERM)

	runAgentService(flags, interruptCh)

	os.Exit(0)
}
