package redis

import (
	"context"
	"fmt"

	"github.com/go-redis/redis"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/gopivotal/newrelic-plugins/internal/core/config"
	"github.com/gopivotal/newrelic-plugins/internal/monitors"
	"github.com/gopivotal/newrelic-plugins/internal/monitors/types"
	"github.com/gopivotal/newrelic-plugins/internal/utils"
	"github.com/gopivotal/newrelic-plugins/pkg/utils/timeutil"
)

// Monitors a Redis KV store instance through the INFO command.
//
// Sample YAML configuration:
//
// ```yaml
// monitors:
// - type: redis
//   host: 127.0.0.1
//   port: 6379
// ```
//
// Sample YAML configuration with extra INFO keys:
//
// ```yaml
// monitors:
// - type: redis
//   host: 127.0.0.1
//   port: 6379
//   extraMetrics:
//   - uptime_in_seconds
//   - instantaneous_ops_per_sec
// ```

var monitorMetadata = monitors.Metadata{
	MonitorType: "redis",
	GUID:        "com.gopivotal.newrelic.plugins.redis",
	Version:     "1.0.4",
}

func init() {
	monitors.Register(&monitorMetadata, func() interface{} { return &Monitor{} }, &Config{})
}

// Config is the monitor-specific config with the generic config embedded
type Config struct {
	config.MonitorConfig `yaml:",inline"`
	Host                 string `yaml:"host" validate:"required"`
	Port                 uint16 `yaml:"port" default:"6379"`
	// Password to use for authentication.
	Password string `yaml:"password" neverLog:"true"`
	// The database index to select on connect.  INFO is server wide so this
	// only matters for the keyspace section.  (**default**: 4)
	Database *int `yaml:"database"`
	// How long to wait when connecting to Redis
	DialTimeout timeutil.Duration `yaml:"dialTimeout" default:"5s"`
	// A list of metrics to additionally include.  This is a list of strings,
	// the values of which should be the name of the metric as it appears in
	// the Redis INFO command output (i.e. everything before the `:`).  The
	// values from the INFO command must be numeric (i.e. the part after the
	// `:` in the INFO output).  They are reported as `Info/<key>`.
	ExtraMetrics []string `yaml:"extraMetrics"`
}

const defaultDatabase = 4

func (c *Config) database() int {
	if c.Database == nil {
		return defaultDatabase
	}
	return *c.Database
}

// ComponentName is host:port of the Redis server
func (c *Config) ComponentName() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// infoClient is the part of the Redis client the monitor uses
type infoClient interface {
	Info(ctx context.Context) (string, error)
	Close() error
}

type goRedisClient struct {
	client *redis.Client
}

func (g *goRedisClient) Info(ctx context.Context) (string, error) {
	return g.client.WithContext(ctx).Info().Result()
}

func (g *goRedisClient) Close() error {
	return g.client.Close()
}

// Monitor for Redis INFO metrics
type Monitor struct {
	Output types.Output

	client       infoClient
	extraMetrics map[string]bool
	logger       log.FieldLogger
}

// Configure the monitor.  The connection is made lazily by the client on the
// first collection.
func (m *Monitor) Configure(conf *Config) error {
	m.logger = log.WithFields(log.Fields{"monitorType": conf.Type, "monitorID": conf.MonitorID})
	m.extraMetrics = utils.StringSliceToMap(conf.ExtraMetrics)

	m.client = &goRedisClient{
		client: redis.NewClient(&redis.Options{
			Addr:        conf.ComponentName(),
			Password:    conf.Password,
			DB:          conf.database(),
			DialTimeout: conf.DialTimeout.AsDuration(),
		}),
	}
	return nil
}

// Collect runs INFO once and reports the result
func (m *Monitor) Collect(ctx context.Context) error {
	infoStr, err := m.client.Info(ctx)
	if err != nil {
		return errors.Wrap(err, "could not get Redis INFO")
	}

	infoMap := parseInfoString(infoStr, m.logger)
	for _, metric := range metricsFromData(infoMap, m.extraMetrics, m.logger) {
		m.Output.SendMetric(metric.path, metric.unit, metric.value)
	}
	return nil
}

// Shutdown closes the connection pool
func (m *Monitor) Shutdown() {
	if m.client == nil {
		return
	}
	if err := m.client.Close(); err != nil {
		m.logger.WithError(err).Warn("Could not close Redis client")
	}
}
