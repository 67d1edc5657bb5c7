package config

import (
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/mitchellh/hashstructure"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	yaml "gopkg.in/yaml.v2"

	"github.com/gopivotal/newrelic-plugins/internal/monitors/types"
)

// MonitorConfig is used to configure monitor instances.  Every entry in the
// `monitors` list becomes one monitor instance polling one target.
type MonitorConfig struct {
	// The type of the monitor
	Type string `yaml:"type" json:"type" validate:"required"`
	// The interval (in seconds) at which to poll the target.  If not set (or
	// set to 0), the global agent intervalSeconds config option will be used
	// instead.
	IntervalSeconds int `yaml:"intervalSeconds" json:"intervalSeconds"`
	// If true, this monitor prints its metrics to stdout instead of sending
	// them to New Relic.
	Debug bool `yaml:"debug" json:"debug"`
	// OtherConfig is everything else that is custom to a particular monitor
	OtherConfig map[string]interface{} `yaml:",inline" neverLog:"omit"`
	// ValidationError is where a message concerning validation issues can go
	// so that diagnostics can output it.
	ValidationError string          `yaml:"-" json:"-" hash:"ignore"`
	MonitorID       types.MonitorID `yaml:"-" json:"-" hash:"ignore"`
}

// MonitorConfigCore provides a way of getting the MonitorConfig when embedded
// in a struct that is referenced through a more generic interface.
func (mc *MonitorConfig) MonitorConfigCore() *MonitorConfig {
	return mc
}

// Hash calculates a unique hash value for this config struct
func (mc *MonitorConfig) Hash() uint64 {
	hash, err := hashstructure.Hash(mc, nil)
	if err != nil {
		log.WithError(err).Error("Could not get hash of MonitorConfig struct")
		return 0
	}
	return hash
}

// MonitorCustomConfig represents monitor-specific configuration that doesn't
// appear in the MonitorConfig struct.
type MonitorCustomConfig interface {
	MonitorConfigCore() *MonitorConfig
}

// DecodeMonitorConfig creates a fresh instance of the template's type and
// fills it in from the generic MonitorConfig.  The monitor-specific keys in
// OtherConfig are decoded through YAML so that the custom config's yaml tags
// apply.  Keys that the custom config does not know about are an error.
func DecodeMonitorConfig(conf *MonitorConfig, template MonitorCustomConfig) (MonitorCustomConfig, error) {
	templateType := reflect.TypeOf(template)
	if templateType.Kind() != reflect.Ptr || templateType.Elem().Kind() != reflect.Struct {
		return nil, errors.Errorf("config template for %s must be a pointer to a struct", conf.Type)
	}

	instance, ok := reflect.New(templateType.Elem()).Interface().(MonitorCustomConfig)
	if !ok {
		return nil, errors.Errorf("config template for %s does not embed MonitorConfig", conf.Type)
	}

	yamlContent, err := yaml.Marshal(conf.OtherConfig)
	if err != nil {
		return nil, errors.Wrap(err, "could not re-encode monitor config")
	}

	if err := yaml.UnmarshalStrict(yamlContent, instance); err != nil {
		if unknown := unknownFields(err); len(unknown) > 0 {
			return nil, errors.Errorf("unknown config option(s) for monitor %s: %s", conf.Type, strings.Join(unknown, ", "))
		}
		return nil, errors.Wrapf(err, "could not decode config for monitor %s", conf.Type)
	}

	*instance.MonitorConfigCore() = *conf
	return instance, nil
}

var fieldNotFoundRE = regexp.MustCompile(`field (\S+) not found in type`)

// unknownFields pulls the names of unrecognized keys out of a strict
// unmarshal error, sorted
func unknownFields(err error) []string {
	var keys []string
	for _, m := range fieldNotFoundRE.FindAllStringSubmatch(err.Error(), -1) {
		keys = append(keys, m[1])
	}
	sort.Strings(keys)
	return keys
}

// CallConfigure will call the Configure method on a monitor with a `conf`
// object, typed to the correct type.  This allows monitors to set the type of
// the config object to their own config and not have to worry about casting
// or converting.
func CallConfigure(instance, conf interface{}) error {
	instanceVal := reflect.ValueOf(instance)
	_type := instanceVal.Type().String()

	confVal := reflect.ValueOf(conf)

	method := instanceVal.MethodByName("Configure")
	if !method.IsValid() {
		return errors.Errorf("no Configure method found for type %s", _type)
	}

	if method.Type().NumIn() != 1 || method.Type().In(0) != confVal.Type() {
		return errors.Errorf("configure method of %s should take exactly one argument that matches "+
			"the type of the config template provided in the Register function (%s)", _type, confVal.Type())
	}

	errorIface := reflect.TypeOf((*error)(nil)).Elem()
	if method.Type().NumOut() != 1 || method.Type().Out(0) != errorIface {
		return errors.Errorf("configure method of %s should return an error", _type)
	}

	ret := method.Call([]reflect.Value{confVal})[0]
	if ret.IsNil() {
		return nil
	}
	return ret.Interface().(error)
}
