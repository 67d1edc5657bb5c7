package config

import (
	"io/ioutil"
	"os"
	"regexp"

	"github.com/pkg/errors"
	"github.com/signalfx/defaults"
	log "github.com/sirupsen/logrus"
	yaml "gopkg.in/yaml.v2"

	"github.com/gopivotal/newrelic-plugins/internal/core/config/validation"
	"github.com/gopivotal/newrelic-plugins/internal/utils"
)

// Overrides are settings given on the command line that take precedence over
// the config file.
type Overrides struct {
	Debug   bool
	TestRun bool
}

// LoadConfig reads the main config file, expands envvar references and
// returns the fully defaulted and validated config.
func LoadConfig(configPath string, overrides Overrides) (*Config, error) {
	content, err := ioutil.ReadFile(configPath)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read config file %s", configPath)
	}
	return LoadYAML(content, overrides)
}

// LoadYAML parses the given config file content
func LoadYAML(fileContent []byte, overrides Overrides) (*Config, error) {
	config := &Config{}

	preprocessedContent := preprocessConfig(fileContent)

	err := yaml.UnmarshalStrict(preprocessedContent, config)
	if err != nil {
		return nil, utils.YAMLErrorWithContext(preprocessedContent, err)
	}

	for _, target := range []interface{}{config, &config.NewRelic, &config.Logging} {
		if err := defaults.Set(target); err != nil {
			return nil, errors.Wrap(err, "config defaults are wrong types")
		}
	}

	config.Debug = config.Debug || overrides.Debug
	config.TestRun = config.TestRun || overrides.TestRun

	if err := validation.ValidateStruct(&config.Logging); err != nil {
		return nil, err
	}

	return config.initialize()
}

var envVarRE = regexp.MustCompile(`\${\s*([\w-]+?)\s*}`)

// Replaces envvar syntax with the actual envvars
func preprocessConfig(content []byte) []byte {
	return envVarRE.ReplaceAllFunc(content, func(bs []byte) []byte {
		parts := envVarRE.FindSubmatch(bs)
		envvar := string(parts[1])

		val, ok := os.LookupEnv(envvar)
		if !ok {
			log.WithFields(log.Fields{
				"envvar": envvar,
			}).Warn("Config references an envvar that is not set")
		}

		return []byte(val)
	})
}
