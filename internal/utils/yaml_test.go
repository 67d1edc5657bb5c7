package utils

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	yaml "gopkg.in/yaml.v2"
)

type yamlNamed struct {
	Inner    `yaml:",inline"`
	Host     string `yaml:"host"`
	Ignored  string `yaml:"-"`
	Untagged int
}

type Inner struct {
	Port int `yaml:"port"`
}

func TestYAMLNameOfFieldInStruct(t *testing.T) {
	assert.Equal(t, "host", YAMLNameOfFieldInStruct("Host", &yamlNamed{}))
	assert.Equal(t, "port", YAMLNameOfFieldInStruct("Port", yamlNamed{}))
	assert.Equal(t, "untagged", YAMLNameOfFieldInStruct("Untagged", yamlNamed{}))
	assert.Equal(t, "", YAMLNameOfFieldInStruct("Ignored", yamlNamed{}))
	assert.Equal(t, "", YAMLNameOfFieldInStruct("Missing", yamlNamed{}))
}

func TestYAMLErrorWithContext(t *testing.T) {
	content := []byte("a: 1\nb: [2]\nc: 3\n")
	var out map[string]int
	err := yaml.Unmarshal(content, &out)
	if !assert.Error(t, err) {
		return
	}

	withCtx := YAMLErrorWithContext(content, err)
	assert.Contains(t, withCtx.Error(), err.Error())
	assert.Contains(t, withCtx.Error(), "> 2: b: [2]")
}

func TestYAMLErrorWithContextNoLine(t *testing.T) {
	err := errors.New("boom")
	assert.Equal(t, err, YAMLErrorWithContext([]byte("x: 1"), err))
}
