package timeutil

import (
	"strconv"
	"time"

	"github.com/pkg/errors"
)

// Duration is a time.Duration that can be unmarshaled from YAML as either a
// duration string (e.g. "10s") or a bare integer number of seconds.
type Duration time.Duration

// UnmarshalYAML accepts "10s"-style strings and plain integers (seconds)
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw string
	if err := unmarshal(&raw); err != nil {
		return err
	}

	if secs, err := strconv.Atoi(raw); err == nil {
		*d = Duration(time.Duration(secs) * time.Second)
		return nil
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return errors.Wrapf(err, "invalid duration %q", raw)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML renders the duration in its string form
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.AsDuration().String(), nil
}

// AsDuration returns the standard library duration
func (d Duration) AsDuration() time.Duration {
	return time.Duration(d)
}
