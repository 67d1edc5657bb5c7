package types

import (
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/signalfx/golib/v3/datapoint"
)

// ParseValue converts a raw statistic string into a datapoint value.  Values
// containing a decimal point or exponent become floats, everything else is
// parsed as an int.
func ParseValue(raw string) (datapoint.Value, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.New("empty value")
	}

	if !strings.ContainsAny(raw, ".eE") {
		if asInt, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return datapoint.NewIntValue(asInt), nil
		}
	}

	asFloat, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, errors.Wrapf(err, "value %q is not numeric", raw)
	}
	if math.IsNaN(asFloat) || math.IsInf(asFloat, 0) {
		return nil, errors.Errorf("value %q is not finite", raw)
	}
	return datapoint.NewFloatValue(asFloat), nil
}

// Float64 returns the value as a float64 regardless of whether it is an int
// or float datapoint value.
func Float64(v datapoint.Value) (float64, bool) {
	switch tv := v.(type) {
	case datapoint.IntValue:
		return float64(tv.Int()), true
	case datapoint.FloatValue:
		return tv.Float(), true
	}
	return 0, false
}
