package types

import (
	"testing"

	"github.com/signalfx/golib/v3/datapoint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValue(t *testing.T) {
	tests := []struct {
		raw     string
		want    datapoint.Value
		wantErr bool
	}{
		{"42", datapoint.NewIntValue(42), false},
		{" 7\r", datapoint.NewIntValue(7), false},
		{"1.25", datapoint.NewFloatValue(1.25), false},
		{"1e3", datapoint.NewFloatValue(1000), false},
		{"-3", datapoint.NewIntValue(-3), false},
		{"", nil, true},
		{"Apache/2.2", nil, true},
		{"inf", nil, true},
		{"-Infinity", nil, true},
		{"NaN", nil, true},
		{"1e999", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseValue(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFloat64(t *testing.T) {
	f, ok := Float64(datapoint.NewIntValue(3))
	assert.True(t, ok)
	assert.Equal(t, 3.0, f)

	f, ok = Float64(datapoint.NewFloatValue(0.5))
	assert.True(t, ok)
	assert.Equal(t, 0.5, f)
}
