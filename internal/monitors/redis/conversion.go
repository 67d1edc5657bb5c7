package redis

import (
	"sort"
	"strings"

	"github.com/signalfx/golib/v3/datapoint"
	log "github.com/sirupsen/logrus"

	"github.com/gopivotal/newrelic-plugins/internal/monitors/types"
)

func parseInfoString(infoStr string, logger log.FieldLogger) map[string]string {
	out := map[string]string{}
	for _, line := range strings.Split(infoStr, "\r\n") {
		if len(line) == 0 || line[0] == '#' {
			continue
		}

		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			logger.Warnf("Non-blank/comment info line is not in form <key>:<value>: %s", line)
			continue
		}
		out[parts[0]] = parts[1]
	}
	return out
}

type metric struct {
	path  string
	unit  string
	value datapoint.Value
}

func metricsFromData(infoMap map[string]string, extraMetrics map[string]bool, logger log.FieldLogger) []metric {
	var out []metric

	add := func(path, key string) {
		raw, ok := infoMap[key]
		if !ok {
			logger.Debugf("Redis INFO has no %s", key)
			return
		}
		val, err := types.ParseValue(raw)
		if err != nil {
			logger.WithError(err).Debugf("Could not construct metric from %s:%s", key, raw)
			return
		}
		out = append(out, metric{path: path, unit: unitFor(key), value: val})
	}

	for _, rm := range reportedMetrics {
		add(rm.path, rm.key)
	}

	extras := make([]string, 0, len(extraMetrics))
	for k := range extraMetrics {
		extras = append(extras, k)
	}
	sort.Strings(extras)
	for _, k := range extras {
		add("Info/"+k, k)
	}
	return out
}
