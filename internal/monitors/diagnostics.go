package monitors

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gopivotal/newrelic-plugins/internal/core/config"
)

// DiagnosticText returns a summary of the active monitors and the configs
// that were rejected
func (mm *MonitorManager) DiagnosticText() string {
	mm.lock.Lock()
	defer mm.lock.Unlock()

	activeMonText := ""
	for i, am := range mm.activeMonitors {
		activeMonText += fmt.Sprintf(
			"%2d. %s (%s)\n"+
				"    Component: %s\n"+
				"    Reporting Interval (seconds): %d\n"+
				"    Collections: %d (%d failed, %d over interval)\n",
			i+1, am.id, am.config.MonitorConfigCore().Type,
			am.output.component,
			am.config.MonitorConfigCore().IntervalSeconds,
			am.collectCalls.Load(), am.collectFailures.Load(), am.intervalExceeded.Load())
	}
	if activeMonText == "" {
		activeMonText = "None\n"
	}

	return fmt.Sprintf(
		"Active Monitors:\n"+
			"%s\n"+
			"Bad Monitor Configurations:\n"+
			"%s\n",
		activeMonText,
		badConfigText(mm.badConfigs))
}

func badConfigText(confs map[uint64]*config.MonitorConfig) string {
	if len(confs) == 0 {
		return "None\n"
	}

	var lines []string
	for k := range confs {
		conf := confs[k]
		lines = append(lines, fmt.Sprintf("Type: %s\nError: %s\n", conf.Type, conf.ValidationError))
	}
	sort.Strings(lines)
	return strings.Join(lines, "\n")
}
