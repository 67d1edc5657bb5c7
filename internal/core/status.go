package core

import (
	"fmt"
	"sort"
	"time"
)

// VersionLine should be populated by the startup logic to contain version
// information that can be reported in diagnostics.
var VersionLine string

var startTime time.Time

func init() {
	startTime = time.Now()
}

// DiagnosticText returns a simple textual output of the agent's status
func (a *Agent) DiagnosticText() string {
	uptime := time.Since(startTime).Round(1 * time.Second).String()

	stats := a.writer.Stats()
	keys := make([]string, 0, len(stats))
	for k := range stats {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	writerText := ""
	for _, k := range keys {
		writerText += fmt.Sprintf("  %-14s %d\n", k+":", stats[k])
	}

	return "Agent status\n" +
		"Version:      " + VersionLine + "\n" +
		"Agent uptime: " + uptime + "\n" +
		"Writer:\n" + writerText + "\n" +
		a.monitors.DiagnosticText()
}
