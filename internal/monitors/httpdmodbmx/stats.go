package httpdmodbmx

import (
	"bufio"
	"io"
	"strings"
)

const defaultUnit = "ms"

// parseStats reads the "Key: value" lines that mod_bmx emits.  Lines without
// the separator are ignored and a repeated key overwrites the earlier value.
func parseStats(r io.Reader) (map[string]string, error) {
	stats := map[string]string{}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		idx := strings.Index(line, ": ")
		if idx < 0 {
			continue
		}
		stats[line[:idx]] = line[idx+2:]
	}
	return stats, scanner.Err()
}

func unitFor(units map[string]string, key string) string {
	if u, ok := units[key]; ok {
		return u
	}
	return defaultUnit
}

// Units of the per-vhost traffic counters
var trafficUnits = map[string]string{
	"InBytesGET":      "bytes",
	"InBytesPOST":     "bytes",
	"InBytesHEAD":     "bytes",
	"InBytesPUT":      "bytes",
	"InRequestsGET":   "requests",
	"InRequestsPOST":  "requests",
	"InRequestsPUT":   "requests",
	"InRequestsHEAD":  "requests",
	"OutBytes200":     "bytes",
	"OutBytes301":     "bytes",
	"OutBytes302":     "bytes",
	"OutBytes401":     "bytes",
	"OutBytes403":     "bytes",
	"OutBytes404":     "bytes",
	"OutBytes500":     "bytes",
	"OutResponses200": "responses",
	"OutResponses301": "responses",
	"OutResponses302": "responses",
	"OutResponses401": "responses",
	"OutResponses403": "responses",
	"OutResponses404": "responses",
	"OutResponses500": "responses",
	"InLowBytes":      "bytes",
	"OutLowBytes":     "bytes",
	"InRequests":      "requests",
	"OutResponses":    "responses",
}

// Descriptive keys of the vhost output that are never metrics
var trafficSkipped = map[string]bool{
	"StartDate":    true,
	"StartTime":    true,
	"Name":         true,
	"StartElapsed": true,
}

// Units of the server status values
var statusUnits = map[string]string{
	"Total Accesses":      "accesses",
	"Total kBytes":        "kb",
	"CPULoad":             "%",
	"Uptime":              "sec",
	"ReqPerSec":           "requests",
	"InBytesGET":          "bytes",
	"BytesPerReq":         "bytes/req",
	"BusyWorkers":         "workers",
	"IdleWorkers":         "workers",
	"ConnsTotal":          "connections",
	"ConnsAsyncWriting":   "connections",
	"ConnsAsyncKeepAlive": "connections",
	"ConnsAsyncClosing":   "connections",
}

// statusPath puts worker and connection counts in their own categories
func statusPath(key, unit string) string {
	switch unit {
	case "workers":
		return "HTTPD/Workers/" + key
	case "connections":
		return "HTTPD/Connections/" + key
	}
	return "HTTPD/" + key
}
