package redis

const defaultUnit = "unit"

// Units of the INFO keys we know about
var units = map[string]string{
	"uptime_in_seconds":           "seconds",
	"connected_clients":           "clients",
	"blocked_clients":             "clients",
	"used_memory":                 "bytes",
	"used_memory_rss":             "bytes",
	"used_memory_peak":            "bytes",
	"used_memory_lua":             "bytes",
	"mem_fragmentation_ratio":     "percent",
	"rdb_changes_since_last_save": "changes",
	"rdb_last_bgsave_time_sec":    "seconds",
	"rdb_current_bgsave_time_sec": "seconds",
	"total_connections_received":  "connections",
	"total_commands_processed":    "commands",
	"instantaneous_ops_per_sec":   "Ops/sec",
	"rejected_connections":        "connections",
	"expired_keys":                "keys",
	"evicted_keys":                "keys",
	"keyspace_hits":               "hits",
	"keyspace_misses":             "misses",
	"connected_slaves":            "slaves",
	"used_cpu_sys":                "seconds",
	"used_cpu_user":               "seconds",
	"used_cpu_sys_children":       "seconds",
	"used_cpu_user_children":      "seconds",
}

func unitFor(key string) string {
	if u, ok := units[key]; ok {
		return u
	}
	return defaultUnit
}

// The metrics that are always reported, in order
var reportedMetrics = []struct {
	path string
	key  string
}{
	{"UsedCPU/System", "used_cpu_sys"},
	{"UsedCPU/User", "used_cpu_user"},
	{"UsedCPU/SystemChildren", "used_cpu_sys_children"},
	{"UsedCPU/UserChildren", "used_cpu_user_children"},
	{"Connections/SlavesConnected", "connected_slaves"},
	{"Connections/TotalReceived", "total_connections_received"},
	{"Connections/ConnectedClients", "connected_clients"},
	{"Connections/RejectedConnections", "rejected_connections"},
	{"Memory/UsedMemory", "used_memory"},
	{"Memory/RSS", "used_memory_rss"},
	{"Memory/Peak", "used_memory_peak"},
	{"Memory/LUA", "used_memory_lua"},
	// Dashboards already depend on this name
	{"Memory/FragmentationRation", "mem_fragmentation_ratio"},
	{"Keys/KeySpaceHits", "keyspace_hits"},
	{"Keys/KeySpaceMisses", "keyspace_misses"},
	{"Keys/Expired", "expired_keys"},
	{"Keys/Evicted", "evicted_keys"},
}
