package engine

import (
	"flexmon-go/internal/store"
)

// thresholdSeries maps the metric names threshold rules may target to their
// backing series. A metric name outside this map is skipped, not an error.
var thresholdSeries = map[string]store.Series{
	"cpu_percent":    {Table: "metrics_cpu", Column: "cpu_percent"},
	"memory_percent": {Table: "metrics_memory", Column: "memory_percent"},
	"disk_percent":   {Table: "metrics_disk", Column: "disk_percent"},
}

// anomalySeries maps the metric names anomaly rules may target. Anomaly
// detection applies only to series carrying a sub-dimension.
var anomalySeries = map[string]store.Series{
	"net_bytes_sent": {Table: "metrics_network", Column: "bytes_sent", Dimension: "interface"},
	"net_bytes_recv": {Table: "metrics_network", Column: "bytes_recv", Dimension: "interface"},
}
