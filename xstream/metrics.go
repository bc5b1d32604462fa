package xstream

import "github.com/ais-ml/tensorcore/stats"

// Metrics is the optional process-wide stats sink; nil by default (no
// Prometheus dependency for callers who never call stats.New()).
var Metrics *stats.Registry
