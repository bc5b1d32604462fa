package storage

import "github.com/ais-ml/tensorcore/stats"

// Metrics is the optional process-wide stats sink; nil by default.
var Metrics *stats.Registry
