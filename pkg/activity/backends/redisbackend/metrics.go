package redisbackend

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsPrefix = "activity_tracker_"

var trackedCounter = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: metricsPrefix + "tracked_total",
		Help: "Number of track operations written to redis",
	},
	[]string{"granularity"},
)

var collapsedPeriodsCounter = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: metricsPrefix + "collapsed_periods_total",
		Help: "Number of periods whose raw sets were collapsed into counts",
	},
	[]string{"granularity"},
)

var collapseDurationHist = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    metricsPrefix + "collapse_period_duration_seconds",
		Help:    "Time taken to collapse a single period",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"granularity"},
)

var lookupCacheHitsCounter = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: metricsPrefix + "lookup_cache_hits_total",
		Help: "Number of collapsed counts served from the local lookup cache",
	},
)
