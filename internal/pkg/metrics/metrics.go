// Package metrics registers the process's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts API requests by method, route and status
	// class.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kubedeck_http_requests_total",
		Help: "API requests by method, route and status class.",
	}, []string{"method", "route", "status"})

	// ConfigAppliesTotal counts configuration updates by resource type,
	// dry_run flag and result.
	ConfigAppliesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kubedeck_config_applies_total",
		Help: "Configuration apply operations by resource type, dry_run and result.",
	}, []string{"resource_type", "dry_run", "result"})

	// WebSocketConnections tracks currently connected live feed clients.
	WebSocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "kubedeck_websocket_connections",
		Help: "Currently connected live update clients.",
	})

	// CacheRequestsTotal counts workload list cache lookups by outcome.
	CacheRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kubedeck_cache_requests_total",
		Help: "Workload cache lookups by outcome (hit or miss).",
	}, []string{"outcome"})
)
