// Package metrics holds the prometheus counters recorded while talking to NetBox.
//
// The connector is a short-lived command, so metrics are not served over HTTP.
// They are collected into a private registry and written as a node_exporter
// textfile when the command exits.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/agentstation/netbox-connector/pkg/errors"
)

const namespace = "netbox_connector"

// Config holds the labels attached to every metric.
type Config struct {
	Component string
	Version   string
}

// Metrics is a set of connector counters. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	buildInfo    *prometheus.GaugeVec
	requests     *prometheus.CounterVec
	pages        *prometheus.CounterVec
	records      *prometheus.CounterVec
	cacheLookups *prometheus.CounterVec
	events       *prometheus.CounterVec
	lastSuccess  *prometheus.GaugeVec
}

// New creates metrics registered on their own registry.
func New(cfg Config) *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())

	m := &Metrics{
		registry: registry,
		buildInfo: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "build_info",
			Help:      "Build information for the connector",
		}, []string{"component", "version"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "HTTP requests sent to the NetBox API by response status",
		}, []string{"status"}),
		pages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pages_total",
			Help:      "Response pages decoded by shape",
		}, []string{"shape"}),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_total",
			Help:      "Records yielded by the fetch iterator",
		}, []string{"resource"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enrich_cache_lookups_total",
			Help:      "Enrichment cache lookups by result",
		}, []string{"result"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_written_total",
			Help:      "Events written to the sink per job",
		}, []string{"job"}),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "job_last_success_timestamp_seconds",
			Help:      "Unix timestamp of the last job run that completed",
		}, []string{"job"}),
	}

	registry.MustRegister(m.buildInfo, m.requests, m.pages, m.records, m.cacheLookups, m.events, m.lastSuccess)
	m.buildInfo.WithLabelValues(cfg.Component, cfg.Version).Set(1)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordRequest counts one API request. Requests that never got a response
// are counted under status "error".
func (m *Metrics) RecordRequest(status int, err error) {
	if m == nil {
		return
	}
	label := strconv.Itoa(status)
	if err != nil && status == 0 {
		label = "error"
	}
	m.requests.WithLabelValues(label).Inc()
}

// RecordPage counts one decoded page of the given shape (envelope, list, object).
func (m *Metrics) RecordPage(shape string) {
	if m == nil {
		return
	}
	m.pages.WithLabelValues(shape).Inc()
}

// RecordRecords adds n records yielded for resource.
func (m *Metrics) RecordRecords(resource string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.records.WithLabelValues(resource).Add(float64(n))
}

// RecordCacheHit counts an enrichment cache hit.
func (m *Metrics) RecordCacheHit() {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues("hit").Inc()
}

// RecordCacheMiss counts an enrichment cache miss.
func (m *Metrics) RecordCacheMiss() {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues("miss").Inc()
}

// RecordEvents adds n events written for job.
func (m *Metrics) RecordEvents(job string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.events.WithLabelValues(job).Add(float64(n))
}

// RecordJobSuccess stamps the completion time of job.
func (m *Metrics) RecordJobSuccess(job string) {
	if m == nil {
		return
	}
	m.lastSuccess.WithLabelValues(job).SetToCurrentTime()
}

// WriteTextfile writes all metrics to path in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return errors.WrapIO("write", path, err)
	}
	return nil
}
