package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMetrics(t *testing.T) *Metrics {
	t.Helper()
	return New(Config{Component: "test", Version: "v0.0.1-test"})
}

func TestRecordRequest(t *testing.T) {
	m := newTestMetrics(t)

	m.RecordRequest(200, nil)
	m.RecordRequest(200, nil)
	m.RecordRequest(404, nil)
	m.RecordRequest(0, errors.New("connection refused"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("error")))
}

func TestRecordCounters(t *testing.T) {
	m := newTestMetrics(t)

	m.RecordPage("envelope")
	m.RecordRecords("dcim/devices", 3)
	m.RecordRecords("dcim/devices", 0)
	m.RecordCacheHit()
	m.RecordCacheMiss()
	m.RecordCacheMiss()
	m.RecordEvents("devices", 5)
	m.RecordJobSuccess("devices")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.pages.WithLabelValues("envelope")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.records.WithLabelValues("dcim/devices")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("miss")))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.events.WithLabelValues("devices")))
	assert.Greater(t, testutil.ToFloat64(m.lastSuccess.WithLabelValues("devices")), 0.0)
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordRequest(200, nil)
		m.RecordPage("list")
		m.RecordRecords("x", 1)
		m.RecordCacheHit()
		m.RecordCacheMiss()
		m.RecordEvents("x", 1)
		m.RecordJobSuccess("x")
	})
	assert.Nil(t, m.Registry())
	assert.NoError(t, m.WriteTextfile(filepath.Join(t.TempDir(), "never.prom")))
}

func TestWriteTextfile(t *testing.T) {
	m := newTestMetrics(t)
	m.RecordEvents("devices", 2)

	path := filepath.Join(t.TempDir(), "netbox.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `netbox_connector_events_written_total{job="devices"} 2`)
	assert.Contains(t, string(data), `netbox_connector_build_info{component="test",version="v0.0.1-test"} 1`)
}

func TestWriteTextfileError(t *testing.T) {
	m := newTestMetrics(t)
	err := m.WriteTextfile(filepath.Join(t.TempDir(), "missing", "dir", "netbox.prom"))
	require.Error(t, err)
}
