package app

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/netbox-connector/pkg/errors"
	"github.com/agentstation/netbox-connector/pkg/inventory"
	"github.com/agentstation/netbox-connector/pkg/logging"
)

func newTestApp(t *testing.T) (*App, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	isolate(t)
	t.Setenv("LOG_OUTPUT", "discard")

	var out, errOut bytes.Buffer
	app, err := New("1.2.3", "abc123", "2025-01-01", "test", WithIO(strings.NewReader(""), &out, &errOut))
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.tracer.Shutdown(context.Background()) })
	return app, &out, &errOut
}

func devicesServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/dcim/devices/" {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"detail": "Invalid token."}`))
			return
		}
		_, _ = w.Write([]byte(`{"count": 2, "next": null, "results": [{"id": 1, "name": "sw1"}, {"id": 2, "name": "sw2"}]}`))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestNew(t *testing.T) {
	app, _, _ := newTestApp(t)

	assert.Equal(t, "1.2.3", app.Version())
	assert.Equal(t, "abc123", app.Commit())
	assert.Equal(t, "2025-01-01", app.Date())
	assert.Equal(t, "test", app.BuiltBy())
	assert.NotNil(t, app.Config())
	assert.NotNil(t, app.Logger())
	assert.NotNil(t, app.Metrics())
	assert.Empty(t, app.Stanzas())
}

func TestNewWithConfig(t *testing.T) {
	isolate(t)
	config := &Config{LogOutput: "discard", Defaults: inventory.Stanza{NetBoxURL: "https://netbox.example.com/api/"}}
	app, err := New("dev", "", "", "", WithConfig(config))
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.tracer.Shutdown(context.Background()) })
	assert.Same(t, config, app.Config())
	assert.Equal(t, "https://netbox.example.com/api/", app.Defaults().NetBoxURL)

	_, err = New("dev", "", "", "", WithConfig(nil))
	require.Error(t, err)
}

func TestExecuteVersion(t *testing.T) {
	app, out, _ := newTestApp(t)

	require.NoError(t, app.Execute(context.Background(), []string{"version"}))
	assert.Contains(t, out.String(), "netbox-connector version 1.2.3\n")
	assert.Contains(t, out.String(), "commit: abc123\n")

	out.Reset()
	require.NoError(t, app.Execute(context.Background(), []string{"--version"}))
	assert.Equal(t, "netbox-connector 1.2.3\n", out.String())
}

func TestExecuteMan(t *testing.T) {
	app, out, _ := newTestApp(t)

	require.NoError(t, app.Execute(context.Background(), []string{"man"}))
	assert.Contains(t, out.String(), ".TH \"NETBOX-CONNECTOR\"")
}

func TestExecuteExportWithConfigAndMetrics(t *testing.T) {
	app, out, _ := newTestApp(t)
	server := devicesServer(t)

	dir := t.TempDir()
	config := writeConfig(t, dir, "netbox_url: "+server.URL+"/api/\njobs:\n  devices:\n    resource: dcim/devices/\n")
	metricsFile := filepath.Join(dir, "netbox.prom")

	err := app.Execute(context.Background(), []string{
		"--config", config,
		"--metrics-file", metricsFile,
		"--log-level", "error",
		"export",
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"stanza":"devices"`)
	assert.Contains(t, lines[1], `"host":"sw2"`)

	require.NoError(t, app.Shutdown(context.Background()))
	data, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `netbox_connector_events_written_total{job="devices"} 2`)
	assert.Contains(t, string(data), `netbox_connector_build_info{component="netbox-connector",version="1.2.3"} 1`)
}

func TestExecuteValidate(t *testing.T) {
	app, out, _ := newTestApp(t)

	dir := t.TempDir()
	config := writeConfig(t, dir, `
netbox_url: https://netbox.example.com/api/
jobs:
  devices:
    resource: dcim/devices
  broken:
    resource: /dcim/sites
`)

	err := app.Execute(context.Background(), []string{"--config", config, "validate", "--format", "json"})
	require.Error(t, err)
	assert.True(t, errors.IsConfigError(err))
	assert.Contains(t, out.String(), `"job": "broken"`)
	assert.Contains(t, out.String(), `"job": "devices"`)

	out.Reset()
	require.NoError(t, app.Execute(context.Background(), []string{"--config", config, "validate", "devices", "-o", "json"}))
}

func TestExecuteAPIError(t *testing.T) {
	app, _, _ := newTestApp(t)
	server := devicesServer(t)

	err := app.Execute(context.Background(), []string{
		"--log-level", "error",
		"get", "dcim/sites/",
		"--url", server.URL + "/api/",
		"--format", "json",
	})
	require.Error(t, err)
	apiErr, ok := errors.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
}

func TestExecuteMissingConfigFile(t *testing.T) {
	app, _, _ := newTestApp(t)

	err := app.Execute(context.Background(), []string{"--config", "/no/such/config.yaml", "validate"})
	require.Error(t, err)
	assert.True(t, errors.IsConfigError(err))
}

func TestShutdownWithoutMetricsFile(t *testing.T) {
	app, _, _ := newTestApp(t)
	assert.NoError(t, app.Shutdown(context.Background()))
}

func TestLogError(t *testing.T) {
	t.Run("network failure", func(t *testing.T) {
		tl := logging.NewTestLogger(t)
		logError(&App{logger: tl.Logger}, errors.NewTransportError("GET", "https://netbox.example.com/api/", syscall.ECONNREFUSED))
		tl.AssertContains(t, "command failed")
		tl.AssertContains(t, `"network":true`)
	})

	t.Run("api failure", func(t *testing.T) {
		tl := logging.NewTestLogger(t)
		logError(&App{logger: tl.Logger}, errors.NewAPIError("GET", "dcim/devices/", http.StatusForbidden, map[string]any{"detail": "Invalid token."}))
		tl.AssertContains(t, `"status":403`)
		tl.AssertContains(t, `"detail":"Invalid token."`)
		tl.AssertNotContains(t, `"network"`)
	})
}
