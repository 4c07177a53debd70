package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/netbox-connector/pkg/errors"
	"github.com/agentstation/netbox-connector/pkg/inventory"
)

// isolate keeps LoadConfig away from the developer's own config and env.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	for _, key := range []string{"NETBOX_URL", "NETBOX_TOKEN", "NETBOX_VERIFY_SSL", "NETBOX_CA_BUNDLE", "NETBOX_TIMEOUT", "LOG_LEVEL"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
	return dir
}

func writeConfig(t *testing.T, dir, text string) string {
	t.Helper()
	path := filepath.Join(dir, "netbox-connector.yaml")
	require.NoError(t, os.WriteFile(path, []byte(text), 0o600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	isolate(t)

	config, err := LoadConfig("")
	require.NoError(t, err)

	assert.Empty(t, config.Stanzas)
	assert.Equal(t, "true", config.Defaults.VerifySSL)
	assert.Equal(t, "60", config.Defaults.Timeout)
	assert.Equal(t, "auto", config.LogFormat)
	assert.Equal(t, "stderr", config.LogOutput)
	assert.Empty(t, config.LogLevel)
}

func TestLoadConfigJobs(t *testing.T) {
	dir := isolate(t)
	path := writeConfig(t, dir, `
netbox_url: https://netbox.example.com/api/
token: top-token
verify_ssl: false
timeout: 30
jobs:
  sites:
    resource: dcim/sites
    netbox_url: https://other.example.com/api/
    timeout: 5
    verify_ssl: true
    query: '{"status": "active"}'
  devices:
    resource: dcim/devices
    query:
      site: nyc
      limit: 50
`)

	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, path, config.ConfigFile)

	assert.Equal(t, []inventory.Stanza{
		{
			Name:      "devices",
			NetBoxURL: "https://netbox.example.com/api/",
			Token:     "top-token",
			Resource:  "dcim/devices",
			Query:     `{"limit":50,"site":"nyc"}`,
			VerifySSL: "false",
			Timeout:   "30",
		},
		{
			Name:      "sites",
			NetBoxURL: "https://other.example.com/api/",
			Token:     "top-token",
			Resource:  "dcim/sites",
			Query:     `{"status": "active"}`,
			VerifySSL: "true",
			Timeout:   "5",
		},
	}, config.Stanzas)

	s, ok := config.Stanza("sites")
	require.True(t, ok)
	assert.Equal(t, "dcim/sites", s.Resource)
	_, ok = config.Stanza("racks")
	assert.False(t, ok)

	jobs, err := inventory.ParseStanzas(config.Stanzas)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"limit": "50", "site": "nyc"}, jobs[0].Filters)
	assert.False(t, jobs[0].Endpoint.Verify)
}

func TestLoadConfigEnvironment(t *testing.T) {
	dir := isolate(t)
	path := writeConfig(t, dir, `
netbox_url: https://file.example.com/api/
jobs:
  devices:
    resource: dcim/devices
`)
	t.Setenv("NETBOX_URL", "https://env.example.com/api/")
	t.Setenv("NETBOX_TOKEN", "env-token")
	t.Setenv("LOG_LEVEL", "debug")

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "https://env.example.com/api/", config.Defaults.NetBoxURL)
	assert.Equal(t, "env-token", config.Defaults.Token)
	assert.Equal(t, "debug", config.EnvLogLevel)
	require.Len(t, config.Stanzas, 1)
	assert.Equal(t, "https://env.example.com/api/", config.Stanzas[0].NetBoxURL)
	assert.Equal(t, "env-token", config.Stanzas[0].Token)
}

func TestLoadConfigErrors(t *testing.T) {
	dir := isolate(t)

	_, err := LoadConfig(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.True(t, errors.IsConfigError(err))

	path := writeConfig(t, dir, "jobs: [\n")
	_, err = LoadConfig(path)
	require.Error(t, err)
	assert.True(t, errors.IsConfigError(err))
}

func TestLoadConfigListQueryFailsValidation(t *testing.T) {
	dir := isolate(t)
	path := writeConfig(t, dir, `
netbox_url: https://netbox.example.com/api/
jobs:
  devices:
    resource: dcim/devices
    query: [a, b]
`)

	config, err := LoadConfig(path)
	require.NoError(t, err)
	require.Len(t, config.Stanzas, 1)
	assert.Equal(t, `["a","b"]`, config.Stanzas[0].Query)

	err = inventory.ValidateStanza(config.Stanzas[0])
	require.Error(t, err)
	assert.True(t, errors.IsConfigError(err))
}

func TestUpdateFromFlags(t *testing.T) {
	config := &Config{Quiet: true, MetricsFile: "from-config.prom"}
	config.UpdateFromFlags(true, false, true, "", "")
	assert.True(t, config.Verbose)
	assert.True(t, config.Quiet)
	assert.True(t, config.NoColor)
	assert.Equal(t, "from-config.prom", config.MetricsFile)

	config.UpdateFromFlags(false, false, false, "error", "flag.prom")
	assert.Equal(t, "error", config.LogLevel)
	assert.Equal(t, "flag.prom", config.MetricsFile)
}
