package validate

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appcontext "github.com/agentstation/netbox-connector/cmd/netbox-connector/context"
	"github.com/agentstation/netbox-connector/pkg/errors"
	"github.com/agentstation/netbox-connector/pkg/inventory"
)

var stanzas = []inventory.Stanza{
	{Name: "devices", NetBoxURL: "https://netbox.example.com/api/", Resource: "dcim/devices"},
	{Name: "sites", NetBoxURL: "https://netbox.example.com/api/", Resource: "/dcim/sites"},
	{Name: "prefixes", NetBoxURL: "https://netbox.example.com/api/", Resource: "ipam/prefixes", Timeout: "ten"},
}

func TestCheck(t *testing.T) {
	results, err := Check(stanzas)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stanza sites")

	require.Len(t, results, 3)
	assert.Equal(t, Result{
		Job:        "devices",
		Resource:   "dcim/devices",
		Sourcetype: "netbox:dcim_devices",
		URL:        "https://netbox.example.com/api/",
		Status:     "ok",
	}, results[0])
	assert.Contains(t, results[1].Status, "leading slash")
	assert.Contains(t, results[2].Status, "timeout must be an integer")
}

func TestValidateCommand(t *testing.T) {
	var out bytes.Buffer
	app := &appcontext.Mock{Jobs: stanzas, Streams: appcontext.IOStreams{Out: &out}}

	cmd := NewCommand(app)
	cmd.SetArgs([]string{"devices", "--format", "json"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	require.NoError(t, cmd.Execute())

	var results []Result
	require.NoError(t, json.Unmarshal(out.Bytes(), &results))
	require.Len(t, results, 1)
	assert.Equal(t, "ok", results[0].Status)

	out.Reset()
	cmd = NewCommand(app)
	cmd.SetArgs([]string{"--format", "json"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	err := cmd.Execute()
	require.Error(t, err)
	assert.True(t, errors.IsConfigError(err))
	require.NoError(t, json.Unmarshal(out.Bytes(), &results))
	assert.Len(t, results, 3)
}

func TestValidateUnknownJob(t *testing.T) {
	cmd := NewCommand(&appcontext.Mock{Jobs: stanzas})
	cmd.SetArgs([]string{"racks"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown job racks")
}
