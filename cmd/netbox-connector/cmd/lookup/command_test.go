package lookup

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appcontext "github.com/agentstation/netbox-connector/cmd/netbox-connector/context"
	"github.com/agentstation/netbox-connector/pkg/errors"
	"github.com/agentstation/netbox-connector/pkg/inventory"
	"github.com/agentstation/netbox-connector/pkg/logging"
)

// devicesAPI answers device lookups by name and counts them.
func devicesAPI(t *testing.T, lookups *int) *httptest.Server {
	t.Helper()
	var mu sync.Mutex
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		*lookups++
		mu.Unlock()
		switch r.URL.Query().Get("name") {
		case "sw1":
			_, _ = w.Write([]byte(`{"count": 1, "next": null, "results": [{"name": "sw1", "site": "nyc", "role": "core"}]}`))
		default:
			_, _ = w.Write([]byte(`{"count": 0, "next": null, "results": []}`))
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func execute(t *testing.T, app appcontext.Context, args ...string) error {
	t.Helper()
	cmd := NewCommand(app)
	cmd.SetArgs(args)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	return cmd.Execute()
}

func TestLookupSummaryField(t *testing.T) {
	var lookups int
	server := devicesAPI(t, &lookups)

	input := strings.Join([]string{
		`{"name": "sw1", "bytes": 10}`,
		``,
		`{"name": "sw9"}`,
		`{"name": "sw1", "bytes": 20}`,
		`{"host": "sw1"}`,
	}, "\n")
	var out bytes.Buffer
	tl := logging.NewTestLogger(t)
	app := &appcontext.Mock{
		Log:     tl.Logger,
		Conn:    inventory.Stanza{NetBoxURL: server.URL + "/api/"},
		Streams: appcontext.IOStreams{In: strings.NewReader(input), Out: &out},
	}

	require.NoError(t, execute(t, app, "--resource", "dcim/devices/"))

	assert.Equal(t, strings.Join([]string{
		`{"name":"sw1","bytes":10,"netbox":"{\"name\": \"sw1\", \"site\": \"nyc\", \"role\": \"core\"}"}`,
		`{"name":"sw9"}`,
		`{"name":"sw1","bytes":20,"netbox":"{\"name\": \"sw1\", \"site\": \"nyc\", \"role\": \"core\"}"}`,
		`{"host":"sw1"}`,
	}, "\n")+"\n", out.String())
	assert.Equal(t, 2, lookups)
	tl.AssertContains(t, "lookup finished")
}

func TestLookupFieldsFromFile(t *testing.T) {
	var lookups int
	server := devicesAPI(t, &lookups)

	path := filepath.Join(t.TempDir(), "in.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(`{"host": "sw1"}`+"\n"), 0o600))

	var out bytes.Buffer
	app := &appcontext.Mock{Streams: appcontext.IOStreams{Out: &out}}

	require.NoError(t, execute(t, app,
		"--url", server.URL+"/api/",
		"--resource", "dcim/devices/",
		"--input", path,
		"--match-field", "host",
		"--fields", "site, tenant",
		"--prefix", "nb",
	))
	assert.Equal(t, `{"host":"sw1","nb_site":"nyc","nb_tenant":null}`+"\n", out.String())
}

func TestLookupParseError(t *testing.T) {
	var lookups int
	server := devicesAPI(t, &lookups)

	var out bytes.Buffer
	app := &appcontext.Mock{
		Conn:    inventory.Stanza{NetBoxURL: server.URL + "/api/"},
		Streams: appcontext.IOStreams{In: strings.NewReader("{\"name\": \"sw9\"}\n[1, 2]\n"), Out: &out},
	}

	err := execute(t, app, "--resource", "dcim/devices/")
	require.Error(t, err)
	var parseErr *errors.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, 2, parseErr.Line)
	assert.Equal(t, "stdin", parseErr.Source)
	assert.Equal(t, `{"name":"sw9"}`+"\n", out.String())
}

func TestLookupConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"missing resource", []string{"--url", "http://127.0.0.1:1/api/"}},
		{"missing url", []string{"--resource", "dcim/devices/"}},
		{"bad query", []string{"--url", "http://127.0.0.1:1/api/", "--resource", "dcim/devices/", "--query", "[1]"}},
		{"bad timeout", []string{"--url", "http://127.0.0.1:1/api/", "--resource", "dcim/devices/", "--timeout", "soon"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := execute(t, &appcontext.Mock{}, tt.args...)
			require.Error(t, err)
			assert.True(t, errors.IsConfigError(err), err.Error())
		})
	}
}

func TestReadRecords(t *testing.T) {
	var names []string
	for rec, err := range ReadRecords(strings.NewReader("{\"name\": \"a\"}\n  \n{\"name\": \"b\"}"), "test") {
		require.NoError(t, err)
		name, _ := rec.String("name")
		names = append(names, name)
	}
	assert.Equal(t, []string{"a", "b"}, names)

	for _, err := range ReadRecords(strings.NewReader("{\"name\": "), "test") {
		require.Error(t, err)
		var parseErr *errors.ParseError
		require.ErrorAs(t, err, &parseErr)
		assert.Equal(t, 1, parseErr.Line)
	}
}
