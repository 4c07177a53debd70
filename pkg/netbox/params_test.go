package netbox

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/netbox-connector/pkg/errors"
)

func TestParseFilters(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  map[string]string
	}{
		{"blank", "   ", map[string]string{}},
		{"strings", `{"site": "nyc", "status": "active"}`, map[string]string{"site": "nyc", "status": "active"}},
		{"number", `{"limit": 50}`, map[string]string{"limit": "50"}},
		{"bool and null", `{"has_primary_ip": true, "tenant": null}`, map[string]string{"has_primary_ip": "true", "tenant": "null"}},
		{"nested", `{"tag": ["a", "b"]}`, map[string]string{"tag": `["a","b"]`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFilters(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFiltersErrors(t *testing.T) {
	for _, input := range []string{`{"site":`, `["a"]`, `"site"`, `42`} {
		_, err := ParseFilters(input)
		require.Error(t, err, input)
		assert.True(t, errors.IsConfigError(err), input)
	}
}

func TestParseBool(t *testing.T) {
	for _, v := range []string{"1", "true", "TRUE", " Yes ", "on"} {
		assert.True(t, ParseBool(v, false), v)
	}
	for _, v := range []string{"0", "false", "no", "off", "enabled"} {
		assert.False(t, ParseBool(v, true), v)
	}
	assert.True(t, ParseBool("", true))
	assert.False(t, ParseBool("  ", false))
}

func TestParseTimeout(t *testing.T) {
	d, err := ParseTimeout("")
	require.NoError(t, err)
	assert.Equal(t, 60*time.Second, d)

	d, err = ParseTimeout(" 15 ")
	require.NoError(t, err)
	assert.Equal(t, 15*time.Second, d)

	_, err = ParseTimeout("1.5")
	require.Error(t, err)
	assert.True(t, errors.IsConfigError(err))
}
