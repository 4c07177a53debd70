package netbox

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/agentstation/netbox-connector/pkg/constants"
	"github.com/agentstation/netbox-connector/pkg/errors"
)

// ParseFilters parses a JSON object of filter parameters. Blank text yields no
// filters. Values are stringified with StringValue, so {"limit": 50} becomes
// limit=50.
func ParseFilters(text string) (map[string]string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return map[string]string{}, nil
	}
	data, err := DecodeJSON([]byte(text))
	if err != nil {
		return nil, errors.NewConfigError("netbox", "query", "failed to parse JSON payload for query parameters", err)
	}
	rec, ok := data.(*Record)
	if !ok {
		return nil, errors.NewConfigError("netbox", "query", "query parameters must be provided as a JSON object", nil)
	}
	filters := make(map[string]string, rec.Len())
	for _, k := range rec.Keys() {
		v, _ := rec.Get(k)
		filters[k] = StringValue(v)
	}
	return filters, nil
}

// StringValue renders a JSON value as a query or lookup key: strings verbatim,
// numbers by their literal text, booleans as true/false, null as "null" and
// anything else as compact JSON.
func StringValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		return string(Compact(t))
	}
}

// ParseBool reports whether text is one of the truthy tokens 1, true, yes or
// on, ignoring case and surrounding space. Blank text yields def.
func ParseBool(text string, def bool) bool {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return def
	}
	for _, token := range constants.TruthyValues {
		if text == token {
			return true
		}
	}
	return false
}

// ParseTimeout parses a whole number of seconds. Blank text yields the default
// of 60 seconds.
func ParseTimeout(text string) (time.Duration, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return constants.DefaultHTTPTimeout, nil
	}
	seconds, err := strconv.Atoi(text)
	if err != nil {
		return 0, errors.NewConfigError("netbox", "timeout", "timeout must be an integer number of seconds", err)
	}
	return time.Duration(seconds) * time.Second, nil
}
