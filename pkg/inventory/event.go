package inventory

import (
	"strings"
	"time"

	"github.com/agentstation/netbox-connector/pkg/constants"
	"github.com/agentstation/netbox-connector/pkg/netbox"
)

// Event is one exported record as handed to a sink.
type Event struct {
	Stanza     string
	Sourcetype string
	// Host is the record's name when that is a string.
	Host    string
	HasHost bool
	// Time is the inferred record timestamp; zero when none was found.
	Time time.Time
	// Data is the record rendered with Record.Payload.
	Data string
	// Record is the source record, for sinks that store structured data.
	Record *netbox.Record
}

// HasTime reports whether a timestamp was inferred.
func (e Event) HasTime() bool {
	return !e.Time.IsZero()
}

// EpochSeconds returns Time as fractional Unix seconds.
func (e Event) EpochSeconds() float64 {
	return float64(e.Time.UnixMicro()) / 1e6
}

// EventFromRecord converts a record of stanza into an event.
func EventFromRecord(stanza, sourcetype string, rec *netbox.Record) Event {
	ev := Event{
		Stanza:     stanza,
		Sourcetype: sourcetype,
		Data:       rec.Payload(),
		Record:     rec,
	}
	if ts, ok := InferTime(rec); ok {
		ev.Time = ts
	}
	if host, ok := rec.String(constants.FieldName); ok {
		ev.Host, ev.HasHost = host, true
	}
	return ev
}

// timeLayouts accept Z, +hh:mm and +hhmm offsets, with or without fractional
// seconds. Timestamps without an offset are rejected.
var timeLayouts = []string{
	"2006-01-02T15:04:05.999999Z07:00",
	"2006-01-02T15:04:05.999999Z0700",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05Z0700",
}

// maxFractionDigits is the microsecond precision the timestamps carry.
const maxFractionDigits = 6

var timeFields = []string{constants.FieldLastUpdated, constants.FieldLastUpdate, constants.FieldCreated}

// InferTime returns the first of last_updated, last_update and created that
// holds a parseable timestamp string.
func InferTime(rec *netbox.Record) (time.Time, bool) {
	for _, field := range timeFields {
		text, ok := rec.String(field)
		if !ok {
			continue
		}
		text = strings.TrimSpace(text)
		if fractionDigits(text) > maxFractionDigits {
			continue
		}
		for _, layout := range timeLayouts {
			if ts, err := time.Parse(layout, text); err == nil {
				return ts, true
			}
		}
	}
	return time.Time{}, false
}

// fractionDigits counts the digits after the seconds field. time.Parse accepts
// a fraction of any length, so longer ones are caught here.
func fractionDigits(text string) int {
	const secondsEnd = len("2006-01-02T15:04:05")
	if len(text) <= secondsEnd || text[secondsEnd] != '.' {
		return 0
	}
	n := 0
	for _, c := range text[secondsEnd+1:] {
		if c < '0' || c > '9' {
			break
		}
		n++
	}
	return n
}
