package sink

import (
	"context"
	"encoding/json"
	"io"

	"github.com/agentstation/netbox-connector/pkg/inventory"
)

// line is the JSON lines shape of an event. Time is epoch seconds.
type line struct {
	Stanza     string   `json:"stanza"`
	Sourcetype string   `json:"sourcetype"`
	Host       *string  `json:"host,omitempty"`
	Time       *float64 `json:"time,omitempty"`
	Data       string   `json:"data"`
}

// JSONL writes one JSON object per event.
type JSONL struct {
	enc     *json.Encoder
	closeFn func() error
}

// NewJSONL writes events to w. closeFn, if set, runs on Close.
func NewJSONL(w io.Writer, closeFn func() error) *JSONL {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &JSONL{enc: enc, closeFn: closeFn}
}

// Write implements inventory.Sink.
func (s *JSONL) Write(_ context.Context, ev inventory.Event) error {
	l := line{Stanza: ev.Stanza, Sourcetype: ev.Sourcetype, Data: ev.Data}
	if ev.HasHost {
		host := ev.Host
		l.Host = &host
	}
	if ev.HasTime() {
		ts := ev.EpochSeconds()
		l.Time = &ts
	}
	return s.enc.Encode(l)
}

// Close flushes the destination.
func (s *JSONL) Close() error {
	if s.closeFn == nil {
		return nil
	}
	return s.closeFn()
}
