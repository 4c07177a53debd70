package sink

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/cloudevents/sdk-go/v2/event"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/agentstation/netbox-connector/pkg/inventory"
)

// DefaultSource is the CloudEvents source used when none is configured.
const DefaultSource = "netbox-connector"

// CloudEvents writes one structured-mode CloudEvent JSON document per line.
type CloudEvents struct {
	source  string
	enc     *json.Encoder
	closeFn func() error
	now     func() time.Time
}

// NewCloudEvents writes events to w. closeFn, if set, runs on Close.
func NewCloudEvents(w io.Writer, source string, closeFn func() error) *CloudEvents {
	if source == "" {
		source = DefaultSource
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &CloudEvents{source: source, enc: enc, closeFn: closeFn, now: time.Now}
}

// ToCloudEvent converts an export event. The type is the event's sourcetype,
// the subject its host, and the data the exported record.
func (s *CloudEvents) ToCloudEvent(ctx context.Context, ev inventory.Event) (event.Event, error) {
	evt := event.New()
	evt.SetID(uuid.NewString())
	evt.SetSource(s.source + "/" + ev.Stanza)
	evt.SetType(ev.Sourcetype)
	if ev.HasHost && ev.Host != "" {
		evt.SetSubject(ev.Host)
	}
	if ev.HasTime() {
		evt.SetTime(ev.Time)
	} else {
		evt.SetTime(s.now())
	}
	evt.SetExtension("stanza", ev.Stanza)

	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	if tp := carrier.Get("traceparent"); tp != "" {
		evt.SetExtension("traceparent", tp)
		if ts := carrier.Get("tracestate"); ts != "" {
			evt.SetExtension("tracestate", ts)
		}
	}

	if err := evt.SetData(event.ApplicationJSON, []byte(ev.Data)); err != nil {
		return evt, err
	}
	return evt, evt.Validate()
}

// Write implements inventory.Sink.
func (s *CloudEvents) Write(ctx context.Context, ev inventory.Event) error {
	evt, err := s.ToCloudEvent(ctx, ev)
	if err != nil {
		return err
	}
	return s.enc.Encode(&evt)
}

// Close flushes the destination.
func (s *CloudEvents) Close() error {
	if s.closeFn == nil {
		return nil
	}
	return s.closeFn()
}
