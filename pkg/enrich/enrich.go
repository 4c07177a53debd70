// Package enrich annotates records with attributes looked up in NetBox.
//
// A Processor matches one field of each incoming record against a NetBox
// filter field, remembers every answer for the rest of the run, and copies
// either selected attributes or the whole matched object into the record.
package enrich

import (
	"context"
	"encoding/json"
	"iter"
	"maps"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/agentstation/netbox-connector/internal/cache"
	"github.com/agentstation/netbox-connector/pkg/constants"
	"github.com/agentstation/netbox-connector/pkg/errors"
	"github.com/agentstation/netbox-connector/pkg/logging"
	"github.com/agentstation/netbox-connector/pkg/metrics"
	"github.com/agentstation/netbox-connector/pkg/netbox"
)

// Options are the textual enrichment inputs as a host passes them.
type Options struct {
	NetBoxURL   string
	Token       string
	Resource    string
	MatchField  string // default "name"
	NetBoxField string // default "name"
	Fields      string // comma separated; empty copies the whole object
	VerifySSL   string // default "true"
	CABundle    string
	Timeout     string // seconds, default "60"
	Query       string // JSON object of static filters
	Prefix      string // default "netbox"
}

// Stats counts what a Processor did with its input.
type Stats struct {
	Records     int `json:"records"`
	Lookups     int `json:"lookups"`
	CacheHits   int `json:"cache_hits"`
	Enriched    int `json:"enriched"`
	Passthrough int `json:"passthrough"`
}

// Option configures a Processor.
type Option func(*Processor)

// WithMetrics records cache and request counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Processor) {
		p.metrics = m
		p.clientOpts = append(p.clientOpts, netbox.WithMetrics(m))
	}
}

// WithClientOptions passes options through to the NetBox client.
func WithClientOptions(opts ...netbox.Option) Option {
	return func(p *Processor) {
		p.clientOpts = append(p.clientOpts, opts...)
	}
}

// WithLogger sets the logger used when the context carries none.
func WithLogger(logger *zerolog.Logger) Option {
	return func(p *Processor) {
		p.logger = logger
		p.clientOpts = append(p.clientOpts, netbox.WithLogger(logger))
	}
}

// Processor enriches records one at a time. It owns its client and memo and
// is not safe for concurrent use.
type Processor struct {
	client      *netbox.Client
	resource    string
	matchField  string
	netboxField string
	prefix      string
	fields      []string
	filters     map[string]string

	memo       *cache.Memo[*netbox.Record]
	stats      Stats
	metrics    *metrics.Metrics
	logger     *zerolog.Logger
	clientOpts []netbox.Option
}

// New parses opts and builds the processor's client. Malformed query or
// timeout text, a missing base URL or a missing resource is a
// *errors.ConfigError.
func New(opts Options, popts ...Option) (*Processor, error) {
	p := &Processor{
		resource:    strings.TrimSpace(opts.Resource),
		matchField:  orDefault(opts.MatchField, constants.DefaultMatchField),
		netboxField: orDefault(opts.NetBoxField, constants.DefaultNetBoxField),
		prefix:      orDefault(opts.Prefix, constants.DefaultPrefix),
		fields:      ParseFields(opts.Fields),
		memo:        cache.New[*netbox.Record](),
	}
	for _, opt := range popts {
		opt(p)
	}

	if p.resource == "" {
		return nil, errors.NewConfigError("enrich", "resource", "a NetBox resource must be provided", nil)
	}

	filters, err := netbox.ParseFilters(opts.Query)
	if err != nil {
		return nil, err
	}
	p.filters = filters

	timeout, err := netbox.ParseTimeout(opts.Timeout)
	if err != nil {
		return nil, err
	}

	client, err := netbox.New(netbox.Config{
		BaseURL:  opts.NetBoxURL,
		Token:    strings.TrimSpace(opts.Token),
		Verify:   netbox.ParseBool(orDefault(opts.VerifySSL, constants.DefaultVerifySSL), true),
		CABundle: strings.TrimSpace(opts.CABundle),
		Timeout:  timeout,
	}, p.clientOpts...)
	if err != nil {
		return nil, err
	}
	p.client = client

	return p, nil
}

// ParseFields splits a comma separated field list, dropping blank entries.
func ParseFields(text string) []string {
	var fields []string
	for _, part := range strings.Split(text, ",") {
		if part = strings.TrimSpace(part); part != "" {
			fields = append(fields, part)
		}
	}
	return fields
}

// Stats returns the counters accumulated so far.
func (p *Processor) Stats() Stats {
	return p.stats
}

// Enrich annotates rec in place and returns it. Records whose match field is
// missing or falsy, or that match nothing, are returned unchanged. Each
// distinct match value is looked up at most once per Processor.
func (p *Processor) Enrich(ctx context.Context, rec *netbox.Record) (*netbox.Record, error) {
	p.stats.Records++

	value, ok := rec.Get(p.matchField)
	if !ok || IsFalsy(value) {
		p.stats.Passthrough++
		return rec, nil
	}

	key := netbox.StringValue(value)
	match, err := p.lookup(ctx, key)
	if err != nil {
		return nil, err
	}
	if match.Len() == 0 {
		p.stats.Passthrough++
		return rec, nil
	}

	if len(p.fields) > 0 {
		for _, field := range p.fields {
			v, _ := match.Get(field)
			rec.Set(p.prefix+"_"+field, v)
		}
	} else if !rec.Has(p.prefix) {
		rec.Set(p.prefix, match.Payload())
	}
	p.stats.Enriched++
	return rec, nil
}

func (p *Processor) lookup(ctx context.Context, key string) (*netbox.Record, error) {
	if match, found := p.memo.Get(key); found {
		p.stats.CacheHits++
		p.metrics.RecordCacheHit()
		return match, nil
	}
	p.metrics.RecordCacheMiss()

	params := maps.Clone(p.filters)
	params[p.netboxField] = key

	p.stats.Lookups++
	match, err := p.client.GetFirst(ctx, p.resource, params)
	if err != nil {
		return nil, err
	}
	p.log(ctx).Debug().
		Str("resource", p.resource).
		Str("field", p.netboxField).
		Str("value", key).
		Bool("found", match != nil).
		Msg("lookup")

	p.memo.Set(key, match)
	return match, nil
}

// Stream enriches every record of records in order, yielding exactly one
// output per input. The first error, from the input or a lookup, is yielded
// and ends the stream.
func (p *Processor) Stream(ctx context.Context, records iter.Seq2[*netbox.Record, error]) iter.Seq2[*netbox.Record, error] {
	return func(yield func(*netbox.Record, error) bool) {
		for rec, err := range records {
			if err != nil {
				yield(nil, err)
				return
			}
			out, err := p.Enrich(ctx, rec)
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(out, nil) {
				return
			}
		}
	}
}

// IsFalsy reports whether a JSON value counts as empty for matching: null,
// "", false, a zero number, or an empty array or object.
func IsFalsy(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case bool:
		return !t
	case json.Number:
		f, err := strconv.ParseFloat(t.String(), 64)
		return err == nil && f == 0
	case float64:
		return t == 0
	case int:
		return t == 0
	case []any:
		return len(t) == 0
	case *netbox.Record:
		return t.Len() == 0
	case map[string]any:
		return len(t) == 0
	}
	return false
}

func (p *Processor) log(ctx context.Context) *zerolog.Logger {
	if l, ok := logging.Lookup(ctx); ok {
		return l
	}
	if p.logger != nil {
		return p.logger
	}
	return logging.Default()
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v == "" {
		return def
	}
	return v
}
