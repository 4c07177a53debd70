package netbox

import (
	"context"
	"iter"
	"maps"
	"net/http"

	"github.com/agentstation/netbox-connector/pkg/constants"
	"github.com/agentstation/netbox-connector/pkg/errors"
)

// Page shapes recognized in a response body, in detection order.
const (
	ShapeEnvelope = "envelope"
	ShapeList     = "list"
	ShapeObject   = "object"
)

// Page is one decoded response body.
type Page struct {
	Shape   string
	Records []*Record
	// Next is the cursor of the following page. Only envelopes carry one.
	Next string
}

// DecodePage interprets a response body. A JSON object with both "results" and
// "next" keys is an envelope; any other object is a single record; an array is
// a bare list. Everything else is a *errors.MalformedResponseError.
func DecodePage(endpoint string, body []byte) (*Page, error) {
	data, err := DecodeJSON(body)
	if err != nil {
		return nil, errors.NewMalformedResponseError(endpoint, errors.ReasonNotJSON, string(body), err)
	}

	switch v := data.(type) {
	case *Record:
		if v.Has(constants.EnvelopeResults) && v.Has(constants.EnvelopeNext) {
			return decodeEnvelope(endpoint, v)
		}
		return &Page{Shape: ShapeObject, Records: []*Record{v}}, nil
	case []any:
		records, err := asRecords(endpoint, v)
		if err != nil {
			return nil, err
		}
		return &Page{Shape: ShapeList, Records: records}, nil
	default:
		return nil, errors.NewMalformedResponseError(endpoint, errors.ReasonUnexpectedStructure, string(Compact(v)), nil)
	}
}

func decodeEnvelope(endpoint string, env *Record) (*Page, error) {
	page := &Page{Shape: ShapeEnvelope}

	results, _ := env.Get(constants.EnvelopeResults)
	switch v := results.(type) {
	case nil:
	case []any:
		records, err := asRecords(endpoint, v)
		if err != nil {
			return nil, err
		}
		page.Records = records
	default:
		return nil, errors.NewMalformedResponseError(endpoint, errors.ReasonUnexpectedStructure, string(Compact(env)), nil)
	}

	// null, "" or a non-string cursor ends pagination
	if next, ok := env.String(constants.EnvelopeNext); ok {
		page.Next = next
	}
	return page, nil
}

func asRecords(endpoint string, items []any) ([]*Record, error) {
	records := make([]*Record, 0, len(items))
	for _, item := range items {
		rec, ok := item.(*Record)
		if !ok {
			return nil, errors.NewMalformedResponseError(endpoint, errors.ReasonUnexpectedStructure, string(Compact(item)), nil)
		}
		records = append(records, rec)
	}
	return records, nil
}

// Pager walks the pages of one collection explicitly. The first request
// carries the filter parameters; every later one follows the server's cursor
// as given, without parameters.
type Pager struct {
	client   *Client
	resource string
	params   map[string]string
	next     string
	started  bool
	done     bool
}

// NewPager returns a pager positioned before the first page of resource.
func (c *Client) NewPager(resource string, params map[string]string) *Pager {
	return &Pager{
		client:   c,
		resource: resource,
		params:   maps.Clone(params),
	}
}

// Done reports whether the last page has been consumed or a request failed.
func (p *Pager) Done() bool {
	return p.done
}

// Next fetches and decodes the next page. It returns nil, nil once Done.
func (p *Pager) Next(ctx context.Context) ([]*Record, error) {
	if p.done {
		return nil, nil
	}

	target, params := p.resource, p.params
	if p.started {
		target, params = p.next, nil
	}
	p.started = true

	resp, err := p.client.FetchPage(ctx, http.MethodGet, target, params)
	if err != nil {
		p.done = true
		return nil, err
	}

	page, err := DecodePage(resp.URL, resp.Body)
	if err != nil {
		p.done = true
		return nil, err
	}

	p.client.metrics.RecordPage(page.Shape)
	p.client.metrics.RecordRecords(p.resource, len(page.Records))

	p.next = page.Next
	if p.next == "" {
		p.done = true
	}
	return page.Records, nil
}

// Iterate yields every record of resource across all pages. Pages are fetched
// only as the sequence is consumed; stopping early stops fetching. A failure
// is yielded once as (nil, err) and ends the sequence. Ranging over the
// sequence again starts over from the first page.
func (c *Client) Iterate(ctx context.Context, resource string, params map[string]string) iter.Seq2[*Record, error] {
	return func(yield func(*Record, error) bool) {
		pager := c.NewPager(resource, params)
		for !pager.Done() {
			records, err := pager.Next(ctx)
			if err != nil {
				yield(nil, err)
				return
			}
			for _, rec := range records {
				if !yield(rec, nil) {
					return
				}
			}
		}
	}
}
