package netbox

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
)

// Record is a JSON object that remembers the order its keys arrived in.
//
// Nested objects decode as *Record, arrays as []any and numbers as json.Number,
// so a record can be written back out without reordering or reformatting values.
type Record struct {
	keys   []string
	values map[string]any
}

// NewRecord returns an empty record.
func NewRecord() *Record {
	return &Record{values: make(map[string]any)}
}

// RecordOf builds a record from alternating key, value arguments.
// It panics if a key is not a string.
func RecordOf(kv ...any) *Record {
	r := NewRecord()
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			panic(fmt.Sprintf("netbox: RecordOf key %d is %T, not string", i, kv[i]))
		}
		r.Set(key, kv[i+1])
	}
	return r
}

// Get returns the value stored under key.
func (r *Record) Get(key string) (any, bool) {
	if r == nil {
		return nil, false
	}
	v, ok := r.values[key]
	return v, ok
}

// Has reports whether key is present.
func (r *Record) Has(key string) bool {
	_, ok := r.Get(key)
	return ok
}

// Set stores value under key. New keys are appended; existing keys keep their position.
func (r *Record) Set(key string, value any) {
	if r.values == nil {
		r.values = make(map[string]any)
	}
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = value
}

// Delete removes key if present.
func (r *Record) Delete(key string) {
	if _, ok := r.values[key]; !ok {
		return
	}
	delete(r.values, key)
	for i, k := range r.keys {
		if k == key {
			r.keys = append(r.keys[:i], r.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in insertion order.
func (r *Record) Keys() []string {
	if r == nil {
		return nil
	}
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Len returns the number of keys.
func (r *Record) Len() int {
	if r == nil {
		return 0
	}
	return len(r.keys)
}

// String returns the value under key when it is a JSON string.
func (r *Record) String(key string) (string, bool) {
	v, ok := r.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Clone returns a shallow copy of the record.
func (r *Record) Clone() *Record {
	out := &Record{
		keys:   r.Keys(),
		values: make(map[string]any, r.Len()),
	}
	for _, k := range out.keys {
		out.values[k] = r.values[k]
	}
	return out
}

// ToMap converts the record and any nested records into plain maps.
// Key order is lost.
func (r *Record) ToMap() map[string]any {
	out := make(map[string]any, r.Len())
	for _, k := range r.Keys() {
		out[k] = plain(r.values[k])
	}
	return out
}

func plain(v any) any {
	switch t := v.(type) {
	case *Record:
		return t.ToMap()
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = plain(e)
		}
		return out
	default:
		return v
	}
}

// UnmarshalJSON decodes a JSON object, preserving key order.
func (r *Record) UnmarshalJSON(data []byte) error {
	v, err := DecodeJSON(data)
	if err != nil {
		return err
	}
	rec, ok := v.(*Record)
	if !ok {
		return fmt.Errorf("netbox: cannot decode %T into Record", v)
	}
	*r = *rec
	return nil
}

// MarshalJSON encodes the record compactly, in key order, without HTML escaping.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeValue(&buf, r, compact); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Payload renders the record with ", " and ": " separators and non-ASCII kept
// as-is. This is the textual form written into exported events and summary fields.
func (r *Record) Payload() string {
	return PayloadOf(r)
}

// Compact encodes any record-aware value compactly. Values that cannot be
// encoded render as null.
func Compact(v any) []byte {
	var buf bytes.Buffer
	if err := encodeValue(&buf, v, compact); err != nil {
		return []byte("null")
	}
	return buf.Bytes()
}

// PayloadOf renders any record-aware value the way Record.Payload does.
func PayloadOf(v any) string {
	var buf bytes.Buffer
	if err := encodeValue(&buf, v, spaced); err != nil {
		return "null"
	}
	return buf.String()
}

// DecodeJSON decodes any JSON document into record-aware values:
// objects become *Record, arrays []any, numbers json.Number.
func DecodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		if err == nil {
			err = fmt.Errorf("invalid character after top-level value")
		}
		return nil, err
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			rec := NewRecord()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("object key is %T, not string", keyTok)
				}
				val, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				rec.Set(key, val)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return rec, nil
		case '[':
			list := make([]any, 0)
			for dec.More() {
				val, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				list = append(list, val)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return list, nil
		default:
			return nil, fmt.Errorf("unexpected delimiter %q", t)
		}
	default:
		// string, json.Number, bool or nil
		return t, nil
	}
}

type separators struct {
	item string
	key  string
}

var (
	compact = separators{item: ",", key: ":"}
	spaced  = separators{item: ", ", key: ": "}
)

func encodeValue(buf *bytes.Buffer, v any, sep separators) error {
	switch t := v.(type) {
	case nil:
		buf.WriteString("null")
	case *Record:
		if t == nil {
			buf.WriteString("null")
			return nil
		}
		buf.WriteByte('{')
		for i, k := range t.keys {
			if i > 0 {
				buf.WriteString(sep.item)
			}
			encodeString(buf, k)
			buf.WriteString(sep.key)
			if err := encodeValue(buf, t.values[k], sep); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case []any:
		buf.WriteByte('[')
		for i, e := range t {
			if i > 0 {
				buf.WriteString(sep.item)
			}
			if err := encodeValue(buf, e, sep); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		rec := NewRecord()
		for _, k := range keys {
			rec.Set(k, t[k])
		}
		return encodeValue(buf, rec, sep)
	case string:
		encodeString(buf, t)
	case json.Number:
		buf.WriteString(t.String())
	case bool:
		if t {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return err
		}
		buf.Write(b)
	}
	return nil
}

// encodeString writes s as a JSON string, escaping only quotes, backslashes
// and control characters. Every other rune is written literally, U+2028 and
// U+2029 included.
func encodeString(buf *bytes.Buffer, s string) {
	const hex = "0123456789abcdef"
	buf.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		case '\b':
			buf.WriteString(`\b`)
		case '\f':
			buf.WriteString(`\f`)
		default:
			if r < 0x20 {
				buf.WriteString(`\u00`)
				buf.WriteByte(hex[r>>4])
				buf.WriteByte(hex[r&0xf])
				continue
			}
			// invalid UTF-8 arrives as utf8.RuneError and is written as U+FFFD
			buf.WriteRune(r)
		}
	}
	buf.WriteByte('"')
}
