// Package output renders NetBox records and command results for the terminal.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/mattn/go-isatty"
	"github.com/olekukonko/tablewriter"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/agentstation/netbox-connector/pkg/netbox"
)

// Format types for output.
type Format string

const (
	// FormatTable represents table output format.
	FormatTable Format = "table"
	// FormatJSON represents JSON output format.
	FormatJSON Format = "json"
	// FormatYAML represents YAML output format.
	FormatYAML Format = "yaml"
)

// Formatter interface for all output types.
type Formatter interface {
	Format(w io.Writer, data any) error
}

// FormatterFunc allows functions to implement Formatter.
type FormatterFunc func(io.Writer, any) error

// Format implements the Formatter interface.
func (f FormatterFunc) Format(w io.Writer, data any) error {
	return f(w, data)
}

// NewFormatter creates appropriate formatter based on format.
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: "  "}
	case FormatYAML:
		return &YAMLFormatter{}
	default:
		return &TableFormatter{}
	}
}

// JSONFormatter outputs JSON format. Record key order is kept.
type JSONFormatter struct {
	Indent string
}

// Format implements the Formatter interface for JSON output.
func (f *JSONFormatter) Format(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	if f.Indent != "" {
		encoder.SetIndent("", f.Indent)
	}
	return encoder.Encode(data)
}

// YAMLFormatter outputs YAML format. Records become ordered mappings.
type YAMLFormatter struct{}

// Format outputs data in YAML format.
func (f *YAMLFormatter) Format(w io.Writer, data any) error {
	yamlData, err := yaml.MarshalWithOptions(toYAML(data),
		yaml.Indent(2),
		yaml.IndentSequence(false),
	)
	if err != nil {
		return err
	}
	_, err = w.Write(yamlData)
	return err
}

func toYAML(v any) any {
	switch t := v.(type) {
	case *netbox.Record:
		if t == nil {
			return nil
		}
		ms := make(yaml.MapSlice, 0, t.Len())
		for _, k := range t.Keys() {
			val, _ := t.Get(k)
			ms = append(ms, yaml.MapItem{Key: k, Value: toYAML(val)})
		}
		return ms
	case []*netbox.Record:
		out := make([]any, len(t))
		for i, r := range t {
			out[i] = toYAML(r)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = toYAML(e)
		}
		return out
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	default:
		return v
	}
}

// TableFormatter outputs table format.
type TableFormatter struct{}

// Format outputs data in table format. Records, record slices and structs are
// tabulated; anything else falls back to JSON.
func (f *TableFormatter) Format(w io.Writer, data any) error {
	switch v := data.(type) {
	case Data:
		return f.formatTable(w, v)
	case *netbox.Record:
		return f.formatTable(w, RecordDetail(v))
	case []*netbox.Record:
		return f.formatTable(w, RecordTable(v, nil))
	default:
		if tableData := f.convertToTableData(data); tableData != nil {
			return f.formatTable(w, *tableData)
		}
		jsonFormatter := &JSONFormatter{Indent: "  "}
		return jsonFormatter.Format(w, data)
	}
}

func (f *TableFormatter) formatTable(w io.Writer, data Data) error {
	table := tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{}))

	if len(data.Headers) > 0 {
		headers := make([]any, len(data.Headers))
		for i, h := range data.Headers {
			headers[i] = h
		}
		table.Header(headers...)
	}

	for _, row := range data.Rows {
		rowData := make([]any, len(row))
		for i, cell := range row {
			rowData[i] = cell
		}
		if err := table.Append(rowData...); err != nil {
			return err
		}
	}

	return table.Render()
}

// Data represents data formatted for table output.
type Data struct {
	Headers []string
	Rows    [][]string
}

// RecordTable lays records out one per row. Without explicit columns, the
// keys of the first record are used in order.
func RecordTable(records []*netbox.Record, columns []string) Data {
	if len(columns) == 0 && len(records) > 0 {
		columns = records[0].Keys()
	}
	data := Data{Headers: make([]string, len(columns))}
	for i, c := range columns {
		data.Headers[i] = Title(c)
	}
	for _, rec := range records {
		row := make([]string, len(columns))
		for i, c := range columns {
			v, _ := rec.Get(c)
			row[i] = Cell(v)
		}
		data.Rows = append(data.Rows, row)
	}
	return data
}

// RecordDetail lays one record out as property/value rows.
func RecordDetail(rec *netbox.Record) Data {
	data := Data{Headers: []string{"Property", "Value"}}
	for _, k := range rec.Keys() {
		v, _ := rec.Get(k)
		data.Rows = append(data.Rows, []string{Title(k), Cell(v)})
	}
	return data
}

// Cell renders a record value for a table cell. Nested objects show their
// NetBox "display" or "name" when present.
func Cell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case *netbox.Record:
		for _, k := range []string{"display", "name", "slug"} {
			if s, ok := t.String(k); ok {
				return s
			}
		}
	}
	return netbox.StringValue(v)
}

// Title turns a snake_case key into a column heading.
func Title(key string) string {
	caser := cases.Title(language.English)
	return caser.String(strings.ReplaceAll(key, "_", " "))
}

// DetectFormat auto-detects format based on terminal and environment.
func DetectFormat(explicitFormat string) Format {
	if explicitFormat != "" {
		return Format(strings.ToLower(explicitFormat))
	}

	if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return FormatTable
	}

	// Default to JSON for pipes/redirects
	return FormatJSON
}

// ParseFormat converts string to Format with validation.
func ParseFormat(s string) (Format, error) {
	format := Format(strings.ToLower(s))
	switch format {
	case FormatTable, FormatJSON, FormatYAML, "":
		return format, nil
	default:
		return "", fmt.Errorf("invalid format %q: must be one of: table, json, yaml", s)
	}
}

// convertToTableData attempts to convert struct slices to Data using reflection.
func (f *TableFormatter) convertToTableData(data any) *Data {
	v := reflect.ValueOf(data)

	if v.Kind() == reflect.Slice && v.Len() > 0 && v.Index(0).Kind() == reflect.Struct {
		return structSliceToTableData(v)
	}
	if v.Kind() == reflect.Struct {
		return singleStructToTableData(v)
	}
	return nil
}

func fieldName(field reflect.StructField) string {
	if jsonTag := field.Tag.Get("json"); jsonTag != "" && jsonTag != "-" {
		name, _, _ := strings.Cut(jsonTag, ",")
		return Title(name)
	}
	return field.Name
}

// structSliceToTableData converts a slice of structs to Data.
func structSliceToTableData(v reflect.Value) *Data {
	elemType := v.Index(0).Type()

	var headers []string
	for i := 0; i < elemType.NumField(); i++ {
		headers = append(headers, fieldName(elemType.Field(i)))
	}

	var rows [][]string
	for i := 0; i < v.Len(); i++ {
		elem := v.Index(i)
		var row []string
		for j := 0; j < elem.NumField(); j++ {
			row = append(row, fmt.Sprintf("%v", elem.Field(j).Interface()))
		}
		rows = append(rows, row)
	}

	return &Data{Headers: headers, Rows: rows}
}

// singleStructToTableData converts a single struct to a key-value table.
func singleStructToTableData(v reflect.Value) *Data {
	elemType := v.Type()

	data := &Data{Headers: []string{"Property", "Value"}}
	for i := 0; i < elemType.NumField(); i++ {
		data.Rows = append(data.Rows, []string{
			fieldName(elemType.Field(i)),
			fmt.Sprintf("%v", v.Field(i).Interface()),
		})
	}
	return data
}
