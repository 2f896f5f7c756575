package app

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"
)

// Output formats.
const (
	FormatJSON  = "json"
	FormatYAML  = "yaml"
	FormatTable = "table"
)

// Renderer prints decoded API payloads.
type Renderer struct {
	format string
	out    io.Writer
}

// NewRenderer validates format and binds it to out.
func NewRenderer(format string, out io.Writer) (*Renderer, error) {
	switch format {
	case "", FormatJSON:
		format = FormatJSON
	case FormatYAML, FormatTable:
	default:
		return nil, fmt.Errorf("unsupported output format %q", format)
	}
	return &Renderer{format: format, out: out}, nil
}

// Records prints a list of JSON objects.
func (r *Renderer) Records(records []map[string]any) error {
	if records == nil {
		records = []map[string]any{}
	}
	switch r.format {
	case FormatYAML:
		return r.yaml(records)
	case FormatTable:
		return r.table(columns(records), rows(records))
	default:
		return r.json(records)
	}
}

// Record prints a single JSON object.
func (r *Renderer) Record(record map[string]any) error {
	if record == nil {
		record = map[string]any{}
	}
	switch r.format {
	case FormatYAML:
		return r.yaml(record)
	case FormatTable:
		keys := sortedKeys(record)
		data := make([][]string, 0, len(keys))
		for _, k := range keys {
			data = append(data, []string{k, cell(record[k])})
		}
		return r.table([]string{"Field", "Value"}, data)
	default:
		return r.json(record)
	}
}

func (r *Renderer) json(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (r *Renderer) yaml(v any) error {
	enc := yaml.NewEncoder(r.out)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}

func (r *Renderer) table(header []string, data [][]string) error {
	if len(data) == 0 {
		_, err := fmt.Fprintln(r.out, "No records found.")
		return err
	}

	table := tablewriter.NewWriter(r.out)
	table.Options(tablewriter.WithHeader(header))
	for _, row := range data {
		if err := table.Append(row); err != nil {
			return fmt.Errorf("failed to append row: %w", err)
		}
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}
	return nil
}

// columns returns the union of keys, "id" first and the rest sorted.
func columns(records []map[string]any) []string {
	seen := make(map[string]struct{})
	for _, rec := range records {
		for k := range rec {
			seen[k] = struct{}{}
		}
	}
	cols := make([]string, 0, len(seen))
	for k := range seen {
		cols = append(cols, k)
	}
	sort.Slice(cols, func(i, j int) bool {
		if cols[i] == "id" || cols[j] == "id" {
			return cols[i] == "id"
		}
		return cols[i] < cols[j]
	})
	return cols
}

func rows(records []map[string]any) [][]string {
	cols := columns(records)
	out := make([][]string, 0, len(records))
	for _, rec := range records {
		row := make([]string, len(cols))
		for i, c := range cols {
			if v, ok := rec[c]; ok {
				row[i] = cell(v)
			}
		}
		out = append(out, row)
	}
	return out
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// cell formats a JSON value for a table; nested values stay JSON.
func cell(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return fmt.Sprintf("%v", val)
	case bool:
		return fmt.Sprintf("%t", val)
	default:
		raw, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(raw)
	}
}
