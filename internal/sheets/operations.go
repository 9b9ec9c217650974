package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"ap_business_tools/internal/metrics"

	"github.com/rs/zerolog/log"
	"google.golang.org/api/sheets/v4"
)

// AppendRow appends values as the new last row of tab. Values must already be
// in header order. The call is made once; a failed append is not retried
// because the service may have applied it.
func (d *Document) AppendRow(ctx context.Context, tab *Tab, values []interface{}) error {
	valueRange := &sheets.ValueRange{
		Values: [][]interface{}{values},
	}

	opCtx, cancel := attemptContext(ctx, d.cfg.Retry)
	defer cancel()
	_, err := d.service.Spreadsheets.Values.Append(d.id, quoteTab(tab.Title)+"!A1", valueRange).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(opCtx).
		Do()
	metrics.SheetsCalls.WithLabelValues("append_row", metrics.Outcome(err)).Inc()
	if err != nil {
		return remoteError("append row", err)
	}

	log.Debug().
		Str("tab", tab.Title).
		Int("columns", len(values)).
		Msg("Appended row")
	return nil
}

// Field is one cell of a record, keyed by its header.
type Field struct {
	Key   string
	Value interface{}
}

// Record is a data row keyed by the tab's header row. Fields keep header order.
type Record struct {
	Fields []Field
}

// Get returns the value under key, or nil.
func (r Record) Get(key string) interface{} {
	for _, f := range r.Fields {
		if f.Key == key {
			return f.Value
		}
	}
	return nil
}

// MarshalJSON writes the record as an object whose keys follow header order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r.Fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(f.Value)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Key, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ListRows reads the whole tab and returns every row below the header as a
// record keyed by the live header row. Short rows are padded with "".
func (d *Document) ListRows(ctx context.Context, tab *Tab) ([]Record, error) {
	rows, err := d.readRange(ctx, quoteTab(tab.Title))
	metrics.SheetsCalls.WithLabelValues("list_rows", metrics.Outcome(err)).Inc()
	if err != nil {
		return nil, remoteError("list rows", err)
	}
	if len(rows) == 0 {
		return []Record{}, nil
	}

	keys := make([]string, len(rows[0]))
	for i, cell := range rows[0] {
		keys[i] = cellString(cell)
	}

	records := make([]Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		fields := make([]Field, len(keys))
		for i, key := range keys {
			var value interface{} = ""
			if i < len(row) {
				value = numericise(row[i])
			}
			fields[i] = Field{Key: key, Value: value}
		}
		records = append(records, Record{Fields: fields})
	}

	log.Debug().
		Str("tab", tab.Title).
		Int("records", len(records)).
		Msg("Listed rows")
	return records, nil
}

// numericise turns formatted cell text that reads as a number into a number,
// leaving everything else as text.
func numericise(cell interface{}) interface{} {
	s, ok := cell.(string)
	if !ok {
		if cell == nil {
			return ""
		}
		return cell
	}
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return s
	}
	if i, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
		return f
	}
	return s
}
