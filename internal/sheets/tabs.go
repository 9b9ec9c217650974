package sheets

import (
	"context"
	"fmt"

	"ap_business_tools/internal/metrics"
	"ap_business_tools/internal/retry"

	"github.com/rs/zerolog/log"
	"google.golang.org/api/sheets/v4"
)

const defaultTabRows = 1000

// Tab is a tab that is known to exist in the document.
type Tab struct {
	ID     int64
	Title  string
	Schema Schema
	// Header is the header row as it was found on the tab.
	Header []string
}

// EnsureTab returns the tab named by schema, creating it with the schema's
// header row when it does not exist. An existing tab is never modified.
func (d *Document) EnsureTab(ctx context.Context, schema Schema) (*Tab, error) {
	if props, ok := d.tabs[schema.Name]; ok {
		return d.existingTab(ctx, schema, props)
	}

	props, err := d.addTab(ctx, schema)
	if err != nil {
		// Another request may have created the tab in the meantime.
		if refreshErr := d.refresh(ctx); refreshErr == nil {
			if existing, ok := d.tabs[schema.Name]; ok {
				log.Info().Str("tab", schema.Name).Msg("Tab was created concurrently, using it")
				return d.existingTab(ctx, schema, existing)
			}
		}
		return nil, &TabCreationError{Tab: schema.Name, Err: err}
	}
	d.tabs[schema.Name] = props

	header := make([]interface{}, len(schema.Headers))
	for i, h := range schema.Headers {
		header[i] = h
	}
	err = d.writeRange(ctx, fmt.Sprintf("%s!A1", quoteTab(schema.Name)), [][]interface{}{header})
	metrics.SheetsCalls.WithLabelValues("write_header", metrics.Outcome(err)).Inc()
	if err != nil {
		return nil, &TabCreationError{Tab: schema.Name, Err: err}
	}

	metrics.TabsCreated.WithLabelValues(schema.Name).Inc()
	log.Info().
		Str("tab", schema.Name).
		Int("columns", schema.Width()).
		Msg("Created tab with headers")

	return &Tab{ID: props.SheetId, Title: props.Title, Schema: schema, Header: schema.Headers}, nil
}

func (d *Document) addTab(ctx context.Context, schema Schema) (*sheets.SheetProperties, error) {
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{
					Title: schema.Name,
					GridProperties: &sheets.GridProperties{
						RowCount:    defaultTabRows,
						ColumnCount: int64(schema.Width()),
					},
				},
			},
		}},
	}

	opCtx, cancel := attemptContext(ctx, d.cfg.Retry)
	defer cancel()
	resp, err := d.service.Spreadsheets.BatchUpdate(d.id, req).Context(opCtx).Do()
	metrics.SheetsCalls.WithLabelValues("add_tab", metrics.Outcome(err)).Inc()
	if err != nil {
		return nil, err
	}
	if len(resp.Replies) == 0 || resp.Replies[0].AddSheet == nil || resp.Replies[0].AddSheet.Properties == nil {
		return nil, fmt.Errorf("add sheet reply missing properties")
	}
	return resp.Replies[0].AddSheet.Properties, nil
}

func (d *Document) existingTab(ctx context.Context, schema Schema, props *sheets.SheetProperties) (*Tab, error) {
	live, err := d.readHeader(ctx, props.Title)
	if err != nil {
		return nil, err
	}

	if !schema.Matches(live) {
		metrics.SchemaMismatches.WithLabelValues(schema.Name).Inc()
		if d.cfg.StrictSchema {
			return nil, &SchemaMismatchError{Tab: schema.Name, Want: schema.Headers, Got: live}
		}
		log.Warn().
			Str("tab", schema.Name).
			Strs("expected", schema.Headers).
			Strs("found", live).
			Msg("Existing tab header differs from schema; rows will be written in schema order")
	}

	return &Tab{ID: props.SheetId, Title: props.Title, Schema: schema, Header: live}, nil
}

func (d *Document) readHeader(ctx context.Context, title string) ([]string, error) {
	rows, err := d.readRange(ctx, quoteTab(title)+"!1:1")
	metrics.SheetsCalls.WithLabelValues("read_header", metrics.Outcome(err)).Inc()
	if err != nil {
		return nil, remoteError("read header", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	header := make([]string, len(rows[0]))
	for i, cell := range rows[0] {
		header[i] = cellString(cell)
	}
	return header, nil
}

func (d *Document) readRange(ctx context.Context, rng string) ([][]interface{}, error) {
	return retry.WithRetry(ctx, d.cfg.Retry, func(ctx context.Context) ([][]interface{}, error) {
		resp, err := d.service.Spreadsheets.Values.Get(d.id, rng).Context(ctx).Do()
		if err != nil {
			return nil, err
		}
		return resp.Values, nil
	})
}

func (d *Document) writeRange(ctx context.Context, rng string, values [][]interface{}) error {
	return retry.Do(ctx, d.cfg.Retry, func(ctx context.Context) error {
		_, err := d.service.Spreadsheets.Values.Update(d.id, rng, &sheets.ValueRange{Values: values}).
			ValueInputOption("USER_ENTERED").
			Context(ctx).
			Do()
		return err
	})
}

// attemptContext applies the configured per-call timeout to calls that are
// never retried.
func attemptContext(ctx context.Context, cfg retry.Config) (context.Context, context.CancelFunc) {
	if cfg.Timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, cfg.Timeout)
}

func cellString(cell interface{}) string {
	if cell == nil {
		return ""
	}
	if s, ok := cell.(string); ok {
		return s
	}
	return fmt.Sprint(cell)
}
