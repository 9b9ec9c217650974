package sheets

import (
	"context"
	"sort"

	"ap_business_tools/internal/metrics"
	"ap_business_tools/internal/retry"

	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Gateway opens authenticated handles to the one configured spreadsheet.
type Gateway struct {
	cfg  Config
	opts []option.ClientOption
}

func NewGateway(cfg Config) *Gateway {
	return &Gateway{cfg: cfg}
}

// NewGatewayWithOptions skips credential resolution and builds the Sheets
// service from opts alone, e.g. an emulator endpoint with
// option.WithoutAuthentication.
func NewGatewayWithOptions(cfg Config, opts ...option.ClientOption) *Gateway {
	return &Gateway{cfg: cfg, opts: opts}
}

// SpreadsheetID returns the configured document id.
func (g *Gateway) SpreadsheetID() string {
	return g.cfg.SpreadsheetID
}

// Document is a handle to an opened spreadsheet. It is meant to live for a
// single request and is not safe for concurrent use.
type Document struct {
	service *sheets.Service
	id      string
	title   string
	cfg     Config
	tabs    map[string]*sheets.SheetProperties
}

// Open authenticates and fetches the spreadsheet's tab list.
func (g *Gateway) Open(ctx context.Context) (*Document, error) {
	if g.cfg.SpreadsheetID == "" {
		return nil, &DocumentNotFoundError{}
	}

	opts := g.opts
	if opts == nil {
		var err error
		opts, err = credentialOptions(g.cfg)
		if err != nil {
			return nil, err
		}
		if g.cfg.Endpoint != "" {
			opts = append(opts, option.WithEndpoint(g.cfg.Endpoint))
		}
	}

	service, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, &AuthenticationError{Reason: "failed to create sheets service", Err: err}
	}

	doc := &Document{
		service: service,
		id:      g.cfg.SpreadsheetID,
		cfg:     g.cfg,
	}
	if err := doc.refresh(ctx); err != nil {
		return nil, openError(g.cfg.SpreadsheetID, err)
	}

	log.Debug().
		Str("spreadsheet_id", doc.id).
		Str("title", doc.title).
		Int("tabs", len(doc.tabs)).
		Msg("Opened spreadsheet")
	return doc, nil
}

// refresh reloads the tab list from the spreadsheet metadata.
func (d *Document) refresh(ctx context.Context) error {
	resp, err := retry.WithRetry(ctx, d.cfg.Retry, func(ctx context.Context) (*sheets.Spreadsheet, error) {
		return d.service.Spreadsheets.Get(d.id).
			Fields("spreadsheetId", "properties.title", "sheets.properties").
			Context(ctx).
			Do()
	})
	metrics.SheetsCalls.WithLabelValues("get_spreadsheet", metrics.Outcome(err)).Inc()
	if err != nil {
		return err
	}

	tabs := make(map[string]*sheets.SheetProperties, len(resp.Sheets))
	for _, s := range resp.Sheets {
		if s.Properties != nil {
			tabs[s.Properties.Title] = s.Properties
		}
	}
	if resp.Properties != nil {
		d.title = resp.Properties.Title
	}
	d.tabs = tabs
	return nil
}

func (d *Document) ID() string {
	return d.id
}

func (d *Document) Title() string {
	return d.title
}

// TabNames lists the tabs known at open time plus any created since, sorted.
func (d *Document) TabNames() []string {
	names := make([]string, 0, len(d.tabs))
	for name := range d.tabs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
