package leads

import (
	"context"
	"fmt"
	"time"

	"ap_business_tools/internal/metrics"
	"ap_business_tools/internal/notifications"
	"ap_business_tools/internal/sheets"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// firstDataRow is the lowest row an update may address; row 1 is the header.
const firstDataRow = 2

// Notifier is told about every inquiry that was recorded.
type Notifier interface {
	NotifyNewInquiry(ctx context.Context, in notifications.Inquiry)
}

// Service runs the lead, estimate and pipeline operations against the
// spreadsheet. Every call opens its own document handle.
type Service struct {
	gateway  *sheets.Gateway
	notifier Notifier
	now      func() time.Time
}

type Option func(*Service)

func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithClock replaces time.Now for defaulted timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(gateway *sheets.Gateway, opts ...Option) *Service {
	s := &Service{gateway: gateway, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type correlationKey struct{}

// WithCorrelationID tags ctx with the id used to tie a primary row and its
// Joblist mirror together in the logs.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

// CorrelationID returns the id stored in ctx, or a new one.
func CorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(correlationKey{}).(string); ok && id != "" {
		return id
	}
	return uuid.NewString()
}

// SaveInquiry appends the inquiry row, then its Joblist mirror row.
func (s *Service) SaveInquiry(ctx context.Context, req InquiryRequest) error {
	now := s.now()
	if err := s.recordWithMirror(ctx, "inquiry", Inquiries, req.fields(now), inquiryJoblist(req, now)); err != nil {
		return err
	}

	if s.notifier != nil {
		s.notifier.NotifyNewInquiry(ctx, notifications.Inquiry{
			CustomerName: req.CustomerName,
			Phone:        req.Phone,
			Address:      req.Address,
			JobTypes:     req.JobTypes,
			Timeline:     req.Timeline,
		})
	}
	return nil
}

// SaveEstimate appends the estimate row, then its Joblist mirror row carrying
// the computed value.
func (s *Service) SaveEstimate(ctx context.Context, req EstimateRequest) error {
	now := s.now()
	return s.recordWithMirror(ctx, "estimate", Estimates, req.fields(now), estimateJoblist(req, now))
}

// recordWithMirror performs the two independent appends. A failed mirror is
// reported even though the primary row is already stored; nothing is rolled
// back.
func (s *Service) recordWithMirror(ctx context.Context, kind string, primary sheets.Schema, fields, mirror map[string]interface{}) error {
	correlationID := CorrelationID(ctx)
	logger := log.With().Str("correlation_id", correlationID).Str("kind", kind).Logger()

	doc, err := s.gateway.Open(ctx)
	if err != nil {
		return err
	}

	if err := s.append(ctx, doc, primary, fields); err != nil {
		return err
	}
	logger.Info().Str("tab", primary.Name).Msg("Recorded row")

	if err := s.append(ctx, doc, Joblist, mirror); err != nil {
		metrics.MirrorFailures.WithLabelValues(kind).Inc()
		logger.Error().
			Err(err).
			Str("tab", Joblist.Name).
			Msg("Joblist mirror failed after primary row was recorded")
		return fmt.Errorf("%s saved to %q but Joblist mirror failed: %w", kind, primary.Name, err)
	}
	logger.Info().Str("tab", Joblist.Name).Msg("Mirrored row")
	return nil
}

func (s *Service) append(ctx context.Context, doc *sheets.Document, schema sheets.Schema, fields map[string]interface{}) error {
	tab, err := doc.EnsureTab(ctx, schema)
	if err != nil {
		return err
	}
	row, err := schema.Row(fields)
	if err != nil {
		return err
	}
	return doc.AppendRow(ctx, tab, row)
}

func (s *Service) ListInquiries(ctx context.Context) ([]sheets.Record, error) {
	return s.list(ctx, Inquiries)
}

func (s *Service) ListJobs(ctx context.Context) ([]sheets.Record, error) {
	return s.list(ctx, Pipeline)
}

func (s *Service) list(ctx context.Context, schema sheets.Schema) ([]sheets.Record, error) {
	doc, err := s.gateway.Open(ctx)
	if err != nil {
		return nil, err
	}
	tab, err := doc.EnsureTab(ctx, schema)
	if err != nil {
		return nil, err
	}
	return doc.ListRows(ctx, tab)
}

// AddJob appends a job to the pipeline tab.
func (s *Service) AddJob(ctx context.Context, req PipelineJobRequest) error {
	doc, err := s.gateway.Open(ctx)
	if err != nil {
		return err
	}
	if err := s.append(ctx, doc, Pipeline, req.fields(s.now())); err != nil {
		return err
	}
	log.Info().Str("customer", req.CustomerName).Msg("Added job to pipeline")
	return nil
}

// UpdateJob writes the fields present in req to the pipeline row at rowIndex.
// The caller owns the row index; nothing checks which job lives there.
func (s *Service) UpdateJob(ctx context.Context, rowIndex int, req JobUpdateRequest) error {
	if rowIndex < firstDataRow {
		return &ValidationError{Problems: []string{fmt.Sprintf("row index %d would overwrite the header; data rows start at %d", rowIndex, firstDataRow)}}
	}

	var updates []sheets.CellUpdate
	for _, f := range []struct {
		header string
		value  *string
	}{
		{"Status", req.Status},
		{"Scheduled Date", req.ScheduledDate},
		{"Notes", req.Notes},
	} {
		if f.value == nil {
			continue
		}
		col, _ := Pipeline.Column(f.header)
		updates = append(updates, sheets.CellUpdate{Column: col, Value: *f.value})
	}

	doc, err := s.gateway.Open(ctx)
	if err != nil {
		return err
	}
	tab, err := doc.EnsureTab(ctx, Pipeline)
	if err != nil {
		return err
	}
	if len(updates) == 0 {
		return nil
	}
	if err := doc.UpdateCells(ctx, tab, rowIndex, updates); err != nil {
		return err
	}

	log.Info().Int("row", rowIndex).Int("cells", len(updates)).Msg("Updated pipeline job")
	return nil
}

// Setup makes sure every known tab exists with its header and returns their
// names in setup order.
func (s *Service) Setup(ctx context.Context) ([]string, error) {
	doc, err := s.gateway.Open(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(AllTabs))
	for _, schema := range AllTabs {
		if _, err := doc.EnsureTab(ctx, schema); err != nil {
			return nil, err
		}
		names = append(names, schema.Name)
	}
	log.Info().Strs("tabs", names).Msg("Tabs ready")
	return names, nil
}
