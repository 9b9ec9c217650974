package sheets_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"ap_business_tools/internal/retry"
	"ap_business_tools/internal/sheets"
	"ap_business_tools/internal/sheets/sheetstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const spreadsheetID = "1UQinb9lnBg-test"

var pipeline = sheets.NewSchema("Job Pipeline Master",
	"Date Added", "Customer Name", "Address", "Phone", "Job Type",
	"Estimated Days", "Estimated Value", "Status", "Scheduled Date",
	"Estimator", "Notes",
)

func openDocument(t *testing.T, srv *sheetstest.Server, cfg sheets.Config) *sheets.Document {
	t.Helper()
	cfg.SpreadsheetID = spreadsheetID
	doc, err := sheets.NewGatewayWithOptions(cfg, srv.Options()...).Open(context.Background())
	require.NoError(t, err)
	return doc
}

func TestOpenUnknownSpreadsheet(t *testing.T) {
	srv := sheetstest.New(t, spreadsheetID)
	gw := sheets.NewGatewayWithOptions(sheets.Config{SpreadsheetID: "does-not-exist"}, srv.Options()...)

	_, err := gw.Open(context.Background())

	var notFound *sheets.DocumentNotFoundError
	require.True(t, errors.As(err, &notFound), "got %v", err)
	assert.Equal(t, "does-not-exist", notFound.SpreadsheetID)
}

func TestOpenAccessDenied(t *testing.T) {
	srv := sheetstest.New(t, spreadsheetID)
	srv.FailNext("get_spreadsheet", "", http.StatusForbidden)

	_, err := sheets.NewGatewayWithOptions(sheets.Config{SpreadsheetID: spreadsheetID}, srv.Options()...).
		Open(context.Background())

	var authErr *sheets.AuthenticationError
	assert.True(t, errors.As(err, &authErr), "got %v", err)
}

func TestOpenWithoutCredentials(t *testing.T) {
	gw := sheets.NewGateway(sheets.Config{
		SpreadsheetID:   spreadsheetID,
		CredentialsFile: filepath.Join(t.TempDir(), "credentials.json"),
	})

	_, err := gw.Open(context.Background())

	var authErr *sheets.AuthenticationError
	assert.True(t, errors.As(err, &authErr), "got %v", err)
}

func TestEnsureTabCreatesOnceAndNeverRewritesHeader(t *testing.T) {
	srv := sheetstest.New(t, spreadsheetID)
	doc := openDocument(t, srv, sheets.Config{})
	ctx := context.Background()

	first, err := doc.EnsureTab(ctx, pipeline)
	require.NoError(t, err)
	second, err := doc.EnsureTab(ctx, pipeline)
	require.NoError(t, err)

	// A fresh handle sees the tab through metadata, not through local state.
	again, err := openDocument(t, srv, sheets.Config{}).EnsureTab(ctx, pipeline)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, 1, srv.Calls("add_tab"))
	assert.Equal(t, 1, srv.Calls("update"), "header written exactly once")
	assert.Equal(t, []string{"Job Pipeline Master"}, srv.TabTitles())
	assert.Equal(t, int64(pipeline.Width()), srv.ColumnCount("Job Pipeline Master"))
	assert.Equal(t, [][]string{pipeline.Headers}, srv.Rows("Job Pipeline Master"))
}

func TestEnsureTabKeepsForeignHeader(t *testing.T) {
	srv := sheetstest.New(t, spreadsheetID)
	srv.AddTab("Job Pipeline Master", []string{"Customer Name", "Status"})
	doc := openDocument(t, srv, sheets.Config{})

	tab, err := doc.EnsureTab(context.Background(), pipeline)

	require.NoError(t, err)
	assert.Equal(t, []string{"Customer Name", "Status"}, tab.Header)
	assert.Equal(t, 0, srv.Calls("update"))
	assert.Equal(t, [][]string{{"Customer Name", "Status"}}, srv.Rows("Job Pipeline Master"))
}

func TestEnsureTabStrictSchema(t *testing.T) {
	srv := sheetstest.New(t, spreadsheetID)
	srv.AddTab("Job Pipeline Master", []string{"Customer Name", "Status"})
	doc := openDocument(t, srv, sheets.Config{StrictSchema: true})

	_, err := doc.EnsureTab(context.Background(), pipeline)

	var mismatch *sheets.SchemaMismatchError
	require.True(t, errors.As(err, &mismatch), "got %v", err)
	assert.Equal(t, "Job Pipeline Master", mismatch.Tab)
	assert.Equal(t, []string{"Customer Name", "Status"}, mismatch.Got)
}

func TestEnsureTabCreationFailure(t *testing.T) {
	srv := sheetstest.New(t, spreadsheetID)
	srv.FailNext("add_tab", "Job Pipeline Master", http.StatusInternalServerError)
	doc := openDocument(t, srv, sheets.Config{})

	_, err := doc.EnsureTab(context.Background(), pipeline)

	var creation *sheets.TabCreationError
	require.True(t, errors.As(err, &creation), "got %v", err)
	assert.Equal(t, "Job Pipeline Master", creation.Tab)
	assert.Empty(t, srv.TabTitles())
}

func TestEnsureTabCreatedConcurrently(t *testing.T) {
	srv := sheetstest.New(t, spreadsheetID)
	doc := openDocument(t, srv, sheets.Config{})
	// Someone else adds the tab after this handle loaded its metadata.
	srv.AddTab("Job Pipeline Master", pipeline.Headers)

	tab, err := doc.EnsureTab(context.Background(), pipeline)

	require.NoError(t, err)
	assert.Equal(t, "Job Pipeline Master", tab.Title)
	assert.Equal(t, []string{"Job Pipeline Master"}, srv.TabTitles())
}

func TestListRowsAfterAppends(t *testing.T) {
	srv := sheetstest.New(t, spreadsheetID)
	doc := openDocument(t, srv, sheets.Config{})
	ctx := context.Background()

	tab, err := doc.EnsureTab(ctx, pipeline)
	require.NoError(t, err)

	names := []string{"Ada", "Bo", "Cy"}
	for _, name := range names {
		row, err := pipeline.Row(map[string]interface{}{"Customer Name": name, "Status": "New Lead", "Estimated Days": 3})
		require.NoError(t, err)
		require.NoError(t, doc.AppendRow(ctx, tab, row))
	}

	records, err := doc.ListRows(ctx, tab)
	require.NoError(t, err)
	require.Len(t, records, len(names))

	for i, rec := range records {
		keys := make([]string, len(rec.Fields))
		for j, f := range rec.Fields {
			keys[j] = f.Key
		}
		assert.Equal(t, pipeline.Headers, keys)
		assert.Equal(t, names[i], rec.Get("Customer Name"))
		assert.Equal(t, int64(3), rec.Get("Estimated Days"))
		assert.Equal(t, "", rec.Get("Notes"))
	}
}

func TestListRowsEmptyTab(t *testing.T) {
	srv := sheetstest.New(t, spreadsheetID)
	srv.AddTab("Job Pipeline Master")
	doc := openDocument(t, srv, sheets.Config{})

	records, err := doc.ListRows(context.Background(), &sheets.Tab{Title: "Job Pipeline Master"})

	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestRecordJSONKeepsHeaderOrder(t *testing.T) {
	rec := sheets.Record{Fields: []sheets.Field{
		{Key: "Timestamp", Value: "2026-10-15T09:00:00.000000"},
		{Key: "Customer Name", Value: "J. Doe"},
		{Key: "Address", Value: "12 Elm St"},
		{Key: "Estimated Days", Value: int64(2)},
	}}

	data, err := json.Marshal(rec)

	require.NoError(t, err)
	assert.Equal(t, `{"Timestamp":"2026-10-15T09:00:00.000000","Customer Name":"J. Doe","Address":"12 Elm St","Estimated Days":2}`, string(data))
}

func TestUpdateCellsTouchesOnlyAddressedRow(t *testing.T) {
	srv := sheetstest.New(t, spreadsheetID)
	rows := [][]string{pipeline.Headers}
	for _, name := range []string{"A", "B", "C", "D", "E"} {
		rows = append(rows, []string{"10/01/2026", name, "", "", "", "", "", "New Lead", "", "", "n-" + name})
	}
	srv.AddTab("Job Pipeline Master", rows...)
	doc := openDocument(t, srv, sheets.Config{})
	ctx := context.Background()

	tab, err := doc.EnsureTab(ctx, pipeline)
	require.NoError(t, err)

	status, _ := pipeline.Column("Status")
	require.NoError(t, doc.UpdateCells(ctx, tab, 4, []sheets.CellUpdate{{Column: status, Value: "Scheduled"}}))

	got := srv.Rows("Job Pipeline Master")
	assert.Equal(t, "New Lead", got[2][7])
	assert.Equal(t, "Scheduled", got[3][7])
	assert.Equal(t, "New Lead", got[4][7])
	assert.Equal(t, "n-C", got[3][10])
}

func TestUpdateCellsReportsServiceFailure(t *testing.T) {
	srv := sheetstest.New(t, spreadsheetID)
	srv.AddTab("Job Pipeline Master", pipeline.Headers)
	doc := openDocument(t, srv, sheets.Config{})
	ctx := context.Background()

	tab, err := doc.EnsureTab(ctx, pipeline)
	require.NoError(t, err)

	err = doc.UpdateCells(ctx, tab, 5000, []sheets.CellUpdate{{Column: 8, Value: "Scheduled"}})

	var remote *sheets.RemoteServiceError
	require.True(t, errors.As(err, &remote), "got %v", err)
	assert.Equal(t, http.StatusBadRequest, remote.Code)
	assert.Contains(t, err.Error(), "exceeds grid limits")
}

func TestRetryAppliesToReadsButNotAppends(t *testing.T) {
	srv := sheetstest.New(t, spreadsheetID)
	srv.AddTab("Job Pipeline Master", pipeline.Headers)
	cfg := sheets.Config{Retry: retry.Config{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}}
	doc := openDocument(t, srv, cfg)
	ctx := context.Background()

	tab, err := doc.EnsureTab(ctx, pipeline)
	require.NoError(t, err)

	srv.FailNext("values_get", "Job Pipeline Master", http.StatusServiceUnavailable)
	_, err = doc.ListRows(ctx, tab)
	require.NoError(t, err)

	appendsBefore := srv.Calls("append")
	srv.FailNext("append", "Job Pipeline Master", http.StatusServiceUnavailable)
	err = doc.AppendRow(ctx, tab, []interface{}{"10/15/2026", "Ada"})
	require.Error(t, err)
	assert.Equal(t, appendsBefore+1, srv.Calls("append"))
}
