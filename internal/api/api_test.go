package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"ap_business_tools/internal/api"
	"ap_business_tools/internal/leads"
	"ap_business_tools/internal/sheets"
	"ap_business_tools/internal/sheets/sheetstest"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const spreadsheetID = "api-test-sheet"

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type response struct {
	Success   bool                     `json:"success"`
	Message   string                   `json:"message"`
	Error     string                   `json:"error"`
	Tabs      []string                 `json:"tabs"`
	Inquiries []map[string]interface{} `json:"inquiries"`
	Jobs      []map[string]interface{} `json:"jobs"`
}

func newRouter(t *testing.T) (*api.Router, *sheetstest.Server) {
	t.Helper()
	srv := sheetstest.New(t, spreadsheetID)
	gw := sheets.NewGatewayWithOptions(sheets.Config{SpreadsheetID: spreadsheetID}, srv.Options()...)
	now := time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)
	svc := leads.NewService(gw, leads.WithClock(func() time.Time { return now }))
	return api.NewRouter(svc), srv
}

func do(t *testing.T, router http.Handler, method, path, body string) (*httptest.ResponseRecorder, response) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var resp response
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	}
	return rec, resp
}

func TestPostInquiry(t *testing.T) {
	router, srv := newRouter(t)

	rec, resp := do(t, router, http.MethodPost, "/api/inquiry",
		`{"customerName":"J. Doe","phone":"555-1212","address":"12 Elm St","jobTypes":["Interior"]}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, resp.Success)
	assert.Equal(t, "Inquiry saved to Google Sheets", resp.Message)

	rows := srv.Rows("Customer Inquiries")
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"2026-10-15T09:30:00.000000", "J. Doe", "555-1212", "", "12 Elm St", "Interior", "", "", "", "", "New"}, rows[1])

	mirror := srv.Rows("Joblist")[1]
	assert.Equal(t, "12 Elm St", mirror[0])
	assert.Equal(t, "Interior", mirror[1])
	assert.Equal(t, "Need Estimate", mirror[2])
}

func TestPostEstimate(t *testing.T) {
	router, srv := newRouter(t)

	rec, resp := do(t, router, http.MethodPost, "/api/estimate", `{"customerName":"A","jobAddress":"B","laborDays":5}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Estimate saved to Google Sheets", resp.Message)

	laborDays, _ := leads.Estimates.Column("Labor Days")
	assert.Equal(t, "5", srv.Rows("Detailed Estimates")[1][laborDays-1])
	estValue, _ := leads.Joblist.Column("Est. Value")
	assert.Equal(t, "2800", srv.Rows("Joblist")[1][estValue-1])
}

func TestGetInquiriesKeepsHeaderOrder(t *testing.T) {
	router, _ := newRouter(t)
	do(t, router, http.MethodPost, "/api/inquiry", `{"customerName":"J. Doe","phone":"555-1212"}`)

	rec, resp := do(t, router, http.MethodGet, "/api/inquiries", "")

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, resp.Inquiries, 1)
	assert.Equal(t, "J. Doe", resp.Inquiries[0]["Customer Name"])
	assert.Equal(t, "New", resp.Inquiries[0]["Status"])

	body := rec.Body.String()
	assert.Less(t, strings.Index(body, `"Timestamp"`), strings.Index(body, `"Customer Name"`))
	assert.Less(t, strings.Index(body, `"Notes"`), strings.Index(body, `"Status"`))
}

func TestGetJobsEmpty(t *testing.T) {
	router, _ := newRouter(t)

	rec, _ := do(t, router, http.MethodGet, "/api/jobs", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"jobs":[]}`, rec.Body.String())
}

func TestPostJobThenList(t *testing.T) {
	router, _ := newRouter(t)

	rec, resp := do(t, router, http.MethodPost, "/api/job", `{"customerName":"E","address":"9 Oak Ave","estimatedDays":2}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Job added to pipeline", resp.Message)

	_, resp = do(t, router, http.MethodGet, "/api/jobs", "")
	require.Len(t, resp.Jobs, 1)
	assert.Equal(t, "New Lead", resp.Jobs[0]["Status"])
	assert.Equal(t, float64(2), resp.Jobs[0]["Estimated Days"])
	assert.Equal(t, "10/15/2026", resp.Jobs[0]["Date Added"])
}

func TestPutJobUpdatesOnlyNotes(t *testing.T) {
	router, srv := newRouter(t)
	rows := [][]string{leads.Pipeline.Headers}
	for _, name := range []string{"A", "B", "C", "D", "E"} {
		rows = append(rows, []string{"10/01/2026", name, "", "", "", "", "", "New Lead", "10/20/2026", "", ""})
	}
	srv.AddTab(leads.Pipeline.Name, rows...)

	rec, resp := do(t, router, http.MethodPut, "/api/job/3", `{"notes":"called back"}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Job updated", resp.Message)

	after := srv.Rows(leads.Pipeline.Name)
	assert.Equal(t, []string{"10/01/2026", "B", "", "", "", "", "", "New Lead", "10/20/2026", "", "called back"}, after[2])
	for i, row := range after {
		if i != 2 {
			assert.Equal(t, rows[i], row, "row %d", i+1)
		}
	}
}

func TestPutJobRejectsNonIntegerRow(t *testing.T) {
	router, srv := newRouter(t)

	for _, path := range []string{"/api/job/abc", "/api/job/-1", "/api/job/2.5"} {
		rec, resp := do(t, router, http.MethodPut, path, `{"notes":"x"}`)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
		assert.False(t, resp.Success)
	}
	assert.Equal(t, 0, srv.Calls("get_spreadsheet"))
}

func TestPutJobHeaderRowIsAnError(t *testing.T) {
	router, _ := newRouter(t)

	rec, resp := do(t, router, http.MethodPut, "/api/job/1", `{"status":"Scheduled"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "header")
}

func TestInvalidPayloadIsAnError(t *testing.T) {
	router, srv := newRouter(t)

	rec, resp := do(t, router, http.MethodPost, "/api/inquiry", `{"jobTypes":"Interior"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "invalid request")
	assert.Equal(t, 0, srv.Calls("append"))
}

func TestSheetsFailureIsReportedVerbatim(t *testing.T) {
	router, srv := newRouter(t)
	srv.FailNext("get_spreadsheet", "", http.StatusForbidden)

	rec, resp := do(t, router, http.MethodGet, "/api/inquiries", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Error)
}

func TestMirrorFailureIsAnError(t *testing.T) {
	router, srv := newRouter(t)
	srv.AddTab("Joblist", leads.Joblist.Headers)
	srv.FailNext("append", "Joblist", http.StatusInternalServerError)

	rec, resp := do(t, router, http.MethodPost, "/api/inquiry", `{"customerName":"J. Doe"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, resp.Error, "Joblist mirror failed")
	assert.Len(t, srv.Rows("Customer Inquiries"), 2)
}

func TestPostSetup(t *testing.T) {
	router, srv := newRouter(t)

	for i := 0; i < 2; i++ {
		rec, resp := do(t, router, http.MethodPost, "/api/setup", "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, []string{"Customer Inquiries", "Detailed Estimates", "Job Pipeline Master", "Joblist"}, resp.Tabs)
	}
	assert.Equal(t, 4, srv.Calls("add_tab"))
}

func TestIndexHealthAndMetrics(t *testing.T) {
	router, _ := newRouter(t)

	rec, _ := do(t, router, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "AP Business Tools")

	rec, resp := do(t, router, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)

	rec, _ = do(t, router, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "apbiz_http_requests_total")
}

func TestRequestIDIsEchoed(t *testing.T) {
	router, _ := newRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Len(t, rec.Header().Get("X-Request-ID"), 36)
}
