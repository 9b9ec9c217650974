// Package sheetstest provides an in-memory stand-in for the Sheets v4 REST
// API, covering the calls the gateway makes: spreadsheet metadata, addSheet
// batch updates, and values get/append/update.
package sheetstest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"testing"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const defaultRowCount = 1000

var (
	cellRef  = regexp.MustCompile(`^([A-Z]+)([0-9]+)$`)
	rowRange = regexp.MustCompile(`^([0-9]+):([0-9]+)$`)
)

type tab struct {
	id       int64
	title    string
	rowCount int64
	colCount int64
	rows     [][]string
}

type failure struct {
	op     string
	tab    string
	status int
}

// Server is a fake Sheets API holding a single spreadsheet.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	id       string
	title    string
	tabs     []*tab
	nextID   int64
	failures []failure
	calls    map[string]int
}

// New starts a fake serving spreadsheetID and closes it when the test ends.
func New(t testing.TB, spreadsheetID string) *Server {
	s := &Server{
		id:     spreadsheetID,
		title:  "AP Business Tools",
		nextID: 100,
		calls:  make(map[string]int),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

// Options returns client options pointing the Sheets client at the fake.
func (s *Server) Options() []option.ClientOption {
	return []option.ClientOption{
		option.WithEndpoint(s.URL + "/"),
		option.WithoutAuthentication(),
	}
}

// AddTab seeds a tab with rows, as if a person had created it by hand.
func (s *Server) AddTab(title string, rows ...[]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &tab{id: s.nextID, title: title, rowCount: defaultRowCount, colCount: 26}
	s.nextID++
	for _, r := range rows {
		t.rows = append(t.rows, append([]string(nil), r...))
	}
	s.tabs = append(s.tabs, t)
}

// Rows returns a copy of every row of the tab, header included.
func (s *Server) Rows(title string) [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.find(title)
	if t == nil {
		return nil
	}
	out := make([][]string, len(t.rows))
	for i, r := range t.rows {
		out[i] = append([]string(nil), r...)
	}
	return out
}

// TabTitles lists tabs in creation order.
func (s *Server) TabTitles() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	titles := make([]string, len(s.tabs))
	for i, t := range s.tabs {
		titles[i] = t.title
	}
	return titles
}

// ColumnCount reports the grid width a tab was created with.
func (s *Server) ColumnCount(title string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t := s.find(title); t != nil {
		return t.colCount
	}
	return 0
}

// Calls reports how many requests of op were served. Ops are
// "get_spreadsheet", "add_tab", "values_get", "append" and "update".
func (s *Server) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

// FailNext makes the next op against tab answer with status. An empty tab
// matches any tab.
func (s *Server) FailNext(op, tab string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, failure{op: op, tab: tab, status: status})
}

func (s *Server) find(title string) *tab {
	for _, t := range s.tabs {
		if t.title == title {
			return t
		}
	}
	return nil
}

// injected consumes a matching failure. Callers hold s.mu.
func (s *Server) injected(op, tabTitle string) int {
	for i, f := range s.failures {
		if f.op == op && (f.tab == "" || f.tab == tabTitle) {
			s.failures = append(s.failures[:i], s.failures[i+1:]...)
			return f.status
		}
	}
	return 0
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rest, ok := strings.CutPrefix(r.URL.Path, "/v4/spreadsheets/")
	if !ok {
		writeError(w, http.StatusNotFound, "unknown path "+r.URL.Path)
		return
	}

	if id, rng, found := strings.Cut(rest, "/values/"); found {
		if id != s.id {
			writeError(w, http.StatusNotFound, "Requested entity was not found.")
			return
		}
		switch {
		case r.Method == http.MethodPost && strings.HasSuffix(rng, ":append"):
			s.appendValues(w, r, strings.TrimSuffix(rng, ":append"))
		case r.Method == http.MethodPut:
			s.updateValues(w, r, rng)
		case r.Method == http.MethodGet:
			s.getValues(w, rng)
		default:
			writeError(w, http.StatusMethodNotAllowed, "unsupported values call")
		}
		return
	}

	if id, found := strings.CutSuffix(rest, ":batchUpdate"); found && r.Method == http.MethodPost {
		if id != s.id {
			writeError(w, http.StatusNotFound, "Requested entity was not found.")
			return
		}
		s.batchUpdate(w, r)
		return
	}

	if r.Method == http.MethodGet {
		s.calls["get_spreadsheet"]++
		if status := s.injected("get_spreadsheet", ""); status != 0 {
			writeError(w, status, "injected failure")
			return
		}
		if rest != s.id {
			writeError(w, http.StatusNotFound, "Requested entity was not found.")
			return
		}
		writeJSON(w, s.spreadsheet())
		return
	}

	writeError(w, http.StatusNotFound, "unknown call")
}

func (s *Server) spreadsheet() *sheets.Spreadsheet {
	resp := &sheets.Spreadsheet{
		SpreadsheetId: s.id,
		Properties:    &sheets.SpreadsheetProperties{Title: s.title},
	}
	for i, t := range s.tabs {
		resp.Sheets = append(resp.Sheets, &sheets.Sheet{Properties: t.properties(int64(i))})
	}
	return resp
}

func (t *tab) properties(index int64) *sheets.SheetProperties {
	return &sheets.SheetProperties{
		SheetId: t.id,
		Title:   t.title,
		Index:   index,
		GridProperties: &sheets.GridProperties{
			RowCount:    t.rowCount,
			ColumnCount: t.colCount,
		},
	}
}

func (s *Server) batchUpdate(w http.ResponseWriter, r *http.Request) {
	var req sheets.BatchUpdateSpreadsheetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp := &sheets.BatchUpdateSpreadsheetResponse{SpreadsheetId: s.id}
	for _, sub := range req.Requests {
		if sub.AddSheet == nil || sub.AddSheet.Properties == nil {
			writeError(w, http.StatusBadRequest, "only addSheet requests are supported")
			return
		}
		props := sub.AddSheet.Properties
		s.calls["add_tab"]++
		if status := s.injected("add_tab", props.Title); status != 0 {
			writeError(w, status, "injected failure")
			return
		}
		if s.find(props.Title) != nil {
			writeError(w, http.StatusBadRequest,
				fmt.Sprintf("Invalid requests[0].addSheet: A sheet with the name %q already exists. Please enter another name.", props.Title))
			return
		}

		t := &tab{id: s.nextID, title: props.Title, rowCount: defaultRowCount, colCount: 26}
		s.nextID++
		if props.GridProperties != nil {
			if props.GridProperties.RowCount > 0 {
				t.rowCount = props.GridProperties.RowCount
			}
			if props.GridProperties.ColumnCount > 0 {
				t.colCount = props.GridProperties.ColumnCount
			}
		}
		s.tabs = append(s.tabs, t)
		resp.Replies = append(resp.Replies, &sheets.Response{
			AddSheet: &sheets.AddSheetResponse{Properties: t.properties(int64(len(s.tabs) - 1))},
		})
	}
	writeJSON(w, resp)
}

func (s *Server) getValues(w http.ResponseWriter, rng string) {
	title, ref := splitRange(rng)
	s.calls["values_get"]++
	if status := s.injected("values_get", title); status != 0 {
		writeError(w, status, "injected failure")
		return
	}
	t := s.find(title)
	if t == nil {
		writeError(w, http.StatusBadRequest, "Unable to parse range: "+rng)
		return
	}

	rows := t.rows
	if m := rowRange.FindStringSubmatch(ref); m != nil {
		from, _ := strconv.Atoi(m[1])
		to, _ := strconv.Atoi(m[2])
		rows = nil
		for i := from; i <= to && i <= len(t.rows); i++ {
			rows = append(rows, t.rows[i-1])
		}
	} else if ref != "" {
		writeError(w, http.StatusBadRequest, "unsupported range "+rng)
		return
	}

	writeJSON(w, &sheets.ValueRange{
		Range:          rng,
		MajorDimension: "ROWS",
		Values:         trimmed(rows),
	})
}

func (s *Server) appendValues(w http.ResponseWriter, r *http.Request, rng string) {
	title, _ := splitRange(rng)
	s.calls["append"]++
	if status := s.injected("append", title); status != 0 {
		writeError(w, status, "injected failure")
		return
	}
	t := s.find(title)
	if t == nil {
		writeError(w, http.StatusBadRequest, "Unable to parse range: "+rng)
		return
	}
	values, err := decodeValues(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	last := len(t.rows)
	for last > 0 && isBlank(t.rows[last-1]) {
		last--
	}
	t.rows = t.rows[:last]
	t.rows = append(t.rows, values...)
	if int64(len(t.rows)) > t.rowCount {
		t.rowCount = int64(len(t.rows))
	}
	writeJSON(w, &sheets.AppendValuesResponse{SpreadsheetId: s.id, TableRange: rng})
}

func (s *Server) updateValues(w http.ResponseWriter, r *http.Request, rng string) {
	title, ref := splitRange(rng)
	s.calls["update"]++
	if status := s.injected("update", title); status != 0 {
		writeError(w, status, "injected failure")
		return
	}
	t := s.find(title)
	m := cellRef.FindStringSubmatch(ref)
	if t == nil || m == nil {
		writeError(w, http.StatusBadRequest, "Unable to parse range: "+rng)
		return
	}
	values, err := decodeValues(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	col := columnNumber(m[1])
	row, _ := strconv.Atoi(m[2])
	if int64(row+len(values)-1) > t.rowCount {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("Range (%s) exceeds grid limits. Max rows: %d", rng, t.rowCount))
		return
	}
	for i, vals := range values {
		ri := row - 1 + i
		for len(t.rows) <= ri {
			t.rows = append(t.rows, nil)
		}
		for j, v := range vals {
			ci := col - 1 + j
			for len(t.rows[ri]) <= ci {
				t.rows[ri] = append(t.rows[ri], "")
			}
			t.rows[ri][ci] = v
		}
	}
	writeJSON(w, &sheets.UpdateValuesResponse{SpreadsheetId: s.id, UpdatedRange: rng})
}

func decodeValues(r *http.Request) ([][]string, error) {
	var body struct {
		Values [][]interface{} `json:"values"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return nil, err
	}
	out := make([][]string, len(body.Values))
	for i, row := range body.Values {
		out[i] = make([]string, len(row))
		for j, v := range row {
			out[i][j] = render(v)
		}
	}
	return out, nil
}

// render mimics how USER_ENTERED values come back as formatted text.
func render(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		if val {
			return "TRUE"
		}
		return "FALSE"
	default:
		return fmt.Sprint(val)
	}
}

// splitRange separates "'Tab Name'!A1" into the tab title and the cell part.
func splitRange(rng string) (string, string) {
	if strings.HasPrefix(rng, "'") {
		var title strings.Builder
		for i := 1; i < len(rng); i++ {
			if rng[i] != '\'' {
				title.WriteByte(rng[i])
				continue
			}
			if i+1 < len(rng) && rng[i+1] == '\'' {
				title.WriteByte('\'')
				i++
				continue
			}
			return title.String(), strings.TrimPrefix(rng[i+1:], "!")
		}
		return title.String(), ""
	}
	title, ref, _ := strings.Cut(rng, "!")
	return title, ref
}

func columnNumber(letters string) int {
	n := 0
	for _, c := range letters {
		n = n*26 + int(c-'A'+1)
	}
	return n
}

func isBlank(row []string) bool {
	for _, c := range row {
		if c != "" {
			return false
		}
	}
	return true
}

// trimmed drops trailing empty cells and rows, as the real API does.
func trimmed(rows [][]string) [][]interface{} {
	var out [][]interface{}
	for _, row := range rows {
		end := len(row)
		for end > 0 && row[end-1] == "" {
			end--
		}
		cells := make([]interface{}, end)
		for i := 0; i < end; i++ {
			cells[i] = row[i]
		}
		out = append(out, cells)
	}
	for len(out) > 0 && len(out[len(out)-1]) == 0 {
		out = out[:len(out)-1]
	}
	return out
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]interface{}{
			"code":    status,
			"message": message,
			"status":  http.StatusText(status),
		},
	})
}
