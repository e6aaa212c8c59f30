package web

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/cleanfile/internal/config"
	"github.com/JonMunkholm/cleanfile/internal/service"
	"github.com/google/uuid"
)

const dirtyCSV = "name,note\n\"  O'Brien, Pat \",\"said \"\"hi\"\"\"\n"

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{RequestTimeout: 30 * time.Second},
		Clean: config.CleanConfig{
			MaxFileSize:   1 << 20,
			MaxConcurrent: 2,
			MaxWaitTime:   time.Second,
			Workers:       2,
			RetainRuns:    10,
		},
		Rate: config.RateLimitConfig{
			Enabled:           true,
			RequestsPerMinute: 1000,
			CleanLimit:        1000,
		},
		Security: config.SecurityConfig{EnableCSP: true},
	}
}

func newTestServer(t *testing.T, mutate ...func(*config.Config)) *Server {
	t.Helper()
	cfg := testConfig()
	for _, m := range mutate {
		m(cfg)
	}
	opts := service.OptionsFromConfig(cfg.Clean)
	opts.OutputDir = t.TempDir()
	svc, err := service.New(opts, nil)
	if err != nil {
		t.Fatalf("service.New: %v", err)
	}
	s := NewServer(svc, cfg)
	t.Cleanup(func() {
		s.Shutdown(context.Background())
		svc.Close()
	})
	return s
}

// uploadRequest builds a multipart POST with the given file and fields.
// An empty filename leaves the file part out.
func uploadRequest(t *testing.T, target, filename, content string, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if filename != "" {
		part, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("CreateFormFile: %v", err)
		}
		io.WriteString(part, content)
	}
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error response: %v (body %q)", err, rec.Body.String())
	}
	return resp
}

// ============================================================================
// Clean
// ============================================================================

func TestCleanAPI(t *testing.T) {
	s := newTestServer(t)

	rec := serve(s, uploadRequest(t, "/api/clean", "customers.csv", dirtyCSV, nil))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		ID          uuid.UUID `json:"id"`
		OutputName  string    `json:"output_name"`
		Summary     string    `json:"summary"`
		DownloadURL string    `json:"download_url"`
		Report      struct {
			Total int `json:"total"`
		} `json:"report"`
		Lines []struct {
			Name  string `json:"name"`
			Count int    `json:"count"`
		} `json:"lines"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Report.Total != 7 {
		t.Errorf("total = %d, want 7", resp.Report.Total)
	}
	if !strings.HasPrefix(resp.Summary, "Total count of bad characters: 7\n") {
		t.Errorf("summary = %q", resp.Summary)
	}
	if resp.OutputName != "customers_cleaned.txt" {
		t.Errorf("output_name = %q", resp.OutputName)
	}
	if len(resp.Lines) == 0 {
		t.Error("no summary lines")
	}

	dl := serve(s, httptest.NewRequest(http.MethodGet, "/api/runs/"+resp.ID.String()+"/download", nil))
	if dl.Code != http.StatusOK {
		t.Fatalf("download status = %d", dl.Code)
	}
	if got, want := dl.Body.String(), "name\tnote\nOBrien Pat\tsaid hi\n"; got != want {
		t.Errorf("download = %q, want %q", got, want)
	}
	if cd := dl.Header().Get("Content-Disposition"); !strings.Contains(cd, "customers_cleaned.txt") {
		t.Errorf("Content-Disposition = %q", cd)
	}

	txt := serve(s, httptest.NewRequest(http.MethodGet, "/api/runs/"+resp.ID.String()+"/summary", nil))
	if txt.Body.String() != resp.Summary {
		t.Errorf("summary endpoint = %q, want %q", txt.Body.String(), resp.Summary)
	}
}

func TestCleanForm_RedirectsToRunPage(t *testing.T) {
	s := newTestServer(t)

	rec := serve(s, uploadRequest(t, "/clean", "data.txt", "Name, Full\tAmount\nACME, Inc.\t1,000\n",
		map[string]string{"preserve_header": "on", "output_name": "../../etc/passwd"}))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	loc := rec.Header().Get("Location")
	if !strings.HasPrefix(loc, "/runs/") {
		t.Fatalf("Location = %q", loc)
	}

	page := serve(s, httptest.NewRequest(http.MethodGet, loc, nil))
	if page.Code != http.StatusOK {
		t.Fatalf("run page status = %d", page.Code)
	}
	body := page.Body.String()
	for _, want := range []string{"Total count of bad characters: 2", "passwd.txt", loc + "/download"} {
		if !strings.Contains(body, want) {
			t.Errorf("run page missing %q", want)
		}
	}

	index := serve(s, httptest.NewRequest(http.MethodGet, "/", nil))
	if !strings.Contains(index.Body.String(), "data.txt") {
		t.Error("index does not list the recent run")
	}
}

func TestCleanAPI_HeaderFollowsConfig(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) { c.Clean.PreserveHeader = true })
	const input = "Name, Full\tAmount\nACME, Inc.\t1,000\n"

	tests := []struct {
		name   string
		fields map[string]string
		want   string
	}{
		{"field omitted", nil, "Name, Full\tAmount\nACME Inc.\t1000\n"},
		{"checkbox unchecked", map[string]string{"preserve_header": "false"}, "Name Full\tAmount\nACME Inc.\t1000\n"},
		{"checkbox checked", map[string]string{"preserve_header": "true"}, "Name, Full\tAmount\nACME Inc.\t1000\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(s, uploadRequest(t, "/api/clean", "data.txt", input, tt.fields))
			if rec.Code != http.StatusCreated {
				t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
			}
			var resp struct {
				ID uuid.UUID `json:"id"`
			}
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			dl := serve(s, httptest.NewRequest(http.MethodGet, "/api/runs/"+resp.ID.String()+"/download", nil))
			if got := dl.Body.String(); got != tt.want {
				t.Errorf("download = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseHeaderMode(t *testing.T) {
	tests := []struct {
		in   string
		want service.HeaderMode
	}{
		{"", service.HeaderDefault},
		{"on", service.HeaderPreserve},
		{"true", service.HeaderPreserve},
		{"false", service.HeaderClean},
		{"off", service.HeaderClean},
	}
	for _, tt := range tests {
		if got := parseHeaderMode(tt.in); got != tt.want {
			t.Errorf("parseHeaderMode(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestCleanAPI_Errors(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) { c.Clean.MaxFileSize = 64 })

	tests := []struct {
		name     string
		filename string
		content  string
		status   int
		code     string
	}{
		{"no file", "", "", http.StatusBadRequest, "FILE004"},
		{"unsupported", "notes.pdf", "x", http.StatusUnsupportedMediaType, "FILE002"},
		{"empty", "a.csv", "", http.StatusBadRequest, "FILE005"},
		{"too large", "a.csv", strings.Repeat("a,b,c\n", 50), http.StatusRequestEntityTooLarge, "FILE001"},
		{"bad workbook", "a.xlsx", "not a zip", http.StatusBadRequest, "FILE003"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(s, uploadRequest(t, "/api/clean", tt.filename, tt.content, map[string]string{"x": "y"}))
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			if resp := decodeError(t, rec); resp.Code != tt.code {
				t.Errorf("code = %q, want %q", resp.Code, tt.code)
			}
		})
	}
}

func TestCleanAPI_NotMultipart(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/clean", strings.NewReader("a,b"))
	req.Header.Set("Content-Type", "text/csv")

	rec := serve(s, req)
	if rec.Code != http.StatusBadRequest || decodeError(t, rec).Code != "FILE004" {
		t.Errorf("status = %d, body %s", rec.Code, rec.Body.String())
	}
}

// ============================================================================
// Runs and stats
// ============================================================================

func TestRunNotFound(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/api/runs/not-a-uuid", "/api/runs/" + uuid.NewString(), "/api/runs/" + uuid.NewString() + "/download"} {
		rec := serve(s, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s: status = %d, want 404", path, rec.Code)
			continue
		}
		if code := decodeError(t, rec).Code; code != "RUN002" {
			t.Errorf("%s: code = %q, want RUN002", path, code)
		}
	}

	page := serve(s, httptest.NewRequest(http.MethodGet, "/runs/"+uuid.NewString(), nil))
	if page.Code != http.StatusNotFound {
		t.Errorf("page status = %d, want 404", page.Code)
	}
	if ct := page.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("page Content-Type = %q", ct)
	}
}

func TestStatsAndRuns(t *testing.T) {
	s := newTestServer(t)
	for i := 0; i < 2; i++ {
		if rec := serve(s, uploadRequest(t, "/api/clean", "a.csv", dirtyCSV, nil)); rec.Code != http.StatusCreated {
			t.Fatalf("clean status = %d", rec.Code)
		}
	}

	var stats struct {
		Runs    int    `json:"runs"`
		Total   int    `json:"total"`
		Summary string `json:"summary"`
	}
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	if err := json.NewDecoder(rec.Body).Decode(&stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.Runs != 2 || stats.Total != 14 || stats.Summary != "Total count of bad characters: 14" {
		t.Errorf("stats = %+v", stats)
	}

	var runs []json.RawMessage
	rec = serve(s, httptest.NewRequest(http.MethodGet, "/api/runs", nil))
	if err := json.NewDecoder(rec.Body).Decode(&runs); err != nil || len(runs) != 2 {
		t.Errorf("runs = %d, %v", len(runs), err)
	}
}

func TestHistoryDisabled(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/api/history", "/api/history/totals", "/api/history/" + uuid.NewString()} {
		rec := serve(s, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusNotImplemented {
			t.Errorf("%s: status = %d, want 501", path, rec.Code)
			continue
		}
		if code := decodeError(t, rec).Code; code != "RUN005" {
			t.Errorf("%s: code = %q", path, code)
		}
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("healthz = %d %s", rec.Code, rec.Body.String())
	}
}

// ============================================================================
// Middleware wiring
// ============================================================================

func TestAPIKeyRequired(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) {
		c.Security.RequireAPIKey = true
		c.Security.APIKeys = []string{"secret"}
	})

	tests := []struct {
		key    string
		status int
	}{
		{"", http.StatusUnauthorized},
		{"wrong", http.StatusForbidden},
		{"secret", http.StatusOK},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
		if tt.key != "" {
			req.Header.Set("X-API-Key", tt.key)
		}
		if rec := serve(s, req); rec.Code != tt.status {
			t.Errorf("key %q: status = %d, want %d", tt.key, rec.Code, tt.status)
		}
	}

	if rec := serve(s, httptest.NewRequest(http.MethodGet, "/", nil)); rec.Code != http.StatusOK {
		t.Errorf("pages should not need a key, got %d", rec.Code)
	}
}

func TestCleanRateLimit(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) { c.Rate.CleanLimit = 1 })

	if rec := serve(s, uploadRequest(t, "/api/clean", "a.csv", "a,b\n", nil)); rec.Code != http.StatusCreated {
		t.Fatalf("first clean status = %d", rec.Code)
	}
	rec := serve(s, uploadRequest(t, "/api/clean", "a.csv", "a,b\n", nil))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second clean status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After")
	}
	if code := decodeError(t, rec).Code; code != "RATE001" {
		t.Errorf("code = %q, want RATE001", code)
	}

	if rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/stats", nil)); rec.Code != http.StatusOK {
		t.Errorf("other routes limited too: %d", rec.Code)
	}
}

func TestSecurityHeaders(t *testing.T) {
	on := newTestServer(t)
	rec := serve(on, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" || rec.Header().Get("X-Frame-Options") != "DENY" {
		t.Errorf("headers = %v", rec.Header())
	}
	if rec.Header().Get("Content-Security-Policy") == "" {
		t.Error("CSP missing")
	}

	off := newTestServer(t, func(c *config.Config) { c.Security.EnableCSP = false })
	rec = serve(off, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Header().Get("Content-Security-Policy") != "" {
		t.Error("CSP set while disabled")
	}
}
