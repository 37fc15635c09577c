package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/workbook-migrate/internal/client"
	"github.com/JonMunkholm/workbook-migrate/internal/config"
	"github.com/JonMunkholm/workbook-migrate/internal/core"
	_ "github.com/JonMunkholm/workbook-migrate/internal/core/tables"
	"github.com/JonMunkholm/workbook-migrate/internal/record"
	"github.com/JonMunkholm/workbook-migrate/internal/store"
	"github.com/JonMunkholm/workbook-migrate/internal/web"
	"github.com/JonMunkholm/workbook-migrate/internal/workbook/workbooktest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{RequestTimeout: 10 * time.Second},
		Migration: config.MigrationConfig{
			MaxFileSize:   5 << 20,
			MaxConcurrent: 2,
			MaxWaitTime:   time.Second,
		},
		Security: config.SecurityConfig{EnableCSP: true},
	}
}

type fixture struct {
	server  *web.Server
	service *core.Service
	mem     *store.Memory
}

func newFixture(t *testing.T, mutate func(*config.Config)) *fixture {
	t.Helper()
	cfg := testConfig()
	if mutate != nil {
		mutate(cfg)
	}

	mem := store.NewMemory()
	svc, err := core.NewService(mem, mem, core.Options{
		MaxConcurrent: cfg.Migration.MaxConcurrent,
		MaxWait:       cfg.Migration.MaxWaitTime,
	})
	require.NoError(t, err)

	srv := web.NewServer(svc, cfg)
	t.Cleanup(func() {
		_ = srv.Shutdown(context.Background())
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = svc.WaitForImports(ctx)
	})
	return &fixture{server: srv, service: svc, mem: mem}
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.server.Router().ServeHTTP(rec, req)
	return rec
}

func uploadRequest(t *testing.T, fileName string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", fileName)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/migration/dry-run", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) web.ErrorResponse {
	t.Helper()
	var resp web.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp), rec.Body.String())
	return resp
}

func TestHealthz(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	assert.Contains(t, rec.Body.String(), `"maxConcurrent":2`)
}

func TestSecurityHeaders(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))
}

func TestIndex(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.do(httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `hx-post="/api/migration/dry-run"`)
	assert.Contains(t, body, "Google Reviews")
	assert.Contains(t, body, "Maximum size 5 MB")
}

func TestStaticScript(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.do(httptest.NewRequest(http.MethodGet, "/static/app.js", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "EventSource")
}

func TestListTables(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/migration/tables", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var tables []core.TableInfo
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&tables))
	require.Len(t, tables, len(record.ImportOrder))
	for i, want := range record.ImportOrder {
		assert.Equal(t, want, tables[i].Key)
		assert.Equal(t, i+1, tables[i].Position)
	}
	assert.Equal(t, record.CashPosition, tables[7].Key)
	assert.Equal(t, record.Marketing, tables[10].Key)
}

func TestTemplateDownload(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/migration/template", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "migration-template.xlsx")
	// xlsx files are zip archives.
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")))
}

func TestDryRun_JSON(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.do(uploadRequest(t, "weekly.xlsx", workbooktest.Full().Bytes(t)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp core.DryRunResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.NotEmpty(t, resp.JobID)
	assert.Equal(t, 19, resp.Preview.TotalRecords)
	assert.Len(t, resp.Preview.Tables, 11)
	assert.Zero(t, f.mem.Count(store.Schema{Name: "weekly_financials"}))

	rec = f.do(httptest.NewRequest(http.MethodGet, "/api/migration/"+resp.JobID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var info core.JobInfo
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&info))
	assert.Equal(t, core.JobPreviewed, info.State)
	assert.Equal(t, "weekly.xlsx", info.FileName)
}

func TestDryRun_HTMX(t *testing.T) {
	f := newFixture(t, nil)
	req := uploadRequest(t, "weekly.xlsx", workbooktest.HappyPath().Bytes(t))
	req.Header.Set("HX-Request", "true")
	rec := f.do(req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	body := rec.Body.String()
	assert.Contains(t, body, "Preview of weekly.xlsx")
	assert.Contains(t, body, "/import")
}

func TestDryRun_Errors(t *testing.T) {
	tests := []struct {
		name   string
		req    func(t *testing.T) *http.Request
		limit  int64
		status int
		code   string
	}{
		{
			name: "no file field",
			req: func(t *testing.T) *http.Request {
				req := httptest.NewRequest(http.MethodPost, "/api/migration/dry-run", strings.NewReader(""))
				req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
				return req
			},
			status: http.StatusBadRequest,
			code:   "WB003",
		},
		{
			name: "empty upload",
			req: func(t *testing.T) *http.Request {
				return uploadRequest(t, "empty.xlsx", nil)
			},
			status: http.StatusBadRequest,
			code:   "WB003",
		},
		{
			name: "not a workbook",
			req: func(t *testing.T) *http.Request {
				return uploadRequest(t, "notes.txt", []byte("just some text"))
			},
			status: http.StatusUnprocessableEntity,
			code:   "WB001",
		},
		{
			name: "too large",
			req: func(t *testing.T) *http.Request {
				return uploadRequest(t, "weekly.xlsx", workbooktest.Full().Bytes(t))
			},
			limit:  512,
			status: http.StatusRequestEntityTooLarge,
			code:   "WB002",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, func(cfg *config.Config) {
				if tt.limit > 0 {
					cfg.Migration.MaxFileSize = tt.limit
				}
			})
			rec := f.do(tt.req(t))

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, decodeError(t, rec).Code)
			assert.Zero(t, f.service.JobCount())
		})
	}
}

func TestDryRun_HTMXError(t *testing.T) {
	f := newFixture(t, nil)
	req := uploadRequest(t, "notes.txt", []byte("nope"))
	req.Header.Set("HX-Request", "true")
	rec := f.do(req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "#alerts", rec.Header().Get("HX-Retarget"))
	assert.Contains(t, rec.Body.String(), `role="alert"`)
	assert.Contains(t, rec.Body.String(), "WB001")
}

func TestUnknownJob(t *testing.T) {
	f := newFixture(t, nil)

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/api/migration/nope", nil),
		httptest.NewRequest(http.MethodPost, "/api/migration/nope/import", nil),
		httptest.NewRequest(http.MethodGet, "/api/migration/nope/progress", nil),
	} {
		rec := f.do(req)
		assert.Equal(t, http.StatusNotFound, rec.Code, req.URL.Path)
		assert.Equal(t, "JOB001", decodeError(t, rec).Code, req.URL.Path)
	}
}

func TestImportOverHTTP(t *testing.T) {
	f := newFixture(t, nil)
	ts := httptest.NewServer(f.server.Router())
	t.Cleanup(ts.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	c := client.NewController(client.NewHTTPBackend(ts.URL))
	require.NoError(t, c.Preview(ctx, "weekly.xlsx", workbooktest.Full().Bytes(t)))
	jobID := c.Snapshot().JobID

	report, err := c.Import(ctx)
	require.NoError(t, err)
	assert.True(t, report.Success)
	assert.Equal(t, 19, report.TotalInserted)
	assert.Equal(t, client.StateComplete, c.Snapshot().State)

	// A job imports once.
	resp, err := http.Post(ts.URL+"/api/migration/"+jobID+"/import", "", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// The run log is written after the terminal event; wait for it.
	require.Eventually(t, func() bool {
		rec := f.do(httptest.NewRequest(http.MethodGet, "/api/migration/runs?limit=5", nil))
		return strings.Contains(rec.Body.String(), jobID)
	}, 2*time.Second, 10*time.Millisecond)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/migration/"+jobID, nil))
	var info core.JobInfo
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&info))
	assert.Equal(t, core.JobComplete, info.State)
	require.NotNil(t, info.Result)
	assert.Equal(t, 19, info.Result.TotalInserted)
}

func TestStartImport_HTMX(t *testing.T) {
	f := newFixture(t, nil)
	resp, err := f.service.DryRun(context.Background(), "weekly.xlsx", workbooktest.HappyPath().Bytes(t))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/migration/"+resp.JobID+"/import", nil)
	req.Header.Set("HX-Request", "true")
	rec := f.do(req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Contains(t, rec.Body.String(), `data-job-id="`+resp.JobID+`"`)
	assert.Contains(t, rec.Body.String(), "/progress")
}

func TestProgressStream(t *testing.T) {
	f := newFixture(t, nil)
	ts := httptest.NewServer(f.server.Router())
	t.Cleanup(ts.Close)

	resp, err := f.service.DryRun(context.Background(), "weekly.xlsx", workbooktest.HappyPath().Bytes(t))
	require.NoError(t, err)
	_, err = f.service.StartImport(context.Background(), resp.JobID)
	require.NoError(t, err)

	// Subscribing after the import may only see the terminal event; the
	// stream still ends with it followed by "end".
	require.Eventually(t, func() bool {
		info, err := f.service.Job(resp.JobID)
		return err == nil && info.State == core.JobComplete
	}, 5*time.Second, 10*time.Millisecond)

	sse, err := http.Get(ts.URL + "/api/migration/" + resp.JobID + "/progress")
	require.NoError(t, err)
	defer sse.Body.Close()
	assert.Equal(t, "text/event-stream", sse.Header.Get("Content-Type"))

	var buf bytes.Buffer
	_, err = buf.ReadFrom(sse.Body)
	require.NoError(t, err)
	body := buf.String()

	assert.True(t, strings.HasPrefix(body, ": connected\n\n"))
	assert.Contains(t, body, "event: progress\ndata: {\"phase\":\"complete\"")
	assert.True(t, strings.HasSuffix(body, "event: end\ndata: {}\n\n"))
}

func TestRecentRuns_Empty(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/migration/runs?limit=abc", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestAPIKeyAuth(t *testing.T) {
	f := newFixture(t, func(cfg *config.Config) {
		cfg.Security.RequireAPIKey = true
		cfg.Security.APIKeys = []string{"k1", "k2"}
	})

	tests := []struct {
		name   string
		key    string
		status int
		code   string
	}{
		{"missing", "", http.StatusUnauthorized, "AUTH001"},
		{"wrong", "k3", http.StatusForbidden, "AUTH002"},
		{"valid", "k2", http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/migration/tables", nil)
			if tt.key != "" {
				req.Header.Set("X-API-Key", tt.key)
			}
			rec := f.do(req)
			assert.Equal(t, tt.status, rec.Code)
			if tt.code != "" {
				assert.Equal(t, tt.code, decodeError(t, rec).Code)
			}
		})
	}

	// Pages and health checks stay open.
	assert.Equal(t, http.StatusOK, f.do(httptest.NewRequest(http.MethodGet, "/healthz", nil)).Code)
}

func TestRateLimit(t *testing.T) {
	f := newFixture(t, func(cfg *config.Config) {
		cfg.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 2, DryRunLimit: 1}
	})

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, f.do(httptest.NewRequest(http.MethodGet, "/healthz", nil)).Code)
	}
	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/migration/tables", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Equal(t, "RATE001", decodeError(t, rec).Code)

	// Another client has its own budget.
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.RemoteAddr = "198.51.100.7:4000"
	assert.Equal(t, http.StatusOK, f.do(req).Code)
}

func TestRateLimit_DryRun(t *testing.T) {
	f := newFixture(t, func(cfg *config.Config) {
		cfg.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 100, DryRunLimit: 1}
	})
	data := workbooktest.HappyPath().Bytes(t)

	assert.Equal(t, http.StatusOK, f.do(uploadRequest(t, "a.xlsx", data)).Code)
	assert.Equal(t, http.StatusTooManyRequests, f.do(uploadRequest(t, "b.xlsx", data)).Code)
	assert.Equal(t, http.StatusOK, f.do(httptest.NewRequest(http.MethodGet, "/api/migration/tables", nil)).Code)
}
