package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/JonMunkholm/workbook-migrate/internal/core"
)

// maxEventSize bounds one server-sent event; the terminal event carries the
// whole MigrationResult.
const maxEventSize = 4 << 20

// APIError is a non-2xx response from the migration API.
type APIError struct {
	StatusCode int
	Code       string `json:"code"`
	Message    string `json:"message"`
	Action     string `json:"action"`
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("migration api: %d %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("migration api: %s (%s)", e.Message, e.Code)
}

// HTTPBackend talks to a migration server.
type HTTPBackend struct {
	base   string
	client *http.Client
	apiKey string
}

// HTTPOption configures an HTTPBackend.
type HTTPOption func(*HTTPBackend)

// WithHTTPClient sets the client used for requests. It should not impose a
// total timeout, or long progress streams get cut off.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(b *HTTPBackend) { b.client = c }
}

// WithAPIKey sends key in the X-API-Key header.
func WithAPIKey(key string) HTTPOption {
	return func(b *HTTPBackend) { b.apiKey = key }
}

// NewHTTPBackend creates a backend for the server at baseURL.
func NewHTTPBackend(baseURL string, opts ...HTTPOption) *HTTPBackend {
	b := &HTTPBackend{
		base:   strings.TrimRight(baseURL, "/"),
		client: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *HTTPBackend) DryRun(ctx context.Context, fileName string, data []byte) (*core.DryRunResponse, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", fileName)
	if err != nil {
		return nil, fmt.Errorf("dry run: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("dry run: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("dry run: %w", err)
	}

	req, err := b.newRequest(ctx, http.MethodPost, "/api/migration/dry-run", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var resp core.DryRunResponse
	if err := b.do(req, http.StatusOK, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (b *HTTPBackend) StartImport(ctx context.Context, jobID string) (*core.ImportAck, error) {
	req, err := b.newRequest(ctx, http.MethodPost, "/api/migration/"+url.PathEscape(jobID)+"/import", nil)
	if err != nil {
		return nil, err
	}

	var ack core.ImportAck
	if err := b.do(req, http.StatusAccepted, &ack); err != nil {
		return nil, err
	}
	return &ack, nil
}

func (b *HTTPBackend) Progress(ctx context.Context, jobID string) (<-chan core.ProgressEvent, error) {
	req, err := b.newRequest(ctx, http.MethodGet, "/api/migration/"+url.PathEscape(jobID)+"/progress", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("progress: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, decodeAPIError(resp)
	}

	out := make(chan core.ProgressEvent)
	go func() {
		defer close(out)
		defer resp.Body.Close()
		readEvents(ctx, resp.Body, out)
	}()
	return out, nil
}

// readEvents decodes "progress" server-sent events from r until a terminal
// event, the end of the stream, or ctx is done.
func readEvents(ctx context.Context, r io.Reader, out chan<- core.ProgressEvent) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxEventSize)

	var event string
	var data strings.Builder
	for sc.Scan() {
		line := sc.Text()
		switch {
		case line == "":
			if event == "progress" && data.Len() > 0 {
				var e core.ProgressEvent
				if err := json.Unmarshal([]byte(data.String()), &e); err == nil {
					select {
					case out <- e:
					case <-ctx.Done():
						return
					}
					if e.Terminal() {
						return
					}
				}
			}
			event = ""
			data.Reset()
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}
}

func (b *HTTPBackend) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, b.base+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if b.apiKey != "" {
		req.Header.Set("X-API-Key", b.apiKey)
	}
	return req, nil
}

func (b *HTTPBackend) do(req *http.Request, want int, v any) error {
	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		return decodeAPIError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", req.Method, req.URL.Path, err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(body))
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
	}
	return apiErr
}
