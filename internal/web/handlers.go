package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/workbook-migrate/internal/core"
	"github.com/JonMunkholm/workbook-migrate/internal/logging"
	"github.com/JonMunkholm/workbook-migrate/internal/store"
	"github.com/JonMunkholm/workbook-migrate/internal/web/views"
	"github.com/go-chi/chi/v5"
)

const (
	// heartbeatInterval keeps idle progress streams open through proxies.
	heartbeatInterval = 15 * time.Second

	// multipartMemory is the part of an upload kept in memory while parsing
	// the form; the rest spills to temporary files.
	multipartMemory = 8 << 20

	defaultRunsLimit = 20
	maxRunsLimit     = 100
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"jobs":    s.service.JobCount(),
		"imports": s.service.LimiterStatus(),
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	page := views.Page(s.service.ListTables(), s.cfg.Migration.MaxFileSize)
	if err := page.Render(r.Context(), w); err != nil {
		slog.Error("render index", "error", err)
	}
}

func (s *Server) handleListTables(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.ListTables())
}

// handleTemplate serves an empty workbook in the layout the parsers read.
func (s *Server) handleTemplate(w http.ResponseWriter, r *http.Request) {
	data, err := core.WorkbookTemplate()
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="migration-template.xlsx"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}

// runView is the JSON form of a store.Run.
type runView struct {
	JobID         string    `json:"jobId"`
	FileName      string    `json:"fileName"`
	Success       bool      `json:"success"`
	TotalRecords  int       `json:"totalRecords"`
	TotalInserted int       `json:"totalInserted"`
	TotalUpdated  int       `json:"totalUpdated"`
	TotalWarnings int       `json:"totalWarnings"`
	FailedTables  []string  `json:"failedTables"`
	StartedAt     time.Time `json:"startedAt"`
	FinishedAt    time.Time `json:"finishedAt"`
}

func newRunView(run store.Run) runView {
	failed := run.FailedTables
	if failed == nil {
		failed = []string{}
	}
	return runView{
		JobID:         run.JobID,
		FileName:      run.FileName,
		Success:       run.Success,
		TotalRecords:  run.TotalRecords,
		TotalInserted: run.TotalInserted,
		TotalUpdated:  run.TotalUpdated,
		TotalWarnings: run.TotalWarnings,
		FailedTables:  failed,
		StartedAt:     run.StartedAt,
		FinishedAt:    run.FinishedAt,
	}
}

// handleRecentRuns lists finished imports, newest first. ?limit is clamped
// to [1, 100].
func (s *Server) handleRecentRuns(w http.ResponseWriter, r *http.Request) {
	limit := defaultRunsLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = min(n, maxRunsLimit)
		}
	}

	runs, err := s.service.RecentRuns(r.Context(), limit)
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	out := make([]runView, 0, len(runs))
	for _, run := range runs {
		out = append(out, newRunView(run))
	}
	writeJSON(w, http.StatusOK, out)
}

// handleDryRun parses the uploaded workbook and opens a migration job for
// it. The upload is the multipart field "file".
func (s *Server) handleDryRun(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Migration.MaxFileSize)

	fileName, data, err := readUpload(r)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	ctx := withRequestMetadata(r.Context(), r)
	resp, err := s.service.DryRun(ctx, fileName, data)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := views.Preview(fileName, resp).Render(ctx, w); err != nil {
			slog.Error("render preview", "error", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// readUpload returns the name and contents of the "file" form field.
func readUpload(r *http.Request) (string, []byte, error) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return "", nil, uploadError(err)
	}
	if r.MultipartForm != nil {
		defer func() { _ = r.MultipartForm.RemoveAll() }()
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return "", nil, uploadError(err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return "", nil, uploadError(err)
	}
	return header.Filename, data, nil
}

func uploadError(err error) error {
	var maxBytes *http.MaxBytesError
	// mime/multipart does not always wrap the body's read error.
	if errors.As(err, &maxBytes) || strings.Contains(err.Error(), "request body too large") {
		return fmt.Errorf("%w: %v", errFileTooLarge, err)
	}
	return fmt.Errorf("%w: %v", core.ErrNoFile, err)
}

func (s *Server) handleJob(w http.ResponseWriter, r *http.Request) {
	info, err := s.service.Job(chi.URLParam(r, "jobID"))
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// handleStartImport starts the job's import in the background and answers
// 202; progress follows on the job's stream.
func (s *Server) handleStartImport(w http.ResponseWriter, r *http.Request) {
	ctx := withRequestMetadata(r.Context(), r)
	ack, err := s.service.StartImport(ctx, chi.URLParam(r, "jobID"))
	if err != nil {
		if errors.Is(err, core.ErrTooManyImports) {
			w.Header().Set("Retry-After", strconv.Itoa(int(s.cfg.Migration.MaxWaitTime.Seconds())))
		}
		respondError(w, r, err, statusFor(err))
		return
	}

	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusAccepted)
		if err := views.ImportStarted(ack).Render(ctx, w); err != nil {
			slog.Error("render import started", "error", err)
		}
		return
	}
	writeJSON(w, http.StatusAccepted, ack)
}

// handleProgress streams the job's progress events as server-sent events:
// one "progress" event per ProgressEvent, heartbeat comments while idle and
// a final "end" event when the stream closes.
func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	events, cancel, err := s.service.SubscribeProgress(jobID)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	defer cancel()

	log := logging.ForJob(r.Context(), jobID)
	rc := http.NewResponseController(w)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	fmt.Fprint(w, ": connected\n\n")
	if err := rc.Flush(); err != nil {
		log.Error("progress stream: flush unsupported", "error", err)
		return
	}

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	id := 0
	for {
		select {
		case <-r.Context().Done():
			log.Debug("progress stream: client disconnected")
			return

		case <-heartbeat.C:
			fmt.Fprint(w, ": heartbeat\n\n")
			if err := rc.Flush(); err != nil {
				return
			}

		case e, ok := <-events:
			if !ok {
				fmt.Fprint(w, "event: end\ndata: {}\n\n")
				_ = rc.Flush()
				return
			}

			data, err := json.Marshal(e)
			if err != nil {
				log.Error("progress stream: encode event", "error", err)
				continue
			}
			id++
			fmt.Fprintf(w, "id: %d\nevent: progress\ndata: %s\n\n", id, data)
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}
