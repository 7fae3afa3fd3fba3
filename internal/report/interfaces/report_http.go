package interfaces

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"epias-report/internal/auth"
	"epias-report/internal/epias"
	"epias-report/internal/observability/metrics"
	"epias-report/internal/report/application"
	report "epias-report/internal/report/domain"
	"epias-report/internal/report/infrastructure/export"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypePDF  = "application/pdf"
)

// ReportGenerator runs a report.
type ReportGenerator interface {
	Generate(ctx context.Context, req application.Request) (*application.Report, error)
}

// ReportHandler serves POST /api/v1/reports. Only one run executes at a time.
type ReportHandler struct {
	generator ReportGenerator
	logger    *log.Logger
	username  string
	password  string
	running   sync.Mutex
	now       func() time.Time
}

// HandlerOption configures a ReportHandler.
type HandlerOption func(*ReportHandler)

// WithDefaultCredentials is used when the request body carries no credentials.
func WithDefaultCredentials(username, password string) HandlerOption {
	return func(h *ReportHandler) {
		h.username = username
		h.password = password
	}
}

// WithHandlerLogger sets the handler logger.
func WithHandlerLogger(logger *log.Logger) HandlerOption {
	return func(h *ReportHandler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// NewReportHandler constructs a handler.
func NewReportHandler(generator ReportGenerator, opts ...HandlerOption) (*ReportHandler, error) {
	if generator == nil {
		return nil, errors.New("report handler: nil generator")
	}
	h := &ReportHandler{generator: generator, logger: log.Default(), now: time.Now}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

type reportRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Quarter  int    `json:"quarter"`
	Year     int    `json:"year"`
}

func (h *ReportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = "xlsx"
	}
	if format != "xlsx" && format != "pdf" {
		http.Error(w, "unsupported format", http.StatusBadRequest)
		return
	}

	var body reportRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if body.Username == "" && body.Password == "" {
		body.Username, body.Password = h.username, h.password
	}

	if !h.running.TryLock() {
		http.Error(w, "a report run is already in progress", http.StatusConflict)
		return
	}
	defer h.running.Unlock()

	runID := uuid.NewString()
	req := application.Request{
		RunID:    runID,
		Username: body.Username,
		Password: body.Password,
		Progress: func(msg string) {
			h.logger.Printf("report %s: %s", runID, msg)
		},
	}
	if body.Quarter != 0 || body.Year != 0 {
		sel := report.PreviousQuarter(h.now())
		if body.Quarter != 0 {
			sel.Quarter = body.Quarter
		}
		if body.Year != 0 {
			sel.Year = body.Year
		}
		req.Selector = &sel
	}
	h.logger.Printf("report %s: requested by %q format=%s", runID, auth.SubjectFromContext(r.Context()), format)

	rep, err := h.generator.Generate(r.Context(), req)
	if err != nil {
		respondReportError(w, err)
		return
	}
	w.Header().Set("X-Report-Run-ID", rep.RunID)

	switch format {
	case "pdf":
		data, err := export.BuildSummaryPDF(rep.Selector, rep.Summary, h.now())
		if err != nil {
			metrics.IncReportExport("pdf", metrics.ResultError)
			h.logger.Printf("report %s: pdf error: %v", runID, err)
			http.Error(w, "export pdf error", http.StatusInternalServerError)
			return
		}
		metrics.IncReportExport("pdf", metrics.ResultSuccess)
		writeAttachment(w, contentTypePDF, rep.Selector.SummaryFileName(), data)
	default:
		writeAttachment(w, contentTypeXLSX, rep.FileName, rep.Workbook)
	}
}

func writeAttachment(w http.ResponseWriter, contentType, filename string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func respondReportError(w http.ResponseWriter, err error) {
	var authErr *epias.AuthError
	switch {
	case errors.Is(err, report.ErrInvalidQuarter), errors.Is(err, report.ErrInvalidYear):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, epias.ErrMissingCredentials):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.As(err, &authErr):
		http.Error(w, authErr.Error(), http.StatusUnauthorized)
	case errors.Is(err, context.Canceled):
		http.Error(w, "request canceled", http.StatusServiceUnavailable)
	default:
		http.Error(w, "report generation error", http.StatusInternalServerError)
	}
}
