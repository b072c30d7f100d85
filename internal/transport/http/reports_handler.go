package http

import (
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apperrors "glucoreport/internal/errors"
	"glucoreport/internal/infrastructure"
	"glucoreport/internal/operations"
	"glucoreport/internal/services"
)

// DefaultMaxUploadBytes bounds a report request body when none is configured.
const DefaultMaxUploadBytes = 32 << 20

// multipartMemory is the part of an upload kept in memory; the rest spills
// to temporary files.
const multipartMemory = 8 << 20

// ReportsHandler handles report run requests.
type ReportsHandler struct {
	service   ReportServiceInterface
	logger    *slog.Logger
	maxUpload int64
}

// NewReportsHandler creates a reports handler. maxUpload <= 0 uses
// DefaultMaxUploadBytes.
func NewReportsHandler(service ReportServiceInterface, maxUpload int64, logger *slog.Logger) *ReportsHandler {
	if maxUpload <= 0 {
		maxUpload = DefaultMaxUploadBytes
	}
	return &ReportsHandler{
		service:   service,
		logger:    infrastructure.WithComponent(logger, "reports_handler"),
		maxUpload: maxUpload,
	}
}

// ReportRequest is the JSON body of POST /api/reports.
type ReportRequest struct {
	Paths       []string `json:"paths"`
	UseExamples bool     `json:"use_examples"`
	Title       string   `json:"title"`
	PDF         bool     `json:"pdf"`
}

// Bind implements render.Binder.
func (req *ReportRequest) Bind(r *http.Request) error {
	req.Title = strings.TrimSpace(req.Title)
	for i, p := range req.Paths {
		req.Paths[i] = strings.TrimSpace(p)
	}
	return nil
}

// SubmitResponse is returned for an accepted run.
type SubmitResponse struct {
	RunID       string `json:"run_id"`
	StatusURL   string `json:"status_url"`
	DocumentURL string `json:"document_url"`
}

// Routes returns a chi router for the report endpoints.
func (h *ReportsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Submit)
	r.Get("/", h.List)
	r.Get("/{id}", h.Status)
	r.Get("/{id}/document", h.Document)
	return r
}

// Submit handles POST /api/reports.
func (h *ReportsHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)

	req, err := h.decodeSubmit(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			apperrors.WriteError(w, apperrors.New(http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE",
				"Request body exceeds "+strconv.FormatInt(h.maxUpload, 10)+" bytes"))
			return
		}
		apperrors.WriteError(w, apperrors.InvalidRequestWithError(err))
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	runID, err := h.service.Submit(ctx, req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.logger.InfoContext(ctx, "report run accepted",
		slog.String("run_id", runID),
		slog.Int("uploads", len(req.Uploads)),
		slog.Int("paths", len(req.Paths)))

	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, SubmitResponse{
		RunID:       runID,
		StatusURL:   "/api/reports/" + runID,
		DocumentURL: "/api/reports/" + runID + "/document",
	})
}

// decodeSubmit reads either a multipart upload or a JSON body.
func (h *ReportsHandler) decodeSubmit(r *http.Request) (services.SubmitRequest, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			return services.SubmitRequest{}, err
		}
		form := r.MultipartForm
		req := services.SubmitRequest{
			Uploads:     form.File["files"],
			Title:       strings.TrimSpace(r.FormValue("title")),
			PDF:         formBool(r.FormValue("pdf")),
			UseExamples: formBool(r.FormValue("use_examples")),
		}
		return req, nil
	}

	var body ReportRequest
	if err := render.Bind(r, &body); err != nil {
		return services.SubmitRequest{}, err
	}
	return services.SubmitRequest{
		Paths:       body.Paths,
		UseExamples: body.UseExamples,
		Title:       body.Title,
		PDF:         body.PDF,
	}, nil
}

func formBool(v string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	return err == nil && b
}

// List handles GET /api/reports.
func (h *ReportsHandler) List(w http.ResponseWriter, r *http.Request) {
	runs := h.service.Runs()
	if runs == nil {
		runs = []operations.RunSnapshot{}
	}
	render.JSON(w, r, map[string]interface{}{
		"runs":  runs,
		"count": len(runs),
	})
}

// Status handles GET /api/reports/{id}.
func (h *ReportsHandler) Status(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.Status(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	render.JSON(w, r, snap)
}

// Document handles GET /api/reports/{id}/document. With ?format=pdf the
// PDF rendition is served instead of the HTML report.
func (h *ReportsHandler) Document(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "id")

	if strings.EqualFold(r.URL.Query().Get("format"), "pdf") {
		snap, err := h.service.Status(runID)
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		if snap.PDFPath == "" {
			writeError(w, r, h.logger, services.ErrReportNotReady)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		http.ServeFile(w, r, snap.PDFPath)
		return
	}

	path, err := h.service.DocumentPath(runID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	http.ServeFile(w, r, path)
}
