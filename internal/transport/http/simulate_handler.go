package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	apperrors "glucoreport/internal/errors"
	"glucoreport/internal/exporter"
	"glucoreport/internal/infrastructure"
	"glucoreport/internal/simulator"
	"glucoreport/pkg/contracts/domain"
)

// SimulateHandler estimates glucose for one set of session inputs.
type SimulateHandler struct {
	exporter *exporter.Exporter
	logger   *slog.Logger
	now      func() time.Time
}

// NewSimulateHandler creates the handler. A nil exporter rejects requests
// that ask to save the session.
func NewSimulateHandler(exp *exporter.Exporter, logger *slog.Logger) *SimulateHandler {
	return &SimulateHandler{
		exporter: exp,
		logger:   infrastructure.WithComponent(logger, "simulate_handler"),
		now:      time.Now,
	}
}

// SimulateRequest is the body of POST /api/simulate.
type SimulateRequest struct {
	simulator.Inputs
	// Save also writes the session as a CSV file the report can load.
	Save bool `json:"save"`
}

// Bind implements render.Binder.
func (req *SimulateRequest) Bind(r *http.Request) error {
	return req.Inputs.Validate()
}

// SimulateResponse carries the simulated session.
type SimulateResponse struct {
	simulator.Result
	Band    domain.StatusBand `json:"band"`
	CSVPath string            `json:"csv_path,omitempty"`
}

// Simulate handles POST /api/simulate.
func (h *SimulateHandler) Simulate(w http.ResponseWriter, r *http.Request) {
	var req SimulateRequest
	if err := render.Bind(r, &req); err != nil {
		writeBindError(w, r, h.logger, err)
		return
	}

	res, err := simulator.Simulate(req.Inputs, h.now())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	resp := SimulateResponse{Result: res, Band: res.Band()}

	if req.Save {
		if h.exporter == nil {
			apperrors.WriteError(w, apperrors.ValidationFieldError("save", "session export is not configured"))
			return
		}
		path, err := h.exporter.ExportCSV("", res)
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		resp.CSVPath = path
	}

	h.logger.InfoContext(r.Context(), "session simulated",
		slog.Float64("glucose", res.Glucose),
		slog.String("band", string(resp.Band)),
		slog.Bool("saved", resp.CSVPath != ""))
	render.JSON(w, r, resp)
}
