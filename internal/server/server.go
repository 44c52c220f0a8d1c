// Package server exposes the cabida calculator over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/iwvelando/cabida/internal/cabida"
	"github.com/iwvelando/cabida/internal/history"
	"github.com/iwvelando/cabida/internal/metrics"
	"github.com/iwvelando/cabida/internal/review"
	"github.com/iwvelando/cabida/internal/zoning"
	"github.com/iwvelando/cabida/pkg/constants"
	"go.uber.org/zap"
)

// Options carries the collaborators of the HTTP handler. Nil fields fall back
// to defaults: a calculator over the default zone table, an in-memory history
// and a fresh metrics recorder.
type Options struct {
	Logger         *zap.Logger
	Calculator     *cabida.Calculator
	History        history.Store
	Metrics        *metrics.Recorder
	MaxRequestSize int64
	Version        string
}

type handler struct {
	logger         *zap.Logger
	calc           *cabida.Calculator
	reviewer       *review.Reviewer
	history        history.Store
	metrics        *metrics.Recorder
	maxRequestSize int64
	version        string
}

type calculateRequest struct {
	Certificate cabida.CertificateData   `json:"certificate"`
	Parameters  cabida.RequestParameters `json:"parameters"`
}

type zoneResponse struct {
	Zone zoning.ZoneType `json:"zone"`
	zoning.Rule
}

type recordSummary struct {
	ID               uuid.UUID       `json:"id"`
	CreatedAt        time.Time       `json:"createdAt"`
	ParcelID         string          `json:"parcelId"`
	ZoneType         zoning.ZoneType `json:"zoneType"`
	RequestedFloors  int             `json:"requestedFloors"`
	AllowedFloors    int             `json:"allowedFloors"`
	ComplianceStatus cabida.Status   `json:"complianceStatus"`
}

// NewHandler constructs the HTTP handler that serves the calculation API.
func NewHandler(opts Options) (http.Handler, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	calc := opts.Calculator
	if calc == nil {
		var err error
		calc, err = cabida.NewCalculator(logger, nil, cabida.DefaultRegulation())
		if err != nil {
			return nil, err
		}
	}

	store := opts.History
	if store == nil {
		var err error
		store, err = history.NewMemoryStore(constants.DefaultCacheSize)
		if err != nil {
			return nil, err
		}
	}

	rec := opts.Metrics
	if rec == nil {
		rec = metrics.New()
	}

	maxRequestSize := opts.MaxRequestSize
	if maxRequestSize <= 0 {
		maxRequestSize = constants.DefaultMaxRequestSizeBytes
	}

	version := strings.TrimSpace(opts.Version)
	if version == "" {
		version = "dev"
	}

	h := &handler{
		logger:         logger,
		calc:           calc,
		reviewer:       review.New(logger, calc),
		history:        store,
		metrics:        rec,
		maxRequestSize: maxRequestSize,
		version:        version,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(h.logRequests)

	r.Get("/health", h.handleHealth)
	r.Get("/api/version", h.handleVersion)
	r.Method(http.MethodGet, "/metrics", rec.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/calculate/cabida", h.handleCalculate)
		r.Post("/calculate/quick", h.handleQuick)
		r.Post("/validate/compliance", h.handleCompliance)
		r.Get("/zones", h.handleZones)
		r.Get("/zones/{zone}", h.handleZone)
		r.Get("/calculations", h.handleCalculations)
		r.Get("/calculations/{id}", h.handleCalculation)
	})

	return r, nil
}

func (h *handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		h.logger.Debug("request served",
			zap.String("op", "server.logRequests"),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.String("requestID", middleware.GetReqID(r.Context())),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func (h *handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) handleVersion(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) handleCalculate(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleCalculate"

	req := calculateRequest{Parameters: h.defaultParameters()}
	if !h.decodeJSON(w, r, &req, op) {
		return
	}
	h.respondCalculation(r.Context(), w, "cabida", req.Certificate, req.Parameters, op)
}

func (h *handler) handleQuick(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleQuick"

	params := h.defaultParameters()
	if !h.decodeJSON(w, r, &params, op) {
		return
	}
	h.respondCalculation(r.Context(), w, "quick", cabida.CertificateData{}, params, op)
}

func (h *handler) handleCompliance(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleCompliance"

	req := calculateRequest{Parameters: h.defaultParameters()}
	if !h.decodeJSON(w, r, &req, op) {
		return
	}

	start := time.Now()
	report, err := h.reviewer.Review(req.Certificate, req.Parameters)
	if err != nil {
		h.metrics.ObserveCalculation("compliance", metrics.OutcomeError, time.Since(start))
		h.respondErrorWithOp(w, statusForError(err), err.Error(), op)
		return
	}
	// certificate errors stop the review before any calculation runs
	if report.Result != nil {
		h.metrics.ObserveCalculation("compliance", outcome(*report.Result), time.Since(start))
	}
	h.metrics.ObserveReview(report.Score)
	h.writeJSON(w, http.StatusOK, report)
}

func (h *handler) handleZones(w http.ResponseWriter, _ *http.Request) {
	rules := h.calc.Zones().All()
	zones := make([]zoneResponse, 0, len(zoning.ZoneTypes))
	for _, zt := range zoning.ZoneTypes {
		zones = append(zones, zoneResponse{Zone: zt, Rule: rules[zt]})
	}
	h.writeJSON(w, http.StatusOK, zones)
}

func (h *handler) handleZone(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleZone"

	zt, err := zoning.ParseZoneType(chi.URLParam(r, "zone"))
	if err != nil {
		h.respondErrorWithOp(w, http.StatusNotFound, err.Error(), op)
		return
	}
	rule, err := h.calc.Zones().Lookup(zt)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusNotFound, err.Error(), op)
		return
	}
	h.writeJSON(w, http.StatusOK, zoneResponse{Zone: zt, Rule: rule})
}

func (h *handler) handleCalculations(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleCalculations"

	limit := constants.DefaultHistoryLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("invalid limit %q", raw), op)
			return
		}
		limit = min(parsed, constants.MaxHistoryLimit)
	}

	records, err := h.history.Recent(r.Context(), limit)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to list calculations: %v", err), op)
		return
	}

	summaries := make([]recordSummary, 0, len(records))
	for _, rec := range records {
		summaries = append(summaries, recordSummary{
			ID:               rec.ID,
			CreatedAt:        rec.CreatedAt,
			ParcelID:         rec.Certificate.ParcelID,
			ZoneType:         rec.Parameters.ZoneType,
			RequestedFloors:  rec.Parameters.RequestedFloors,
			AllowedFloors:    rec.Result.AllowedFloors,
			ComplianceStatus: rec.Result.ComplianceStatus,
		})
	}
	h.writeJSON(w, http.StatusOK, summaries)
}

func (h *handler) handleCalculation(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleCalculation"

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("invalid calculation id: %v", err), op)
		return
	}

	rec, err := h.history.Get(r.Context(), id)
	if errors.Is(err, history.ErrNotFound) {
		h.respondErrorWithOp(w, http.StatusNotFound, err.Error(), op)
		return
	}
	if err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to load calculation: %v", err), op)
		return
	}
	h.writeJSON(w, http.StatusOK, rec)
}

func (h *handler) defaultParameters() cabida.RequestParameters {
	return cabida.RequestParameters{MinDwellingAreaM2: h.calc.Regulation().LegalMinimumDwellingAreaM2}
}

// respondCalculation answers from history when the same request was seen
// before, otherwise calculates and stores the result.
func (h *handler) respondCalculation(ctx context.Context, w http.ResponseWriter, endpoint string,
	cert cabida.CertificateData, params cabida.RequestParameters, op string) {
	key, err := history.Key(h.calc.Fingerprint(), cert, params)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, err.Error(), op)
		return
	}

	if rec, err := h.history.Lookup(ctx, key); err == nil {
		h.metrics.ObserveCacheHit(endpoint, outcome(rec.Result))
		w.Header().Set("X-Calculation-ID", rec.ID.String())
		w.Header().Set("X-Cache", "HIT")
		h.writeJSON(w, http.StatusOK, rec.Result)
		return
	} else if !errors.Is(err, history.ErrNotFound) {
		h.logger.Warn("history lookup failed",
			zap.String("op", op),
			zap.Error(err),
		)
	}

	start := time.Now()
	result, err := h.calc.Calculate(cert, params)
	if err != nil {
		h.metrics.ObserveCalculation(endpoint, metrics.OutcomeError, time.Since(start))
		h.respondErrorWithOp(w, statusForError(err), err.Error(), op)
		return
	}
	h.metrics.ObserveCalculation(endpoint, outcome(result), time.Since(start))

	rec := history.NewRecord(key, cert, params, result)
	if err := h.history.Put(ctx, rec); err != nil {
		h.logger.Warn("failed to store calculation",
			zap.String("op", op),
			zap.String("id", rec.ID.String()),
			zap.Error(err),
		)
	}

	w.Header().Set("X-Calculation-ID", rec.ID.String())
	w.Header().Set("X-Cache", "MISS")
	h.writeJSON(w, http.StatusOK, result)
}

func outcome(result cabida.CalculationResult) string {
	if result.Approved() {
		return metrics.OutcomeApproved
	}
	return metrics.OutcomeRejected
}

// statusForError maps request errors to 400 and everything else, including
// internal consistency faults, to 500.
func statusForError(err error) int {
	var invalid *cabida.InvalidParameterError
	var unknownZone *zoning.UnknownZoneError
	if errors.Is(err, cabida.ErrMissingSurface) ||
		errors.As(err, &invalid) ||
		errors.As(err, &unknownZone) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (h *handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}, op string) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxRequestSize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request exceeds limit of %d bytes", h.maxRequestSize), op)
			return false
		}
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to decode request: %v", err), op)
		return false
	}
	return true
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, status int, msg string, op string) {
	log := h.logger.Warn
	if status >= http.StatusInternalServerError {
		log = h.logger.Error
	}
	log("cabida request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, map[string]string{"error": msg})
}

// writeJSON encodes payload before writing the header so an unencodable
// payload becomes a 500 instead of an empty body.
func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("failed to encode JSON response", zap.Error(err))
		status = http.StatusInternalServerError
		data = []byte(`{"error":"failed to encode response"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(data, '\n')); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}
