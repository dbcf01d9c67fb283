package rest

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ameeeetster/iga-risk-engine/internal/domain/errors"
	"github.com/ameeeetster/iga-risk-engine/internal/service/anomalydetect"
	"github.com/ameeeetster/iga-risk-engine/internal/service/orgstats"
	"github.com/ameeeetster/iga-risk-engine/internal/service/recommend"
	"github.com/ameeeetster/iga-risk-engine/internal/service/riskscoring"
)

// Handler holds the decision services behind the HTTP surface.
type Handler struct {
	scoring     riskscoring.Service
	detector    anomalydetect.Service
	recommender recommend.Service
	aggregator  orgstats.Service
	health      *HealthService
	logger      *slog.Logger
	validate    *validator.Validate
}

// NewHandler creates the API handler.
func NewHandler(
	scoring riskscoring.Service,
	detector anomalydetect.Service,
	recommender recommend.Service,
	aggregator orgstats.Service,
	health *HealthService,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		scoring:     scoring,
		detector:    detector,
		recommender: recommender,
		aggregator:  aggregator,
		health:      health,
		logger:      logger,
		validate:    validator.New(),
	}
}

// Routes registers all endpoints on a mux. Every operation is
// idempotent except the review action.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/risk/user/{id}", h.scoreUser)
	mux.HandleFunc("POST /api/v1/risk/request/{id}", h.scoreRequest)
	mux.HandleFunc("POST /api/v1/anomalies/detect/{userId}", h.detectAnomalies)
	mux.HandleFunc("GET /api/v1/anomalies/user/{id}", h.listAnomalies)
	mux.HandleFunc("POST /api/v1/anomalies/{id}/review", h.reviewAnomaly)
	mux.HandleFunc("GET /api/v1/recommendations/user/{id}", h.getRecommendations)
	mux.HandleFunc("GET /api/v1/org/{id}/risk-stats", h.orgRiskStats)
	mux.HandleFunc("POST /api/v1/org/{id}/anomaly-sweep", h.orgAnomalySweep)

	mux.HandleFunc("GET /healthz", h.healthz)
	mux.Handle("GET /metrics", promhttp.Handler())

	return mux
}

func (h *Handler) scoreUser(w http.ResponseWriter, r *http.Request) {
	assessment, err := h.scoring.ScoreUser(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, assessment)
}

func (h *Handler) scoreRequest(w http.ResponseWriter, r *http.Request) {
	assessment, err := h.scoring.ScoreRequest(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, assessment)
}

func (h *Handler) detectAnomalies(w http.ResponseWriter, r *http.Request) {
	findings, err := h.detector.DetectUserAnomalies(r.Context(), r.PathValue("userId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user_id":   r.PathValue("userId"),
		"anomalies": emptyIfNil(findings),
	})
}

func (h *Handler) listAnomalies(w http.ResponseWriter, r *http.Request) {
	findings, err := h.detector.ListUserAnomalies(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user_id":   r.PathValue("id"),
		"anomalies": emptyIfNil(findings),
	})
}

// reviewRequest is the body of the review action, the only mutating
// endpoint.
type reviewRequest struct {
	IsFalsePositive bool   `json:"is_false_positive"`
	Notes           string `json:"notes" validate:"max=500"`
}

func (h *Handler) reviewAnomaly(w http.ResponseWriter, r *http.Request) {
	anomalyID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, errors.NewValidationError("INVALID_ANOMALY_ID", "anomaly id must be a uuid"))
		return
	}

	var body reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, errors.NewValidationError("INVALID_BODY", "request body must be valid JSON"))
		return
	}
	if err := h.validate.Struct(&body); err != nil {
		writeError(w, errors.NewValidationError("INVALID_BODY", err.Error()))
		return
	}

	if err := h.detector.MarkReviewed(r.Context(), anomalyID, body.IsFalsePositive); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":             anomalyID,
		"reviewed":       true,
		"false_positive": body.IsFalsePositive,
	})
}

func (h *Handler) getRecommendations(w http.ResponseWriter, r *http.Request) {
	recs, err := h.recommender.GetRecommendations(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user_id":         r.PathValue("id"),
		"recommendations": recs,
	})
}

func (h *Handler) orgRiskStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.aggregator.GetOrganizationStats(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) orgAnomalySweep(w http.ResponseWriter, r *http.Request) {
	result, err := h.detector.SweepOrganization(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	if h.health == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	status := h.health.Check(r.Context())
	code := http.StatusOK
	if !status.Healthy {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, status)
}

func emptyIfNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
