// Package api exposes HTTP handlers for gyms and check-ins.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"example.com/gymcheckins/internal/auth"
	"example.com/gymcheckins/internal/domain"
)

// Handler coordinates HTTP requests with the domain service.
type Handler struct {
	service *domain.Service
	logger  *slog.Logger
}

// NewHandler builds a Handler.
func NewHandler(service *domain.Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes wires the versioned endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/v1", func(r chi.Router) {
		r.Route("/gyms", func(r chi.Router) {
			r.With(auth.RequireScope(auth.ScopeGymsWrite)).Post("/", h.createGym)
			r.Get("/search", h.searchGyms)
			r.Get("/nearby", h.nearbyGyms)
			r.Post("/{gymID}/check-ins", h.checkIn)
		})
		r.Route("/check-ins", func(r chi.Router) {
			r.With(auth.RequireScope(auth.ScopeCheckInsValidate)).Patch("/{checkInID}/validate", h.validateCheckIn)
			r.Get("/history", h.checkInHistory)
			r.Get("/metrics", h.userMetrics)
		})
	})
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) createGym(w http.ResponseWriter, r *http.Request) {
	var req CreateGymRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	gym, err := h.service.CreateGym(r.Context(), domain.CreateGymInput{
		Title:       req.Title,
		Description: req.Description,
		Phone:       req.Phone,
		Latitude:    *req.Latitude,
		Longitude:   *req.Longitude,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toGymView(*gym))
}

func (h *Handler) searchGyms(w http.ResponseWriter, r *http.Request) {
	page, ok := pageParam(w, r)
	if !ok {
		return
	}

	gyms, err := h.service.SearchGyms(r.Context(), r.URL.Query().Get("q"), page)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, GymListResponse{Gyms: toGymViews(gyms), Page: max(page, 1)})
}

func (h *Handler) nearbyGyms(w http.ResponseWriter, r *http.Request) {
	lat, ok := floatParam(w, r, "latitude")
	if !ok {
		return
	}
	lng, ok := floatParam(w, r, "longitude")
	if !ok {
		return
	}

	gyms, err := h.service.FetchNearbyGyms(r.Context(), domain.NearbyGymsInput{Latitude: lat, Longitude: lng})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, GymListResponse{Gyms: toGymViews(gyms), Page: 1})
}

func (h *Handler) checkIn(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}

	var req CheckInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	checkIn, err := h.service.CheckIn(r.Context(), domain.CheckInInput{
		UserID:        claims.Subject,
		GymID:         chi.URLParam(r, "gymID"),
		UserLatitude:  *req.Latitude,
		UserLongitude: *req.Longitude,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCheckInView(*checkIn))
}

func (h *Handler) validateCheckIn(w http.ResponseWriter, r *http.Request) {
	checkIn, err := h.service.ValidateCheckIn(r.Context(), domain.ValidateCheckInInput{
		CheckInID: chi.URLParam(r, "checkInID"),
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCheckInView(*checkIn))
}

func (h *Handler) checkInHistory(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}
	page, ok := pageParam(w, r)
	if !ok {
		return
	}

	checkIns, err := h.service.CheckInHistory(r.Context(), claims.Subject, page)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	items := make([]CheckInView, 0, len(checkIns))
	for _, ci := range checkIns {
		items = append(items, toCheckInView(ci))
	}
	writeJSON(w, http.StatusOK, CheckInListResponse{CheckIns: items, Page: max(page, 1)})
}

func (h *Handler) userMetrics(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}

	metrics, err := h.service.UserMetrics(r.Context(), claims.Subject)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, UserMetricsResponse{CheckInsCount: metrics.CheckInsCount})
}

func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, domain.ErrResourceNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrMaxDistance):
		writeError(w, http.StatusUnprocessableEntity, "max_distance", err.Error())
	case errors.Is(err, domain.ErrLateCheckInValidation):
		writeError(w, http.StatusUnprocessableEntity, "late_validation", err.Error())
	case errors.Is(err, domain.ErrMaxNumberOfCheckIns):
		writeError(w, http.StatusConflict, "max_check_ins", err.Error())
	case errors.Is(err, domain.ErrCheckInAlreadyValidated):
		writeError(w, http.StatusConflict, "already_validated", err.Error())
	default:
		h.logger.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal server error")
	}
}

func pageParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get("page"))
	if raw == "" {
		return 1, true
	}
	page, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "page must be an integer")
		return 0, false
	}
	return page, true
}

func floatParam(w http.ResponseWriter, r *http.Request, name string) (float64, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", name+" is required")
		return 0, false
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", name+" must be a number")
		return 0, false
	}
	return value, true
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
