package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/user/internship-ingest/internal/delivery/http/request"
	"github.com/user/internship-ingest/internal/delivery/http/response"
	"github.com/user/internship-ingest/internal/entity"
	"github.com/user/internship-ingest/internal/repository"
	"github.com/user/internship-ingest/internal/usecase"
	"go.uber.org/zap"
)

const (
	defaultListingLimit = 50
	maxListingLimit     = 500
	healthCheckTimeout  = 3 * time.Second
)

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) error

type Handler struct {
	runManager  usecase.RunManager
	listingRepo repository.ListingRepository
	checks      map[string]HealthCheck
	logger      *zap.Logger
}

func NewHandler(runManager usecase.RunManager, listingRepo repository.ListingRepository, checks map[string]HealthCheck, logger *zap.Logger) *Handler {
	return &Handler{
		runManager:  runManager,
		listingRepo: listingRepo,
		checks:      checks,
		logger:      logger,
	}
}

func (h *Handler) HandleSubmitRun(w http.ResponseWriter, r *http.Request) {
	var req request.SubmitRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	runID, err := h.runManager.Submit(r.Context(), req.Query, req.Location, req.Force)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrEmptyQuery):
			h.writeJSONError(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, usecase.ErrRunRecentlyRequested):
			h.writeJSONError(w, err.Error(), http.StatusConflict)
		default:
			h.logger.Error("Failed to submit crawl run", zap.String("query", req.Query), zap.Error(err))
			h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	h.writeJSON(w, http.StatusAccepted, response.SubmitRunResponse{
		Status:  "success",
		Message: "Crawl run queued",
		RunID:   runID,
	})
}

func (h *Handler) HandleGetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	run, err := h.runManager.GetStatus(r.Context(), id)
	if err != nil {
		h.logger.Error("Failed to get crawl run", zap.String("run_id", id), zap.Error(err))
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if run.Status == entity.RunNotFound {
		h.writeJSONError(w, "Crawl run not found", http.StatusNotFound)
		return
	}

	h.writeJSON(w, http.StatusOK, response.NewRunResponse(run))
}

func (h *Handler) HandleListListings(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", defaultListingLimit)
	if err != nil || limit <= 0 {
		h.writeJSONError(w, "limit must be a positive integer", http.StatusBadRequest)
		return
	}
	if limit > maxListingLimit {
		limit = maxListingLimit
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil || offset < 0 {
		h.writeJSONError(w, "offset must be a non-negative integer", http.StatusBadRequest)
		return
	}

	listings, err := h.listingRepo.List(r.Context(), limit, offset)
	if err != nil {
		h.logger.Error("Failed to list listings", zap.Error(err))
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, response.NewListingsResponse(listings, limit, offset))
}

func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	resp := response.HealthResponse{Status: "ok", Checks: make(map[string]string, len(names))}
	status := http.StatusOK
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			h.logger.Warn("Health check failed", zap.String("check", name), zap.Error(err))
			resp.Checks[name] = err.Error()
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}
	h.writeJSON(w, status, resp)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to write JSON response", zap.Error(err))
	}
}

func (h *Handler) writeJSONError(w http.ResponseWriter, message string, status int) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
