package analytics_api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"ms-busline/internal/analytics"
	"ms-busline/internal/fault"
	"ms-busline/internal/logger"
	"ms-busline/internal/utils"

	"github.com/go-chi/chi/v5"
)

// Handler handles analytics HTTP endpoints
type Handler struct {
	Service *analytics.Service
	Logger  *logger.Logger
}

// NewHandler creates a new analytics handler
func NewHandler(service *analytics.Service, logger *logger.Logger) *Handler {
	return &Handler{Service: service, Logger: logger}
}

// RegisterRoutes registers the analytics routes on a chi router
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/trips/stats", func(r chi.Router) {
		r.Get("/analytics", h.GetTripStats)
		r.Get("/analytics/{tripId}", h.GetTripStat)
		r.Get("/revenue", h.GetRevenue)
		r.Get("/routes/top", h.GetTopRoutes)
		r.Get("/occupancy", h.GetAverageOccupancy)
	})
}

// GetTripStats returns the occupancy and revenue breakdown of every active trip.
func (h *Handler) GetTripStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Service.TripStats(r.Context())
	if err != nil {
		h.fail(w, "GetTripStats", err)
		return
	}
	sendJSONResponse(w, http.StatusOK, stats)
}

func (h *Handler) GetTripStat(w http.ResponseWriter, r *http.Request) {
	tripID := chi.URLParam(r, "tripId")

	stat, err := h.Service.TripStat(r.Context(), tripID)
	if err != nil {
		h.fail(w, "GetTripStat", err)
		return
	}
	sendJSONResponse(w, http.StatusOK, stat)
}

// GetRevenue returns total projected revenue, optionally bounded by
// start and end query parameters (YYYY-MM-DD).
func (h *Handler) GetRevenue(w http.ResponseWriter, r *http.Request) {
	startStr := r.URL.Query().Get("start")
	endStr := r.URL.Query().Get("end")

	if startStr != "" || endStr != "" {
		start, err := utils.ParseDate(startStr)
		if err != nil {
			h.fail(w, "GetRevenue", fault.Validation(fault.CodeInvalidDateRange, "invalid start date %q", startStr))
			return
		}
		end, err := utils.ParseDate(endStr)
		if err != nil {
			h.fail(w, "GetRevenue", fault.Validation(fault.CodeInvalidDateRange, "invalid end date %q", endStr))
			return
		}
		if end.Before(start) {
			h.fail(w, "GetRevenue", fault.Validation(fault.CodeInvalidDateRange, "end date before start date"))
			return
		}
		total, err := h.Service.RevenueBetween(r.Context(), start, end)
		if err != nil {
			h.fail(w, "GetRevenue", err)
			return
		}
		sendJSONResponse(w, http.StatusOK, map[string]float64{"revenue": total})
		return
	}

	total, err := h.Service.TotalRevenue(r.Context())
	if err != nil {
		h.fail(w, "GetRevenue", err)
		return
	}
	sendJSONResponse(w, http.StatusOK, map[string]float64{"revenue": total})
}

func (h *Handler) GetTopRoutes(w http.ResponseWriter, r *http.Request) {
	limit := 5
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	routes, err := h.Service.TopRoutes(r.Context(), limit)
	if err != nil {
		h.fail(w, "GetTopRoutes", err)
		return
	}
	sendJSONResponse(w, http.StatusOK, routes)
}

func (h *Handler) GetAverageOccupancy(w http.ResponseWriter, r *http.Request) {
	avg, err := h.Service.AverageOccupancy(r.Context())
	if err != nil {
		h.fail(w, "GetAverageOccupancy", err)
		return
	}
	sendJSONResponse(w, http.StatusOK, map[string]float64{"average_occupancy": avg})
}

// sendJSONResponse is a helper function to send JSON responses
func sendJSONResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	h.Logger.Error("API", fmt.Sprintf("%s: %v", op, err))
	sendJSONResponse(w, utils.StatusForError(err), utils.ErrorResponse(err.Error(), fault.CodeOf(err)))
}
