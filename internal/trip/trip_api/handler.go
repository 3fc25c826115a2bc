package trip_api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"ms-busline/internal/fault"
	"ms-busline/internal/logger"
	"ms-busline/internal/models"
	"ms-busline/internal/trip"
	"ms-busline/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	TripService *trip.Service
	Logger      *logger.Logger
}

func (h *Handler) ListTrips(w http.ResponseWriter, r *http.Request) {
	trips, err := h.TripService.ListTrips()
	if err != nil {
		h.fail(w, "ListTrips", err)
		return
	}
	h.respond(w, http.StatusOK, trips)
}

func (h *Handler) GetTrip(w http.ResponseWriter, r *http.Request) {
	tripID := chi.URLParam(r, "tripId")
	h.Logger.Info("API", fmt.Sprintf("GetTrip: tripId=%s", tripID))

	t, err := h.TripService.GetTrip(tripID)
	if err != nil {
		h.fail(w, "GetTrip", err)
		return
	}
	h.respond(w, http.StatusOK, t)
}

func (h *Handler) CreateTrip(w http.ResponseWriter, r *http.Request) {
	var req models.TripRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateTrip: failed to decode request body: %v", err))
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	t, err := h.TripService.CreateTrip(req)
	if err != nil {
		h.fail(w, "CreateTrip", err)
		return
	}
	h.Logger.Info("API", fmt.Sprintf("CreateTrip: trip %s created with code %s", t.ID, t.Code))
	h.respond(w, http.StatusCreated, t)
}

func (h *Handler) UpdateTrip(w http.ResponseWriter, r *http.Request) {
	tripID := chi.URLParam(r, "tripId")

	var req models.TripRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("API", fmt.Sprintf("UpdateTrip: failed to decode request body: %v", err))
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	t, err := h.TripService.UpdateTrip(tripID, req)
	if err != nil {
		h.fail(w, "UpdateTrip", err)
		return
	}
	h.respond(w, http.StatusOK, t)
}

func (h *Handler) DeleteTrip(w http.ResponseWriter, r *http.Request) {
	tripID := chi.URLParam(r, "tripId")
	force := r.URL.Query().Get("force") == "true"
	h.Logger.Info("API", fmt.Sprintf("DeleteTrip: tripId=%s force=%v", tripID, force))

	var err error
	if force {
		err = h.TripService.ForceDeleteTrip(tripID)
	} else {
		err = h.TripService.DeleteTrip(tripID)
	}
	if err != nil {
		h.fail(w, "DeleteTrip", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) UpdateTripDrivers(w http.ResponseWriter, r *http.Request) {
	tripID := chi.URLParam(r, "tripId")

	var body struct {
		Drivers []string `json:"drivers"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.TripService.UpdateTripDrivers(tripID, body.Drivers); err != nil {
		h.fail(w, "UpdateTripDrivers", err)
		return
	}
	h.respond(w, http.StatusOK, utils.SuccessResponse("drivers updated", nil))
}

func (h *Handler) BulkUpdatePrices(w http.ResponseWriter, r *http.Request) {
	var req models.BulkPriceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("API", fmt.Sprintf("BulkUpdatePrices: failed to decode request body: %v", err))
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	updated, err := h.TripService.BulkUpdatePrices(req)
	if err != nil {
		h.fail(w, "BulkUpdatePrices", err)
		return
	}
	h.respond(w, http.StatusOK, map[string]int{"updated": updated})
}

// ImportTrips accepts already-parsed rows; file parsing belongs to the
// caller. Every row goes through the same validation as interactive
// creation.
func (h *Handler) ImportTrips(w http.ResponseWriter, r *http.Request) {
	var rows []models.TripRequest
	if err := json.NewDecoder(r.Body).Decode(&rows); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	result := h.TripService.ImportTrips(rows)
	h.Logger.Info("API", fmt.Sprintf("ImportTrips: created=%d failed=%d", result.Created, result.Failed))
	h.respond(w, http.StatusOK, result)
}

func (h *Handler) respond(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.Logger.Error("API", fmt.Sprintf("failed to encode response: %v", err))
	}
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	h.Logger.Error("API", fmt.Sprintf("%s: %v", op, err))
	status := utils.StatusForError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(utils.ErrorResponse(err.Error(), fault.CodeOf(err)))
}
