package reservation_api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"ms-busline/internal/fault"
	"ms-busline/internal/logger"
	"ms-busline/internal/models"
	"ms-busline/internal/reservation"
	"ms-busline/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	ReservationService *reservation.Service
	Logger             *logger.Logger
}

func (h *Handler) ListReservations(w http.ResponseWriter, r *http.Request) {
	if tripID := r.URL.Query().Get("tripId"); tripID != "" {
		list, err := h.ReservationService.ListByTrip(tripID)
		if err != nil {
			h.fail(w, "ListReservations", err)
			return
		}
		h.respond(w, http.StatusOK, list)
		return
	}

	list, err := h.ReservationService.ListAll()
	if err != nil {
		h.fail(w, "ListReservations", err)
		return
	}
	h.respond(w, http.StatusOK, list)
}

func (h *Handler) GetReservation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "reservationId")

	res, err := h.ReservationService.Get(id)
	if err != nil {
		h.fail(w, "GetReservation", err)
		return
	}
	h.respond(w, http.StatusOK, res)
}

func (h *Handler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	var req models.ReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateReservation: failed to decode request body: %v", err))
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	res, err := h.ReservationService.Reserve(req)
	if err != nil {
		h.fail(w, "CreateReservation", err)
		return
	}
	h.Logger.Info("API", fmt.Sprintf("CreateReservation: reservation %s seat %d trip %s", res.ID, res.SeatNumber, res.TripID))
	h.respond(w, http.StatusCreated, res)
}

func (h *Handler) UpdateReservation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "reservationId")

	var patch models.ReservationPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	res, err := h.ReservationService.Update(id, patch)
	if err != nil {
		h.fail(w, "UpdateReservation", err)
		return
	}
	h.respond(w, http.StatusOK, res)
}

func (h *Handler) CancelReservation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "reservationId")
	h.Logger.Info("API", fmt.Sprintf("CancelReservation: reservationId=%s", id))

	res, err := h.ReservationService.Cancel(id)
	if err != nil {
		h.fail(w, "CancelReservation", err)
		return
	}
	h.respond(w, http.StatusOK, res)
}

func (h *Handler) OccupiedSeats(w http.ResponseWriter, r *http.Request) {
	tripID := chi.URLParam(r, "tripId")

	seats, err := h.ReservationService.OccupiedSeats(tripID)
	if err != nil {
		h.fail(w, "OccupiedSeats", err)
		return
	}
	if seats == nil {
		seats = []int{}
	}
	h.respond(w, http.StatusOK, map[string]interface{}{"tripId": tripID, "occupiedSeats": seats})
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
