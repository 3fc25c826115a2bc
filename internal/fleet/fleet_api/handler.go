package fleet_api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"ms-busline/internal/fault"
	"ms-busline/internal/fleet"
	"ms-busline/internal/logger"
	"ms-busline/internal/models"
	"ms-busline/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	FleetService *fleet.Service
	Logger       *logger.Logger
}

type busRequest struct {
	Plate        string `json:"plate"`
	SeatCount    int    `json:"seat_count"`
	LayoutRows   int    `json:"layout_rows"`
	LayoutPerRow int    `json:"layout_seats_per_row"`
	AisleAfter   []int  `json:"aisle_after"`
	Unusable     []int  `json:"unusable_seats"`
}

func (h *Handler) ListBuses(w http.ResponseWriter, r *http.Request) {
	buses, err := h.FleetService.ListBuses()
	if err != nil {
		h.fail(w, "ListBuses", err)
		return
	}
	h.respond(w, http.StatusOK, buses)
}

func (h *Handler) GetBus(w http.ResponseWriter, r *http.Request) {
	busID := chi.URLParam(r, "busId")

	bus, err := h.FleetService.GetBus(busID)
	if err != nil {
		h.fail(w, "GetBus", err)
		return
	}
	h.respond(w, http.StatusOK, bus)
}

func (h *Handler) CreateBus(w http.ResponseWriter, r *http.Request) {
	var req busRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateBus: failed to decode request body: %v", err))
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	layout := models.SeatLayout{
		Rows:          req.LayoutRows,
		SeatsPerRow:   req.LayoutPerRow,
		AisleAfter:    req.AisleAfter,
		UnusableSeats: req.Unusable,
	}
	bus, err := h.FleetService.RegisterBus(req.Plate, req.SeatCount, layout)
	if err != nil {
		h.fail(w, "CreateBus", err)
		return
	}
	h.Logger.Info("API", fmt.Sprintf("CreateBus: bus %s registered with plate %s", bus.ID, bus.Plate))
	h.respond(w, http.StatusCreated, bus)
}

func (h *Handler) UpdateBus(w http.ResponseWriter, r *http.Request) {
	busID := chi.URLParam(r, "busId")

	var patch models.BusPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	bus, err := h.FleetService.UpdateBus(busID, patch)
	if err != nil {
		h.fail(w, "UpdateBus", err)
		return
	}
	h.respond(w, http.StatusOK, bus)
}

func (h *Handler) DeleteBus(w http.ResponseWriter, r *http.Request) {
	busID := chi.URLParam(r, "busId")
	h.Logger.Info("API", fmt.Sprintf("DeleteBus: busId=%s", busID))

	if err := h.FleetService.RemoveBus(busID); err != nil {
		h.fail(w, "DeleteBus", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type driverRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	BusID string `json:"busId"`
}

func (h *Handler) ListDrivers(w http.ResponseWriter, r *http.Request) {
	if busID := r.URL.Query().Get("busId"); busID != "" {
		drivers, err := h.FleetService.ListDriversByBus(busID)
		if err != nil {
			h.fail(w, "ListDrivers", err)
			return
		}
		h.respond(w, http.StatusOK, drivers)
		return
	}

	drivers, err := h.FleetService.ListDrivers()
	if err != nil {
		h.fail(w, "ListDrivers", err)
		return
	}
	h.respond(w, http.StatusOK, drivers)
}

func (h *Handler) ListAvailableDrivers(w http.ResponseWriter, r *http.Request) {
	drivers, err := h.FleetService.ListAvailableDrivers()
	if err != nil {
		h.fail(w, "ListAvailableDrivers", err)
		return
	}
	h.respond(w, http.StatusOK, drivers)
}

func (h *Handler) GetDriver(w http.ResponseWriter, r *http.Request) {
	driverID := chi.URLParam(r, "driverId")

	driver, err := h.FleetService.GetDriver(driverID)
	if err != nil {
		h.fail(w, "GetDriver", err)
		return
	}
	h.respond(w, http.StatusOK, driver)
}

func (h *Handler) CreateDriver(w http.ResponseWriter, r *http.Request) {
	var req driverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	driver, err := h.FleetService.CreateDriver(req.Name, req.Phone, req.BusID)
	if err != nil {
		h.fail(w, "CreateDriver", err)
		return
	}
	h.respond(w, http.StatusCreated, driver)
}

func (h *Handler) UpdateDriver(w http.ResponseWriter, r *http.Request) {
	driverID := chi.URLParam(r, "driverId")

	var req driverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	driver, err := h.FleetService.UpdateDriver(driverID, req.Name, req.Phone)
	if err != nil {
		h.fail(w, "UpdateDriver", err)
		return
	}
	h.respond(w, http.StatusOK, driver)
}

func (h *Handler) AssignDriver(w http.ResponseWriter, r *http.Request) {
	driverID := chi.URLParam(r, "driverId")

	var body struct {
		BusID string `json:"busId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	h.Logger.Info("API", fmt.Sprintf("AssignDriver: driverId=%s busId=%s", driverID, body.BusID))

	driver, err := h.FleetService.AssignDriver(driverID, body.BusID)
	if err != nil {
		h.fail(w, "AssignDriver", err)
		return
	}
	h.respond(w, http.StatusOK, driver)
}

func (h *Handler) DeleteDriver(w http.ResponseWriter, r *http.Request) {
	driverID := chi.URLParam(r, "driverId")

	if err := h.FleetService.RemoveDriver(driverID); err != nil {
		h.fail(w, "DeleteDriver", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
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
