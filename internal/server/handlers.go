package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"parking-system/internal/parking"
)

type Handler struct {
	session     *parking.Session
	serviceName string
}

func NewHandler(session *parking.Session, serviceName string) *Handler {
	return &Handler{
		session:     session,
		serviceName: serviceName,
	}
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Service:   h.serviceName,
		LotActive: h.session.Active(),
		Meta:      extractMeta(r.Context()),
	})
}

func (h *Handler) CreateParkingLot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req ParkingLotCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.session.Create(ctx, req.Capacity); err != nil {
		WriteLotError(ctx, w, err)
		return
	}

	WriteSuccess(ctx, w, "Parking lot created successfully", map[string]any{
		"capacity":  req.Capacity,
		"slot_mode": h.session.Mode().String(),
	})
}

func (h *Handler) ParkVehicle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req ParkVehicleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Registration == "" || req.Type == "" || req.Color == "" {
		WriteError(ctx, w, http.StatusBadRequest, "Registration, type and color are required")
		return
	}

	var slotNumber int
	err := h.session.Update(func(lot *parking.InstrumentedParkingLot) error {
		var err error
		slotNumber, err = lot.Park(ctx, req.Registration, req.Type, req.Color)
		return err
	})
	if err != nil {
		WriteLotError(ctx, w, err)
		return
	}

	WriteSuccess(ctx, w, "Vehicle parked successfully", VehicleResponse{
		SlotNumber:   slotNumber,
		Registration: req.Registration,
		Type:         req.Type,
		Color:        req.Color,
	})
}

func (h *Handler) LeaveSlot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req LeaveSlotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var vehicle *parking.Vehicle
	err := h.session.Update(func(lot *parking.InstrumentedParkingLot) error {
		var err error
		vehicle, err = lot.Leave(ctx, req.SlotNumber)
		return err
	})
	if err != nil {
		WriteLotError(ctx, w, err)
		return
	}

	WriteSuccess(ctx, w, "Slot vacated successfully", VehicleResponse{
		SlotNumber:   req.SlotNumber,
		Registration: vehicle.RegistrationNumber,
		Type:         vehicle.Type,
		Color:        vehicle.Color,
	})
}

func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var response StatusResponse
	err := h.session.View(func(lot *parking.InstrumentedParkingLot) error {
		status := lot.Status(ctx)
		slots := make([]SlotStatus, 0, len(status))
		for _, slot := range status {
			slots = append(slots, SlotStatus{
				SlotNumber:   slot.Number,
				Registration: slot.Vehicle.RegistrationNumber,
				Type:         slot.Vehicle.Type,
				Color:        slot.Vehicle.Color,
				Occupied:     true,
			})
		}

		response = StatusResponse{
			Capacity:  lot.Capacity(),
			Occupied:  lot.Occupied(),
			Available: lot.Available(),
			SlotMode:  lot.Mode().String(),
			Slots:     slots,
		}
		return nil
	})
	if err != nil {
		WriteLotError(ctx, w, err)
		return
	}

	WriteSuccess(ctx, w, "Status retrieved successfully", response)
}

func (h *Handler) CountByType(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vehicleType := r.URL.Query().Get("type")
	if vehicleType == "" {
		WriteError(ctx, w, http.StatusBadRequest, "Query parameter type is required")
		return
	}

	var count int
	err := h.session.View(func(lot *parking.InstrumentedParkingLot) error {
		count = lot.CountByType(ctx, vehicleType)
		return nil
	})
	if err != nil {
		WriteLotError(ctx, w, err)
		return
	}

	WriteSuccess(ctx, w, "Vehicles counted", CountResponse{Type: vehicleType, Count: count})
}

// Registrations filters by ?plate= prefix or by ?color=, never both.
func (h *Handler) Registrations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	plate := r.URL.Query().Get("plate")
	color := r.URL.Query().Get("color")
	if (plate == "") == (color == "") {
		WriteError(ctx, w, http.StatusBadRequest, "Exactly one of plate or color is required")
		return
	}

	var registrations []string
	err := h.session.View(func(lot *parking.InstrumentedParkingLot) error {
		if plate != "" {
			registrations = lot.RegistrationsByPlatePrefix(ctx, plate)
		} else {
			registrations = lot.RegistrationsByColor(ctx, color)
		}
		return nil
	})
	if err != nil {
		WriteLotError(ctx, w, err)
		return
	}

	WriteSuccess(ctx, w, "Registrations retrieved", RegistrationsResponse{Registrations: registrations})
}

func (h *Handler) SlotsByColor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	color := r.URL.Query().Get("color")
	if color == "" {
		WriteError(ctx, w, http.StatusBadRequest, "Query parameter color is required")
		return
	}

	var slots []int
	err := h.session.View(func(lot *parking.InstrumentedParkingLot) error {
		slots = lot.SlotsByColor(ctx, color)
		return nil
	})
	if err != nil {
		WriteLotError(ctx, w, err)
		return
	}

	WriteSuccess(ctx, w, "Slots retrieved", SlotsResponse{Color: color, Slots: slots})
}

func (h *Handler) FindByRegistration(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	registration := chi.URLParam(r, "registration")
	if registration == "" {
		WriteError(ctx, w, http.StatusBadRequest, "Registration number is required")
		return
	}

	var response VehicleResponse
	err := h.session.View(func(lot *parking.InstrumentedParkingLot) error {
		slotNumber, err := lot.SlotForRegistration(ctx, registration)
		if err != nil {
			return err
		}
		vehicle, err := lot.VehicleAt(slotNumber)
		if err != nil {
			return err
		}
		response = VehicleResponse{
			SlotNumber:   slotNumber,
			Registration: vehicle.RegistrationNumber,
			Type:         vehicle.Type,
			Color:        vehicle.Color,
		}
		return nil
	})
	if err != nil {
		WriteLotError(ctx, w, err)
		return
	}

	WriteSuccess(ctx, w, "Vehicle found", response)
}
