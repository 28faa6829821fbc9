package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.opentelemetry.io/otel/trace"

	"parking-system/internal/logging"
	"parking-system/internal/parking"
)

type Meta struct {
	TraceID   string `json:"trace_id,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Meta    *Meta  `json:"meta,omitempty"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	LotActive bool   `json:"lot_active"`
	Meta      *Meta  `json:"meta,omitempty"`
}

type ParkingLotCreateRequest struct {
	Capacity int `json:"capacity"`
}

type ParkVehicleRequest struct {
	Registration string `json:"registration"`
	Type         string `json:"type"`
	Color        string `json:"color"`
}

type LeaveSlotRequest struct {
	SlotNumber int `json:"slot_number"`
}

type VehicleResponse struct {
	SlotNumber   int    `json:"slot_number"`
	Registration string `json:"registration"`
	Type         string `json:"type"`
	Color        string `json:"color"`
}

type SlotStatus struct {
	SlotNumber   int    `json:"slot_number"`
	Registration string `json:"registration,omitempty"`
	Type         string `json:"type,omitempty"`
	Color        string `json:"color,omitempty"`
	Occupied     bool   `json:"occupied"`
}

type StatusResponse struct {
	Capacity  int          `json:"capacity"`
	Occupied  int          `json:"occupied"`
	Available int          `json:"available"`
	SlotMode  string       `json:"slot_mode"`
	Slots     []SlotStatus `json:"slots"`
}

type CountResponse struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

type RegistrationsResponse struct {
	Registrations []string `json:"registrations"`
}

type SlotsResponse struct {
	Color string `json:"color"`
	Slots []int  `json:"slots"`
}

func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func extractMeta(ctx context.Context) *Meta {
	meta := &Meta{}

	span := trace.SpanFromContext(ctx)
	if span.SpanContext().HasTraceID() {
		meta.TraceID = span.SpanContext().TraceID().String()
	}

	if reqID, ok := ctx.Value(RequestIDKey).(string); ok {
		meta.RequestID = reqID
	}

	return meta
}

func WriteSuccess(ctx context.Context, w http.ResponseWriter, message string, data any) {
	WriteJSON(w, http.StatusOK, Response{
		Success: true,
		Message: message,
		Data:    data,
		Meta:    extractMeta(ctx),
	})
}

func WriteError(ctx context.Context, w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, Response{
		Success: false,
		Error:   message,
		Meta:    extractMeta(ctx),
	})
}

// WriteLotError maps parking errors to HTTP statuses.
func WriteLotError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, parking.ErrNoParkingLot):
		WriteError(ctx, w, http.StatusBadRequest, "Parking lot not created. Create parking lot first")
	case errors.Is(err, parking.ErrLotFull):
		WriteError(ctx, w, http.StatusConflict, "Sorry, parking lot is full")
	case errors.Is(err, parking.ErrInvalidSlot):
		WriteError(ctx, w, http.StatusBadRequest, "Invalid slot number")
	case errors.Is(err, parking.ErrInvalidCapacity):
		WriteError(ctx, w, http.StatusBadRequest, "Capacity must be greater than 0")
	case errors.Is(err, parking.ErrNotFound):
		WriteError(ctx, w, http.StatusNotFound, "Vehicle not found")
	default:
		logging.Errorf(ctx, "unexpected parking lot error: %v", err)
		WriteError(ctx, w, http.StatusInternalServerError, "Internal server error")
	}
}
