package parking

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentedParkingLot records a span, an operation counter and a duration
// sample for every lot operation.
type InstrumentedParkingLot struct {
	*ParkingLot
	telemetry *TelemetryProvider

	// Metrics
	parkingOperations metric.Int64Counter
	leavingOperations metric.Int64Counter
	queryOperations   metric.Int64Counter
	operationDuration metric.Float64Histogram
}

func NewInstrumentedParkingLot(capacity int, mode SlotMode, telemetry *TelemetryProvider) (*InstrumentedParkingLot, error) {
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}

	meter := telemetry.Meter()

	parkingOperations, err := meter.Int64Counter("parking_operations_total",
		metric.WithDescription("Total number of parking operations"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	leavingOperations, err := meter.Int64Counter("leaving_operations_total",
		metric.WithDescription("Total number of leaving operations"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	queryOperations, err := meter.Int64Counter("query_operations_total",
		metric.WithDescription("Total number of status and lookup operations"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	operationDuration, err := meter.Float64Histogram("operation_duration_seconds",
		metric.WithDescription("Duration of parking lot operations"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	return &InstrumentedParkingLot{
		ParkingLot:        NewParkingLotWithMode(capacity, mode),
		telemetry:         telemetry,
		parkingOperations: parkingOperations,
		leavingOperations: leavingOperations,
		queryOperations:   queryOperations,
		operationDuration: operationDuration,
	}, nil
}

// operation tracks one in-flight call between start and finish.
type operation struct {
	ctx     context.Context
	span    trace.Span
	name    string
	start   time.Time
	counter metric.Int64Counter
}

func (ipl *InstrumentedParkingLot) start(ctx context.Context, name string, counter metric.Int64Counter, attrs ...attribute.KeyValue) *operation {
	ctx, span := ipl.telemetry.Tracer().Start(ctx, "parking_lot."+name, trace.WithAttributes(attrs...))
	return &operation{
		ctx:     ctx,
		span:    span,
		name:    name,
		start:   time.Now(),
		counter: counter,
	}
}

// finish closes the span and records the counter and duration. Expected
// misses (ErrNotFound) do not mark the span as an error.
func (op *operation) finish(ipl *InstrumentedParkingLot, status string, err error, labels ...attribute.KeyValue) {
	defer op.span.End()

	if err != nil && !errors.Is(err, ErrNotFound) {
		op.span.RecordError(err)
		op.span.SetStatus(codes.Error, err.Error())
	}

	labels = append(labels,
		attribute.String("operation", op.name),
		attribute.String("status", status),
	)

	op.counter.Add(op.ctx, 1, metric.WithAttributes(labels...))
	ipl.operationDuration.Record(op.ctx, time.Since(op.start).Seconds(), metric.WithAttributes(labels...))
}

func (ipl *InstrumentedParkingLot) Park(ctx context.Context, registrationNumber, vehicleType, color string) (int, error) {
	op := ipl.start(ctx, "park", ipl.parkingOperations,
		attribute.String("vehicle.registration_number", registrationNumber),
		attribute.String("vehicle.type", vehicleType),
		attribute.String("vehicle.color", color),
	)

	op.span.AddEvent("finding_available_slot")

	slotNumber, err := ipl.ParkingLot.Park(NewVehicle(registrationNumber, vehicleType, color))

	labels := []attribute.KeyValue{
		attribute.String("vehicle_type", vehicleType),
		attribute.String("vehicle_color", color),
	}

	if err != nil {
		op.finish(ipl, "failed", err, labels...)
		return 0, err
	}

	op.span.SetAttributes(attribute.Int("allocated_slot_number", slotNumber))
	op.span.AddEvent("slot_allocated", trace.WithAttributes(
		attribute.Int("slot_number", slotNumber),
	))
	op.finish(ipl, "success", nil, labels...)

	return slotNumber, nil
}

func (ipl *InstrumentedParkingLot) Leave(ctx context.Context, slotNumber int) (*Vehicle, error) {
	op := ipl.start(ctx, "leave", ipl.leavingOperations,
		attribute.Int("slot_number", slotNumber),
	)

	op.span.AddEvent("releasing_slot")

	vehicle, err := ipl.ParkingLot.Leave(slotNumber)
	if err != nil {
		op.finish(ipl, "failed", err)
		return nil, err
	}

	op.span.SetAttributes(
		attribute.String("vehicle.registration_number", vehicle.RegistrationNumber),
		attribute.String("vehicle.type", vehicle.Type),
		attribute.String("vehicle.color", vehicle.Color),
	)
	op.span.AddEvent("slot_released")
	op.finish(ipl, "success", nil,
		attribute.String("vehicle_type", vehicle.Type),
		attribute.String("vehicle_color", vehicle.Color),
	)

	return vehicle, nil
}

func (ipl *InstrumentedParkingLot) Status(ctx context.Context) []Slot {
	op := ipl.start(ctx, "get_status", ipl.queryOperations)

	slots := ipl.ParkingLot.Status()

	op.span.SetAttributes(
		attribute.Int("occupied_slots_count", len(slots)),
		attribute.Int("total_capacity", ipl.Capacity()),
	)
	op.finish(ipl, "success", nil)

	return slots
}

func (ipl *InstrumentedParkingLot) CountByType(ctx context.Context, vehicleType string) int {
	op := ipl.start(ctx, "count_by_type", ipl.queryOperations,
		attribute.String("vehicle.type", vehicleType),
	)

	count := ipl.ParkingLot.CountByType(vehicleType)

	op.span.SetAttributes(attribute.Int("match_count", count))
	op.finish(ipl, "success", nil)

	return count
}

func (ipl *InstrumentedParkingLot) RegistrationsByPlatePrefix(ctx context.Context, prefix string) []string {
	op := ipl.start(ctx, "registrations_by_plate", ipl.queryOperations,
		attribute.String("registration_prefix", prefix),
	)

	registrations := ipl.ParkingLot.RegistrationsByPlatePrefix(prefix)

	op.span.SetAttributes(attribute.Int("match_count", len(registrations)))
	op.finish(ipl, "success", nil)

	return registrations
}

func (ipl *InstrumentedParkingLot) RegistrationsByColor(ctx context.Context, color string) []string {
	op := ipl.start(ctx, "registrations_by_color", ipl.queryOperations,
		attribute.String("vehicle.color", color),
	)

	registrations := ipl.ParkingLot.RegistrationsByColor(color)

	op.span.SetAttributes(attribute.Int("match_count", len(registrations)))
	op.finish(ipl, "success", nil)

	return registrations
}

func (ipl *InstrumentedParkingLot) SlotsByColor(ctx context.Context, color string) []int {
	op := ipl.start(ctx, "slots_by_color", ipl.queryOperations,
		attribute.String("vehicle.color", color),
	)

	slots := ipl.ParkingLot.SlotsByColor(color)

	op.span.SetAttributes(attribute.Int("match_count", len(slots)))
	op.finish(ipl, "success", nil)

	return slots
}

func (ipl *InstrumentedParkingLot) SlotForRegistration(ctx context.Context, registrationNumber string) (int, error) {
	op := ipl.start(ctx, "get_slot_by_registration", ipl.queryOperations,
		attribute.String("registration_number", registrationNumber),
	)

	op.span.AddEvent("searching_by_registration")

	slotNumber, err := ipl.ParkingLot.SlotForRegistration(registrationNumber)
	if err != nil {
		op.span.AddEvent("vehicle_not_found")
		op.finish(ipl, "not_found", err)
		return 0, err
	}

	op.span.SetAttributes(attribute.Int("found_slot_number", slotNumber))
	op.span.AddEvent("vehicle_found", trace.WithAttributes(
		attribute.Int("slot_number", slotNumber),
	))
	op.finish(ipl, "found", nil)

	return slotNumber, nil
}
