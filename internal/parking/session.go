package parking

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"parking-system/internal/logging"
)

// Session owns the active lot. Creating a lot discards the previous one and
// everything parked in it. The shell and HTTP handlers share one Session.
type Session struct {
	mu        sync.RWMutex
	lot       *InstrumentedParkingLot
	mode      SlotMode
	telemetry *TelemetryProvider
}

// Snapshot is a point-in-time copy of lot occupancy.
type Snapshot struct {
	Capacity int
	Occupied int
	ByType   map[string]int
}

func NewSession(telemetry *TelemetryProvider, mode SlotMode) (*Session, error) {
	s := &Session{telemetry: telemetry, mode: mode}

	meter := telemetry.Meter()

	totalSlots, err := meter.Int64ObservableGauge("parking_lot_total_slots",
		metric.WithDescription("Total number of parking slots"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	occupancy, err := meter.Int64ObservableGauge("parking_lot_occupancy",
		metric.WithDescription("Current number of occupied parking slots"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	_, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		snap, ok := s.Snapshot()
		if !ok {
			return nil
		}
		o.ObserveInt64(totalSlots, int64(snap.Capacity))
		o.ObserveInt64(occupancy, int64(snap.Occupied))
		return nil
	}, totalSlots, occupancy)
	if err != nil {
		return nil, err
	}

	return s, nil
}

// Create replaces the active lot with an empty one of the given capacity.
func (s *Session) Create(ctx context.Context, capacity int) error {
	_, span := s.telemetry.Tracer().Start(ctx, "session.create_parking_lot",
		trace.WithAttributes(
			attribute.Int("parking_lot.capacity", capacity),
			attribute.String("parking_lot.slot_mode", s.mode.String()),
		))
	defer span.End()

	lot, err := NewInstrumentedParkingLot(capacity, s.mode, s.telemetry)
	if err != nil {
		span.RecordError(err)
		return err
	}

	s.mu.Lock()
	replaced := s.lot != nil
	s.lot = lot
	s.mu.Unlock()

	span.AddEvent("parking_lot_created")
	logging.WithFields(ctx, map[string]any{
		"capacity":  capacity,
		"slot_mode": s.mode.String(),
		"replaced":  replaced,
	}).Info("parking lot created")

	return nil
}

// Update runs fn with exclusive access to the active lot.
func (s *Session) Update(fn func(*InstrumentedParkingLot) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lot == nil {
		return ErrNoParkingLot
	}
	return fn(s.lot)
}

// View runs fn with shared access to the active lot. fn must not mutate it.
func (s *Session) View(fn func(*InstrumentedParkingLot) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.lot == nil {
		return ErrNoParkingLot
	}
	return fn(s.lot)
}

func (s *Session) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lot != nil
}

// Snapshot reports false when no lot has been created.
func (s *Session) Snapshot() (Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.lot == nil {
		return Snapshot{}, false
	}
	return Snapshot{
		Capacity: s.lot.Capacity(),
		Occupied: s.lot.Occupied(),
		ByType:   s.lot.CountsByType(),
	}, true
}

func (s *Session) Mode() SlotMode {
	return s.mode
}

func (s *Session) Telemetry() *TelemetryProvider {
	return s.telemetry
}
