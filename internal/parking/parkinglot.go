package parking

import (
	"fmt"
	"strings"
)

// SlotMode decides what happens to slot numbers when a vehicle leaves.
type SlotMode int

const (
	// SlotsCompact numbers vehicles by arrival position. A Leave shifts every
	// later vehicle down one slot and Park always appends.
	SlotsCompact SlotMode = iota
	// SlotsFixed keeps a vehicle in its slot until it leaves. Park takes the
	// lowest free slot.
	SlotsFixed
)

func ParseSlotMode(s string) (SlotMode, error) {
	switch strings.ToLower(s) {
	case "", "compact":
		return SlotsCompact, nil
	case "fixed":
		return SlotsFixed, nil
	default:
		return SlotsCompact, fmt.Errorf("unknown slot mode %q", s)
	}
}

func (m SlotMode) String() string {
	if m == SlotsFixed {
		return "fixed"
	}
	return "compact"
}

// ParkingLot holds at most capacity vehicles. In compact mode vehicles has
// no holes; in fixed mode nil marks a free slot. Storage grows with use, so
// capacity costs nothing until vehicles arrive.
type ParkingLot struct {
	capacity int
	mode     SlotMode
	occupied int
	vehicles []*Vehicle
}

func NewParkingLot(capacity int) *ParkingLot {
	return NewParkingLotWithMode(capacity, SlotsCompact)
}

func NewParkingLotWithMode(capacity int, mode SlotMode) *ParkingLot {
	if capacity < 0 {
		capacity = 0
	}

	return &ParkingLot{
		capacity: capacity,
		mode:     mode,
	}
}

func (pl *ParkingLot) Capacity() int {
	return pl.capacity
}

func (pl *ParkingLot) Mode() SlotMode {
	return pl.mode
}

func (pl *ParkingLot) Occupied() int {
	return pl.occupied
}

func (pl *ParkingLot) Available() int {
	return pl.capacity - pl.occupied
}

// Park places the vehicle and returns its slot number.
func (pl *ParkingLot) Park(vehicle *Vehicle) (int, error) {
	if pl.occupied >= pl.capacity {
		return 0, ErrLotFull
	}

	if pl.mode == SlotsCompact {
		pl.vehicles = append(pl.vehicles, vehicle)
		pl.occupied++
		return len(pl.vehicles), nil
	}

	for i, v := range pl.vehicles {
		if v == nil {
			pl.vehicles[i] = vehicle
			pl.occupied++
			return i + 1, nil
		}
	}
	// No holes, and occupied < capacity means len(vehicles) < capacity.
	pl.vehicles = append(pl.vehicles, vehicle)
	pl.occupied++
	return len(pl.vehicles), nil
}

// Leave frees slotNumber and returns the vehicle that was there. In compact
// mode every vehicle behind it moves down one slot.
func (pl *ParkingLot) Leave(slotNumber int) (*Vehicle, error) {
	if slotNumber < 1 || slotNumber > len(pl.vehicles) {
		return nil, ErrInvalidSlot
	}

	idx := slotNumber - 1
	vehicle := pl.vehicles[idx]
	if vehicle == nil {
		return nil, ErrInvalidSlot
	}

	pl.occupied--
	if pl.mode == SlotsFixed {
		pl.vehicles[idx] = nil
		return vehicle, nil
	}

	copy(pl.vehicles[idx:], pl.vehicles[idx+1:])
	pl.vehicles[len(pl.vehicles)-1] = nil
	pl.vehicles = pl.vehicles[:len(pl.vehicles)-1]

	return vehicle, nil
}

// Status lists occupied slots in slot order.
func (pl *ParkingLot) Status() []Slot {
	slots := make([]Slot, 0, pl.occupied)
	pl.each(func(slotNumber int, v *Vehicle) {
		slots = append(slots, NewSlot(slotNumber, v))
	})
	return slots
}

func (pl *ParkingLot) CountByType(vehicleType string) int {
	count := 0
	pl.each(func(_ int, v *Vehicle) {
		if strings.EqualFold(v.Type, vehicleType) {
			count++
		}
	})
	return count
}

// CountsByType groups vehicles by lower-cased type.
func (pl *ParkingLot) CountsByType() map[string]int {
	counts := make(map[string]int)
	pl.each(func(_ int, v *Vehicle) {
		counts[strings.ToLower(v.Type)]++
	})
	return counts
}

func (pl *ParkingLot) RegistrationsByPlatePrefix(prefix string) []string {
	return pl.registrationsWhere(func(v *Vehicle) bool {
		return hasPrefixFold(v.RegistrationNumber, prefix)
	})
}

func (pl *ParkingLot) RegistrationsByColor(color string) []string {
	return pl.registrationsWhere(func(v *Vehicle) bool {
		return strings.EqualFold(v.Color, color)
	})
}

func (pl *ParkingLot) SlotsByColor(color string) []int {
	slots := []int{}
	pl.each(func(slotNumber int, v *Vehicle) {
		if strings.EqualFold(v.Color, color) {
			slots = append(slots, slotNumber)
		}
	})
	return slots
}

// SlotForRegistration returns the slot of the first matching vehicle.
func (pl *ParkingLot) SlotForRegistration(registrationNumber string) (int, error) {
	for i, v := range pl.vehicles {
		if v != nil && strings.EqualFold(v.RegistrationNumber, registrationNumber) {
			return i + 1, nil
		}
	}
	return 0, ErrNotFound
}

func (pl *ParkingLot) VehicleAt(slotNumber int) (*Vehicle, error) {
	if slotNumber < 1 || slotNumber > len(pl.vehicles) || pl.vehicles[slotNumber-1] == nil {
		return nil, ErrInvalidSlot
	}
	return pl.vehicles[slotNumber-1], nil
}

func (pl *ParkingLot) each(fn func(slotNumber int, v *Vehicle)) {
	for i, v := range pl.vehicles {
		if v != nil {
			fn(i+1, v)
		}
	}
}

func (pl *ParkingLot) registrationsWhere(match func(*Vehicle) bool) []string {
	registrations := []string{}
	pl.each(func(_ int, v *Vehicle) {
		if match(v) {
			registrations = append(registrations, v.RegistrationNumber)
		}
	})
	return registrations
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
