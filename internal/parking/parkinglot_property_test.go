package parking

import (
	"fmt"
	"slices"
	"strings"
	"testing"

	"pgregory.net/rapid"
)

var slotModes = []SlotMode{SlotsCompact, SlotsFixed}

func drawVehicle(rt *rapid.T, label string) *Vehicle {
	return NewVehicle(
		rapid.StringMatching(`[A-Za-z]{2}-[0-9]{2}-[A-Za-z]{2}-[0-9]{4}`).Draw(rt, label+"_registration"),
		rapid.SampledFrom([]string{"swift", "i20", "I10", "Ritz"}).Draw(rt, label+"_type"),
		rapid.SampledFrom([]string{"white", "Black", "RED", "blue"}).Draw(rt, label+"_color"),
	)
}

func registrations(pl *ParkingLot) []string {
	var out []string
	for _, slot := range pl.Status() {
		out = append(out, slot.Vehicle.RegistrationNumber)
	}
	return out
}

func TestProperty_FullLotRejectsPark(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		mode := rapid.SampledFrom(slotModes).Draw(rt, "mode")
		capacity := rapid.IntRange(1, 50).Draw(rt, "capacity")
		pl := NewParkingLotWithMode(capacity, mode)

		for i := 0; i < capacity; i++ {
			slotNumber, err := pl.Park(drawVehicle(rt, fmt.Sprintf("v%d", i)))
			if err != nil {
				rt.Fatalf("park %d: unexpected error %v", i, err)
			}
			if slotNumber != i+1 {
				rt.Fatalf("park %d: expected slot %d, got %d", i, i+1, slotNumber)
			}
		}

		if _, err := pl.Park(drawVehicle(rt, "extra")); err != ErrLotFull {
			rt.Fatalf("expected ErrLotFull, got %v", err)
		}
		if pl.Occupied() != capacity {
			rt.Fatalf("expected occupancy %d, got %d", capacity, pl.Occupied())
		}
	})
}

func TestProperty_LeaveOutOfRangeDoesNotMutate(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		mode := rapid.SampledFrom(slotModes).Draw(rt, "mode")
		capacity := rapid.IntRange(1, 20).Draw(rt, "capacity")
		count := rapid.IntRange(0, capacity).Draw(rt, "count")
		pl := NewParkingLotWithMode(capacity, mode)
		for i := 0; i < count; i++ {
			pl.Park(drawVehicle(rt, fmt.Sprintf("v%d", i)))
		}
		before := pl.Status()

		slotNumber := rapid.OneOf(
			rapid.IntRange(-100, 0),
			rapid.IntRange(count+1, count+100),
		).Draw(rt, "slot")

		if _, err := pl.Leave(slotNumber); err != ErrInvalidSlot {
			rt.Fatalf("leave(%d): expected ErrInvalidSlot, got %v", slotNumber, err)
		}
		if !slices.Equal(before, pl.Status()) {
			rt.Fatalf("leave(%d) mutated the lot", slotNumber)
		}
	})
}

func TestProperty_ParkThenLeaveRestores(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		mode := rapid.SampledFrom(slotModes).Draw(rt, "mode")
		capacity := rapid.IntRange(1, 20).Draw(rt, "capacity")
		count := rapid.IntRange(0, capacity-1).Draw(rt, "count")
		pl := NewParkingLotWithMode(capacity, mode)
		for i := 0; i < count; i++ {
			pl.Park(drawVehicle(rt, fmt.Sprintf("v%d", i)))
		}
		before := pl.Status()

		slotNumber, err := pl.Park(drawVehicle(rt, "extra"))
		if err != nil {
			rt.Fatalf("unexpected error %v", err)
		}
		if _, err := pl.Leave(slotNumber); err != nil {
			rt.Fatalf("leave(%d): unexpected error %v", slotNumber, err)
		}

		if pl.Occupied() != count {
			rt.Fatalf("expected occupancy %d, got %d", count, pl.Occupied())
		}
		if !slices.Equal(before, pl.Status()) {
			rt.Fatalf("slots changed after park/leave of slot %d", slotNumber)
		}
	})
}

func TestProperty_SlotForRegistrationIsFirstMatch(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		capacity := rapid.IntRange(1, 20).Draw(rt, "capacity")
		count := rapid.IntRange(0, capacity).Draw(rt, "count")
		pl := NewParkingLot(capacity)
		var regs []string
		for i := 0; i < count; i++ {
			v := drawVehicle(rt, fmt.Sprintf("v%d", i))
			pl.Park(v)
			regs = append(regs, v.RegistrationNumber)
		}

		query := rapid.StringMatching(`[A-Za-z]{2}-[0-9]{2}-[A-Za-z]{2}-[0-9]{4}`).Draw(rt, "query")
		if len(regs) > 0 && rapid.Bool().Draw(rt, "existing") {
			query = rapid.SampledFrom(regs).Draw(rt, "existing_query")
			if rapid.Bool().Draw(rt, "upper") {
				query = strings.ToUpper(query)
			} else {
				query = strings.ToLower(query)
			}
		}

		want := slices.IndexFunc(regs, func(r string) bool { return strings.EqualFold(r, query) })
		got, err := pl.SlotForRegistration(query)
		if want < 0 {
			if err != ErrNotFound {
				rt.Fatalf("expected ErrNotFound for %q, got slot %d err %v", query, got, err)
			}
			return
		}
		if err != nil || got != want+1 {
			rt.Fatalf("expected slot %d for %q, got %d err %v", want+1, query, got, err)
		}
	})
}

func TestProperty_FiltersPreserveSlotOrder(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		mode := rapid.SampledFrom(slotModes).Draw(rt, "mode")
		capacity := rapid.IntRange(1, 20).Draw(rt, "capacity")
		pl := NewParkingLotWithMode(capacity, mode)
		for i := 0; i < capacity; i++ {
			pl.Park(drawVehicle(rt, fmt.Sprintf("v%d", i)))
		}
		leaves := rapid.IntRange(0, capacity).Draw(rt, "leaves")
		for i := 0; i < leaves; i++ {
			pl.Leave(rapid.IntRange(1, capacity).Draw(rt, fmt.Sprintf("leave%d", i)))
		}

		color := rapid.SampledFrom([]string{"WHITE", "black", "Red", "blue"}).Draw(rt, "color")
		var wantRegs []string
		var wantSlots []int
		for _, slot := range pl.Status() {
			if strings.EqualFold(slot.Vehicle.Color, color) {
				wantRegs = append(wantRegs, slot.Vehicle.RegistrationNumber)
				wantSlots = append(wantSlots, slot.Number)
			}
		}

		if got := pl.RegistrationsByColor(color); !slices.Equal(got, wantRegs) && len(got)+len(wantRegs) > 0 {
			rt.Fatalf("registrations for %s: expected %v, got %v", color, wantRegs, got)
		}
		if got := pl.SlotsByColor(color); !slices.Equal(got, wantSlots) && len(got)+len(wantSlots) > 0 {
			rt.Fatalf("slots for %s: expected %v, got %v", color, wantSlots, got)
		}
		if !slices.IsSorted(pl.SlotsByColor(color)) {
			rt.Fatalf("slots for %s not in slot order", color)
		}

		all := registrations(pl)
		prefix := rapid.SampledFrom([]string{"a", "B", "ka", ""}).Draw(rt, "prefix")
		var wantPrefix []string
		for _, r := range all {
			if strings.HasPrefix(strings.ToLower(r), strings.ToLower(prefix)) {
				wantPrefix = append(wantPrefix, r)
			}
		}
		if got := pl.RegistrationsByPlatePrefix(prefix); !slices.Equal(got, wantPrefix) && len(got)+len(wantPrefix) > 0 {
			rt.Fatalf("prefix %q: expected %v, got %v", prefix, wantPrefix, got)
		}
	})
}
