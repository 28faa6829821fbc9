package parking

// Slot is a read view of one occupied position. Numbers are 1-based; in
// compact mode a Leave ahead of a slot renumbers it.
type Slot struct {
	Number  int
	Vehicle *Vehicle
}

func NewSlot(number int, vehicle *Vehicle) Slot {
	return Slot{
		Number:  number,
		Vehicle: vehicle,
	}
}

func (s Slot) IsOccupied() bool {
	return s.Vehicle != nil
}
