package parking

import "errors"

var (
	ErrLotFull         = errors.New("parking lot is full")
	ErrInvalidSlot     = errors.New("invalid slot number")
	ErrNotFound        = errors.New("not found")
	ErrInvalidCapacity = errors.New("capacity must be greater than 0")
	ErrNoParkingLot    = errors.New("parking lot not created")
)
