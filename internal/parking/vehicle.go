package parking

// Vehicle is immutable once created. Two vehicles with equal fields are
// indistinguishable.
type Vehicle struct {
	RegistrationNumber string
	Type               string
	Color              string
}

func NewVehicle(registrationNumber, vehicleType, color string) *Vehicle {
	return &Vehicle{
		RegistrationNumber: registrationNumber,
		Type:               vehicleType,
		Color:              color,
	}
}
