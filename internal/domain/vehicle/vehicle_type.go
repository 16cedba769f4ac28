package vehicle

// VehicleType represents the class of vehicle a driver offers rides in. It is
// also the vehicle-type facet of offer search.
type VehicleType string

const (
	TypeHatchback VehicleType = "hatchback"
	TypeSedan     VehicleType = "sedan"
	TypeSUV       VehicleType = "suv"
	TypeVan       VehicleType = "van"
	TypeBike      VehicleType = "bike"
)

// IsValid returns true if the vehicle type is recognized.
func (v VehicleType) IsValid() bool {
	switch v {
	case TypeHatchback, TypeSedan, TypeSUV, TypeVan, TypeBike:
		return true
	}
	return false
}

// String returns the string representation of the vehicle type.
func (v VehicleType) String() string {
	return string(v)
}

// MaxPassengerSeats returns the highest number of passenger seats a vehicle
// of this type may offer.
func (v VehicleType) MaxPassengerSeats() int {
	switch v {
	case TypeBike:
		return 1
	case TypeHatchback:
		return 3
	case TypeSedan:
		return 4
	case TypeSUV:
		return 6
	case TypeVan:
		return 10
	default:
		return 0
	}
}
