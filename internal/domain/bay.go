package domain

import "time"

// BayType represents the kind of vehicle a bay is built for
type BayType string

const (
	BayTypeTruck BayType = "truck_bay"
	BayTypeVan   BayType = "van_bay"
	BayTypeCar   BayType = "car_spot"
)

// BayStatus represents the operational status of a bay
type BayStatus string

const (
	BayStatusAvailable   BayStatus = "available"
	BayStatusOccupied    BayStatus = "occupied"
	BayStatusReserved    BayStatus = "reserved"
	BayStatusMaintenance BayStatus = "maintenance"
	BayStatusClosed      BayStatus = "closed"
)

// Bay is an individually bookable loading spot inside a zone.
type Bay struct {
	ID        int64
	ZoneID    int64
	Number    string
	Type      BayType
	Status    BayStatus
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsBookable returns true if the bay can accept new bookings.
func (b *Bay) IsBookable() bool {
	return b.Active && b.Status == BayStatusAvailable
}

// VehicleType is the caller-declared vehicle class used to filter compatible bays
type VehicleType string

const (
	VehicleTruck VehicleType = "truck"
	VehicleVan   VehicleType = "van"
	VehicleCar   VehicleType = "car"
)

// compatibleBayTypes maps a vehicle class to the bay types it may occupy.
// Smaller vehicles may take larger bays, never the other way around.
var compatibleBayTypes = map[VehicleType][]BayType{
	VehicleTruck: {BayTypeTruck},
	VehicleVan:   {BayTypeVan, BayTypeTruck},
	VehicleCar:   {BayTypeCar, BayTypeVan},
}

// CompatibleBayTypes returns the bay types a vehicle class may occupy.
// Unknown vehicle types get no matches.
func CompatibleBayTypes(v VehicleType) []BayType {
	return compatibleBayTypes[v]
}

// IsValidVehicleType reports whether v is a known vehicle class.
func IsValidVehicleType(v VehicleType) bool {
	_, ok := compatibleBayTypes[v]
	return ok
}

// IsValidBayStatus reports whether s is a known bay status.
func IsValidBayStatus(s BayStatus) bool {
	switch s {
	case BayStatusAvailable, BayStatusOccupied, BayStatusReserved, BayStatusMaintenance, BayStatusClosed:
		return true
	}
	return false
}
