package services

import "foyer-backend/models"

// CapacityFor returns how many students a room of the given type can hold.
// Unknown types hold nobody, so such rooms can never be reserved.
func CapacityFor(t models.RoomType) int {
	switch t {
	case models.RoomTypeSimple:
		return 1
	case models.RoomTypeDouble:
		return 2
	case models.RoomTypeTriple:
		return 3
	default:
		return 0
	}
}
