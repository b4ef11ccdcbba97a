package occupancy

import "errors"

var (
	// ErrRoomOccupied is returned when another resident already holds the address.
	ErrRoomOccupied = errors.New("room already occupied")
)

// UnitAddress identifies one physical residence inside a block.
type UnitAddress struct {
	Block      string `json:"block"`
	Floor      int    `json:"floor"`
	RoomNumber int    `json:"room_number"`
}
