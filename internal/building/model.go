package building

import (
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound        = errors.New("building not found")
	ErrUnknownBlock    = errors.New("unknown block")
	ErrDuplicateBlock  = errors.New("block already exists")
	ErrInvalidRange    = errors.New("floor and room counts must be positive")
	ErrBlockOccupied   = errors.New("block has occupied rooms")
	ErrFloorOutOfRange = errors.New("floor outside building range")
	ErrRoomOutOfRange  = errors.New("room number outside building range")
)

// Building declares the address space of one block: floors 1..TotalFloors,
// each with rooms 1..RoomsPerFloor.
type Building struct {
	ID            uuid.UUID `json:"id"`
	Block         string    `json:"block"`
	TotalFloors   int       `json:"total_floors"`
	RoomsPerFloor int       `json:"rooms_per_floor"`
}

// Range is the declared extent of a block.
type Range struct {
	TotalFloors   int `json:"total_floors"`
	RoomsPerFloor int `json:"rooms_per_floor"`
}

// Validate checks a floor/room pair against the range.
func (r Range) Validate(floor, roomNumber int) error {
	if floor < 1 || floor > r.TotalFloors {
		return ErrFloorOutOfRange
	}
	if roomNumber < 1 || roomNumber > r.RoomsPerFloor {
		return ErrRoomOutOfRange
	}
	return nil
}

// CreateInput carries fields for creating or replacing a building.
type CreateInput struct {
	Block         string
	TotalFloors   int
	RoomsPerFloor int
}
