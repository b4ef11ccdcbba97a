// Package rooms computes which room numbers are selectable on a floor,
// cross-checking the building directory ranges with live occupancy.
package rooms

import (
	"context"

	"github.com/google/uuid"

	"github.com/civicflow/api/internal/building"
	"github.com/civicflow/api/internal/occupancy"
)

// BuildingRanges resolves a block to its declared extent.
type BuildingRanges interface {
	RangeOf(ctx context.Context, block string) (building.Range, error)
}

// OccupancyView is the read surface of the occupancy index.
type OccupancyView interface {
	OccupiedRooms(ctx context.Context, block string, floor int) ([]int, error)
	UnitOf(ctx context.Context, residentID uuid.UUID) (*occupancy.UnitAddress, error)
}

// Allocator answers room availability queries.
type Allocator struct {
	buildings BuildingRanges
	occupancy OccupancyView
}

// NewAllocator creates a new allocator.
func NewAllocator(buildings BuildingRanges, occupancy OccupancyView) *Allocator {
	return &Allocator{buildings: buildings, occupancy: occupancy}
}

// AvailableRooms lists the free room numbers on a floor in ascending order.
func (a *Allocator) AvailableRooms(ctx context.Context, block string, floor int) ([]int, error) {
	rng, err := a.buildings.RangeOf(ctx, block)
	if err != nil {
		return nil, err
	}
	if floor < 1 || floor > rng.TotalFloors {
		return nil, building.ErrFloorOutOfRange
	}

	occupied, err := a.occupancy.OccupiedRooms(ctx, block, floor)
	if err != nil {
		return nil, err
	}

	return freeRooms(rng.RoomsPerFloor, occupied, 0), nil
}

// AvailableRoomsForEdit lists the free room numbers on a floor, treating the
// excluded resident's own room as free when it sits on that same floor. The
// edit form can then offer the current room alongside genuinely free ones;
// the reassign commit still re-validates atomically.
func (a *Allocator) AvailableRoomsForEdit(ctx context.Context, block string, floor int, excludeResidentID uuid.UUID) ([]int, error) {
	rng, err := a.buildings.RangeOf(ctx, block)
	if err != nil {
		return nil, err
	}
	if floor < 1 || floor > rng.TotalFloors {
		return nil, building.ErrFloorOutOfRange
	}

	occupied, err := a.occupancy.OccupiedRooms(ctx, block, floor)
	if err != nil {
		return nil, err
	}

	ownRoom := 0
	if excludeResidentID != uuid.Nil {
		unit, err := a.occupancy.UnitOf(ctx, excludeResidentID)
		if err != nil {
			return nil, err
		}
		if unit != nil && unit.Block == block && unit.Floor == floor {
			ownRoom = unit.RoomNumber
		}
	}

	return freeRooms(rng.RoomsPerFloor, occupied, ownRoom), nil
}

// AllRoomNumbers lists every nominal room on a floor regardless of occupancy.
// Admin complaint flows deliberately allow targeting occupied rooms.
func (a *Allocator) AllRoomNumbers(ctx context.Context, block string, floor int) ([]int, error) {
	rng, err := a.buildings.RangeOf(ctx, block)
	if err != nil {
		return nil, err
	}
	if floor < 1 || floor > rng.TotalFloors {
		return nil, building.ErrFloorOutOfRange
	}

	rooms := make([]int, 0, rng.RoomsPerFloor)
	for i := 1; i <= rng.RoomsPerFloor; i++ {
		rooms = append(rooms, i)
	}
	return rooms, nil
}

// freeRooms enumerates 1..roomsPerFloor dropping occupied rooms, except the
// one room treated as the caller's own.
func freeRooms(roomsPerFloor int, occupied []int, ownRoom int) []int {
	taken := make(map[int]struct{}, len(occupied))
	for _, room := range occupied {
		taken[room] = struct{}{}
	}

	free := make([]int, 0, roomsPerFloor)
	for i := 1; i <= roomsPerFloor; i++ {
		if _, ok := taken[i]; ok && i != ownRoom {
			continue
		}
		free = append(free, i)
	}
	return free
}
