package rooms

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/google/uuid"

	"github.com/civicflow/api/internal/building"
	"github.com/civicflow/api/internal/occupancy"
)

type stubRanges struct {
	ranges map[string]building.Range
}

func (s *stubRanges) RangeOf(_ context.Context, block string) (building.Range, error) {
	rng, ok := s.ranges[block]
	if !ok {
		return building.Range{}, building.ErrUnknownBlock
	}
	return rng, nil
}

type stubOccupancy struct {
	units map[uuid.UUID]occupancy.UnitAddress
}

func (s *stubOccupancy) OccupiedRooms(_ context.Context, block string, floor int) ([]int, error) {
	var rooms []int
	for _, unit := range s.units {
		if unit.Block == block && unit.Floor == floor {
			rooms = append(rooms, unit.RoomNumber)
		}
	}
	return rooms, nil
}

func (s *stubOccupancy) UnitOf(_ context.Context, residentID uuid.UUID) (*occupancy.UnitAddress, error) {
	unit, ok := s.units[residentID]
	if !ok {
		return nil, nil
	}
	return &unit, nil
}

func newTestAllocator(units map[uuid.UUID]occupancy.UnitAddress) *Allocator {
	ranges := &stubRanges{ranges: map[string]building.Range{
		"A": {TotalFloors: 2, RoomsPerFloor: 2},
		"B": {TotalFloors: 5, RoomsPerFloor: 10},
	}}
	return NewAllocator(ranges, &stubOccupancy{units: units})
}

func TestAvailableRooms(t *testing.T) {
	alice := uuid.New()
	bob := uuid.New()
	units := map[uuid.UUID]occupancy.UnitAddress{
		alice: {Block: "A", Floor: 1, RoomNumber: 1},
		bob:   {Block: "A", Floor: 2, RoomNumber: 2},
	}
	alloc := newTestAllocator(units)
	ctx := context.Background()

	got, err := alloc.AvailableRooms(ctx, "A", 1)
	if err != nil {
		t.Fatalf("AvailableRooms() = %v", err)
	}
	if !reflect.DeepEqual(got, []int{2}) {
		t.Fatalf("floor 1 = %v, want [2]", got)
	}

	got, err = alloc.AvailableRooms(ctx, "A", 2)
	if err != nil {
		t.Fatalf("AvailableRooms() = %v", err)
	}
	if !reflect.DeepEqual(got, []int{1}) {
		t.Fatalf("floor 2 = %v, want [1]", got)
	}
}

func TestAvailableRoomsEmptyFloor(t *testing.T) {
	alloc := newTestAllocator(nil)

	got, err := alloc.AvailableRooms(context.Background(), "B", 3)
	if err != nil {
		t.Fatalf("AvailableRooms() = %v", err)
	}
	if len(got) != 10 || got[0] != 1 || got[9] != 10 {
		t.Fatalf("empty floor = %v, want 1..10", got)
	}
}

func TestAvailableRoomsFullFloor(t *testing.T) {
	alice := uuid.New()
	bob := uuid.New()
	units := map[uuid.UUID]occupancy.UnitAddress{
		alice: {Block: "A", Floor: 1, RoomNumber: 1},
		bob:   {Block: "A", Floor: 1, RoomNumber: 2},
	}
	alloc := newTestAllocator(units)

	got, err := alloc.AvailableRooms(context.Background(), "A", 1)
	if err != nil {
		t.Fatalf("AvailableRooms() = %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("full floor = %v, want empty", got)
	}
}

func TestAvailableRoomsRangeErrors(t *testing.T) {
	alloc := newTestAllocator(nil)
	ctx := context.Background()

	if _, err := alloc.AvailableRooms(ctx, "Z", 1); !errors.Is(err, building.ErrUnknownBlock) {
		t.Fatalf("unknown block = %v, want ErrUnknownBlock", err)
	}
	if _, err := alloc.AvailableRooms(ctx, "A", 0); !errors.Is(err, building.ErrFloorOutOfRange) {
		t.Fatalf("floor 0 = %v, want ErrFloorOutOfRange", err)
	}
	if _, err := alloc.AvailableRooms(ctx, "A", 3); !errors.Is(err, building.ErrFloorOutOfRange) {
		t.Fatalf("floor 3 = %v, want ErrFloorOutOfRange", err)
	}
}

func TestAvailableRoomsForEdit(t *testing.T) {
	alice := uuid.New()
	bob := uuid.New()
	units := map[uuid.UUID]occupancy.UnitAddress{
		alice: {Block: "A", Floor: 1, RoomNumber: 1},
		bob:   {Block: "A", Floor: 1, RoomNumber: 2},
	}
	alloc := newTestAllocator(units)
	ctx := context.Background()

	// Alice's own room is offered back to her, ascending.
	got, err := alloc.AvailableRoomsForEdit(ctx, "A", 1, alice)
	if err != nil {
		t.Fatalf("AvailableRoomsForEdit() = %v", err)
	}
	if !reflect.DeepEqual(got, []int{1}) {
		t.Fatalf("edit list = %v, want [1]", got)
	}

	// A different floor ignores her room entirely.
	got, err = alloc.AvailableRoomsForEdit(ctx, "A", 2, alice)
	if err != nil {
		t.Fatalf("AvailableRoomsForEdit() = %v", err)
	}
	if !reflect.DeepEqual(got, []int{1, 2}) {
		t.Fatalf("edit list other floor = %v, want [1 2]", got)
	}

	// Unknown resident behaves like the plain availability query.
	got, err = alloc.AvailableRoomsForEdit(ctx, "A", 1, uuid.New())
	if err != nil {
		t.Fatalf("AvailableRoomsForEdit() = %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("edit list unknown resident = %v, want empty", got)
	}
}

func TestAllRoomNumbers(t *testing.T) {
	alice := uuid.New()
	units := map[uuid.UUID]occupancy.UnitAddress{
		alice: {Block: "A", Floor: 1, RoomNumber: 1},
	}
	alloc := newTestAllocator(units)

	got, err := alloc.AllRoomNumbers(context.Background(), "A", 1)
	if err != nil {
		t.Fatalf("AllRoomNumbers() = %v", err)
	}
	if !reflect.DeepEqual(got, []int{1, 2}) {
		t.Fatalf("all rooms = %v, want [1 2] regardless of occupancy", got)
	}
}
