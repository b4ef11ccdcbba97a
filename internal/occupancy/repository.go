package occupancy

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/civicflow/api/internal/db"
)

// Repository maintains the room_assignments table, the authority for the
// at-most-one-resident-per-room invariant. The invariant itself is enforced
// by the unique index over (block, floor, room_number): concurrent claims of
// the same address race on the index, the first committer wins and the loser
// surfaces ErrRoomOccupied.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates the repository instance.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Assign claims an address for a resident who holds none yet.
func (r *Repository) Assign(ctx context.Context, residentID uuid.UUID, addr UnitAddress) error {
	const query = `
        INSERT INTO room_assignments (resident_id, block, floor, room_number)
        VALUES ($1, $2, $3, $4)
    `

	_, err := r.pool.Exec(ctx, query, residentID, addr.Block, addr.Floor, addr.RoomNumber)
	if err != nil && db.IsUniqueViolation(err, "room_assignments_unit_key") {
		return ErrRoomOccupied
	}
	return err
}

// Reassign moves a resident to a new address, or claims one if the resident
// has no row yet. A single upsert keeps the old address held until the new
// one commits, so there is no window where it looks free to a concurrent
// request. Reassigning a resident to their own current room is a no-op
// update and always succeeds.
func (r *Repository) Reassign(ctx context.Context, residentID uuid.UUID, addr UnitAddress) error {
	const query = `
        INSERT INTO room_assignments (resident_id, block, floor, room_number)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (resident_id) DO UPDATE
        SET block = EXCLUDED.block, floor = EXCLUDED.floor, room_number = EXCLUDED.room_number
    `

	_, err := r.pool.Exec(ctx, query, residentID, addr.Block, addr.Floor, addr.RoomNumber)
	if err != nil && db.IsUniqueViolation(err, "room_assignments_unit_key") {
		return ErrRoomOccupied
	}
	return err
}

// Release frees whatever address the resident holds. No-op when none.
func (r *Repository) Release(ctx context.Context, residentID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM room_assignments WHERE resident_id = $1`, residentID)
	return err
}

// IsOccupied reports whether any resident holds the address.
func (r *Repository) IsOccupied(ctx context.Context, addr UnitAddress) (bool, error) {
	occupant, err := r.OccupantOf(ctx, addr)
	if err != nil {
		return false, err
	}
	return occupant != nil, nil
}

// OccupantOf returns the resident holding the address, or nil.
func (r *Repository) OccupantOf(ctx context.Context, addr UnitAddress) (*uuid.UUID, error) {
	const query = `
        SELECT resident_id FROM room_assignments
        WHERE block = $1 AND floor = $2 AND room_number = $3
    `

	var residentID uuid.UUID
	err := r.pool.QueryRow(ctx, query, addr.Block, addr.Floor, addr.RoomNumber).Scan(&residentID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &residentID, nil
}

// UnitOf returns the address currently held by the resident, or nil.
func (r *Repository) UnitOf(ctx context.Context, residentID uuid.UUID) (*UnitAddress, error) {
	const query = `
        SELECT block, floor, room_number FROM room_assignments
        WHERE resident_id = $1
    `

	var addr UnitAddress
	err := r.pool.QueryRow(ctx, query, residentID).Scan(&addr.Block, &addr.Floor, &addr.RoomNumber)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &addr, nil
}

// OccupiedRooms lists the taken room numbers on one floor, ascending.
func (r *Repository) OccupiedRooms(ctx context.Context, block string, floor int) ([]int, error) {
	const query = `
        SELECT room_number FROM room_assignments
        WHERE block = $1 AND floor = $2
        ORDER BY room_number
    `

	rows, err := r.pool.Query(ctx, query, block, floor)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var occupied []int
	for rows.Next() {
		var room int
		if err := rows.Scan(&room); err != nil {
			return nil, err
		}
		occupied = append(occupied, room)
	}

	return occupied, rows.Err()
}

// BlockOccupied reports whether any resident lives in the block.
func (r *Repository) BlockOccupied(ctx context.Context, block string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM room_assignments WHERE block = $1)`

	var occupied bool
	if err := r.pool.QueryRow(ctx, query, block).Scan(&occupied); err != nil {
		return false, err
	}
	return occupied, nil
}
