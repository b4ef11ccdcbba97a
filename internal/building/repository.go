package building

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/civicflow/api/internal/db"
)

// PGRepository provides access to the buildings table.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates the repository instance.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// Create inserts a new building. The unique index on block reports duplicates.
func (r *PGRepository) Create(ctx context.Context, input CreateInput) (*Building, error) {
	const query = `
        INSERT INTO buildings (block, total_floors, rooms_per_floor)
        VALUES ($1, $2, $3)
        RETURNING id, block, total_floors, rooms_per_floor
    `

	row := r.pool.QueryRow(ctx, query, strings.TrimSpace(input.Block), input.TotalFloors, input.RoomsPerFloor)
	b, err := scanBuilding(row)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, ErrDuplicateBlock
		}
		return nil, err
	}
	return b, nil
}

// GetByID fetches a building by id.
func (r *PGRepository) GetByID(ctx context.Context, id uuid.UUID) (*Building, error) {
	const query = `
        SELECT id, block, total_floors, rooms_per_floor
        FROM buildings
        WHERE id = $1
    `

	b, err := scanBuilding(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

// GetByBlock fetches a building by its block name.
func (r *PGRepository) GetByBlock(ctx context.Context, block string) (*Building, error) {
	const query = `
        SELECT id, block, total_floors, rooms_per_floor
        FROM buildings
        WHERE block = $1
    `

	b, err := scanBuilding(r.pool.QueryRow(ctx, query, strings.TrimSpace(block)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUnknownBlock
		}
		return nil, err
	}
	return b, nil
}

// List returns all buildings ordered by block name.
func (r *PGRepository) List(ctx context.Context) ([]Building, error) {
	const query = `
        SELECT id, block, total_floors, rooms_per_floor
        FROM buildings
        ORDER BY block
    `

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var buildings []Building
	for rows.Next() {
		b, err := scanBuilding(rows)
		if err != nil {
			return nil, err
		}
		buildings = append(buildings, *b)
	}

	return buildings, rows.Err()
}

// Update replaces the mutable fields of a building.
func (r *PGRepository) Update(ctx context.Context, id uuid.UUID, input CreateInput) (*Building, error) {
	const query = `
        UPDATE buildings
        SET block = $2, total_floors = $3, rooms_per_floor = $4
        WHERE id = $1
        RETURNING id, block, total_floors, rooms_per_floor
    `

	b, err := scanBuilding(r.pool.QueryRow(ctx, query, id, strings.TrimSpace(input.Block), input.TotalFloors, input.RoomsPerFloor))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		if db.IsUniqueViolation(err, "") {
			return nil, ErrDuplicateBlock
		}
		return nil, err
	}
	return b, nil
}

// Delete removes a building.
func (r *PGRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM buildings WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanBuilding(row pgx.Row) (*Building, error) {
	var b Building
	if err := row.Scan(&b.ID, &b.Block, &b.TotalFloors, &b.RoomsPerFloor); err != nil {
		return nil, err
	}
	return &b, nil
}
