package building

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/civicflow/api/internal/util"
)

// Repository is the persistence surface the service needs.
type Repository interface {
	Create(ctx context.Context, input CreateInput) (*Building, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Building, error)
	GetByBlock(ctx context.Context, block string) (*Building, error)
	List(ctx context.Context) ([]Building, error)
	Update(ctx context.Context, id uuid.UUID, input CreateInput) (*Building, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// OccupancyIndex answers whether any resident currently occupies a block.
type OccupancyIndex interface {
	BlockOccupied(ctx context.Context, block string) (bool, error)
}

// Service holds the business rules for the building directory.
type Service struct {
	repo      Repository
	occupancy OccupancyIndex
}

// NewService creates a new service instance.
func NewService(repo Repository, occupancy OccupancyIndex) *Service {
	return &Service{repo: repo, occupancy: occupancy}
}

// Create registers a new block after range validation.
func (s *Service) Create(ctx context.Context, input CreateInput) (*Building, error) {
	input.Block = strings.TrimSpace(input.Block)
	if err := util.RequireString(input.Block, "block"); err != nil {
		return nil, err
	}
	if input.TotalFloors < 1 || input.RoomsPerFloor < 1 {
		return nil, ErrInvalidRange
	}
	return s.repo.Create(ctx, input)
}

// Update changes a building's declared ranges. Existing residents and
// complaints recorded against the old range are intentionally left as-is;
// there is no cascading re-validation.
func (s *Service) Update(ctx context.Context, id uuid.UUID, input CreateInput) (*Building, error) {
	input.Block = strings.TrimSpace(input.Block)
	if err := util.RequireString(input.Block, "block"); err != nil {
		return nil, err
	}
	if input.TotalFloors < 1 || input.RoomsPerFloor < 1 {
		return nil, ErrInvalidRange
	}
	return s.repo.Update(ctx, id, input)
}

// Delete removes a block unless a resident still occupies it.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	occupied, err := s.occupancy.BlockOccupied(ctx, b.Block)
	if err != nil {
		return err
	}
	if occupied {
		return ErrBlockOccupied
	}

	return s.repo.Delete(ctx, id)
}

// List returns every registered building.
func (s *Service) List(ctx context.Context) ([]Building, error) {
	return s.repo.List(ctx)
}

// RangeOf returns the declared extent of a block.
func (s *Service) RangeOf(ctx context.Context, block string) (Range, error) {
	b, err := s.repo.GetByBlock(ctx, block)
	if err != nil {
		return Range{}, err
	}
	return Range{TotalFloors: b.TotalFloors, RoomsPerFloor: b.RoomsPerFloor}, nil
}
