package identity

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/civicflow/api/internal/auth"
	"github.com/civicflow/api/internal/building"
	"github.com/civicflow/api/internal/occupancy"
	"github.com/civicflow/api/internal/util"
)

// Repository is the persistence surface the service needs.
type Repository interface {
	CreateUser(ctx context.Context, username, email, passwordHash, role string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	UpdateUser(ctx context.Context, id uuid.UUID, username, email *string) error
	DeleteUser(ctx context.Context, id uuid.UUID) error
	CountByRole(ctx context.Context, role string) (int, error)

	CreateResidentProfile(ctx context.Context, userID uuid.UUID, contactNumber string) error
	UpdateResidentContact(ctx context.Context, userID uuid.UUID, contactNumber string) error
	GetResident(ctx context.Context, userID uuid.UUID) (*Resident, error)
	ListResidents(ctx context.Context) ([]Resident, error)

	CreateWorkerProfile(ctx context.Context, userID uuid.UUID, department string, assignedBlocks []string, contactNumber string) error
	UpdateWorkerProfile(ctx context.Context, userID uuid.UUID, department *string, assignedBlocks []string, contactNumber *string) error
	GetWorker(ctx context.Context, userID uuid.UUID) (*Worker, error)
	ListWorkers(ctx context.Context) ([]Worker, error)
	DepartmentOf(ctx context.Context, workerID uuid.UUID) (string, error)
}

// OccupancyIndex is the occupancy surface used for room assignment.
type OccupancyIndex interface {
	Assign(ctx context.Context, residentID uuid.UUID, addr occupancy.UnitAddress) error
	Reassign(ctx context.Context, residentID uuid.UUID, addr occupancy.UnitAddress) error
	IsOccupied(ctx context.Context, addr occupancy.UnitAddress) (bool, error)
	UnitOf(ctx context.Context, residentID uuid.UUID) (*occupancy.UnitAddress, error)
}

// BuildingRanges resolves blocks for unit address validation.
type BuildingRanges interface {
	RangeOf(ctx context.Context, block string) (building.Range, error)
}

// Service holds account and profile business rules.
type Service struct {
	repo      Repository
	occupancy OccupancyIndex
	buildings BuildingRanges
}

// NewService creates a new service instance.
func NewService(repo Repository, occupancy OccupancyIndex, buildings BuildingRanges) *Service {
	return &Service{repo: repo, occupancy: occupancy, buildings: buildings}
}

// RegisterResident creates a resident account with its unit assignment.
// The early IsOccupied check gives fast feedback; the unique index behind
// Assign remains the authority when two registrations race for one room.
func (s *Service) RegisterResident(ctx context.Context, input RegisterResidentInput) (*Resident, error) {
	if err := util.RequireString(input.Username, "username"); err != nil {
		return nil, err
	}
	if err := util.ValidateEmail(input.Email); err != nil {
		return nil, err
	}
	if err := util.ValidatePassword(input.Password); err != nil {
		return nil, err
	}
	if err := s.validateUnit(ctx, input.Unit); err != nil {
		return nil, err
	}

	occupied, err := s.occupancy.IsOccupied(ctx, input.Unit)
	if err != nil {
		return nil, err
	}
	if occupied {
		return nil, occupancy.ErrRoomOccupied
	}

	hash, err := auth.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.CreateUser(ctx, input.Username, input.Email, hash, RoleResident)
	if err != nil {
		return nil, err
	}

	if err := s.repo.CreateResidentProfile(ctx, user.ID, input.ContactNumber); err != nil {
		s.compensateUser(ctx, user.ID)
		return nil, err
	}

	if err := s.occupancy.Assign(ctx, user.ID, input.Unit); err != nil {
		s.compensateUser(ctx, user.ID)
		return nil, err
	}

	return &Resident{
		User:          *user,
		Unit:          &input.Unit,
		ContactNumber: input.ContactNumber,
	}, nil
}

// UpdateResident applies admin edits. A unit change is committed through
// Reassign, so the resident's own room never counts against them and a
// concurrent claim of the target room loses cleanly.
func (s *Service) UpdateResident(ctx context.Context, id uuid.UUID, input UpdateResidentInput) (*Resident, error) {
	resident, err := s.repo.GetResident(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Email != nil {
		if err := util.ValidateEmail(*input.Email); err != nil {
			return nil, err
		}
	}
	if input.Username != nil || input.Email != nil {
		if err := s.repo.UpdateUser(ctx, id, input.Username, input.Email); err != nil {
			return nil, err
		}
	}

	if input.Unit != nil && !sameUnit(resident.Unit, *input.Unit) {
		if err := s.validateUnit(ctx, *input.Unit); err != nil {
			return nil, err
		}
		if err := s.occupancy.Reassign(ctx, id, *input.Unit); err != nil {
			return nil, err
		}
	}

	if input.ContactNumber != nil {
		if err := s.repo.UpdateResidentContact(ctx, id, *input.ContactNumber); err != nil {
			return nil, err
		}
	}

	return s.repo.GetResident(ctx, id)
}

// DeleteResident removes the account; profile and room assignment cascade.
func (s *Service) DeleteResident(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.GetResident(ctx, id); err != nil {
		return err
	}
	return s.repo.DeleteUser(ctx, id)
}

// GetResident fetches one resident aggregate.
func (s *Service) GetResident(ctx context.Context, id uuid.UUID) (*Resident, error) {
	return s.repo.GetResident(ctx, id)
}

// ListResidents lists all resident aggregates.
func (s *Service) ListResidents(ctx context.Context) ([]Resident, error) {
	return s.repo.ListResidents(ctx)
}

// AddWorker creates a worker account with its profile.
func (s *Service) AddWorker(ctx context.Context, input AddWorkerInput) (*Worker, error) {
	if err := util.RequireString(input.Username, "username"); err != nil {
		return nil, err
	}
	if err := util.ValidateEmail(input.Email); err != nil {
		return nil, err
	}
	if err := util.ValidatePassword(input.Password); err != nil {
		return nil, err
	}
	if !IsValidDepartment(input.Department) {
		return nil, ErrInvalidDepartment
	}

	hash, err := auth.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.CreateUser(ctx, input.Username, input.Email, hash, RoleWorker)
	if err != nil {
		return nil, err
	}

	if err := s.repo.CreateWorkerProfile(ctx, user.ID, input.Department, input.AssignedBlocks, input.ContactNumber); err != nil {
		s.compensateUser(ctx, user.ID)
		return nil, err
	}

	return &Worker{
		User:           *user,
		Department:     input.Department,
		AssignedBlocks: input.AssignedBlocks,
		ContactNumber:  input.ContactNumber,
	}, nil
}

// UpdateWorker applies admin edits to a worker account and profile.
// Complaints the worker already accepted keep their original department;
// only future accepts see the new one.
func (s *Service) UpdateWorker(ctx context.Context, id uuid.UUID, input UpdateWorkerInput) (*Worker, error) {
	if _, err := s.repo.GetWorker(ctx, id); err != nil {
		return nil, err
	}

	if input.Department != nil && !IsValidDepartment(*input.Department) {
		return nil, ErrInvalidDepartment
	}
	if input.Email != nil {
		if err := util.ValidateEmail(*input.Email); err != nil {
			return nil, err
		}
	}

	if input.Username != nil || input.Email != nil {
		if err := s.repo.UpdateUser(ctx, id, input.Username, input.Email); err != nil {
			return nil, err
		}
	}

	if input.Department != nil || input.AssignedBlocks != nil || input.ContactNumber != nil {
		if err := s.repo.UpdateWorkerProfile(ctx, id, input.Department, input.AssignedBlocks, input.ContactNumber); err != nil {
			return nil, err
		}
	}

	return s.repo.GetWorker(ctx, id)
}

// DeleteWorker removes the account; the profile cascades. Complaints keep
// their worker reference history via ON DELETE SET NULL.
func (s *Service) DeleteWorker(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.GetWorker(ctx, id); err != nil {
		return err
	}
	return s.repo.DeleteUser(ctx, id)
}

// GetWorker fetches one worker aggregate.
func (s *Service) GetWorker(ctx context.Context, id uuid.UUID) (*Worker, error) {
	return s.repo.GetWorker(ctx, id)
}

// ListWorkers lists all worker aggregates.
func (s *Service) ListWorkers(ctx context.Context) ([]Worker, error) {
	return s.repo.ListWorkers(ctx)
}

// GetUser fetches an account by id.
func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetUserByID(ctx, id)
}

// DepartmentOf returns a worker's current department.
func (s *Service) DepartmentOf(ctx context.Context, workerID uuid.UUID) (string, error) {
	return s.repo.DepartmentOf(ctx, workerID)
}

// CountByRole returns the number of accounts holding a role.
func (s *Service) CountByRole(ctx context.Context, role string) (int, error) {
	return s.repo.CountByRole(ctx, role)
}

func (s *Service) validateUnit(ctx context.Context, unit occupancy.UnitAddress) error {
	rng, err := s.buildings.RangeOf(ctx, unit.Block)
	if err != nil {
		return err
	}
	return rng.Validate(unit.Floor, unit.RoomNumber)
}

func (s *Service) compensateUser(ctx context.Context, id uuid.UUID) {
	if err := s.repo.DeleteUser(ctx, id); err != nil {
		log.Warn().Err(err).Str("user_id", id.String()).Msg("failed to roll back partial account")
	}
}

func sameUnit(current *occupancy.UnitAddress, next occupancy.UnitAddress) bool {
	return current != nil && *current == next
}
