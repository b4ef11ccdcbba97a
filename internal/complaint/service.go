package complaint

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/civicflow/api/internal/building"
	"github.com/civicflow/api/internal/identity"
	"github.com/civicflow/api/internal/occupancy"
	"github.com/civicflow/api/internal/util"
)

// Repository is the persistence surface the service needs.
type Repository interface {
	Create(ctx context.Context, input CreateInput) (*Complaint, error)
	Get(ctx context.Context, id uuid.UUID) (*Complaint, error)
	ListByResident(ctx context.Context, residentID uuid.UUID) ([]Complaint, error)
	ListAvailable(ctx context.Context, department string) ([]Complaint, error)
	ListTasks(ctx context.Context, workerID uuid.UUID) ([]Complaint, error)
	ListCompleted(ctx context.Context, workerID uuid.UUID) ([]Complaint, error)
	List(ctx context.Context, filter Filter) ([]Complaint, error)
	ListRecent(ctx context.Context, limit int) ([]Complaint, error)
	CountByStatuses(ctx context.Context, statuses ...Status) (int, error)
	Accept(ctx context.Context, id, workerID uuid.UUID, now time.Time) (*Complaint, error)
	Transition(ctx context.Context, id, workerID uuid.UUID, from, to Status, completedAt *time.Time) (*Complaint, error)
	Update(ctx context.Context, c *Complaint) (*Complaint, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Directory resolves accounts and worker departments.
type Directory interface {
	GetUser(ctx context.Context, id uuid.UUID) (*identity.User, error)
	DepartmentOf(ctx context.Context, workerID uuid.UUID) (string, error)
}

// BuildingRanges resolves blocks for unit address validation at filing time.
type BuildingRanges interface {
	RangeOf(ctx context.Context, block string) (building.Range, error)
}

// Service runs the complaint lifecycle.
type Service struct {
	repo      Repository
	directory Directory
	buildings BuildingRanges
}

// NewService creates a new service instance.
func NewService(repo Repository, directory Directory, buildings BuildingRanges) *Service {
	return &Service{repo: repo, directory: directory, buildings: buildings}
}

// Raise files a new complaint for the calling resident.
func (s *Service) Raise(ctx context.Context, residentID uuid.UUID, input CreateInput) (*Complaint, error) {
	input.ResidentID = residentID
	if err := s.validateCreate(ctx, input); err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, input)
}

// AdminCreate files a complaint on behalf of a resident.
func (s *Service) AdminCreate(ctx context.Context, input CreateInput) (*Complaint, error) {
	user, err := s.directory.GetUser(ctx, input.ResidentID)
	if err != nil || user.Role != identity.RoleResident {
		return nil, ErrUnknownResident
	}
	if err := s.validateCreate(ctx, input); err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, input)
}

// ListMine returns the calling resident's complaints.
func (s *Service) ListMine(ctx context.Context, residentID uuid.UUID) ([]Complaint, error) {
	return s.repo.ListByResident(ctx, residentID)
}

// ListAvailable returns unclaimed Pending complaints matching the calling
// worker's current profile department.
func (s *Service) ListAvailable(ctx context.Context, workerID uuid.UUID) ([]Complaint, error) {
	department, err := s.directory.DepartmentOf(ctx, workerID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListAvailable(ctx, department)
}

// Accept claims a Pending complaint for the calling worker. The guard runs
// on a snapshot; the repository commit re-asserts the Pending/unclaimed
// precondition, so the loser of a race gets ErrConflict.
func (s *Service) Accept(ctx context.Context, id, workerID uuid.UUID) (*Complaint, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	department, err := s.directory.DepartmentOf(ctx, workerID)
	if err != nil {
		return nil, err
	}
	if err := CanAccept(c, department); err != nil {
		return nil, err
	}

	return s.repo.Accept(ctx, id, workerID, time.Now().UTC())
}

// Start moves an Accepted complaint to In Progress.
func (s *Service) Start(ctx context.Context, id, workerID uuid.UUID) (*Complaint, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := CanStart(c, workerID); err != nil {
		return nil, err
	}

	return s.repo.Transition(ctx, id, workerID, StatusAccepted, StatusInProgress, nil)
}

// Complete finishes an In Progress complaint and stamps completion.
func (s *Service) Complete(ctx context.Context, id, workerID uuid.UUID) (*Complaint, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := CanComplete(c, workerID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return s.repo.Transition(ctx, id, workerID, StatusInProgress, StatusCompleted, &now)
}

// ListTasks returns the calling worker's in-flight complaints.
func (s *Service) ListTasks(ctx context.Context, workerID uuid.UUID) ([]Complaint, error) {
	return s.repo.ListTasks(ctx, workerID)
}

// ListCompleted returns the calling worker's finished complaints.
func (s *Service) ListCompleted(ctx context.Context, workerID uuid.UUID) ([]Complaint, error) {
	return s.repo.ListCompleted(ctx, workerID)
}

// Get fetches one complaint.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Complaint, error) {
	return s.repo.Get(ctx, id)
}

// AdminList applies the admin filter.
func (s *Service) AdminList(ctx context.Context, filter Filter) ([]Complaint, error) {
	return s.repo.List(ctx, filter)
}

// AdminUpdate is the operational escape hatch: it bypasses the forward-only
// ordering guard, so the admin can correct a complaint into any status. The
// base entity invariants still hold; timestamps are backfilled or cleared to
// keep the record consistent with the target status.
func (s *Service) AdminUpdate(ctx context.Context, id uuid.UUID, input AdminUpdateInput) (*Complaint, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		if err := util.RequireString(*input.Title, "title"); err != nil {
			return nil, err
		}
		c.Title = *input.Title
	}
	if input.Description != nil {
		if err := util.RequireString(*input.Description, "description"); err != nil {
			return nil, err
		}
		c.Description = *input.Description
	}
	if input.Department != nil {
		if !identity.IsValidDepartment(*input.Department) {
			return nil, identity.ErrInvalidDepartment
		}
		c.Department = *input.Department
	}
	if input.Unit != nil {
		if err := s.validateUnit(ctx, *input.Unit); err != nil {
			return nil, err
		}
		c.Block = input.Unit.Block
		c.Floor = input.Unit.Floor
		c.RoomNumber = input.Unit.RoomNumber
	}
	if input.Images != nil {
		c.Images = input.Images
	}
	if input.WorkerID != nil {
		user, err := s.directory.GetUser(ctx, *input.WorkerID)
		if err != nil || user.Role != identity.RoleWorker {
			return nil, ErrUnknownWorker
		}
		c.WorkerID = input.WorkerID
	}

	if input.Status != nil {
		status, err := ParseStatus(*input.Status)
		if err != nil {
			return nil, err
		}
		applyAdminStatus(c, status, time.Now().UTC())
	}

	if err := CheckInvariants(c); err != nil {
		return nil, err
	}

	return s.repo.Update(ctx, c)
}

// AdminDelete removes a complaint outright.
func (s *Service) AdminDelete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// OpenCount counts complaints that are not yet resolved.
func (s *Service) OpenCount(ctx context.Context) (int, error) {
	return s.repo.CountByStatuses(ctx, StatusPending, StatusAccepted, StatusInProgress)
}

// ResolvedCount counts completed complaints.
func (s *Service) ResolvedCount(ctx context.Context) (int, error) {
	return s.repo.CountByStatuses(ctx, StatusCompleted)
}

// Recent returns the latest filed complaints.
func (s *Service) Recent(ctx context.Context, limit int) ([]Complaint, error) {
	return s.repo.ListRecent(ctx, limit)
}

// applyAdminStatus moves the snapshot to the target status, backfilling the
// side-effect timestamps a normal transition would have stamped and clearing
// the ones that no longer apply.
func applyAdminStatus(c *Complaint, status Status, now time.Time) {
	c.Status = status

	switch status {
	case StatusPending:
		c.WorkerID = nil
		c.AcceptedAt = nil
		c.CompletedAt = nil
	case StatusAccepted, StatusInProgress:
		if c.AcceptedAt == nil {
			c.AcceptedAt = &now
		}
		c.CompletedAt = nil
	case StatusCompleted:
		if c.AcceptedAt == nil {
			c.AcceptedAt = &now
		}
		if c.CompletedAt == nil {
			c.CompletedAt = &now
		}
	}
}

func (s *Service) validateCreate(ctx context.Context, input CreateInput) error {
	if err := util.RequireString(input.Title, "title"); err != nil {
		return err
	}
	if err := util.RequireString(input.Description, "description"); err != nil {
		return err
	}
	if !identity.IsValidDepartment(input.Department) {
		return identity.ErrInvalidDepartment
	}
	return s.validateUnit(ctx, input.Unit)
}

func (s *Service) validateUnit(ctx context.Context, unit occupancy.UnitAddress) error {
	rng, err := s.buildings.RangeOf(ctx, unit.Block)
	if err != nil {
		return err
	}
	return rng.Validate(unit.Floor, unit.RoomNumber)
}
