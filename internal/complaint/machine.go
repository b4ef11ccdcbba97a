package complaint

import (
	"github.com/google/uuid"
)

// Transition guards for the worker-facing lifecycle
// Pending -> Accepted -> In Progress -> Completed. Each guard is a pure
// check over a snapshot; the repository re-asserts the precondition at
// commit time so a losing racer gets ErrConflict instead of overwriting.

// CanAccept checks that a worker of the given department may claim the
// complaint. Listings are already filtered by department, but the engine
// re-checks here.
func CanAccept(c *Complaint, workerDepartment string) error {
	if c.Status != StatusPending {
		return ErrAlreadyProcessed
	}
	if c.Department != workerDepartment {
		return ErrDepartmentMismatch
	}
	return nil
}

// CanStart checks that the assigned worker may begin work.
func CanStart(c *Complaint, workerID uuid.UUID) error {
	if c.WorkerID == nil || *c.WorkerID != workerID {
		return ErrNotOwner
	}
	if c.Status != StatusAccepted {
		return ErrInvalidTransition
	}
	return nil
}

// CanComplete checks that the assigned worker may finish work.
func CanComplete(c *Complaint, workerID uuid.UUID) error {
	if c.WorkerID == nil || *c.WorkerID != workerID {
		return ErrNotOwner
	}
	if c.Status != StatusInProgress {
		return ErrInvalidTransition
	}
	return nil
}

// CheckInvariants verifies the base entity invariants that hold regardless
// of how a complaint was mutated. Admin free-edit bypasses the ordering
// guards above but still must satisfy these.
func CheckInvariants(c *Complaint) error {
	switch c.Status {
	case StatusPending:
		if c.WorkerID != nil || c.AcceptedAt != nil || c.CompletedAt != nil {
			return ErrInvalidTransition
		}
	case StatusAccepted, StatusInProgress:
		if c.WorkerID == nil || c.AcceptedAt == nil || c.CompletedAt != nil {
			return ErrInvalidTransition
		}
	case StatusCompleted:
		if c.WorkerID == nil || c.AcceptedAt == nil || c.CompletedAt == nil {
			return ErrInvalidTransition
		}
		if c.CompletedAt.Before(*c.AcceptedAt) {
			return ErrInvalidTransition
		}
	default:
		return ErrInvalidStatus
	}
	return nil
}
