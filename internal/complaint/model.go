package complaint

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/civicflow/api/internal/occupancy"
)

var (
	ErrNotFound           = errors.New("complaint not found")
	ErrAlreadyProcessed   = errors.New("complaint already processed")
	ErrDepartmentMismatch = errors.New("complaint outside worker department")
	ErrNotOwner           = errors.New("complaint assigned to another worker")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrConflict           = errors.New("complaint changed concurrently")
	ErrInvalidStatus      = errors.New("invalid status")
	ErrUnknownResident    = errors.New("unknown resident")
	ErrUnknownWorker      = errors.New("unknown worker")
)

// Status is the lifecycle position of a complaint. Worker-driven transitions
// only ever move forward through the declared order.
type Status string

const (
	StatusPending    Status = "Pending"
	StatusAccepted   Status = "Accepted"
	StatusInProgress Status = "In Progress"
	StatusCompleted  Status = "Completed"
)

var validStatuses = map[Status]struct{}{
	StatusPending:    {},
	StatusAccepted:   {},
	StatusInProgress: {},
	StatusCompleted:  {},
}

// ParseStatus validates and canonicalizes a status string.
func ParseStatus(raw string) (Status, error) {
	status := Status(strings.TrimSpace(raw))
	if _, ok := validStatuses[status]; !ok {
		return "", ErrInvalidStatus
	}
	return status, nil
}

// Complaint is one maintenance request. The unit address is a denormalized
// copy of where the problem was reported; it is never re-validated against
// the resident's current profile.
type Complaint struct {
	ID          uuid.UUID  `json:"id"`
	ResidentID  uuid.UUID  `json:"resident_id"`
	WorkerID    *uuid.UUID `json:"worker_id,omitempty"`
	Department  string     `json:"department"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Images      []string   `json:"images"`
	Block       string     `json:"block"`
	Floor       int        `json:"floor"`
	RoomNumber  int        `json:"room_number"`
	Status      Status     `json:"status"`
	AcceptedAt  *time.Time `json:"accepted_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Display names joined from users; empty outside listing queries.
	ResidentName string `json:"resident_name,omitempty"`
	WorkerName   string `json:"worker_name,omitempty"`
}

// Unit returns the filed address as a value.
func (c *Complaint) Unit() occupancy.UnitAddress {
	return occupancy.UnitAddress{Block: c.Block, Floor: c.Floor, RoomNumber: c.RoomNumber}
}

// CreateInput carries fields for filing a complaint.
type CreateInput struct {
	ResidentID  uuid.UUID
	Department  string
	Title       string
	Description string
	Images      []string
	Unit        occupancy.UnitAddress
}

// AdminUpdateInput carries the admin free-edit fields; nil pointers leave
// fields untouched.
type AdminUpdateInput struct {
	Title       *string
	Description *string
	Department  *string
	Unit        *occupancy.UnitAddress
	Images      []string
	Status      *string
	WorkerID    *uuid.UUID
}

// Filter narrows admin listings.
type Filter struct {
	Status       *Status
	Department   *string
	Block        *string
	ResidentName *string
	WorkerName   *string
}
