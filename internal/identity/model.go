package identity

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/civicflow/api/internal/occupancy"
)

var (
	ErrNotFound          = errors.New("user not found")
	ErrProfileNotFound   = errors.New("profile not found")
	ErrEmailTaken        = errors.New("email already registered")
	ErrInvalidDepartment = errors.New("invalid department")
)

// Roles a user account can hold. One account owns at most one
// role-specific profile.
const (
	RoleAdmin    = "admin"
	RoleResident = "resident"
	RoleWorker   = "worker"
)

// Departments shared between worker profiles and complaints.
const (
	DepartmentElectrician = "Electrician"
	DepartmentPlumber     = "Plumber"
	DepartmentCarpenter   = "Carpenter"
	DepartmentTechnical   = "Technical"
	DepartmentOther       = "Other"
)

var validDepartments = map[string]struct{}{
	DepartmentElectrician: {},
	DepartmentPlumber:     {},
	DepartmentCarpenter:   {},
	DepartmentTechnical:   {},
	DepartmentOther:       {},
}

// IsValidDepartment reports whether the department is one of the known trades.
func IsValidDepartment(department string) bool {
	_, ok := validDepartments[strings.TrimSpace(department)]
	return ok
}

// User is one account in the identity store.
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Resident aggregates an account with its profile and current unit.
type Resident struct {
	User
	Unit          *occupancy.UnitAddress `json:"unit,omitempty"`
	ContactNumber string                 `json:"contact_number"`
}

// Worker aggregates an account with its worker profile.
type Worker struct {
	User
	Department     string   `json:"department"`
	AssignedBlocks []string `json:"assigned_blocks"`
	ContactNumber  string   `json:"contact_number"`
}

// RegisterResidentInput carries resident self-registration fields.
type RegisterResidentInput struct {
	Username      string
	Email         string
	Password      string
	Unit          occupancy.UnitAddress
	ContactNumber string
}

// UpdateResidentInput carries admin edits; nil pointers leave fields as-is.
type UpdateResidentInput struct {
	Username      *string
	Email         *string
	Unit          *occupancy.UnitAddress
	ContactNumber *string
}

// AddWorkerInput carries admin worker creation fields.
type AddWorkerInput struct {
	Username       string
	Email          string
	Password       string
	Department     string
	AssignedBlocks []string
	ContactNumber  string
}

// UpdateWorkerInput carries admin worker edits; nil pointers leave fields as-is.
type UpdateWorkerInput struct {
	Username       *string
	Email          *string
	Department     *string
	AssignedBlocks []string
	ContactNumber  *string
}
