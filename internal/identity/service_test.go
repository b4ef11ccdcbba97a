package identity

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/civicflow/api/internal/building"
	"github.com/civicflow/api/internal/occupancy"
	"github.com/civicflow/api/internal/util"
)

type stubRepo struct {
	users     map[uuid.UUID]*User
	residents map[uuid.UUID]string
	workers   map[uuid.UUID]*Worker

	failResidentProfile bool
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		users:     make(map[uuid.UUID]*User),
		residents: make(map[uuid.UUID]string),
		workers:   make(map[uuid.UUID]*Worker),
	}
}

func (s *stubRepo) CreateUser(_ context.Context, username, email, passwordHash, role string) (*User, error) {
	email = strings.ToLower(email)
	for _, u := range s.users {
		if u.Email == email {
			return nil, ErrEmailTaken
		}
	}
	u := &User{ID: uuid.New(), Username: username, Email: email, PasswordHash: passwordHash, Role: role}
	s.users[u.ID] = u
	return u, nil
}

func (s *stubRepo) GetUserByEmail(_ context.Context, email string) (*User, error) {
	email = strings.ToLower(email)
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, ErrNotFound
}

func (s *stubRepo) GetUserByID(_ context.Context, id uuid.UUID) (*User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return u, nil
}

func (s *stubRepo) UpdateUser(_ context.Context, id uuid.UUID, username, email *string) error {
	u, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	if username != nil {
		u.Username = *username
	}
	if email != nil {
		u.Email = strings.ToLower(*email)
	}
	return nil
}

func (s *stubRepo) DeleteUser(_ context.Context, id uuid.UUID) error {
	if _, ok := s.users[id]; !ok {
		return ErrNotFound
	}
	delete(s.users, id)
	delete(s.residents, id)
	delete(s.workers, id)
	return nil
}

func (s *stubRepo) CountByRole(_ context.Context, role string) (int, error) {
	count := 0
	for _, u := range s.users {
		if u.Role == role {
			count++
		}
	}
	return count, nil
}

func (s *stubRepo) CreateResidentProfile(_ context.Context, userID uuid.UUID, contactNumber string) error {
	if s.failResidentProfile {
		return errors.New("insert failed")
	}
	s.residents[userID] = contactNumber
	return nil
}

func (s *stubRepo) UpdateResidentContact(_ context.Context, userID uuid.UUID, contactNumber string) error {
	if _, ok := s.residents[userID]; !ok {
		return ErrProfileNotFound
	}
	s.residents[userID] = contactNumber
	return nil
}

func (s *stubRepo) GetResident(_ context.Context, userID uuid.UUID) (*Resident, error) {
	u, ok := s.users[userID]
	if !ok {
		return nil, ErrNotFound
	}
	contact, ok := s.residents[userID]
	if !ok {
		return nil, ErrProfileNotFound
	}
	return &Resident{User: *u, ContactNumber: contact}, nil
}

func (s *stubRepo) ListResidents(_ context.Context) ([]Resident, error) {
	var out []Resident
	for id := range s.residents {
		r, err := s.GetResident(context.Background(), id)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, nil
}

func (s *stubRepo) CreateWorkerProfile(_ context.Context, userID uuid.UUID, department string, assignedBlocks []string, contactNumber string) error {
	u, ok := s.users[userID]
	if !ok {
		return ErrNotFound
	}
	s.workers[userID] = &Worker{User: *u, Department: department, AssignedBlocks: assignedBlocks, ContactNumber: contactNumber}
	return nil
}

func (s *stubRepo) UpdateWorkerProfile(_ context.Context, userID uuid.UUID, department *string, assignedBlocks []string, contactNumber *string) error {
	w, ok := s.workers[userID]
	if !ok {
		return ErrProfileNotFound
	}
	if department != nil {
		w.Department = *department
	}
	if assignedBlocks != nil {
		w.AssignedBlocks = assignedBlocks
	}
	if contactNumber != nil {
		w.ContactNumber = *contactNumber
	}
	return nil
}

func (s *stubRepo) GetWorker(_ context.Context, userID uuid.UUID) (*Worker, error) {
	w, ok := s.workers[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return w, nil
}

func (s *stubRepo) ListWorkers(_ context.Context) ([]Worker, error) {
	var out []Worker
	for _, w := range s.workers {
		out = append(out, *w)
	}
	return out, nil
}

func (s *stubRepo) DepartmentOf(_ context.Context, workerID uuid.UUID) (string, error) {
	w, ok := s.workers[workerID]
	if !ok {
		return "", ErrProfileNotFound
	}
	return w.Department, nil
}

type stubOccupancy struct {
	units map[uuid.UUID]occupancy.UnitAddress

	failAssign bool
}

func newStubOccupancy() *stubOccupancy {
	return &stubOccupancy{units: make(map[uuid.UUID]occupancy.UnitAddress)}
}

func (s *stubOccupancy) holder(addr occupancy.UnitAddress) (uuid.UUID, bool) {
	for id, unit := range s.units {
		if unit == addr {
			return id, true
		}
	}
	return uuid.Nil, false
}

func (s *stubOccupancy) Assign(_ context.Context, residentID uuid.UUID, addr occupancy.UnitAddress) error {
	if s.failAssign {
		return errors.New("insert failed")
	}
	if _, taken := s.holder(addr); taken {
		return occupancy.ErrRoomOccupied
	}
	s.units[residentID] = addr
	return nil
}

func (s *stubOccupancy) Reassign(_ context.Context, residentID uuid.UUID, addr occupancy.UnitAddress) error {
	if holder, taken := s.holder(addr); taken && holder != residentID {
		return occupancy.ErrRoomOccupied
	}
	s.units[residentID] = addr
	return nil
}

func (s *stubOccupancy) IsOccupied(_ context.Context, addr occupancy.UnitAddress) (bool, error) {
	_, taken := s.holder(addr)
	return taken, nil
}

func (s *stubOccupancy) UnitOf(_ context.Context, residentID uuid.UUID) (*occupancy.UnitAddress, error) {
	unit, ok := s.units[residentID]
	if !ok {
		return nil, nil
	}
	return &unit, nil
}

type stubRanges struct{}

func (stubRanges) RangeOf(_ context.Context, block string) (building.Range, error) {
	if block != "A" && block != "B" {
		return building.Range{}, building.ErrUnknownBlock
	}
	return building.Range{TotalFloors: 3, RoomsPerFloor: 4}, nil
}

func registerInput() RegisterResidentInput {
	return RegisterResidentInput{
		Username:      "alice",
		Email:         "alice@example.com",
		Password:      "supersecret",
		Unit:          occupancy.UnitAddress{Block: "A", Floor: 1, RoomNumber: 2},
		ContactNumber: "555-0100",
	}
}

func TestRegisterResident(t *testing.T) {
	repo := newStubRepo()
	occ := newStubOccupancy()
	svc := NewService(repo, occ, stubRanges{})
	ctx := context.Background()

	resident, err := svc.RegisterResident(ctx, registerInput())
	if err != nil {
		t.Fatalf("RegisterResident() = %v", err)
	}
	if resident.Role != RoleResident {
		t.Fatalf("role = %q, want resident", resident.Role)
	}
	if resident.Unit == nil || resident.Unit.RoomNumber != 2 {
		t.Fatalf("unit = %+v", resident.Unit)
	}
	if resident.PasswordHash == "supersecret" {
		t.Fatal("password stored in clear")
	}

	unit, err := occ.UnitOf(ctx, resident.ID)
	if err != nil || unit == nil {
		t.Fatalf("UnitOf() = %v, %v", unit, err)
	}
}

func TestRegisterResidentValidation(t *testing.T) {
	svc := NewService(newStubRepo(), newStubOccupancy(), stubRanges{})
	ctx := context.Background()

	tests := []struct {
		name    string
		mutate  func(*RegisterResidentInput)
		wantErr error
	}{
		{name: "blank username", mutate: func(in *RegisterResidentInput) { in.Username = " " }, wantErr: util.ErrValidation},
		{name: "bad email", mutate: func(in *RegisterResidentInput) { in.Email = "not-an-email" }, wantErr: util.ErrValidation},
		{name: "short password", mutate: func(in *RegisterResidentInput) { in.Password = "short" }, wantErr: util.ErrValidation},
		{name: "unknown block", mutate: func(in *RegisterResidentInput) { in.Unit.Block = "Z" }, wantErr: building.ErrUnknownBlock},
		{name: "floor out of range", mutate: func(in *RegisterResidentInput) { in.Unit.Floor = 9 }, wantErr: building.ErrFloorOutOfRange},
		{name: "room out of range", mutate: func(in *RegisterResidentInput) { in.Unit.RoomNumber = 9 }, wantErr: building.ErrRoomOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := registerInput()
			tt.mutate(&input)
			if _, err := svc.RegisterResident(ctx, input); !errors.Is(err, tt.wantErr) {
				t.Fatalf("RegisterResident() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRegisterResidentRoomTaken(t *testing.T) {
	repo := newStubRepo()
	occ := newStubOccupancy()
	svc := NewService(repo, occ, stubRanges{})
	ctx := context.Background()

	if _, err := svc.RegisterResident(ctx, registerInput()); err != nil {
		t.Fatalf("first RegisterResident() = %v", err)
	}

	input := registerInput()
	input.Email = "bob@example.com"
	if _, err := svc.RegisterResident(ctx, input); !errors.Is(err, occupancy.ErrRoomOccupied) {
		t.Fatalf("second RegisterResident() = %v, want ErrRoomOccupied", err)
	}

	if count, _ := repo.CountByRole(ctx, RoleResident); count != 1 {
		t.Fatalf("resident count = %d, want 1", count)
	}
}

func TestRegisterResidentCompensatesOnAssignFailure(t *testing.T) {
	repo := newStubRepo()
	occ := newStubOccupancy()
	occ.failAssign = true
	svc := NewService(repo, occ, stubRanges{})
	ctx := context.Background()

	if _, err := svc.RegisterResident(ctx, registerInput()); err == nil {
		t.Fatal("RegisterResident() succeeded despite assign failure")
	}

	// The half-created account must not linger: the same email can retry.
	occ.failAssign = false
	if _, err := svc.RegisterResident(ctx, registerInput()); err != nil {
		t.Fatalf("retry RegisterResident() = %v", err)
	}
}

func TestUpdateResidentReassignsOnlyWhenUnitChanges(t *testing.T) {
	repo := newStubRepo()
	occ := newStubOccupancy()
	svc := NewService(repo, occ, stubRanges{})
	ctx := context.Background()

	alice, err := svc.RegisterResident(ctx, registerInput())
	if err != nil {
		t.Fatalf("RegisterResident() = %v", err)
	}

	bobInput := registerInput()
	bobInput.Email = "bob@example.com"
	bobInput.Unit = occupancy.UnitAddress{Block: "A", Floor: 1, RoomNumber: 3}
	bob, err := svc.RegisterResident(ctx, bobInput)
	if err != nil {
		t.Fatalf("RegisterResident() = %v", err)
	}

	// Re-submitting Alice's current unit must not fail on her own room.
	sameUnit := *currentUnit(t, occ, alice.ID)
	if _, err := svc.UpdateResident(ctx, alice.ID, UpdateResidentInput{Unit: &sameUnit}); err != nil {
		t.Fatalf("UpdateResident() same unit = %v", err)
	}

	// Moving onto Bob's room must fail.
	bobUnit := *currentUnit(t, occ, bob.ID)
	if _, err := svc.UpdateResident(ctx, alice.ID, UpdateResidentInput{Unit: &bobUnit}); !errors.Is(err, occupancy.ErrRoomOccupied) {
		t.Fatalf("UpdateResident() onto taken room = %v, want ErrRoomOccupied", err)
	}

	// Moving to a free room works and releases the old one.
	free := occupancy.UnitAddress{Block: "B", Floor: 2, RoomNumber: 1}
	if _, err := svc.UpdateResident(ctx, alice.ID, UpdateResidentInput{Unit: &free}); err != nil {
		t.Fatalf("UpdateResident() to free room = %v", err)
	}
	if unit := currentUnit(t, occ, alice.ID); *unit != free {
		t.Fatalf("unit after move = %+v", unit)
	}
}

func currentUnit(t *testing.T, occ *stubOccupancy, id uuid.UUID) *occupancy.UnitAddress {
	t.Helper()
	unit, err := occ.UnitOf(context.Background(), id)
	if err != nil || unit == nil {
		t.Fatalf("UnitOf() = %v, %v", unit, err)
	}
	return unit
}

func TestAddWorker(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo, newStubOccupancy(), stubRanges{})
	ctx := context.Background()

	worker, err := svc.AddWorker(ctx, AddWorkerInput{
		Username:       "wanda",
		Email:          "wanda@example.com",
		Password:       "supersecret",
		Department:     DepartmentElectrician,
		AssignedBlocks: []string{"A"},
	})
	if err != nil {
		t.Fatalf("AddWorker() = %v", err)
	}
	if worker.Role != RoleWorker {
		t.Fatalf("role = %q", worker.Role)
	}

	department, err := svc.DepartmentOf(ctx, worker.ID)
	if err != nil || department != DepartmentElectrician {
		t.Fatalf("DepartmentOf() = %q, %v", department, err)
	}

	if _, err := svc.AddWorker(ctx, AddWorkerInput{
		Username:   "joe",
		Email:      "joe@example.com",
		Password:   "supersecret",
		Department: "Gardener",
	}); !errors.Is(err, ErrInvalidDepartment) {
		t.Fatalf("AddWorker() bad department = %v, want ErrInvalidDepartment", err)
	}
}

func TestDeleteResidentFreesRoom(t *testing.T) {
	repo := newStubRepo()
	occ := newStubOccupancy()
	svc := NewService(repo, occ, stubRanges{})
	ctx := context.Background()

	resident, err := svc.RegisterResident(ctx, registerInput())
	if err != nil {
		t.Fatalf("RegisterResident() = %v", err)
	}

	if err := svc.DeleteResident(ctx, resident.ID); err != nil {
		t.Fatalf("DeleteResident() = %v", err)
	}

	// Stub mirrors the FK cascade: deleting the user releases the room.
	delete(occ.units, resident.ID)

	input := registerInput()
	input.Email = "carol@example.com"
	if _, err := svc.RegisterResident(ctx, input); err != nil {
		t.Fatalf("re-register into freed room = %v", err)
	}
}
