package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/civicflow/api/internal/db"
	"github.com/civicflow/api/internal/occupancy"
)

// PGRepository provides access to users and the role profile tables.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates the repository instance.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// CreateUser inserts a new account. Emails are stored lowercased and the
// unique index reports duplicates.
func (r *PGRepository) CreateUser(ctx context.Context, username, email, passwordHash, role string) (*User, error) {
	const query = `
        INSERT INTO users (username, email, password_hash, role)
        VALUES ($1, $2, $3, $4)
        RETURNING id, username, email, password_hash, role, created_at
    `

	row := r.pool.QueryRow(ctx, query, strings.TrimSpace(username), normalizeEmail(email), passwordHash, role)
	user, err := scanUser(row)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return user, nil
}

// GetUserByEmail fetches an account by email.
func (r *PGRepository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	const query = `
        SELECT id, username, email, password_hash, role, created_at
        FROM users
        WHERE email = $1
    `

	user, err := scanUser(r.pool.QueryRow(ctx, query, normalizeEmail(email)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return user, err
}

// GetUserByID fetches an account by id.
func (r *PGRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	const query = `
        SELECT id, username, email, password_hash, role, created_at
        FROM users
        WHERE id = $1
    `

	user, err := scanUser(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return user, err
}

// UpdateUser changes the provided account fields.
func (r *PGRepository) UpdateUser(ctx context.Context, id uuid.UUID, username, email *string) error {
	setParts := []string{}
	args := []any{}
	idx := 1

	if username != nil {
		setParts = append(setParts, fmt.Sprintf("username = $%d", idx))
		args = append(args, strings.TrimSpace(*username))
		idx++
	}
	if email != nil {
		setParts = append(setParts, fmt.Sprintf("email = $%d", idx))
		args = append(args, normalizeEmail(*email))
		idx++
	}
	if len(setParts) == 0 {
		return nil
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE users SET %s WHERE id = $%d", strings.Join(setParts, ", "), idx)

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return ErrEmailTaken
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteUser removes the account. Profiles and room assignments cascade.
func (r *PGRepository) DeleteUser(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CountByRole returns how many accounts hold the role.
func (r *PGRepository) CountByRole(ctx context.Context, role string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM users WHERE role = $1`, role).Scan(&count)
	return count, err
}

// CreateResidentProfile attaches a resident profile to an account.
func (r *PGRepository) CreateResidentProfile(ctx context.Context, userID uuid.UUID, contactNumber string) error {
	const query = `
        INSERT INTO resident_profiles (user_id, contact_number)
        VALUES ($1, $2)
    `
	_, err := r.pool.Exec(ctx, query, userID, strings.TrimSpace(contactNumber))
	return err
}

// UpdateResidentContact changes a resident's contact number.
func (r *PGRepository) UpdateResidentContact(ctx context.Context, userID uuid.UUID, contactNumber string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE resident_profiles SET contact_number = $2 WHERE user_id = $1`,
		userID, strings.TrimSpace(contactNumber))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrProfileNotFound
	}
	return nil
}

// GetResident fetches a resident aggregate (account, profile, current unit).
func (r *PGRepository) GetResident(ctx context.Context, userID uuid.UUID) (*Resident, error) {
	const query = `
        SELECT u.id, u.username, u.email, u.password_hash, u.role, u.created_at,
               p.contact_number, a.block, a.floor, a.room_number
        FROM users u
        JOIN resident_profiles p ON p.user_id = u.id
        LEFT JOIN room_assignments a ON a.resident_id = u.id
        WHERE u.id = $1 AND u.role = 'resident'
    `

	resident, err := scanResident(r.pool.QueryRow(ctx, query, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return resident, err
}

// ListResidents returns every resident aggregate ordered by username.
func (r *PGRepository) ListResidents(ctx context.Context) ([]Resident, error) {
	const query = `
        SELECT u.id, u.username, u.email, u.password_hash, u.role, u.created_at,
               p.contact_number, a.block, a.floor, a.room_number
        FROM users u
        JOIN resident_profiles p ON p.user_id = u.id
        LEFT JOIN room_assignments a ON a.resident_id = u.id
        WHERE u.role = 'resident'
        ORDER BY u.username
    `

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var residents []Resident
	for rows.Next() {
		resident, err := scanResident(rows)
		if err != nil {
			return nil, err
		}
		residents = append(residents, *resident)
	}

	return residents, rows.Err()
}

// CreateWorkerProfile attaches a worker profile to an account.
func (r *PGRepository) CreateWorkerProfile(ctx context.Context, userID uuid.UUID, department string, assignedBlocks []string, contactNumber string) error {
	const query = `
        INSERT INTO worker_profiles (user_id, department, assigned_blocks, contact_number)
        VALUES ($1, $2, $3, $4)
    `

	if assignedBlocks == nil {
		assignedBlocks = []string{}
	}
	_, err := r.pool.Exec(ctx, query, userID, department, assignedBlocks, strings.TrimSpace(contactNumber))
	return err
}

// UpdateWorkerProfile changes the provided worker profile fields.
func (r *PGRepository) UpdateWorkerProfile(ctx context.Context, userID uuid.UUID, department *string, assignedBlocks []string, contactNumber *string) error {
	setParts := []string{}
	args := []any{}
	idx := 1

	if department != nil {
		setParts = append(setParts, fmt.Sprintf("department = $%d", idx))
		args = append(args, *department)
		idx++
	}
	if assignedBlocks != nil {
		setParts = append(setParts, fmt.Sprintf("assigned_blocks = $%d", idx))
		args = append(args, assignedBlocks)
		idx++
	}
	if contactNumber != nil {
		setParts = append(setParts, fmt.Sprintf("contact_number = $%d", idx))
		args = append(args, strings.TrimSpace(*contactNumber))
		idx++
	}
	if len(setParts) == 0 {
		return nil
	}

	args = append(args, userID)
	query := fmt.Sprintf("UPDATE worker_profiles SET %s WHERE user_id = $%d", strings.Join(setParts, ", "), idx)

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrProfileNotFound
	}
	return nil
}

// GetWorker fetches a worker aggregate.
func (r *PGRepository) GetWorker(ctx context.Context, userID uuid.UUID) (*Worker, error) {
	const query = `
        SELECT u.id, u.username, u.email, u.password_hash, u.role, u.created_at,
               p.department, p.assigned_blocks, p.contact_number
        FROM users u
        JOIN worker_profiles p ON p.user_id = u.id
        WHERE u.id = $1 AND u.role = 'worker'
    `

	worker, err := scanWorker(r.pool.QueryRow(ctx, query, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return worker, err
}

// ListWorkers returns every worker aggregate ordered by username.
func (r *PGRepository) ListWorkers(ctx context.Context) ([]Worker, error) {
	const query = `
        SELECT u.id, u.username, u.email, u.password_hash, u.role, u.created_at,
               p.department, p.assigned_blocks, p.contact_number
        FROM users u
        JOIN worker_profiles p ON p.user_id = u.id
        WHERE u.role = 'worker'
        ORDER BY u.username
    `

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var workers []Worker
	for rows.Next() {
		worker, err := scanWorker(rows)
		if err != nil {
			return nil, err
		}
		workers = append(workers, *worker)
	}

	return workers, rows.Err()
}

// DepartmentOf returns a worker's current profile department.
func (r *PGRepository) DepartmentOf(ctx context.Context, workerID uuid.UUID) (string, error) {
	const query = `SELECT department FROM worker_profiles WHERE user_id = $1`

	var department string
	err := r.pool.QueryRow(ctx, query, workerID).Scan(&department)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrProfileNotFound
	}
	return department, err
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func scanResident(row pgx.Row) (*Resident, error) {
	var (
		res   Resident
		block *string
		floor *int
		room  *int
	)
	err := row.Scan(&res.ID, &res.Username, &res.Email, &res.PasswordHash, &res.Role, &res.CreatedAt,
		&res.ContactNumber, &block, &floor, &room)
	if err != nil {
		return nil, err
	}
	if block != nil && floor != nil && room != nil {
		res.Unit = &occupancy.UnitAddress{Block: *block, Floor: *floor, RoomNumber: *room}
	}
	return &res, nil
}

func scanWorker(row pgx.Row) (*Worker, error) {
	var w Worker
	err := row.Scan(&w.ID, &w.Username, &w.Email, &w.PasswordHash, &w.Role, &w.CreatedAt,
		&w.Department, &w.AssignedBlocks, &w.ContactNumber)
	if err != nil {
		return nil, err
	}
	return &w, nil
}
