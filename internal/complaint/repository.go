package complaint

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const complaintColumnsBare = `
    id, resident_id, worker_id, department, title, description,
    images, block, floor, room_number, status,
    accepted_at, completed_at, created_at, updated_at
`

const complaintColumns = `
    c.id, c.resident_id, c.worker_id, c.department, c.title, c.description,
    c.images, c.block, c.floor, c.room_number, c.status,
    c.accepted_at, c.completed_at, c.created_at, c.updated_at
`

const complaintColumnsWithNames = complaintColumns + `,
    coalesce(res.username, ''), coalesce(wrk.username, '')
`

const nameJoins = `
    LEFT JOIN users res ON res.id = c.resident_id
    LEFT JOIN users wrk ON wrk.id = c.worker_id
`

// PGRepository is the sole owner of complaint records.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates the repository instance.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// Create files a new Pending complaint.
func (r *PGRepository) Create(ctx context.Context, input CreateInput) (*Complaint, error) {
	const query = `
        INSERT INTO complaints (resident_id, department, title, description, images, block, floor, room_number, status)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'Pending')
        RETURNING ` + complaintColumnsBare

	images := input.Images
	if images == nil {
		images = []string{}
	}

	row := r.pool.QueryRow(ctx, query,
		input.ResidentID,
		input.Department,
		strings.TrimSpace(input.Title),
		strings.TrimSpace(input.Description),
		images,
		input.Unit.Block,
		input.Unit.Floor,
		input.Unit.RoomNumber,
	)

	return scanComplaint(row, false)
}

// Get fetches one complaint.
func (r *PGRepository) Get(ctx context.Context, id uuid.UUID) (*Complaint, error) {
	query := `SELECT ` + complaintColumnsWithNames + ` FROM complaints c ` + nameJoins + ` WHERE c.id = $1`

	c, err := scanComplaint(r.pool.QueryRow(ctx, query, id), true)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return c, err
}

// ListByResident returns a resident's complaints, newest first.
func (r *PGRepository) ListByResident(ctx context.Context, residentID uuid.UUID) ([]Complaint, error) {
	query := `SELECT ` + complaintColumnsWithNames + ` FROM complaints c ` + nameJoins + `
        WHERE c.resident_id = $1
        ORDER BY c.created_at DESC`

	return r.queryMany(ctx, query, residentID)
}

// ListAvailable returns unclaimed Pending complaints for one department,
// newest first.
func (r *PGRepository) ListAvailable(ctx context.Context, department string) ([]Complaint, error) {
	query := `SELECT ` + complaintColumnsWithNames + ` FROM complaints c ` + nameJoins + `
        WHERE c.department = $1 AND c.status = 'Pending' AND c.worker_id IS NULL
        ORDER BY c.created_at DESC`

	return r.queryMany(ctx, query, department)
}

// ListTasks returns a worker's in-flight complaints, most recently touched first.
func (r *PGRepository) ListTasks(ctx context.Context, workerID uuid.UUID) ([]Complaint, error) {
	query := `SELECT ` + complaintColumnsWithNames + ` FROM complaints c ` + nameJoins + `
        WHERE c.worker_id = $1 AND c.status IN ('Accepted', 'In Progress')
        ORDER BY c.updated_at DESC`

	return r.queryMany(ctx, query, workerID)
}

// ListCompleted returns a worker's finished complaints, latest completion first.
func (r *PGRepository) ListCompleted(ctx context.Context, workerID uuid.UUID) ([]Complaint, error) {
	query := `SELECT ` + complaintColumnsWithNames + ` FROM complaints c ` + nameJoins + `
        WHERE c.worker_id = $1 AND c.status = 'Completed'
        ORDER BY c.completed_at DESC`

	return r.queryMany(ctx, query, workerID)
}

// List applies the admin filter, newest first.
func (r *PGRepository) List(ctx context.Context, filter Filter) ([]Complaint, error) {
	base := `SELECT ` + complaintColumnsWithNames + ` FROM complaints c ` + nameJoins

	var (
		clauses []string
		args    []any
		idx     = 1
	)

	if filter.Status != nil {
		clauses = append(clauses, fmt.Sprintf("c.status = $%d", idx))
		args = append(args, string(*filter.Status))
		idx++
	}
	if filter.Department != nil {
		clauses = append(clauses, fmt.Sprintf("c.department = $%d", idx))
		args = append(args, *filter.Department)
		idx++
	}
	if filter.Block != nil {
		clauses = append(clauses, fmt.Sprintf("c.block = $%d", idx))
		args = append(args, *filter.Block)
		idx++
	}
	if filter.ResidentName != nil {
		clauses = append(clauses, fmt.Sprintf("res.username ILIKE $%d", idx))
		args = append(args, "%"+*filter.ResidentName+"%")
		idx++
	}
	if filter.WorkerName != nil {
		clauses = append(clauses, fmt.Sprintf("wrk.username ILIKE $%d", idx))
		args = append(args, "%"+*filter.WorkerName+"%")
		idx++
	}

	query := base
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY c.created_at DESC"

	return r.queryMany(ctx, query, args...)
}

// ListRecent returns the latest complaints for the dashboard.
func (r *PGRepository) ListRecent(ctx context.Context, limit int) ([]Complaint, error) {
	query := `SELECT ` + complaintColumnsWithNames + ` FROM complaints c ` + nameJoins + `
        ORDER BY c.created_at DESC
        LIMIT $1`

	return r.queryMany(ctx, query, limit)
}

// CountByStatuses counts complaints in any of the given statuses.
func (r *PGRepository) CountByStatuses(ctx context.Context, statuses ...Status) (int, error) {
	vals := make([]string, len(statuses))
	for i, s := range statuses {
		vals[i] = string(s)
	}

	var count int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM complaints WHERE status = ANY($1)`, vals).Scan(&count)
	return count, err
}

// Accept claims a Pending complaint for a worker. The update commits only
// if the complaint is still Pending and unclaimed; a losing racer gets
// ErrConflict and the winner's worker_id is never overwritten.
func (r *PGRepository) Accept(ctx context.Context, id, workerID uuid.UUID, now time.Time) (*Complaint, error) {
	const query = `
        UPDATE complaints c
        SET worker_id = $2, status = 'Accepted', accepted_at = $3, updated_at = $3
        WHERE c.id = $1 AND c.status = 'Pending' AND c.worker_id IS NULL
        RETURNING ` + complaintColumns

	c, err := scanComplaint(r.pool.QueryRow(ctx, query, id, workerID, now.UTC()), false)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrConflict
	}
	return c, err
}

// Transition moves a complaint between worker-driven states, keyed on the
// expected prior status and owning worker at commit time.
func (r *PGRepository) Transition(ctx context.Context, id, workerID uuid.UUID, from, to Status, completedAt *time.Time) (*Complaint, error) {
	const query = `
        UPDATE complaints c
        SET status = $4, completed_at = coalesce($5, c.completed_at), updated_at = now()
        WHERE c.id = $1 AND c.worker_id = $2 AND c.status = $3
        RETURNING ` + complaintColumns

	c, err := scanComplaint(r.pool.QueryRow(ctx, query, id, workerID, string(from), string(to), completedAt), false)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrConflict
	}
	return c, err
}

// Update persists an admin free-edit snapshot.
func (r *PGRepository) Update(ctx context.Context, c *Complaint) (*Complaint, error) {
	const query = `
        UPDATE complaints c
        SET worker_id = $2, department = $3, title = $4, description = $5,
            images = $6, block = $7, floor = $8, room_number = $9,
            status = $10, accepted_at = $11, completed_at = $12, updated_at = now()
        WHERE c.id = $1
        RETURNING ` + complaintColumns

	images := c.Images
	if images == nil {
		images = []string{}
	}

	row := r.pool.QueryRow(ctx, query,
		c.ID, c.WorkerID, c.Department, c.Title, c.Description,
		images, c.Block, c.Floor, c.RoomNumber,
		string(c.Status), c.AcceptedAt, c.CompletedAt,
	)

	updated, err := scanComplaint(row, false)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return updated, err
}

// Delete removes a complaint.
func (r *PGRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM complaints WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepository) queryMany(ctx context.Context, query string, args ...any) ([]Complaint, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var complaints []Complaint
	for rows.Next() {
		c, err := scanComplaint(rows, true)
		if err != nil {
			return nil, err
		}
		complaints = append(complaints, *c)
	}

	return complaints, rows.Err()
}

func scanComplaint(row pgx.Row, withNames bool) (*Complaint, error) {
	var (
		c      Complaint
		status string
	)

	dest := []any{
		&c.ID, &c.ResidentID, &c.WorkerID, &c.Department, &c.Title, &c.Description,
		&c.Images, &c.Block, &c.Floor, &c.RoomNumber, &status,
		&c.AcceptedAt, &c.CompletedAt, &c.CreatedAt, &c.UpdatedAt,
	}
	if withNames {
		dest = append(dest, &c.ResidentName, &c.WorkerName)
	}

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	c.Status = Status(status)
	return &c, nil
}
