package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/gigboard/gigboard-api/internal/domain"
	"github.com/gigboard/gigboard-api/internal/repository/ports"
)

type JobRepository struct {
	db *sqlx.DB
}

func NewJobRepo(db *sqlx.DB) *JobRepository {
	return &JobRepository{db: db}
}

const jobColumns = `id, employer_id, title, description, location, hourly_rate, status, created_at, updated_at, deleted_at`

func (r *JobRepository) Create(ctx context.Context, job *domain.JobPosting) (*domain.JobPosting, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	const insertJob = `
		INSERT INTO job_posting (employer_id, title, description, location, hourly_rate, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + jobColumns

	var created domain.JobPosting
	row := tx.QueryRowxContext(ctx, insertJob,
		job.EmployerID, job.Title, job.Description, job.Location, job.HourlyRate, job.Status)
	if err := row.StructScan(&created); err != nil {
		return nil, err
	}

	const insertSlot = `
		INSERT INTO time_slot (job_id, slot_date, start_time, end_time, people_needed, people_assigned)
		VALUES ($1, $2, $3, $4, $5, 0)
		RETURNING id, job_id, slot_date, start_time, end_time, people_needed, people_assigned
	`
	created.Slots = make([]domain.TimeSlot, 0, len(job.Slots))
	for _, slot := range job.Slots {
		var stored domain.TimeSlot
		row := tx.QueryRowxContext(ctx, insertSlot,
			created.ID, slot.Date, slot.StartTime, slot.EndTime, slot.PeopleNeeded)
		if err := row.StructScan(&stored); err != nil {
			return nil, err
		}
		created.Slots = append(created.Slots, stored)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *JobRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.JobPosting, error) {
	const query = `
		SELECT ` + jobColumns + `
		FROM job_posting
		WHERE id = $1 AND deleted_at IS NULL
	`
	var job domain.JobPosting
	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		return nil, err
	}
	slots, err := r.loadSlots(ctx, r.db, id)
	if err != nil {
		return nil, err
	}
	job.Slots = slots
	return &job, nil
}

func (r *JobRepository) ListActive(ctx context.Context, limit, offset int) ([]domain.JobPosting, error) {
	const query = `
		SELECT ` + jobColumns + `
		FROM job_posting
		WHERE status = 'active' AND deleted_at IS NULL
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`
	return r.list(ctx, query, limit, offset)
}

func (r *JobRepository) ListByEmployer(ctx context.Context, employerID uuid.UUID, limit, offset int) ([]domain.JobPosting, error) {
	const query = `
		SELECT ` + jobColumns + `
		FROM job_posting
		WHERE employer_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`
	return r.list(ctx, query, employerID, limit, offset)
}

func (r *JobRepository) list(ctx context.Context, query string, args ...any) ([]domain.JobPosting, error) {
	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	jobs := make([]domain.JobPosting, 0)
	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var job domain.JobPosting
		if err := rows.StructScan(&job); err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
		ids = append(ids, job.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return jobs, nil
	}

	const slotQuery = `
		SELECT id, job_id, slot_date, start_time, end_time, people_needed, people_assigned
		FROM time_slot
		WHERE job_id = ANY($1)
		ORDER BY slot_date ASC, start_time ASC, id ASC
	`
	slotRows, err := r.db.QueryxContext(ctx, slotQuery, pq.Array(uuidStrings(ids)))
	if err != nil {
		return nil, err
	}
	defer slotRows.Close()

	byJob := make(map[uuid.UUID][]domain.TimeSlot, len(ids))
	for slotRows.Next() {
		var slot domain.TimeSlot
		if err := slotRows.StructScan(&slot); err != nil {
			return nil, err
		}
		byJob[slot.JobID] = append(byJob[slot.JobID], slot)
	}
	if err := slotRows.Err(); err != nil {
		return nil, err
	}
	for i := range jobs {
		jobs[i].Slots = byJob[jobs[i].ID]
	}
	return jobs, nil
}

func (r *JobRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.JobStatus) (*domain.JobPosting, error) {
	const query = `
		UPDATE job_posting
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2 AND deleted_at IS NULL
		RETURNING ` + jobColumns

	var job domain.JobPosting
	row := r.db.QueryRowxContext(ctx, query, id, from, to)
	if err := row.StructScan(&job); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ports.ErrConflict
		}
		return nil, err
	}
	slots, err := r.loadSlots(ctx, r.db, id)
	if err != nil {
		return nil, err
	}
	job.Slots = slots
	return &job, nil
}

// ReserveSlots increments every targeted slot inside one transaction. The
// conditional update is the capacity check: a slot already at its headcount
// matches zero rows and the whole reservation rolls back.
func (r *JobRepository) ReserveSlots(ctx context.Context, jobID uuid.UUID, slotIDs []uuid.UUID) (*domain.JobPosting, error) {
	return r.adjustSlots(ctx, jobID, slotIDs, +1)
}

func (r *JobRepository) ReleaseSlots(ctx context.Context, jobID uuid.UUID, slotIDs []uuid.UUID) (*domain.JobPosting, error) {
	return r.adjustSlots(ctx, jobID, slotIDs, -1)
}

func (r *JobRepository) adjustSlots(ctx context.Context, jobID uuid.UUID, slotIDs []uuid.UUID, delta int) (*domain.JobPosting, error) {
	if len(slotIDs) == 0 {
		return nil, fmt.Errorf("adjust slots: empty slot set")
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	const lockJob = `
		SELECT ` + jobColumns + `
		FROM job_posting
		WHERE id = $1 AND deleted_at IS NULL
		FOR UPDATE
	`
	var job domain.JobPosting
	if err := tx.QueryRowxContext(ctx, lockJob, jobID).StructScan(&job); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}

	const adjust = `
		UPDATE time_slot
		SET people_assigned = people_assigned + $3
		WHERE job_id = $1
		  AND id = ANY($2)
		  AND people_assigned + $3 BETWEEN 0 AND people_needed
	`
	result, err := tx.ExecContext(ctx, adjust, jobID, pq.Array(uuidStrings(slotIDs)), delta)
	if err != nil {
		return nil, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected != int64(len(slotIDs)) {
		if delta > 0 {
			return nil, ports.ErrSlotCapacity
		}
		return nil, ports.ErrSlotUnderflow
	}

	slots, err := r.loadSlots(ctx, tx, jobID)
	if err != nil {
		return nil, err
	}
	job.Slots = slots

	derived := domain.DeriveJobStatus(slots, job.Status)
	if derived != job.Status {
		const setStatus = `
			UPDATE job_posting SET status = $2, updated_at = NOW() WHERE id = $1
		`
		if _, err := tx.ExecContext(ctx, setStatus, jobID, derived); err != nil {
			return nil, err
		}
		job.Status = derived
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *JobRepository) Delete(ctx context.Context, id, employerID uuid.UUID) error {
	const query = `
		UPDATE job_posting
		SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND employer_id = $2 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, id, employerID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *JobRepository) loadSlots(ctx context.Context, q sqlx.QueryerContext, jobID uuid.UUID) ([]domain.TimeSlot, error) {
	const query = `
		SELECT id, job_id, slot_date, start_time, end_time, people_needed, people_assigned
		FROM time_slot
		WHERE job_id = $1
		ORDER BY slot_date ASC, start_time ASC, id ASC
	`
	rows, err := q.QueryxContext(ctx, query, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	slots := make([]domain.TimeSlot, 0)
	for rows.Next() {
		var slot domain.TimeSlot
		if err := rows.StructScan(&slot); err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return slots, nil
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

var _ ports.JobRepository = (*JobRepository)(nil)
