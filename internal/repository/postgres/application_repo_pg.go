package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/gigboard/gigboard-api/internal/domain"
	"github.com/gigboard/gigboard-api/internal/repository/ports"
)

type ApplicationRepository struct {
	db *sqlx.DB
}

func NewApplicationRepo(db *sqlx.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

// applicationRow mirrors domain.Application with a pq-scannable slot array.
type applicationRow struct {
	ID          uuid.UUID                `db:"id"`
	ApplicantID uuid.UUID                `db:"applicant_id"`
	JobID       uuid.UUID                `db:"job_id"`
	SlotIDs     pq.StringArray           `db:"slot_ids"`
	Status      domain.ApplicationStatus `db:"status"`
	CoverLetter *string                  `db:"cover_letter"`
	ResumeURL   *string                  `db:"resume_url"`
	SubmittedAt time.Time                `db:"submitted_at"`
	DecidedAt   *time.Time               `db:"decided_at"`
	WithdrawnAt *time.Time               `db:"withdrawn_at"`
}

func (row applicationRow) toDomain() (*domain.Application, error) {
	slotIDs := make([]uuid.UUID, 0, len(row.SlotIDs))
	for _, raw := range row.SlotIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("parse slot id %q: %w", raw, err)
		}
		slotIDs = append(slotIDs, id)
	}
	return &domain.Application{
		ID:          row.ID,
		ApplicantID: row.ApplicantID,
		JobID:       row.JobID,
		SlotIDs:     slotIDs,
		Status:      row.Status,
		CoverLetter: row.CoverLetter,
		ResumeURL:   row.ResumeURL,
		SubmittedAt: row.SubmittedAt,
		DecidedAt:   row.DecidedAt,
		WithdrawnAt: row.WithdrawnAt,
	}, nil
}

const applicationColumns = `id, applicant_id, job_id, slot_ids, status, cover_letter, resume_url, submitted_at, decided_at, withdrawn_at`

// Create relies on the partial unique index over (applicant_id, job_id) for
// rows whose status is not 'withdrawn': the duplicate check and the insert
// are one atomic statement, so two racing submissions cannot both pass.
func (r *ApplicationRepository) Create(ctx context.Context, app *domain.Application) (*domain.Application, error) {
	const query = `
		INSERT INTO application (applicant_id, job_id, slot_ids, status, cover_letter, resume_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + applicationColumns

	var row applicationRow
	err := r.db.QueryRowxContext(ctx, query,
		app.ApplicantID, app.JobID, pq.Array(uuidStrings(app.SlotIDs)),
		app.Status, app.CoverLetter, app.ResumeURL).StructScan(&row)
	if err != nil {
		return nil, err
	}
	return row.toDomain()
}

func (r *ApplicationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Application, error) {
	const query = `
		SELECT ` + applicationColumns + `
		FROM application
		WHERE id = $1
	`
	var row applicationRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, err
	}
	return row.toDomain()
}

func (r *ApplicationRepository) ListByJob(ctx context.Context, jobID uuid.UUID, limit, offset int) ([]domain.Application, error) {
	const query = `
		SELECT ` + applicationColumns + `
		FROM application
		WHERE job_id = $1
		ORDER BY submitted_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`
	return r.list(ctx, query, jobID, limit, offset)
}

func (r *ApplicationRepository) ListByApplicant(ctx context.Context, applicantID uuid.UUID, limit, offset int) ([]domain.Application, error) {
	const query = `
		SELECT ` + applicationColumns + `
		FROM application
		WHERE applicant_id = $1
		ORDER BY submitted_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`
	return r.list(ctx, query, applicantID, limit, offset)
}

func (r *ApplicationRepository) list(ctx context.Context, query string, args ...any) ([]domain.Application, error) {
	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	apps := make([]domain.Application, 0)
	for rows.Next() {
		var row applicationRow
		if err := rows.StructScan(&row); err != nil {
			return nil, err
		}
		app, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		apps = append(apps, *app)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return apps, nil
}

func (r *ApplicationRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.ApplicationStatus, at time.Time) (*domain.Application, error) {
	const query = `
		UPDATE application
		SET status = $3,
		    decided_at = CASE WHEN $3 IN ('accepted', 'rejected') THEN $4 ELSE decided_at END,
		    withdrawn_at = CASE WHEN $3 = 'withdrawn' THEN $4 ELSE withdrawn_at END
		WHERE id = $1 AND status = $2
		RETURNING ` + applicationColumns

	var row applicationRow
	err := r.db.QueryRowxContext(ctx, query, id, from, to, at).StructScan(&row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ports.ErrConflict
		}
		return nil, err
	}
	return row.toDomain()
}

func (r *ApplicationRepository) SetSlots(ctx context.Context, id uuid.UUID, slotIDs []uuid.UUID) error {
	const query = `
		UPDATE application
		SET slot_ids = $2
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, id, pq.Array(uuidStrings(slotIDs)))
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

var _ ports.ApplicationRepository = (*ApplicationRepository)(nil)
