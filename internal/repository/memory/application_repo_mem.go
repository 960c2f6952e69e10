package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/gigboard/gigboard-api/internal/domain"
	"github.com/gigboard/gigboard-api/internal/repository/ports"
)

type applicationRepo struct {
	store *Store
}

// Create checks for a live duplicate and inserts under one lock, matching the
// partial unique index the postgres schema uses. The violation is reported in
// the same shape the pgx driver produces so services map it uniformly.
func (r *applicationRepo) Create(_ context.Context, app *domain.Application) (*domain.Application, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, existing := range r.store.apps {
		if existing.ApplicantID == app.ApplicantID &&
			existing.JobID == app.JobID &&
			existing.Status != domain.ApplicationStatusWithdrawn {
			return nil, &pgconn.PgError{Code: "23505", ConstraintName: "application_live_applicant_job_idx"}
		}
	}

	created := copyApplication(app)
	created.ID = uuid.New()
	created.SubmittedAt = time.Now().UTC()
	r.store.apps[created.ID] = created
	return copyApplication(created), nil
}

func (r *applicationRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Application, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	app, ok := r.store.apps[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return copyApplication(app), nil
}

func (r *applicationRepo) ListByJob(_ context.Context, jobID uuid.UUID, limit, offset int) ([]domain.Application, error) {
	return r.listWhere(func(a *domain.Application) bool { return a.JobID == jobID }, limit, offset)
}

func (r *applicationRepo) ListByApplicant(_ context.Context, applicantID uuid.UUID, limit, offset int) ([]domain.Application, error) {
	return r.listWhere(func(a *domain.Application) bool { return a.ApplicantID == applicantID }, limit, offset)
}

func (r *applicationRepo) listWhere(match func(*domain.Application) bool, limit, offset int) ([]domain.Application, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	out := make([]domain.Application, 0)
	for _, app := range r.store.apps {
		if match(app) {
			out = append(out, *copyApplication(app))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].SubmittedAt.After(out[j].SubmittedAt)
	})
	if offset >= len(out) {
		return []domain.Application{}, nil
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *applicationRepo) UpdateStatus(_ context.Context, id uuid.UUID, from, to domain.ApplicationStatus, at time.Time) (*domain.Application, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	app, ok := r.store.apps[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	if app.Status != from {
		return nil, ports.ErrConflict
	}
	app.Status = to
	switch to {
	case domain.ApplicationStatusAccepted, domain.ApplicationStatusRejected:
		t := at
		app.DecidedAt = &t
	case domain.ApplicationStatusWithdrawn:
		t := at
		app.WithdrawnAt = &t
	}
	return copyApplication(app), nil
}

func (r *applicationRepo) SetSlots(_ context.Context, id uuid.UUID, slotIDs []uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	app, ok := r.store.apps[id]
	if !ok {
		return ports.ErrNotFound
	}
	app.SlotIDs = append([]uuid.UUID(nil), slotIDs...)
	return nil
}

var _ ports.ApplicationRepository = (*applicationRepo)(nil)
