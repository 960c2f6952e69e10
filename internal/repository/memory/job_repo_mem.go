package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/gigboard/gigboard-api/internal/domain"
	"github.com/gigboard/gigboard-api/internal/repository/ports"
)

type jobRepo struct {
	store *Store
}

func (r *jobRepo) Create(_ context.Context, job *domain.JobPosting) (*domain.JobPosting, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	now := time.Now().UTC()
	created := copyJob(job)
	created.ID = uuid.New()
	created.CreatedAt = now
	created.UpdatedAt = now
	for i := range created.Slots {
		created.Slots[i].ID = uuid.New()
		created.Slots[i].JobID = created.ID
		created.Slots[i].PeopleAssigned = 0
	}

	r.store.jobs[created.ID] = created
	return copyJob(created), nil
}

func (r *jobRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.JobPosting, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	job, ok := r.store.jobs[id]
	if !ok || job.DeletedAt != nil {
		return nil, ports.ErrNotFound
	}
	return copyJob(job), nil
}

func (r *jobRepo) ListActive(_ context.Context, limit, offset int) ([]domain.JobPosting, error) {
	return r.listWhere(func(j *domain.JobPosting) bool {
		return j.Status == domain.JobStatusActive
	}, limit, offset)
}

func (r *jobRepo) ListByEmployer(_ context.Context, employerID uuid.UUID, limit, offset int) ([]domain.JobPosting, error) {
	return r.listWhere(func(j *domain.JobPosting) bool {
		return j.EmployerID == employerID
	}, limit, offset)
}

func (r *jobRepo) listWhere(match func(*domain.JobPosting) bool, limit, offset int) ([]domain.JobPosting, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	out := make([]domain.JobPosting, 0)
	for _, job := range r.store.jobs {
		if job.DeletedAt != nil || !match(job) {
			continue
		}
		out = append(out, *copyJob(job))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if offset >= len(out) {
		return []domain.JobPosting{}, nil
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *jobRepo) UpdateStatus(_ context.Context, id uuid.UUID, from, to domain.JobStatus) (*domain.JobPosting, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	job, ok := r.store.jobs[id]
	if !ok || job.DeletedAt != nil {
		return nil, ports.ErrNotFound
	}
	if job.Status != from {
		return nil, ports.ErrConflict
	}
	job.Status = to
	job.UpdatedAt = time.Now().UTC()
	return copyJob(job), nil
}

func (r *jobRepo) ReserveSlots(_ context.Context, jobID uuid.UUID, slotIDs []uuid.UUID) (*domain.JobPosting, error) {
	return r.adjustSlots(jobID, slotIDs, +1)
}

func (r *jobRepo) ReleaseSlots(_ context.Context, jobID uuid.UUID, slotIDs []uuid.UUID) (*domain.JobPosting, error) {
	return r.adjustSlots(jobID, slotIDs, -1)
}

// adjustSlots applies the whole delta set or none of it while holding the
// store lock, then re-derives the posting status, mirroring the transactional
// postgres implementation.
func (r *jobRepo) adjustSlots(jobID uuid.UUID, slotIDs []uuid.UUID, delta int) (*domain.JobPosting, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	job, ok := r.store.jobs[jobID]
	if !ok || job.DeletedAt != nil {
		return nil, ports.ErrNotFound
	}

	indexes := make([]int, 0, len(slotIDs))
	for _, slotID := range slotIDs {
		found := -1
		for i := range job.Slots {
			if job.Slots[i].ID == slotID {
				found = i
				break
			}
		}
		if found < 0 {
			return nil, ports.ErrNotFound
		}
		next := job.Slots[found].PeopleAssigned + delta
		if next > job.Slots[found].PeopleNeeded {
			return nil, ports.ErrSlotCapacity
		}
		if next < 0 {
			return nil, ports.ErrSlotUnderflow
		}
		indexes = append(indexes, found)
	}

	for _, i := range indexes {
		job.Slots[i].PeopleAssigned += delta
	}
	job.Status = domain.DeriveJobStatus(job.Slots, job.Status)
	job.UpdatedAt = time.Now().UTC()
	return copyJob(job), nil
}

func (r *jobRepo) Delete(_ context.Context, id, employerID uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	job, ok := r.store.jobs[id]
	if !ok || job.DeletedAt != nil || job.EmployerID != employerID {
		return ports.ErrNotFound
	}
	now := time.Now().UTC()
	job.DeletedAt = &now
	return nil
}

var _ ports.JobRepository = (*jobRepo)(nil)
