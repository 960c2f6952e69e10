package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/gigboard/gigboard-api/internal/domain"
)

type JobRepository interface {
	Create(ctx context.Context, job *domain.JobPosting) (*domain.JobPosting, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.JobPosting, error)
	ListActive(ctx context.Context, limit, offset int) ([]domain.JobPosting, error)
	ListByEmployer(ctx context.Context, employerID uuid.UUID, limit, offset int) ([]domain.JobPosting, error)
	// UpdateStatus moves the posting from one status to another as a single
	// compare-and-swap; ErrConflict when the posting is no longer in `from`.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.JobStatus) (*domain.JobPosting, error)
	// ReserveSlots increments people_assigned on every listed slot of the job,
	// all-or-nothing, and re-derives the posting status in the same atomic
	// unit. ErrSlotCapacity when any slot lacks room.
	ReserveSlots(ctx context.Context, jobID uuid.UUID, slotIDs []uuid.UUID) (*domain.JobPosting, error)
	// ReleaseSlots is the inverse; ErrSlotUnderflow when any slot would go
	// negative.
	ReleaseSlots(ctx context.Context, jobID uuid.UUID, slotIDs []uuid.UUID) (*domain.JobPosting, error)
	Delete(ctx context.Context, id, employerID uuid.UUID) error
}
