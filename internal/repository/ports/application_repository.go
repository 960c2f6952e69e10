package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/gigboard/gigboard-api/internal/domain"
)

type ApplicationRepository interface {
	// Create inserts a pending application. The store enforces at most one
	// non-withdrawn application per (applicant, job); a violation surfaces as
	// a unique-violation error.
	Create(ctx context.Context, app *domain.Application) (*domain.Application, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Application, error)
	ListByJob(ctx context.Context, jobID uuid.UUID, limit, offset int) ([]domain.Application, error)
	ListByApplicant(ctx context.Context, applicantID uuid.UUID, limit, offset int) ([]domain.Application, error)
	// UpdateStatus performs a compare-and-swap on the lifecycle status;
	// ErrConflict when the application is no longer in `from`. The timestamp
	// lands in decided_at or withdrawn_at depending on the target status.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.ApplicationStatus, at time.Time) (*domain.Application, error)
	// SetSlots pins the slot selection chosen by the employer at accept time.
	SetSlots(ctx context.Context, id uuid.UUID, slotIDs []uuid.UUID) error
}
