package domain

import (
	"time"

	"github.com/google/uuid"
)

type ApplicationStatus string

const (
	ApplicationStatusPending   ApplicationStatus = "pending"
	ApplicationStatusAccepted  ApplicationStatus = "accepted"
	ApplicationStatusRejected  ApplicationStatus = "rejected"
	ApplicationStatusWithdrawn ApplicationStatus = "withdrawn"
)

// Application records one applicant's bid for a job. SlotIDs may be empty,
// meaning the applicant left the shift choice to the employer; in that case
// the employer supplies the slots at acceptance time.
type Application struct {
	ID          uuid.UUID         `db:"id" json:"id"`
	ApplicantID uuid.UUID         `db:"applicant_id" json:"applicant_id"`
	JobID       uuid.UUID         `db:"job_id" json:"job_id"`
	SlotIDs     []uuid.UUID       `db:"slot_ids" json:"slot_ids"`
	Status      ApplicationStatus `db:"status" json:"status"`
	CoverLetter *string           `db:"cover_letter" json:"cover_letter,omitempty"`
	ResumeURL   *string           `db:"resume_url" json:"resume_url,omitempty"`
	SubmittedAt time.Time         `db:"submitted_at" json:"submitted_at"`
	DecidedAt   *time.Time        `db:"decided_at" json:"decided_at,omitempty"`
	WithdrawnAt *time.Time        `db:"withdrawn_at" json:"withdrawn_at,omitempty"`
}

func (a *Application) IsTerminal() bool {
	return a.Status == ApplicationStatusRejected || a.Status == ApplicationStatusWithdrawn
}

// CanTransition reports whether the lifecycle state machine permits moving
// from the application's current status to the target. Accepted applications
// may still be withdrawn by the applicant; everything else past pending is
// terminal.
func (a *Application) CanTransition(to ApplicationStatus) bool {
	switch a.Status {
	case ApplicationStatusPending:
		return to == ApplicationStatusAccepted || to == ApplicationStatusRejected || to == ApplicationStatusWithdrawn
	case ApplicationStatusAccepted:
		return to == ApplicationStatusWithdrawn
	default:
		return false
	}
}
