package domain

import (
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	JobStatusDraft     JobStatus = "draft"
	JobStatusActive    JobStatus = "active"
	JobStatusClosed    JobStatus = "closed"
	JobStatusFilled    JobStatus = "filled"
	JobStatusCancelled JobStatus = "cancelled"
)

type TimeSlot struct {
	ID             uuid.UUID `db:"id" json:"id"`
	JobID          uuid.UUID `db:"job_id" json:"job_id"`
	Date           time.Time `db:"slot_date" json:"date"`
	StartTime      time.Time `db:"start_time" json:"start_time"`
	EndTime        time.Time `db:"end_time" json:"end_time"`
	PeopleNeeded   int       `db:"people_needed" json:"people_needed"`
	PeopleAssigned int       `db:"people_assigned" json:"people_assigned"`
}

func (s TimeSlot) IsFull() bool {
	return s.PeopleAssigned >= s.PeopleNeeded
}

type JobPosting struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	EmployerID  uuid.UUID  `db:"employer_id" json:"employer_id"`
	Title       string     `db:"title" json:"title"`
	Description *string    `db:"description" json:"description,omitempty"`
	Location    *string    `db:"location" json:"location,omitempty"`
	HourlyRate  *float64   `db:"hourly_rate" json:"hourly_rate,omitempty"`
	Status      JobStatus  `db:"status" json:"status"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt   *time.Time `db:"deleted_at" json:"-"`

	Slots []TimeSlot `json:"slots"`
}

// TotalPositions is the sum of every slot's headcount. Informational only;
// capacity is enforced per slot, never against this total.
func (j *JobPosting) TotalPositions() int {
	total := 0
	for _, s := range j.Slots {
		total += s.PeopleNeeded
	}
	return total
}

func (j *JobPosting) Slot(id uuid.UUID) (TimeSlot, bool) {
	for _, s := range j.Slots {
		if s.ID == id {
			return s, true
		}
	}
	return TimeSlot{}, false
}

func (j *JobPosting) IsAcceptingApplications() bool {
	return j.Status == JobStatusActive
}

// DeriveJobStatus recomputes a posting's status from its slot collection.
// It is the single place the active/filled invariant lives: every ledger
// mutation must be followed by this derivation. Statuses outside the
// active/filled pair are never changed here.
func DeriveJobStatus(slots []TimeSlot, current JobStatus) JobStatus {
	if current != JobStatusActive && current != JobStatusFilled {
		return current
	}
	if len(slots) == 0 {
		return JobStatusActive
	}
	for _, s := range slots {
		if !s.IsFull() {
			return JobStatusActive
		}
	}
	return JobStatusFilled
}
