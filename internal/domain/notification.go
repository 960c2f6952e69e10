package domain

import "github.com/google/uuid"

type NotificationEvent string

const (
	NotifyApplicationSubmitted NotificationEvent = "ApplicationSubmitted"
	NotifyApplicationAccepted  NotificationEvent = "ApplicationAccepted"
	NotifyApplicationRejected  NotificationEvent = "ApplicationRejected"
	NotifyApplicationWithdrawn NotificationEvent = "ApplicationWithdrawn"
)

// NotificationIntent is what the lifecycle engine hands to the notifier.
// Delivery is the notifier's problem; a failed or dropped intent never rolls
// back the state transition that produced it.
type NotificationIntent struct {
	Event         NotificationEvent `json:"event"`
	JobID         uuid.UUID         `json:"job_id"`
	ApplicationID uuid.UUID         `json:"application_id"`
	ApplicantID   uuid.UUID         `json:"applicant_id"`
	EmployerID    uuid.UUID         `json:"employer_id"`
	NewStatus     ApplicationStatus `json:"new_status"`
}
