package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gigboard/gigboard-api/internal/domain"
	"github.com/gigboard/gigboard-api/internal/repository/ports"
)

// Notifier receives lifecycle intents. Implementations deliver them however
// they like; the engine never waits on or reacts to delivery failures.
type Notifier interface {
	Notify(ctx context.Context, intent domain.NotificationIntent) error
}

type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, domain.NotificationIntent) error { return nil }

type ResumeUpload struct {
	Reader      io.Reader
	Size        int64
	FileName    string
	ContentType string
}

type ApplicationSubmitInput struct {
	SlotIDs     []uuid.UUID
	CoverLetter *string
	Resume      *ResumeUpload
}

type ApplicationServiceConfig struct {
	ResumeBucket   string
	MaxResumeBytes int64
}

const defaultMaxResumeBytes = int64(10 * 1024 * 1024)

var allowedResumeMIMEs = map[string]struct{}{
	"application/pdf":    {},
	"application/msword": {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {},
	"text/plain": {},
}

type ApplicationService struct {
	apps     ports.ApplicationRepository
	jobs     ports.JobRepository
	storage  ports.ObjectStorage
	notifier Notifier

	resumeBucket   string
	maxResumeBytes int64
	now            func() time.Time
}

func NewApplicationService(
	appRepo ports.ApplicationRepository,
	jobRepo ports.JobRepository,
	storage ports.ObjectStorage,
	notifier Notifier,
	cfg ApplicationServiceConfig,
) *ApplicationService {
	maxBytes := cfg.MaxResumeBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxResumeBytes
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &ApplicationService{
		apps:           appRepo,
		jobs:           jobRepo,
		storage:        storage,
		notifier:       notifier,
		resumeBucket:   strings.TrimSpace(cfg.ResumeBucket),
		maxResumeBytes: maxBytes,
		now:            time.Now,
	}
}

// Submit creates a pending application. An empty slot set means the
// applicant applies to the job as a whole and the employer picks the slots
// at acceptance time. A withdrawn prior application does not block; anything
// else for the same (applicant, job) pair does.
func (s *ApplicationService) Submit(ctx context.Context, applicant *domain.User, jobID uuid.UUID, input ApplicationSubmitInput) (*domain.Application, error) {
	if applicant == nil || !applicant.IsWorker() {
		return nil, ErrForbidden
	}

	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	if !job.IsAcceptingApplications() {
		return nil, fmt.Errorf("%w: job status is %q", ErrJobNotAcceptingApplications, job.Status)
	}
	if job.EmployerID == applicant.ID {
		return nil, ErrForbidden
	}

	slotIDs := dedupeSlotIDs(input.SlotIDs)
	if err := validateTargetSlots(job, slotIDs, true); err != nil {
		return nil, err
	}

	var resumeURL *string
	var resumeKey string
	if input.Resume != nil {
		url, key, err := s.uploadResume(ctx, applicant.ID, jobID, input.Resume)
		if err != nil {
			return nil, err
		}
		resumeURL = &url
		resumeKey = key
	}

	app := &domain.Application{
		ApplicantID: applicant.ID,
		JobID:       jobID,
		SlotIDs:     slotIDs,
		Status:      domain.ApplicationStatusPending,
		CoverLetter: normalizeString(input.CoverLetter),
		ResumeURL:   resumeURL,
	}
	created, err := s.apps.Create(ctx, app)
	if err != nil {
		if resumeKey != "" {
			if removeErr := s.storage.Remove(ctx, s.resumeBucket, resumeKey); removeErr != nil {
				log.Printf("orphaned resume object %s/%s: %v", s.resumeBucket, resumeKey, removeErr)
			}
		}
		if isUniqueViolation(err) {
			return nil, ErrDuplicateApplication
		}
		return nil, err
	}

	s.emit(ctx, job, created, domain.NotifyApplicationSubmitted)
	return created, nil
}

// Accept moves a pending application to accepted and reserves every targeted
// slot. The claim on the application happens first; if any reservation fails
// the claim is rolled back and the application stays pending, so no partial
// capacity is ever committed.
func (s *ApplicationService) Accept(ctx context.Context, employer *domain.User, applicationID uuid.UUID, slotIDs []uuid.UUID) (*domain.Application, *domain.JobPosting, error) {
	app, job, err := s.ownedApplication(ctx, employer, applicationID)
	if err != nil {
		return nil, nil, err
	}
	if !app.CanTransition(domain.ApplicationStatusAccepted) {
		return nil, nil, fmt.Errorf("%w: cannot accept application in status %q", ErrInvalidTransition, app.Status)
	}

	target := app.SlotIDs
	chosenByEmployer := false
	if len(target) == 0 {
		target = dedupeSlotIDs(slotIDs)
		chosenByEmployer = true
	}
	if len(target) == 0 {
		return nil, nil, ErrSlotSelectionRequired
	}
	if err := validateTargetSlots(job, target, false); err != nil {
		return nil, nil, err
	}

	accepted, err := s.apps.UpdateStatus(ctx, app.ID, domain.ApplicationStatusPending, domain.ApplicationStatusAccepted, s.now().UTC())
	if err != nil {
		if isConflict(err) {
			return nil, nil, fmt.Errorf("%w: application is no longer pending", ErrInvalidTransition)
		}
		if isNotFound(err) {
			return nil, nil, ErrApplicationNotFound
		}
		return nil, nil, err
	}
	if chosenByEmployer {
		if err := s.apps.SetSlots(ctx, app.ID, target); err != nil {
			s.revertAccept(ctx, app, chosenByEmployer)
			return nil, nil, err
		}
		accepted.SlotIDs = target
	}

	updatedJob, err := s.jobs.ReserveSlots(ctx, job.ID, target)
	if err != nil {
		s.revertAccept(ctx, app, chosenByEmployer)
		if errors.Is(err, ports.ErrSlotCapacity) {
			return nil, nil, fmt.Errorf("%w: a targeted slot filled up before the acceptance applied", ErrCapacityExceeded)
		}
		if isNotFound(err) {
			return nil, nil, ErrJobNotFound
		}
		return nil, nil, err
	}

	s.emit(ctx, updatedJob, accepted, domain.NotifyApplicationAccepted)
	return accepted, updatedJob, nil
}

// revertAccept undoes a claimed acceptance after a downstream step failed.
// Failure here means the application sticks in accepted without reserved
// capacity, which the operator has to resolve; it is logged loudly.
func (s *ApplicationService) revertAccept(ctx context.Context, app *domain.Application, restoreSlots bool) {
	if _, err := s.apps.UpdateStatus(ctx, app.ID, domain.ApplicationStatusAccepted, domain.ApplicationStatusPending, s.now().UTC()); err != nil {
		log.Printf("CRITICAL: failed to revert acceptance of application %s: %v", app.ID, err)
		return
	}
	if restoreSlots {
		if err := s.apps.SetSlots(ctx, app.ID, app.SlotIDs); err != nil {
			log.Printf("failed to restore slot selection on application %s: %v", app.ID, err)
		}
	}
}

func (s *ApplicationService) Reject(ctx context.Context, employer *domain.User, applicationID uuid.UUID) (*domain.Application, error) {
	app, job, err := s.ownedApplication(ctx, employer, applicationID)
	if err != nil {
		return nil, err
	}
	if !app.CanTransition(domain.ApplicationStatusRejected) {
		return nil, fmt.Errorf("%w: cannot reject application in status %q", ErrInvalidTransition, app.Status)
	}

	rejected, err := s.apps.UpdateStatus(ctx, app.ID, domain.ApplicationStatusPending, domain.ApplicationStatusRejected, s.now().UTC())
	if err != nil {
		if isConflict(err) {
			return nil, fmt.Errorf("%w: application is no longer pending", ErrInvalidTransition)
		}
		return nil, err
	}

	s.emit(ctx, job, rejected, domain.NotifyApplicationRejected)
	return rejected, nil
}

// Withdraw is applicant-initiated. Withdrawing an accepted application
// releases its reserved slots; withdrawing a pending one touches no
// capacity. Re-withdrawing fails with ErrInvalidTransition rather than
// silently succeeding.
func (s *ApplicationService) Withdraw(ctx context.Context, applicant *domain.User, applicationID uuid.UUID) (*domain.Application, error) {
	if applicant == nil {
		return nil, ErrForbidden
	}
	app, err := s.apps.GetByID(ctx, applicationID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrApplicationNotFound
		}
		return nil, err
	}
	if app.ApplicantID != applicant.ID {
		return nil, ErrForbidden
	}
	if !app.CanTransition(domain.ApplicationStatusWithdrawn) {
		return nil, fmt.Errorf("%w: cannot withdraw application in status %q", ErrInvalidTransition, app.Status)
	}

	wasAccepted := app.Status == domain.ApplicationStatusAccepted
	withdrawn, err := s.apps.UpdateStatus(ctx, app.ID, app.Status, domain.ApplicationStatusWithdrawn, s.now().UTC())
	if err != nil {
		if isConflict(err) {
			return nil, fmt.Errorf("%w: application already changed state", ErrInvalidTransition)
		}
		return nil, err
	}

	job, err := s.jobs.GetByID(ctx, app.JobID)
	if err != nil && !isNotFound(err) {
		return nil, err
	}

	if wasAccepted && len(app.SlotIDs) > 0 {
		released, err := s.jobs.ReleaseSlots(ctx, app.JobID, app.SlotIDs)
		if err != nil {
			if errors.Is(err, ports.ErrSlotUnderflow) {
				return nil, fmt.Errorf("%w: slot release would go negative", ErrInvalidState)
			}
			return nil, err
		}
		job = released
	}

	if job != nil {
		s.emit(ctx, job, withdrawn, domain.NotifyApplicationWithdrawn)
	}
	return withdrawn, nil
}

func (s *ApplicationService) GetApplication(ctx context.Context, requester *domain.User, id uuid.UUID) (*domain.Application, error) {
	app, err := s.apps.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrApplicationNotFound
		}
		return nil, err
	}
	if app.ApplicantID == requester.ID {
		return app, nil
	}
	job, err := s.jobs.GetByID(ctx, app.JobID)
	if err == nil && job.EmployerID == requester.ID {
		return app, nil
	}
	return nil, ErrForbidden
}

func (s *ApplicationService) ListJobApplications(ctx context.Context, employer *domain.User, jobID uuid.UUID, limit, offset int) ([]domain.Application, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	if employer == nil || job.EmployerID != employer.ID {
		return nil, ErrForbidden
	}
	nLimit, nOffset := normalizePagination(limit, offset)
	return s.apps.ListByJob(ctx, jobID, nLimit, nOffset)
}

func (s *ApplicationService) ListMyApplications(ctx context.Context, applicant *domain.User, limit, offset int) ([]domain.Application, error) {
	if applicant == nil {
		return nil, ErrForbidden
	}
	nLimit, nOffset := normalizePagination(limit, offset)
	return s.apps.ListByApplicant(ctx, applicant.ID, nLimit, nOffset)
}

// validateTargetSlots checks slot membership and, when checkCapacity is set,
// that no targeted slot is already full. Capacity here is advisory (it keeps
// obviously doomed submissions out); the reservation at accept time is the
// authoritative check.
func validateTargetSlots(job *domain.JobPosting, slotIDs []uuid.UUID, checkCapacity bool) error {
	fields := make(map[string]string)
	for i, slotID := range slotIDs {
		slot, ok := job.Slot(slotID)
		if !ok {
			fields[fmt.Sprintf("slot_ids[%d]", i)] = fmt.Sprintf("slot %s does not belong to this job", slotID)
			continue
		}
		if checkCapacity && slot.IsFull() {
			return fmt.Errorf("%w: slot %s is already full", ErrCapacityExceeded, slotID)
		}
	}
	if len(fields) > 0 {
		return newValidationError(fields)
	}
	return nil
}

func (s *ApplicationService) uploadResume(ctx context.Context, applicantID, jobID uuid.UUID, resume *ResumeUpload) (url, objectKey string, err error) {
	if s.storage == nil || s.resumeBucket == "" {
		return "", "", newValidationError(map[string]string{"resume": "resume uploads are not enabled"})
	}
	if resume.Size <= 0 {
		return "", "", newValidationError(map[string]string{"resume": "resume file is empty"})
	}
	if resume.Size > s.maxResumeBytes {
		return "", "", newValidationError(map[string]string{
			"resume": fmt.Sprintf("resume exceeds size limit (%d bytes)", s.maxResumeBytes),
		})
	}
	contentType := strings.ToLower(strings.TrimSpace(resume.ContentType))
	if _, ok := allowedResumeMIMEs[contentType]; !ok {
		return "", "", newValidationError(map[string]string{
			"resume": fmt.Sprintf("unsupported resume content type %s", resume.ContentType),
		})
	}

	ext := strings.ToLower(strings.TrimSpace(filepath.Ext(resume.FileName)))
	if ext == "" {
		ext = ".bin"
	}
	objectKey = fmt.Sprintf("resumes/%s/%s/%s%s",
		jobID.String(), applicantID.String(), s.now().UTC().Format("20060102T150405Z0700"), ext)

	url, err = s.storage.Upload(ctx, s.resumeBucket, objectKey, contentType, resume.Reader, resume.Size)
	if err != nil {
		return "", "", err
	}
	return url, objectKey, nil
}

func (s *ApplicationService) ownedApplication(ctx context.Context, employer *domain.User, applicationID uuid.UUID) (*domain.Application, *domain.JobPosting, error) {
	if employer == nil || !employer.IsEmployer() {
		return nil, nil, ErrForbidden
	}
	app, err := s.apps.GetByID(ctx, applicationID)
	if err != nil {
		if isNotFound(err) {
			return nil, nil, ErrApplicationNotFound
		}
		return nil, nil, err
	}
	job, err := s.jobs.GetByID(ctx, app.JobID)
	if err != nil {
		if isNotFound(err) {
			return nil, nil, ErrJobNotFound
		}
		return nil, nil, err
	}
	if job.EmployerID != employer.ID {
		return nil, nil, ErrForbidden
	}
	return app, job, nil
}

func (s *ApplicationService) emit(ctx context.Context, job *domain.JobPosting, app *domain.Application, event domain.NotificationEvent) {
	intent := domain.NotificationIntent{
		Event:         event,
		JobID:         job.ID,
		ApplicationID: app.ID,
		ApplicantID:   app.ApplicantID,
		EmployerID:    job.EmployerID,
		NewStatus:     app.Status,
	}
	if err := s.notifier.Notify(ctx, intent); err != nil {
		log.Printf("notification intent %s for application %s dropped: %v", event, app.ID, err)
	}
}

func dedupeSlotIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func normalizeString(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
