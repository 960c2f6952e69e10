package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gigboard/gigboard-api/internal/domain"
	"github.com/gigboard/gigboard-api/internal/repository/ports"
)

type SlotInput struct {
	Date         time.Time
	StartTime    time.Time
	EndTime      time.Time
	PeopleNeeded int
}

type JobCreateInput struct {
	Title       string
	Description *string
	Location    *string
	HourlyRate  *float64
	Slots       []SlotInput
}

type JobService struct {
	jobs ports.JobRepository
	now  func() time.Time
}

func NewJobService(jobRepo ports.JobRepository) *JobService {
	return &JobService{jobs: jobRepo, now: time.Now}
}

// CreateJob validates the posting and stores it as a draft. Validation
// collects every violated field before failing.
func (s *JobService) CreateJob(ctx context.Context, employer *domain.User, input JobCreateInput) (*domain.JobPosting, error) {
	if employer == nil || !employer.IsEmployer() {
		return nil, ErrForbidden
	}

	fields := make(map[string]string)
	title := strings.TrimSpace(input.Title)
	if title == "" {
		fields["title"] = "title is required"
	}
	if len(input.Slots) == 0 {
		fields["slots"] = "at least one time slot is required"
	}
	today := startOfDay(s.now().UTC())
	for i, slot := range input.Slots {
		if slot.PeopleNeeded < 1 {
			fields[fmt.Sprintf("slots[%d].people_needed", i)] = "people_needed must be at least 1"
		}
		if !slot.EndTime.After(slot.StartTime) {
			fields[fmt.Sprintf("slots[%d].end_time", i)] = "end_time must be after start_time"
		}
		if startOfDay(slot.Date.UTC()).Before(today) {
			fields[fmt.Sprintf("slots[%d].date", i)] = "date must not be in the past"
		}
	}
	if input.HourlyRate != nil && *input.HourlyRate < 0 {
		fields["hourly_rate"] = "hourly_rate must not be negative"
	}
	if len(fields) > 0 {
		return nil, newValidationError(fields)
	}

	job := &domain.JobPosting{
		EmployerID:  employer.ID,
		Title:       title,
		Description: input.Description,
		Location:    input.Location,
		HourlyRate:  input.HourlyRate,
		Status:      domain.JobStatusDraft,
	}
	for _, slot := range input.Slots {
		job.Slots = append(job.Slots, domain.TimeSlot{
			Date:         slot.Date,
			StartTime:    slot.StartTime,
			EndTime:      slot.EndTime,
			PeopleNeeded: slot.PeopleNeeded,
		})
	}
	return s.jobs.Create(ctx, job)
}

func (s *JobService) GetJob(ctx context.Context, id uuid.UUID) (*domain.JobPosting, error) {
	job, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	return job, nil
}

func (s *JobService) ListActiveJobs(ctx context.Context, limit, offset int) ([]domain.JobPosting, error) {
	nLimit, nOffset := normalizePagination(limit, offset)
	return s.jobs.ListActive(ctx, nLimit, nOffset)
}

func (s *JobService) ListEmployerJobs(ctx context.Context, employer *domain.User, limit, offset int) ([]domain.JobPosting, error) {
	if employer == nil || !employer.IsEmployer() {
		return nil, ErrForbidden
	}
	nLimit, nOffset := normalizePagination(limit, offset)
	return s.jobs.ListByEmployer(ctx, employer.ID, nLimit, nOffset)
}

func (s *JobService) PublishJob(ctx context.Context, employer *domain.User, id uuid.UUID) (*domain.JobPosting, error) {
	return s.transition(ctx, employer, id, domain.JobStatusDraft, domain.JobStatusActive)
}

func (s *JobService) CloseJob(ctx context.Context, employer *domain.User, id uuid.UUID) (*domain.JobPosting, error) {
	return s.transition(ctx, employer, id, domain.JobStatusActive, domain.JobStatusClosed)
}

func (s *JobService) ReopenJob(ctx context.Context, employer *domain.User, id uuid.UUID) (*domain.JobPosting, error) {
	return s.transition(ctx, employer, id, domain.JobStatusClosed, domain.JobStatusActive)
}

func (s *JobService) CancelJob(ctx context.Context, employer *domain.User, id uuid.UUID) (*domain.JobPosting, error) {
	job, err := s.owned(ctx, employer, id)
	if err != nil {
		return nil, err
	}
	if job.Status == domain.JobStatusCancelled || job.Status == domain.JobStatusFilled {
		return nil, fmt.Errorf("%w: cannot cancel job in status %q", ErrInvalidTransition, job.Status)
	}
	updated, err := s.jobs.UpdateStatus(ctx, id, job.Status, domain.JobStatusCancelled)
	if err != nil {
		return nil, s.mapTransitionErr(err, job.Status, domain.JobStatusCancelled)
	}
	return updated, nil
}

// DeleteJob removes a posting on explicit employer request. Postings are
// never deleted implicitly.
func (s *JobService) DeleteJob(ctx context.Context, employer *domain.User, id uuid.UUID) error {
	if _, err := s.owned(ctx, employer, id); err != nil {
		return err
	}
	if err := s.jobs.Delete(ctx, id, employer.ID); err != nil {
		if isNotFound(err) {
			return ErrJobNotFound
		}
		return err
	}
	return nil
}

func (s *JobService) transition(ctx context.Context, employer *domain.User, id uuid.UUID, from, to domain.JobStatus) (*domain.JobPosting, error) {
	job, err := s.owned(ctx, employer, id)
	if err != nil {
		return nil, err
	}
	if job.Status != from {
		return nil, fmt.Errorf("%w: job is %q, expected %q", ErrInvalidTransition, job.Status, from)
	}
	updated, err := s.jobs.UpdateStatus(ctx, id, from, to)
	if err != nil {
		return nil, s.mapTransitionErr(err, from, to)
	}
	return updated, nil
}

func (s *JobService) owned(ctx context.Context, employer *domain.User, id uuid.UUID) (*domain.JobPosting, error) {
	if employer == nil || !employer.IsEmployer() {
		return nil, ErrForbidden
	}
	job, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	if job.EmployerID != employer.ID {
		return nil, ErrForbidden
	}
	return job, nil
}

func (s *JobService) mapTransitionErr(err error, from, to domain.JobStatus) error {
	switch {
	case isConflict(err):
		return fmt.Errorf("%w: job left status %q before the %q transition applied", ErrInvalidTransition, from, to)
	case isNotFound(err):
		return ErrJobNotFound
	default:
		return err
	}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func normalizePagination(limit, offset int) (int, int) {
	const (
		defaultLimit = 20
		maxLimit     = 100
	)

	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
