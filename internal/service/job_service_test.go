package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/gigboard/gigboard-api/internal/domain"
	"github.com/gigboard/gigboard-api/internal/repository/memory"
)

func testEmployer() *domain.User {
	return &domain.User{ID: uuid.New(), Email: "boss@example.com", Role: domain.RoleEmployer}
}

func testWorker() *domain.User {
	return &domain.User{ID: uuid.New(), Email: "worker@example.com", Role: domain.RoleWorker}
}

func validJobInput(slotPeople ...int) JobCreateInput {
	if len(slotPeople) == 0 {
		slotPeople = []int{1}
	}
	date := time.Now().UTC().Add(48 * time.Hour)
	input := JobCreateInput{Title: "Warehouse shift"}
	for _, people := range slotPeople {
		input.Slots = append(input.Slots, SlotInput{
			Date:         date,
			StartTime:    date,
			EndTime:      date.Add(4 * time.Hour),
			PeopleNeeded: people,
		})
	}
	return input
}

// publishJob creates a draft and publishes it in one step for tests that
// only care about an active posting.
func publishJob(t *testing.T, jobs *JobService, employer *domain.User, input JobCreateInput) *domain.JobPosting {
	t.Helper()
	ctx := context.Background()
	job, err := jobs.CreateJob(ctx, employer, input)
	if err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	published, err := jobs.PublishJob(ctx, employer, job.ID)
	if err != nil {
		t.Fatalf("PublishJob: %v", err)
	}
	return published
}

func TestCreateJobCollectsAllFieldErrors(t *testing.T) {
	jobs := NewJobService(memory.NewStore().Jobs())
	rate := -5.0
	yesterday := time.Now().UTC().Add(-24 * time.Hour)

	_, err := jobs.CreateJob(context.Background(), testEmployer(), JobCreateInput{
		Title:      "  ",
		HourlyRate: &rate,
		Slots: []SlotInput{{
			Date:         yesterday,
			StartTime:    yesterday.Add(2 * time.Hour),
			EndTime:      yesterday,
			PeopleNeeded: 0,
		}},
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	for _, field := range []string{"title", "hourly_rate", "slots[0].people_needed", "slots[0].end_time", "slots[0].date"} {
		if _, ok := vErr.Fields[field]; !ok {
			t.Errorf("missing field violation %q in %v", field, vErr.Fields)
		}
	}
}

func TestCreateJobRequiresEmployer(t *testing.T) {
	jobs := NewJobService(memory.NewStore().Jobs())
	if _, err := jobs.CreateJob(context.Background(), testWorker(), validJobInput()); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestJobLifecycleTransitions(t *testing.T) {
	jobs := NewJobService(memory.NewStore().Jobs())
	employer := testEmployer()
	ctx := context.Background()

	job, err := jobs.CreateJob(ctx, employer, validJobInput())
	if err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	if job.Status != domain.JobStatusDraft {
		t.Fatalf("new job status = %q, want draft", job.Status)
	}

	if _, err := jobs.CloseJob(ctx, employer, job.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("close draft: expected ErrInvalidTransition, got %v", err)
	}

	published, err := jobs.PublishJob(ctx, employer, job.ID)
	if err != nil {
		t.Fatalf("PublishJob: %v", err)
	}
	if published.Status != domain.JobStatusActive {
		t.Fatalf("published status = %q, want active", published.Status)
	}
	if _, err := jobs.PublishJob(ctx, employer, job.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("double publish: expected ErrInvalidTransition, got %v", err)
	}

	closed, err := jobs.CloseJob(ctx, employer, job.ID)
	if err != nil {
		t.Fatalf("CloseJob: %v", err)
	}
	if closed.Status != domain.JobStatusClosed {
		t.Fatalf("closed status = %q, want closed", closed.Status)
	}

	reopened, err := jobs.ReopenJob(ctx, employer, job.ID)
	if err != nil {
		t.Fatalf("ReopenJob: %v", err)
	}
	if reopened.Status != domain.JobStatusActive {
		t.Fatalf("reopened status = %q, want active", reopened.Status)
	}

	cancelled, err := jobs.CancelJob(ctx, employer, job.ID)
	if err != nil {
		t.Fatalf("CancelJob: %v", err)
	}
	if cancelled.Status != domain.JobStatusCancelled {
		t.Fatalf("cancelled status = %q, want cancelled", cancelled.Status)
	}
	if _, err := jobs.CancelJob(ctx, employer, job.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("double cancel: expected ErrInvalidTransition, got %v", err)
	}
}

func TestJobOwnershipEnforced(t *testing.T) {
	jobs := NewJobService(memory.NewStore().Jobs())
	owner := testEmployer()
	other := testEmployer()
	ctx := context.Background()

	job, err := jobs.CreateJob(ctx, owner, validJobInput())
	if err != nil {
		t.Fatalf("CreateJob: %v", err)
	}

	if _, err := jobs.PublishJob(ctx, other, job.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("publish by non-owner: expected ErrForbidden, got %v", err)
	}
	if err := jobs.DeleteJob(ctx, other, job.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("delete by non-owner: expected ErrForbidden, got %v", err)
	}
}

func TestDeleteJobHidesIt(t *testing.T) {
	jobs := NewJobService(memory.NewStore().Jobs())
	employer := testEmployer()
	ctx := context.Background()

	job := publishJob(t, jobs, employer, validJobInput())
	if err := jobs.DeleteJob(ctx, employer, job.ID); err != nil {
		t.Fatalf("DeleteJob: %v", err)
	}
	if _, err := jobs.GetJob(ctx, job.ID); !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("expected ErrJobNotFound after delete, got %v", err)
	}
	list, err := jobs.ListActiveJobs(ctx, 0, 0)
	if err != nil {
		t.Fatalf("ListActiveJobs: %v", err)
	}
	for _, listed := range list {
		if listed.ID == job.ID {
			t.Fatal("deleted job still listed as active")
		}
	}
}

func TestListActiveJobsPagination(t *testing.T) {
	jobs := NewJobService(memory.NewStore().Jobs())
	employer := testEmployer()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		publishJob(t, jobs, employer, validJobInput())
	}

	page, err := jobs.ListActiveJobs(ctx, 2, 0)
	if err != nil {
		t.Fatalf("ListActiveJobs: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("page size = %d, want 2", len(page))
	}
	rest, err := jobs.ListActiveJobs(ctx, 2, 2)
	if err != nil {
		t.Fatalf("ListActiveJobs offset: %v", err)
	}
	if len(rest) != 1 {
		t.Fatalf("second page size = %d, want 1", len(rest))
	}
}
