package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/gigboard/gigboard-api/internal/domain"
	"github.com/gigboard/gigboard-api/internal/repository/memory"
)

// recordingNotifier captures emitted intents for assertions.
type recordingNotifier struct {
	mu      sync.Mutex
	intents []domain.NotificationIntent
}

func (n *recordingNotifier) Notify(_ context.Context, intent domain.NotificationIntent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.intents = append(n.intents, intent)
	return nil
}

func (n *recordingNotifier) events() []domain.NotificationEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]domain.NotificationEvent, len(n.intents))
	for i, intent := range n.intents {
		out[i] = intent.Event
	}
	return out
}

type appFixture struct {
	jobs     *JobService
	apps     *ApplicationService
	notifier *recordingNotifier
	employer *domain.User
	job      *domain.JobPosting
}

func newAppFixture(t *testing.T, slotPeople ...int) *appFixture {
	t.Helper()
	store := memory.NewStore()
	notifier := &recordingNotifier{}
	jobs := NewJobService(store.Jobs())
	apps := NewApplicationService(store.Applications(), store.Jobs(), nil, notifier, ApplicationServiceConfig{})

	employer := testEmployer()
	job := publishJob(t, jobs, employer, validJobInput(slotPeople...))
	return &appFixture{jobs: jobs, apps: apps, notifier: notifier, employer: employer, job: job}
}

func (f *appFixture) submit(t *testing.T, worker *domain.User, slotIDs ...uuid.UUID) *domain.Application {
	t.Helper()
	app, err := f.apps.Submit(context.Background(), worker, f.job.ID, ApplicationSubmitInput{SlotIDs: slotIDs})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	return app
}

func TestSubmitCreatesPendingApplication(t *testing.T) {
	f := newAppFixture(t, 2)
	worker := testWorker()
	letter := "  I can lift things.  "

	app, err := f.apps.Submit(context.Background(), worker, f.job.ID, ApplicationSubmitInput{
		SlotIDs:     []uuid.UUID{f.job.Slots[0].ID, f.job.Slots[0].ID},
		CoverLetter: &letter,
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if app.Status != domain.ApplicationStatusPending {
		t.Fatalf("status = %q, want pending", app.Status)
	}
	if len(app.SlotIDs) != 1 {
		t.Fatalf("duplicate slot ids not collapsed: %v", app.SlotIDs)
	}
	if app.CoverLetter == nil || *app.CoverLetter != strings.TrimSpace(letter) {
		t.Fatalf("cover letter not normalized: %v", app.CoverLetter)
	}
	if events := f.notifier.events(); len(events) != 1 || events[0] != domain.NotifyApplicationSubmitted {
		t.Fatalf("events = %v, want [submitted]", events)
	}
}

func TestSubmitRejectsDuplicates(t *testing.T) {
	f := newAppFixture(t)
	worker := testWorker()
	f.submit(t, worker)

	_, err := f.apps.Submit(context.Background(), worker, f.job.ID, ApplicationSubmitInput{})
	if !errors.Is(err, ErrDuplicateApplication) {
		t.Fatalf("expected ErrDuplicateApplication, got %v", err)
	}
}

func TestSubmitGuards(t *testing.T) {
	f := newAppFixture(t)
	ctx := context.Background()

	if _, err := f.apps.Submit(ctx, f.employer, f.job.ID, ApplicationSubmitInput{}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("employer submit: expected ErrForbidden, got %v", err)
	}
	if _, err := f.apps.Submit(ctx, testWorker(), uuid.New(), ApplicationSubmitInput{}); !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("unknown job: expected ErrJobNotFound, got %v", err)
	}
	if _, err := f.apps.Submit(ctx, testWorker(), f.job.ID, ApplicationSubmitInput{
		SlotIDs: []uuid.UUID{uuid.New()},
	}); !errors.Is(err, ErrValidation) {
		t.Fatalf("foreign slot: expected validation error, got %v", err)
	}

	if _, err := f.jobs.CloseJob(ctx, f.employer, f.job.ID); err != nil {
		t.Fatalf("CloseJob: %v", err)
	}
	if _, err := f.apps.Submit(ctx, testWorker(), f.job.ID, ApplicationSubmitInput{}); !errors.Is(err, ErrJobNotAcceptingApplications) {
		t.Fatalf("closed job: expected ErrJobNotAcceptingApplications, got %v", err)
	}
}

func TestAcceptReservesSlotsAndFillsJob(t *testing.T) {
	f := newAppFixture(t, 1)
	worker := testWorker()
	app := f.submit(t, worker, f.job.Slots[0].ID)

	accepted, job, err := f.apps.Accept(context.Background(), f.employer, app.ID, nil)
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if accepted.Status != domain.ApplicationStatusAccepted {
		t.Fatalf("status = %q, want accepted", accepted.Status)
	}
	if accepted.DecidedAt == nil {
		t.Fatal("DecidedAt not set")
	}
	if got := job.Slots[0].PeopleAssigned; got != 1 {
		t.Fatalf("people_assigned = %d, want 1", got)
	}
	if job.Status != domain.JobStatusFilled {
		t.Fatalf("job status = %q, want filled after last slot fills", job.Status)
	}
}

func TestAcceptWithoutSlotSelection(t *testing.T) {
	f := newAppFixture(t, 2)
	worker := testWorker()
	app := f.submit(t, worker) // no slots chosen by the applicant

	ctx := context.Background()
	if _, _, err := f.apps.Accept(ctx, f.employer, app.ID, nil); !errors.Is(err, ErrSlotSelectionRequired) {
		t.Fatalf("expected ErrSlotSelectionRequired, got %v", err)
	}

	accepted, job, err := f.apps.Accept(ctx, f.employer, app.ID, []uuid.UUID{f.job.Slots[0].ID})
	if err != nil {
		t.Fatalf("Accept with employer slots: %v", err)
	}
	if len(accepted.SlotIDs) != 1 || accepted.SlotIDs[0] != f.job.Slots[0].ID {
		t.Fatalf("slot ids = %v, want employer selection", accepted.SlotIDs)
	}
	if job.Status != domain.JobStatusActive {
		t.Fatalf("job status = %q, want active while capacity remains", job.Status)
	}
}

func TestAcceptIsNotRepeatable(t *testing.T) {
	f := newAppFixture(t, 2)
	worker := testWorker()
	app := f.submit(t, worker, f.job.Slots[0].ID)

	ctx := context.Background()
	if _, _, err := f.apps.Accept(ctx, f.employer, app.ID, nil); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if _, _, err := f.apps.Accept(ctx, f.employer, app.ID, nil); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("second accept: expected ErrInvalidTransition, got %v", err)
	}
}

// TestConcurrentAcceptsSingleWinner races two acceptances over the last open
// position. Exactly one may win; the loser's application must remain pending
// with no capacity leaked.
func TestConcurrentAcceptsSingleWinner(t *testing.T) {
	f := newAppFixture(t, 1)
	slotID := f.job.Slots[0].ID
	appA := f.submit(t, testWorker(), slotID)
	appB := f.submit(t, testWorker(), slotID)

	ctx := context.Background()
	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for _, id := range []uuid.UUID{appA.ID, appB.ID} {
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			_, _, err := f.apps.Accept(ctx, f.employer, id, nil)
			errs <- err
		}(id)
	}
	wg.Wait()
	close(errs)

	var wins, capacityFailures int
	for err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrCapacityExceeded):
			capacityFailures++
		default:
			t.Fatalf("unexpected accept error: %v", err)
		}
	}
	if wins != 1 || capacityFailures != 1 {
		t.Fatalf("wins = %d, capacity failures = %d; want exactly one of each", wins, capacityFailures)
	}

	job, err := f.jobs.GetJob(ctx, f.job.ID)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if got := job.Slots[0].PeopleAssigned; got != 1 {
		t.Fatalf("people_assigned = %d, want 1", got)
	}

	var pending, accepted int
	for _, id := range []uuid.UUID{appA.ID, appB.ID} {
		app, err := f.apps.GetApplication(ctx, f.employer, id)
		if err != nil {
			t.Fatalf("GetApplication: %v", err)
		}
		switch app.Status {
		case domain.ApplicationStatusPending:
			pending++
		case domain.ApplicationStatusAccepted:
			accepted++
		default:
			t.Fatalf("unexpected status %q", app.Status)
		}
	}
	if accepted != 1 || pending != 1 {
		t.Fatalf("accepted = %d, pending = %d; want one of each", accepted, pending)
	}
}

func TestRejectLeavesCapacityUntouched(t *testing.T) {
	f := newAppFixture(t, 1)
	worker := testWorker()
	app := f.submit(t, worker, f.job.Slots[0].ID)

	ctx := context.Background()
	rejected, err := f.apps.Reject(ctx, f.employer, app.ID)
	if err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if rejected.Status != domain.ApplicationStatusRejected {
		t.Fatalf("status = %q, want rejected", rejected.Status)
	}

	job, err := f.jobs.GetJob(ctx, f.job.ID)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if got := job.Slots[0].PeopleAssigned; got != 0 {
		t.Fatalf("people_assigned = %d, want 0 after reject", got)
	}

	// A rejected application still blocks resubmission.
	if _, err := f.apps.Submit(ctx, worker, f.job.ID, ApplicationSubmitInput{}); !errors.Is(err, ErrDuplicateApplication) {
		t.Fatalf("resubmit after reject: expected ErrDuplicateApplication, got %v", err)
	}
}

func TestWithdrawReleasesReservedSlots(t *testing.T) {
	f := newAppFixture(t, 1)
	worker := testWorker()
	app := f.submit(t, worker, f.job.Slots[0].ID)

	ctx := context.Background()
	if _, _, err := f.apps.Accept(ctx, f.employer, app.ID, nil); err != nil {
		t.Fatalf("Accept: %v", err)
	}

	withdrawn, err := f.apps.Withdraw(ctx, worker, app.ID)
	if err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	if withdrawn.Status != domain.ApplicationStatusWithdrawn {
		t.Fatalf("status = %q, want withdrawn", withdrawn.Status)
	}
	if withdrawn.WithdrawnAt == nil {
		t.Fatal("WithdrawnAt not set")
	}

	job, err := f.jobs.GetJob(ctx, f.job.ID)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if got := job.Slots[0].PeopleAssigned; got != 0 {
		t.Fatalf("people_assigned = %d, want 0 after withdraw", got)
	}
	if job.Status != domain.JobStatusActive {
		t.Fatalf("job status = %q, want active again after release", job.Status)
	}

	if _, err := f.apps.Withdraw(ctx, worker, app.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("second withdraw: expected ErrInvalidTransition, got %v", err)
	}

	// A withdrawn application does not block a fresh submission.
	if _, err := f.apps.Submit(ctx, worker, f.job.ID, ApplicationSubmitInput{}); err != nil {
		t.Fatalf("resubmit after withdraw: %v", err)
	}
}

func TestWithdrawPendingTouchesNoCapacity(t *testing.T) {
	f := newAppFixture(t, 1)
	worker := testWorker()
	app := f.submit(t, worker, f.job.Slots[0].ID)

	ctx := context.Background()
	if _, err := f.apps.Withdraw(ctx, worker, app.ID); err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	job, err := f.jobs.GetJob(ctx, f.job.ID)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if got := job.Slots[0].PeopleAssigned; got != 0 {
		t.Fatalf("people_assigned = %d, want 0", got)
	}
}

func TestApplicationVisibility(t *testing.T) {
	f := newAppFixture(t)
	worker := testWorker()
	stranger := testWorker()
	app := f.submit(t, worker)

	ctx := context.Background()
	if _, err := f.apps.GetApplication(ctx, worker, app.ID); err != nil {
		t.Fatalf("applicant read: %v", err)
	}
	if _, err := f.apps.GetApplication(ctx, f.employer, app.ID); err != nil {
		t.Fatalf("employer read: %v", err)
	}
	if _, err := f.apps.GetApplication(ctx, stranger, app.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("stranger read: expected ErrForbidden, got %v", err)
	}

	if _, err := f.apps.ListJobApplications(ctx, testEmployer(), f.job.ID, 0, 0); !errors.Is(err, ErrForbidden) {
		t.Fatalf("foreign employer list: expected ErrForbidden, got %v", err)
	}
	list, err := f.apps.ListJobApplications(ctx, f.employer, f.job.ID, 0, 0)
	if err != nil {
		t.Fatalf("ListJobApplications: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("job applications = %d, want 1", len(list))
	}
	mine, err := f.apps.ListMyApplications(ctx, worker, 0, 0)
	if err != nil {
		t.Fatalf("ListMyApplications: %v", err)
	}
	if len(mine) != 1 {
		t.Fatalf("my applications = %d, want 1", len(mine))
	}
}

func TestLifecycleNotifications(t *testing.T) {
	f := newAppFixture(t, 2)
	worker := testWorker()
	app := f.submit(t, worker, f.job.Slots[0].ID)

	ctx := context.Background()
	if _, _, err := f.apps.Accept(ctx, f.employer, app.ID, nil); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if _, err := f.apps.Withdraw(ctx, worker, app.ID); err != nil {
		t.Fatalf("Withdraw: %v", err)
	}

	want := []domain.NotificationEvent{
		domain.NotifyApplicationSubmitted,
		domain.NotifyApplicationAccepted,
		domain.NotifyApplicationWithdrawn,
	}
	got := f.notifier.events()
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSubmitResumeWithoutStorage(t *testing.T) {
	f := newAppFixture(t)
	_, err := f.apps.Submit(context.Background(), testWorker(), f.job.ID, ApplicationSubmitInput{
		Resume: &ResumeUpload{Reader: strings.NewReader("cv"), Size: 2, FileName: "cv.pdf", ContentType: "application/pdf"},
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error with storage disabled, got %v", err)
	}
}
