package domain

import "testing"

func slot(needed, assigned int) TimeSlot {
	return TimeSlot{PeopleNeeded: needed, PeopleAssigned: assigned}
}

func TestDeriveJobStatus(t *testing.T) {
	cases := []struct {
		name    string
		slots   []TimeSlot
		current JobStatus
		want    JobStatus
	}{
		{"all full flips to filled", []TimeSlot{slot(1, 1), slot(2, 2)}, JobStatusActive, JobStatusFilled},
		{"open slot keeps active", []TimeSlot{slot(1, 1), slot(2, 1)}, JobStatusActive, JobStatusActive},
		{"released slot reopens filled", []TimeSlot{slot(1, 0)}, JobStatusFilled, JobStatusActive},
		{"no slots stays active", nil, JobStatusActive, JobStatusActive},
		{"closed untouched even when full", []TimeSlot{slot(1, 1)}, JobStatusClosed, JobStatusClosed},
		{"draft untouched", []TimeSlot{slot(1, 1)}, JobStatusDraft, JobStatusDraft},
		{"cancelled untouched", []TimeSlot{slot(1, 0)}, JobStatusCancelled, JobStatusCancelled},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DeriveJobStatus(tc.slots, tc.current); got != tc.want {
				t.Fatalf("DeriveJobStatus(%v, %q) = %q, want %q", tc.slots, tc.current, got, tc.want)
			}
		})
	}
}

func TestApplicationCanTransition(t *testing.T) {
	cases := []struct {
		from ApplicationStatus
		to   ApplicationStatus
		want bool
	}{
		{ApplicationStatusPending, ApplicationStatusAccepted, true},
		{ApplicationStatusPending, ApplicationStatusRejected, true},
		{ApplicationStatusPending, ApplicationStatusWithdrawn, true},
		{ApplicationStatusAccepted, ApplicationStatusWithdrawn, true},
		{ApplicationStatusAccepted, ApplicationStatusRejected, false},
		{ApplicationStatusAccepted, ApplicationStatusPending, false},
		{ApplicationStatusRejected, ApplicationStatusWithdrawn, false},
		{ApplicationStatusWithdrawn, ApplicationStatusPending, false},
	}
	for _, tc := range cases {
		app := Application{Status: tc.from}
		if got := app.CanTransition(tc.to); got != tc.want {
			t.Errorf("CanTransition(%q -> %q) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestTotalPositions(t *testing.T) {
	job := JobPosting{Slots: []TimeSlot{slot(2, 0), slot(3, 1)}}
	if got := job.TotalPositions(); got != 5 {
		t.Fatalf("TotalPositions = %d, want 5", got)
	}
}
