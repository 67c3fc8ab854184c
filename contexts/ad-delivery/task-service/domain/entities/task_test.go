package entities

import (
	"testing"
	"time"
)

func TestTransitionClosesTerminalStates(t *testing.T) {
	cases := []struct {
		from, to TaskStatus
		want     bool
	}{
		{TaskStatusWait, TaskStatusRunning, true},
		{TaskStatusWait, TaskStatusCancelled, true},
		{TaskStatusWait, TaskStatusSuccess, false},
		{TaskStatusWait, TaskStatusFail, false},
		{TaskStatusRunning, TaskStatusSuccess, true},
		{TaskStatusRunning, TaskStatusFail, true},
		{TaskStatusRunning, TaskStatusWait, true},
		{TaskStatusRunning, TaskStatusCancelled, false},
		{TaskStatusSuccess, TaskStatusWait, false},
		{TaskStatusFail, TaskStatusRunning, false},
		{TaskStatusCancelled, TaskStatusWait, false},
		{TaskStatusDelivering, TaskStatusFinished, false},
	}
	for _, tc := range cases {
		if got := Transition(tc.from, tc.to); got != tc.want {
			t.Errorf("Transition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestCanCancelOnlyFromWait(t *testing.T) {
	for _, status := range []TaskStatus{TaskStatusRunning, TaskStatusSuccess, TaskStatusFail, TaskStatusCancelled, TaskStatusDelivering} {
		if (Task{Status: status}).CanCancel() {
			t.Errorf("expected %s not cancellable", status)
		}
	}
	if !(Task{Status: TaskStatusWait}).CanCancel() {
		t.Errorf("expected WAIT cancellable")
	}
}

func TestApplyFailureWalksRetryEdge(t *testing.T) {
	now := time.Now()
	task := Task{Status: TaskStatusRunning, MaxRetry: 3}

	for attempt := 1; attempt < 3; attempt++ {
		if terminal := task.ApplyFailure("create rejected", now); terminal {
			t.Fatalf("attempt %d should not be terminal", attempt)
		}
		if task.Status != TaskStatusWait {
			t.Fatalf("attempt %d: expected WAIT, got %s", attempt, task.Status)
		}
		if task.RetryCount != attempt {
			t.Fatalf("attempt %d: retry count %d", attempt, task.RetryCount)
		}
		task.Status = TaskStatusRunning
	}

	if terminal := task.ApplyFailure("create rejected", now); !terminal {
		t.Fatalf("final attempt should settle the task")
	}
	if task.Status != TaskStatusFail {
		t.Fatalf("expected FAIL, got %s", task.Status)
	}
	if task.CompletedTime == nil {
		t.Fatalf("expected completed time on terminal failure")
	}
}

func TestStatusFromRemote(t *testing.T) {
	cases := map[string]TaskStatus{
		"UNPAID":        TaskStatusUnpaid,
		"NOT_PAY":       TaskStatusUnpaid,
		"REVIEWING":     TaskStatusAuditing,
		"audit":         TaskStatusAuditing,
		"ACTIVE":        TaskStatusDelivering,
		"running":       TaskStatusDelivering,
		"COMPLETE":      TaskStatusFinished,
		"done":          TaskStatusFinished,
		"STOPPED":       TaskStatusTerminated,
		"CANCELED":      TaskStatusTerminated,
		"PAUSED":        TaskStatusAuditPause,
		"REJECTED":      TaskStatusAuditRejected,
		"":              TaskStatusFinished,
		"  finished  ":  TaskStatusFinished,
		"SOMETHING_NEW": TaskStatus("SOMETHING_NEW"),
		"lower_unknown": TaskStatus("LOWER_UNKNOWN"),
	}
	for input, want := range cases {
		if got := StatusFromRemote(input); got != want {
			t.Errorf("StatusFromRemote(%q) = %s, want %s", input, got, want)
		}
	}
}
