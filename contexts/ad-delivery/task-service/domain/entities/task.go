package entities

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type TaskStatus string
type TaskSource string
type TaskKind int
type TargetingMode int

const (
	// Local lifecycle statuses driven by the executor.
	TaskStatusWait      TaskStatus = "WAIT"
	TaskStatusRunning   TaskStatus = "RUNNING"
	TaskStatusSuccess   TaskStatus = "SUCCESS"
	TaskStatusFail      TaskStatus = "FAIL"
	TaskStatusCancelled TaskStatus = "CANCELLED"

	// Remote delivery statuses carried by synced rows.
	TaskStatusUnpaid        TaskStatus = "UNPAID"
	TaskStatusAuditing      TaskStatus = "AUDITING"
	TaskStatusDelivering    TaskStatus = "DELIVERING"
	TaskStatusFinished      TaskStatus = "FINISHED"
	TaskStatusTerminated    TaskStatus = "TERMINATED"
	TaskStatusAuditPause    TaskStatus = "AUDIT_PAUSE"
	TaskStatusAuditRejected TaskStatus = "AUDIT_REJECTED"

	TaskSourceLocal  TaskSource = "local"
	TaskSourceSynced TaskSource = "synced"

	TaskKindVideo TaskKind = 1
	TaskKindLive  TaskKind = 2

	TargetingSystem TargetingMode = 1
	TargetingCustom TargetingMode = 2
)

// Intent defaults applied at admission when the request leaves them blank.
const (
	DefaultWantType      = "CONTENT_HEAT"
	DefaultObjective     = "LIKE_COMMENT"
	DefaultStrategy      = "GUARANTEE_PLAY"
	DefaultDurationHours = 24
)

// Task is one unit of requested ad spend against a content item.
type Task struct {
	TaskID          string
	UserID          string
	AccountID       string
	TargetAccountID string
	ItemID          string

	Kind          TaskKind
	Targeting     TargetingMode
	WantType      string
	Objective     string
	Strategy      string
	DurationHours int
	TargetConfig  string

	Budget           decimal.Decimal
	ActualCost       decimal.Decimal
	ExpectedExposure int64
	ActualExposure   int64
	PlayCount        int64
	LikeCount        int64
	CommentCount     int64
	ShareCount       int64
	FollowCount      int64
	ClickCount       int64

	Source TaskSource
	Status TaskStatus

	OwnerNickname string
	OwnerAvatar   string
	VideoTitle    string
	VideoCoverURL string

	OrderID    string
	RetryCount int
	MaxRetry   int
	ErrorMsg   string

	ScheduledTime time.Time
	ExecutedTime  *time.Time
	CompletedTime *time.Time

	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Transition reports whether moving a locally-managed task from one lifecycle
// status to another is legal. Remote statuses never pass through here; synced
// rows are written whole by the reconciler.
func Transition(from, to TaskStatus) bool {
	switch from {
	case TaskStatusWait:
		return to == TaskStatusRunning || to == TaskStatusCancelled
	case TaskStatusRunning:
		// The retry edge loops a failed attempt back to WAIT.
		return to == TaskStatusSuccess || to == TaskStatusFail || to == TaskStatusWait
	case TaskStatusSuccess, TaskStatusFail, TaskStatusCancelled:
		return false
	default:
		return false
	}
}

func (t Task) CanCancel() bool {
	return t.Status == TaskStatusWait
}

func (t Task) IsTerminal() bool {
	switch t.Status {
	case TaskStatusSuccess, TaskStatusFail, TaskStatusCancelled:
		return true
	default:
		return false
	}
}

func (t *Task) MarkRunning(now time.Time) {
	t.Status = TaskStatusRunning
	executed := now.UTC()
	t.ExecutedTime = &executed
	t.UpdatedAt = now.UTC()
}

func (t *Task) MarkSuccess(orderID string, expectedExposure int64, now time.Time) {
	t.Status = TaskStatusSuccess
	t.OrderID = orderID
	t.ExpectedExposure = expectedExposure
	completed := now.UTC()
	t.CompletedTime = &completed
	t.UpdatedAt = now.UTC()
}

// ApplyFailure walks the retry edge: every failed attempt increments
// RetryCount; the task only settles in FAIL once the budgeted attempts are
// spent, otherwise it reverts to WAIT for a later poll. Returns true when the
// task became terminal.
func (t *Task) ApplyFailure(errMsg string, now time.Time) bool {
	t.RetryCount++
	t.ErrorMsg = errMsg
	t.UpdatedAt = now.UTC()
	if t.RetryCount >= t.MaxRetry {
		t.Status = TaskStatusFail
		completed := now.UTC()
		t.CompletedTime = &completed
		return true
	}
	t.Status = TaskStatusWait
	return false
}

// StatusFromRemote maps the platform's order status vocabulary onto the
// closed set above. Unknown values pass through unchanged so vocabulary the
// platform adds later is preserved rather than rejected.
func StatusFromRemote(apiStatus string) TaskStatus {
	status := strings.ToUpper(strings.TrimSpace(apiStatus))
	if status == "" {
		return TaskStatusFinished
	}
	switch status {
	case "UNPAID", "NOT_PAY":
		return TaskStatusUnpaid
	case "AUDITING", "AUDIT", "REVIEWING":
		return TaskStatusAuditing
	case "DELIVERING", "RUNNING", "ACTIVE":
		return TaskStatusDelivering
	case "FINISHED", "COMPLETE", "COMPLETED", "SUCCESS", "DONE":
		return TaskStatusFinished
	case "TERMINATED", "STOPPED", "STOP", "CANCELLED", "CANCELED":
		return TaskStatusTerminated
	case "AUDIT_PAUSE", "PAUSED", "PAUSE":
		return TaskStatusAuditPause
	case "AUDIT_REJECTED", "REJECTED", "FAILED", "FAIL":
		return TaskStatusAuditRejected
	default:
		return TaskStatus(status)
	}
}
