package errors

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidTaskInput          = errors.New("invalid task input")
	ErrTaskNotFound              = errors.New("task not found")
	ErrTaskNotCancellable        = errors.New("only waiting tasks can be cancelled")
	ErrInvalidStateTransition    = errors.New("invalid task state transition")
	ErrConcurrentUpdate          = errors.New("task row was modified concurrently")
	ErrBudgetExceedsSingleLimit  = errors.New("budget exceeds single order limit")
	ErrAccountDailyLimitExceeded = errors.New("account daily spend limit exceeded")
	ErrUserDailyLimitExceeded    = errors.New("user daily spend limit exceeded")
	ErrInvestPasswordMismatch    = errors.New("invest password mismatch")
	ErrAccountNotAuthorized      = errors.New("account is not authorized")
	ErrMissingActorID            = errors.New("account has no linked actor id, re-authorization required")
	ErrSyncInProgress            = errors.New("order sync already in progress for this user")
	ErrCredentialUnavailable     = errors.New("account credential unavailable")
)

// DailyLimitError carries the usage figures the caller displays alongside a
// limit rejection. errors.Is matches the scope sentinel so callers can keep
// testing with the vars above.
type DailyLimitError struct {
	Scope error
	Used  decimal.Decimal
	Limit decimal.Decimal
}

func NewAccountDailyLimitError(used, limit decimal.Decimal) *DailyLimitError {
	return &DailyLimitError{Scope: ErrAccountDailyLimitExceeded, Used: used, Limit: limit}
}

func NewUserDailyLimitError(used, limit decimal.Decimal) *DailyLimitError {
	return &DailyLimitError{Scope: ErrUserDailyLimitExceeded, Used: used, Limit: limit}
}

func (e *DailyLimitError) Error() string {
	return fmt.Sprintf("%s: used %s of %s", e.Scope.Error(), e.Used.String(), e.Limit.String())
}

func (e *DailyLimitError) Is(target error) bool {
	return errors.Is(e.Scope, target)
}
