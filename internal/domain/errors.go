package domain

import (
	"errors"
	"fmt"
)

var (
	// Lookup errors
	ErrAccountNotFound   = errors.New("account not found")
	ErrNoAccountForOwner = errors.New("no account bound to this identity")
	ErrEntryNotFound     = errors.New("transaction entry not found")

	// Validation reasons
	ErrInvalidAmount          = errors.New("invalid amount")
	ErrUnknownTransactionType = errors.New("unknown transaction type")
	ErrBelowMinimumDeposit    = errors.New("amount below minimum deposit")
	ErrBelowMinimumWithdrawal = errors.New("amount below minimum withdrawal")
	ErrAboveMaximumWithdrawal = errors.New("amount above maximum withdrawal")
	ErrInsufficientFunds      = errors.New("insufficient funds")
	ErrInvalidDateRange       = errors.New("invalid date range")
	ErrInvalidOwner           = errors.New("invalid owner")

	// Policy reasons
	ErrLoanLimitExceeded   = errors.New("loan limit exceeded")
	ErrNotALoan            = errors.New("entry is not a loan")
	ErrLoanNotApproved     = errors.New("loan is not approved")
	ErrLoanAlreadyApproved = errors.New("loan is already approved")
	ErrLoanAlreadyPaid     = errors.New("loan is already paid")

	// Store errors
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrVersionConflict  = errors.New("account version conflict")
	ErrAccountExists    = errors.New("account already exists for owner")
)

// RejectionKind separates amount rule failures from structural policy ones.
type RejectionKind string

const (
	RejectionValidation RejectionKind = "validation"
	RejectionPolicy     RejectionKind = "policy"
)

// Rejection is the expected, non-fatal refusal to apply a transaction.
// Reason is one of the sentinel errors above.
type Rejection struct {
	Kind    RejectionKind
	Reason  error
	Message string
}

// Reject builds a Rejection with a formatted message.
func Reject(kind RejectionKind, reason error, format string, args ...any) *Rejection {
	return &Rejection{
		Kind:    kind,
		Reason:  reason,
		Message: fmt.Sprintf(format, args...),
	}
}

func (r *Rejection) Error() string {
	if r.Message == "" {
		return r.Reason.Error()
	}
	return r.Reason.Error() + ": " + r.Message
}

func (r *Rejection) Unwrap() error {
	return r.Reason
}

// AsRejection extracts a Rejection from err.
func AsRejection(err error) (*Rejection, bool) {
	var r *Rejection
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}

// IsNotFound reports whether err names a missing account or entry.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrAccountNotFound) ||
		errors.Is(err, ErrEntryNotFound) ||
		errors.Is(err, ErrNoAccountForOwner)
}

// StoreError reports that persistence failed or could not commit. Callers
// may retry the whole operation; nothing was written.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrStoreUnavailable, e.Op, e.Err)
}

func (e *StoreError) Unwrap() []error {
	return []error{ErrStoreUnavailable, e.Err}
}
