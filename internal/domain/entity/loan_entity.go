package entity

import (
	"errors"
	"fmt"
	"time"
)

var ErrUnknownValue = errors.New("unknown enum value")

// LoanStatus is the lifecycle state of a loan. Returned is terminal.
type LoanStatus string

const (
	LoanActive   LoanStatus = "active"
	LoanDelayed  LoanStatus = "delayed"
	LoanReturned LoanStatus = "returned"
)

var LoanStatuses = []LoanStatus{LoanActive, LoanDelayed, LoanReturned}

func (s LoanStatus) Valid() bool {
	switch s {
	case LoanActive, LoanDelayed, LoanReturned:
		return true
	default:
		return false
	}
}

func (s LoanStatus) String() string { return string(s) }

// Open reports whether a loan in this state still holds its book.
func (s LoanStatus) Open() bool {
	switch s {
	case LoanActive, LoanDelayed:
		return true
	case LoanReturned:
		return false
	default:
		return false
	}
}

// CanTransitionTo encodes the loan state machine. Staying in the same state
// is always allowed:
//
//	active   -> active | delayed | returned
//	delayed  -> delayed | returned
//	returned -> returned
func (s LoanStatus) CanTransitionTo(next LoanStatus) bool {
	switch s {
	case LoanActive:
		return next == LoanDelayed || next == LoanReturned || next == LoanActive
	case LoanDelayed:
		return next == LoanDelayed || next == LoanReturned
	case LoanReturned:
		return next == LoanReturned
	default:
		return false
	}
}

func ParseLoanStatus(v string) (LoanStatus, error) {
	s := LoanStatus(v)
	if !s.Valid() {
		return "", fmt.Errorf("%w: loan status %q", ErrUnknownValue, v)
	}
	return s, nil
}

type Loan struct {
	ID         string
	UserID     string
	BookID     string
	DueDate    time.Time // date only, midnight UTC
	Status     LoanStatus
	ReturnedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time

	// Attached on read by the loan service; never persisted.
	User *User
	Book *Book
}

// OverdueOn reports whether the loan is still open with a due date strictly before today.
func (l *Loan) OverdueOn(today time.Time) bool {
	return l.Status.Open() && l.DueDate.Before(DateOf(today))
}
