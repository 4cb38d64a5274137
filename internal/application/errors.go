package application

import (
	"errors"
	"fmt"

	"github.com/oksasatya/library-loans-api/internal/domain/entity"
	"github.com/oksasatya/library-loans-api/internal/domain/repository"
)

var (
	ErrBookNotAvailable  = errors.New("book is not available for loan")
	ErrInvalidTransition = errors.New("invalid loan status transition")
	ErrInvalidExtension  = errors.New("extension must be at least one day")
	ErrBookBorrowed      = errors.New("book is currently borrowed")
	ErrEmailTaken        = errors.New("email already in use")
	ErrRegistrationTaken = errors.New("registration number already in use")
	ErrStorageNotReady   = errors.New("cover storage not configured")
)

// BookNotAvailableError is returned by BorrowBook when the book already has an open loan.
type BookNotAvailableError struct {
	Book *entity.Book
}

func (e *BookNotAvailableError) Error() string {
	if e.Book == nil {
		return ErrBookNotAvailable.Error()
	}
	return fmt.Sprintf("book %q is not available for loan", e.Book.Title)
}

func (e *BookNotAvailableError) Is(target error) bool {
	return target == ErrBookNotAvailable
}

// errorKind is a short label used for metrics.
func errorKind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrBookNotAvailable):
		return "book_not_available"
	case errors.Is(err, repository.ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrInvalidExtension):
		return "rejected"
	default:
		return "error"
	}
}
