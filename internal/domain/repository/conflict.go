package repository

import "errors"

// Unique constraints, named as in the postgres schema.
const (
	ConstraintUserEmail              = "users_email_lower_key"
	ConstraintUserRegistrationNumber = "users_registration_number_key"
	ConstraintBookRegistrationNumber = "books_registration_number_key"
	ConstraintOpenLoanPerBook        = "loans_open_book_key"
)

// ConflictError reports which unique constraint a write violated.
// It matches ErrConflict with errors.Is.
type ConflictError struct {
	Constraint string
}

func (e *ConflictError) Error() string {
	if e.Constraint == "" {
		return ErrConflict.Error()
	}
	return ErrConflict.Error() + ": " + e.Constraint
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// ConflictOn reports whether err is a conflict on the named constraint.
func ConflictOn(err error, constraint string) bool {
	var ce *ConflictError
	return errors.As(err, &ce) && ce.Constraint == constraint
}
