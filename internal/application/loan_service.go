package application

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/library-loans-api/internal/domain/entity"
	repo "github.com/oksasatya/library-loans-api/internal/domain/repository"
	"github.com/oksasatya/library-loans-api/internal/observability/metrics"
	"github.com/oksasatya/library-loans-api/pkg/helpers"
	mailtpl "github.com/oksasatya/library-loans-api/pkg/mailer/templates"
)

const DefaultLoanDays = 14

// LoanService is the loan lifecycle engine. Every state change that touches a
// book runs in one transaction with the book row locked.
type LoanService struct {
	Store    repo.Store
	Books    *BookService
	Notifier LoanNotifier
	Logger   *logrus.Logger

	// Now and Location decide what "today" is; due dates are compared date-only.
	Now         func() time.Time
	Location    *time.Location
	DefaultDays int
}

func NewLoanService(store repo.Store, books *BookService, notifier LoanNotifier, logger *logrus.Logger) *LoanService {
	if logger == nil {
		logger = helpers.DiscardLogger()
	}
	if books == nil {
		books = NewBookService(store, nil, "", logger)
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &LoanService{
		Store:       store,
		Books:       books,
		Notifier:    notifier,
		Logger:      logger,
		Now:         time.Now,
		Location:    time.UTC,
		DefaultDays: DefaultLoanDays,
	}
}

type UpdateLoanInput struct {
	Status  *entity.LoanStatus
	DueDate *time.Time
}

func (s *LoanService) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// Today is the current calendar date in the configured location.
func (s *LoanService) Today() time.Time {
	loc := s.Location
	if loc == nil {
		loc = time.UTC
	}
	return entity.DateOf(s.now().In(loc))
}

func (s *LoanService) defaultDays() int {
	if s.DefaultDays <= 0 {
		return DefaultLoanDays
	}
	return s.DefaultDays
}

// BorrowBook opens an active loan for the book and marks it borrowed. A nil
// dueDate means today plus the default loan period. The user row is locked
// before the book row so a concurrent DeleteUser cannot remove the borrower
// between the check and the insert.
func (s *LoanService) BorrowBook(ctx context.Context, userID, bookID string, dueDate *time.Time) (loan *entity.Loan, err error) {
	defer func() { metrics.ObserveLoanOperation("borrow", errorKind(err)) }()

	due := entity.AddDays(s.Today(), s.defaultDays())
	if dueDate != nil {
		due = entity.DateOf(*dueDate)
	}

	err = s.Store.InTx(ctx, func(tx repo.Store) error {
		user, err := tx.Users().GetByIDForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		book, err := tx.Books().GetByIDForUpdate(ctx, bookID)
		if err != nil {
			return err
		}
		if !s.Books.IsAvailable(book) {
			return &BookNotAvailableError{Book: book}
		}
		l := &entity.Loan{
			UserID:  userID,
			BookID:  bookID,
			DueDate: due,
			Status:  entity.LoanActive,
		}
		if err := tx.Loans().Create(ctx, l); err != nil {
			if errors.Is(err, repo.ErrConflict) {
				return &BookNotAvailableError{Book: book}
			}
			return err
		}
		if err := s.Books.WithStore(tx).MarkBorrowed(ctx, bookID); err != nil {
			return err
		}
		book.Status = entity.BookBorrowed
		l.User, l.Book = user, book
		loan = l
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.WithFields(logrus.Fields{
		"loan_id":  loan.ID,
		"book_id":  bookID,
		"user_id":  userID,
		"due_date": entity.FormatDate(loan.DueDate),
	}).Info("book borrowed")
	s.notify(ctx, mailtpl.LoanBorrowed, loan)
	return loan, nil
}

// ReturnBook closes the loan and releases its book. Returning a loan that is
// already returned succeeds without touching the book.
func (s *LoanService) ReturnBook(ctx context.Context, loanID string) (loan *entity.Loan, err error) {
	defer func() { metrics.ObserveLoanOperation("return", errorKind(err)) }()

	changed := false
	err = s.Store.InTx(ctx, func(tx repo.Store) error {
		l, err := s.lockLoan(ctx, tx, loanID)
		if err != nil {
			return err
		}
		loan = l
		if l.Status == entity.LoanReturned {
			return nil
		}
		if err := s.close(ctx, tx, l); err != nil {
			return err
		}
		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := s.attach(ctx, loan); err != nil {
		return nil, err
	}
	if changed {
		s.Logger.WithFields(logrus.Fields{"loan_id": loan.ID, "book_id": loan.BookID}).Info("book returned")
		s.notify(ctx, mailtpl.LoanReturned, loan)
	}
	return loan, nil
}

// MarkAsDelayed flags an open loan as delayed regardless of its due date.
func (s *LoanService) MarkAsDelayed(ctx context.Context, loanID string) (loan *entity.Loan, err error) {
	defer func() { metrics.ObserveLoanOperation("mark_delayed", errorKind(err)) }()

	changed := false
	err = s.Store.InTx(ctx, func(tx repo.Store) error {
		l, err := tx.Loans().GetByID(ctx, loanID)
		if err != nil {
			return err
		}
		loan = l
		if !l.Status.CanTransitionTo(entity.LoanDelayed) {
			return ErrInvalidTransition
		}
		if l.Status == entity.LoanDelayed {
			return nil
		}
		l.Status = entity.LoanDelayed
		changed = true
		return tx.Loans().Update(ctx, l)
	})
	if err != nil {
		return nil, err
	}
	if err := s.attach(ctx, loan); err != nil {
		return nil, err
	}
	if changed {
		s.Logger.WithField("loan_id", loan.ID).Info("loan marked as delayed")
		s.notify(ctx, mailtpl.LoanOverdue, loan)
	}
	return loan, nil
}

// ExtendLoan pushes the due date back by days. The status is left alone, so a
// delayed loan stays delayed until it is returned.
func (s *LoanService) ExtendLoan(ctx context.Context, loanID string, days int) (loan *entity.Loan, err error) {
	defer func() { metrics.ObserveLoanOperation("extend", errorKind(err)) }()

	if days < 1 {
		return nil, ErrInvalidExtension
	}
	err = s.Store.InTx(ctx, func(tx repo.Store) error {
		l, err := tx.Loans().GetByID(ctx, loanID)
		if err != nil {
			return err
		}
		l.DueDate = entity.AddDays(l.DueDate, days)
		loan = l
		return tx.Loans().Update(ctx, l)
	})
	if err != nil {
		return nil, err
	}
	if err := s.attach(ctx, loan); err != nil {
		return nil, err
	}
	s.Logger.WithFields(logrus.Fields{
		"loan_id":  loan.ID,
		"days":     days,
		"due_date": entity.FormatDate(loan.DueDate),
	}).Info("loan extended")
	s.notify(ctx, mailtpl.LoanExtended, loan)
	return loan, nil
}

// UpdateDelayedLoans moves every active loan due before today to delayed and
// returns how many changed. Running it twice on the same day returns 0 the
// second time.
func (s *LoanService) UpdateDelayedLoans(ctx context.Context) (int, error) {
	return s.UpdateDelayedLoansAt(ctx, s.Today())
}

// UpdateDelayedLoansAt runs the overdue sweep against the given date. Only the
// loans this call changed are notified.
func (s *LoanService) UpdateDelayedLoansAt(ctx context.Context, today time.Time) (n int, err error) {
	defer func() { metrics.ObserveLoanOperation("update_delayed", errorKind(err)) }()

	today = entity.DateOf(today)
	marked, err := s.Store.Loans().MarkOverdue(ctx, today)
	if err != nil {
		return 0, err
	}
	n = len(marked)
	metrics.AddLoansMarkedDelayed(n)
	s.Logger.WithFields(logrus.Fields{"today": entity.FormatDate(today), "updated": n}).Info("overdue sweep finished")

	if n == 0 {
		return 0, nil
	}
	if err := s.attach(ctx, marked...); err != nil {
		s.Logger.WithError(err).Warn("overdue sweep: attach for notifications failed")
		return n, nil
	}
	for _, l := range marked {
		s.notify(ctx, mailtpl.LoanOverdue, l)
	}
	return n, nil
}

// UpdateLoan applies a partial update. Status changes follow the lifecycle
// rules; moving to returned releases the book.
func (s *LoanService) UpdateLoan(ctx context.Context, loanID string, in UpdateLoanInput) (loan *entity.Loan, err error) {
	defer func() { metrics.ObserveLoanOperation("update", errorKind(err)) }()

	returned := false
	err = s.Store.InTx(ctx, func(tx repo.Store) error {
		l, err := s.lockLoan(ctx, tx, loanID)
		if err != nil {
			return err
		}
		loan = l
		if in.Status != nil && *in.Status != l.Status {
			next := *in.Status
			if !l.Status.CanTransitionTo(next) {
				return ErrInvalidTransition
			}
			if next == entity.LoanReturned {
				if in.DueDate != nil {
					l.DueDate = entity.DateOf(*in.DueDate)
				}
				returned = true
				return s.close(ctx, tx, l)
			}
			l.Status = next
		}
		if in.DueDate != nil {
			l.DueDate = entity.DateOf(*in.DueDate)
		}
		return tx.Loans().Update(ctx, l)
	})
	if err != nil {
		return nil, err
	}
	if err := s.attach(ctx, loan); err != nil {
		return nil, err
	}
	s.Logger.WithFields(logrus.Fields{"loan_id": loan.ID, "status": loan.Status}).Info("loan updated")
	if returned {
		s.notify(ctx, mailtpl.LoanReturned, loan)
	}
	return loan, nil
}

// DeleteLoan removes the loan, releasing its book first if the loan was open.
func (s *LoanService) DeleteLoan(ctx context.Context, loanID string) (err error) {
	defer func() { metrics.ObserveLoanOperation("delete", errorKind(err)) }()

	return s.Store.InTx(ctx, func(tx repo.Store) error {
		l, err := s.lockLoan(ctx, tx, loanID)
		if err != nil {
			return err
		}
		if l.Status.Open() {
			if err := s.Books.WithStore(tx).MarkAvailable(ctx, l.BookID); err != nil {
				return err
			}
		}
		if err := tx.Loans().Delete(ctx, loanID); err != nil {
			return err
		}
		s.Logger.WithFields(logrus.Fields{"loan_id": loanID, "book_id": l.BookID}).Info("loan deleted")
		return nil
	})
}

// lockLoan locks the loan's book row, then reads the loan again so the caller
// sees any change committed while it waited for the lock.
func (s *LoanService) lockLoan(ctx context.Context, tx repo.Store, loanID string) (*entity.Loan, error) {
	l, err := tx.Loans().GetByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if _, err := tx.Books().GetByIDForUpdate(ctx, l.BookID); err != nil {
		return nil, err
	}
	return tx.Loans().GetByID(ctx, loanID)
}

func (s *LoanService) close(ctx context.Context, tx repo.Store, l *entity.Loan) error {
	now := s.now().UTC()
	l.Status = entity.LoanReturned
	l.ReturnedAt = &now
	if err := tx.Loans().Update(ctx, l); err != nil {
		return err
	}
	return s.Books.WithStore(tx).MarkAvailable(ctx, l.BookID)
}

func (s *LoanService) notify(ctx context.Context, typ string, loan *entity.Loan) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.NotifyLoan(ctx, typ, loan); err != nil {
		metrics.ObserveNotification(typ, "error")
		s.Logger.WithError(err).WithFields(logrus.Fields{"loan_id": loan.ID, "type": typ}).Warn("loan notification failed")
		return
	}
	metrics.ObserveNotification(typ, "ok")
}

// attach loads the user and book of each loan, reading each id once per call.
// References that no longer resolve are left nil.
func (s *LoanService) attach(ctx context.Context, loans ...*entity.Loan) error {
	users := map[string]*entity.User{}
	books := map[string]*entity.Book{}
	for _, l := range loans {
		if l == nil {
			continue
		}
		u, ok := users[l.UserID]
		if !ok {
			var err error
			u, err = s.Store.Users().GetByID(ctx, l.UserID)
			if err != nil && !errors.Is(err, repo.ErrNotFound) {
				return err
			}
			users[l.UserID] = u
		}
		b, ok := books[l.BookID]
		if !ok {
			var err error
			b, err = s.Store.Books().GetByID(ctx, l.BookID)
			if err != nil && !errors.Is(err, repo.ErrNotFound) {
				return err
			}
			books[l.BookID] = b
		}
		l.User, l.Book = u, b
	}
	return nil
}

func (s *LoanService) list(ctx context.Context, c repo.Criteria) ([]*entity.Loan, error) {
	loans, err := s.Store.Loans().FindByCriteria(ctx, c)
	if err != nil {
		return nil, err
	}
	if err := s.attach(ctx, loans...); err != nil {
		return nil, err
	}
	return loans, nil
}

func (s *LoanService) requireUser(ctx context.Context, userID string) error {
	_, err := s.Store.Users().GetByID(ctx, userID)
	return err
}

func (s *LoanService) GetAllLoans(ctx context.Context) ([]*entity.Loan, error) {
	return s.list(ctx, nil)
}

func (s *LoanService) GetLoanByID(ctx context.Context, id string) (*entity.Loan, error) {
	l, err := s.Store.Loans().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.attach(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

// GetActiveLoansForUser returns loans in status active only; delayed loans
// are reported by GetDelayedLoansForUser.
func (s *LoanService) GetActiveLoansForUser(ctx context.Context, userID string) ([]*entity.Loan, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.list(ctx, repo.Criteria{
		repo.Where("user_id", userID),
		repo.Where("status", entity.LoanActive),
	})
}

func (s *LoanService) GetLoansForUser(ctx context.Context, userID string) ([]*entity.Loan, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.list(ctx, repo.Criteria{repo.Where("user_id", userID)})
}

func overdueCriteria(today time.Time) repo.Criteria {
	return repo.Criteria{
		repo.WhereOp("status", repo.OpIn, []entity.LoanStatus{entity.LoanActive, entity.LoanDelayed}),
		repo.WhereOp("due_date", repo.OpLt, entity.DateOf(today)),
	}
}

// GetDelayedLoans lists open loans whose due date is before today, whether
// or not the sweep has flagged them yet.
func (s *LoanService) GetDelayedLoans(ctx context.Context) ([]*entity.Loan, error) {
	return s.GetDelayedLoansAt(ctx, s.Today())
}

// GetDelayedLoansAt is GetDelayedLoans against a fixed date, for callers that
// pair the listing with UpdateDelayedLoansAt.
func (s *LoanService) GetDelayedLoansAt(ctx context.Context, today time.Time) ([]*entity.Loan, error) {
	return s.list(ctx, overdueCriteria(today))
}

func (s *LoanService) GetDelayedLoansForUser(ctx context.Context, userID string) ([]*entity.Loan, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.list(ctx, append(overdueCriteria(s.Today()), repo.Where("user_id", userID)))
}

func (s *LoanService) HasDelayedLoans(ctx context.Context, userID string) (bool, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return false, err
	}
	loans, err := s.Store.Loans().FindByCriteria(ctx, append(overdueCriteria(s.Today()), repo.Where("user_id", userID)))
	if err != nil {
		return false, err
	}
	return len(loans) > 0, nil
}
