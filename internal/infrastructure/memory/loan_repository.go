package memory

import (
	"context"
	"time"

	"github.com/oksasatya/library-loans-api/internal/domain/entity"
	"github.com/oksasatya/library-loans-api/internal/domain/repository"
)

type loanRepository struct {
	s *Store
}

func (r *loanRepository) GetAll(ctx context.Context) ([]*entity.Loan, error) {
	return r.FindByCriteria(ctx, nil)
}

func (r *loanRepository) GetByID(_ context.Context, id string) (*entity.Loan, error) {
	defer r.s.lock()()
	l, ok := r.s.tables().loans[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyLoan(l), nil
}

func (r *loanRepository) FindByCriteria(_ context.Context, c repository.Criteria) ([]*entity.Loan, error) {
	if err := c.Validate(repository.LoanColumns); err != nil {
		return nil, err
	}
	defer r.s.lock()()
	t := r.s.tables()
	out := make([]*entity.Loan, 0)
	for _, id := range t.loanOrder {
		l := t.loans[id]
		if matches(loanField(l), c) {
			out = append(out, copyLoan(l))
		}
	}
	return out, nil
}

func (r *loanRepository) Create(_ context.Context, l *entity.Loan) error {
	defer r.s.lock()()
	t := r.s.tables()
	if _, ok := t.users[l.UserID]; !ok {
		return repository.ErrNotFound
	}
	if _, ok := t.books[l.BookID]; !ok {
		return repository.ErrNotFound
	}
	// mirrors the partial unique index on open loans per book
	if l.Status.Open() {
		for _, existing := range t.loans {
			if existing.BookID == l.BookID && existing.Status.Open() {
				return &repository.ConflictError{Constraint: repository.ConstraintOpenLoanPerBook}
			}
		}
	}
	if l.ID == "" {
		l.ID = newID()
	}
	now := r.s.now()
	l.CreatedAt, l.UpdatedAt = now, now
	l.DueDate = entity.DateOf(l.DueDate)
	t.loans[l.ID] = copyLoan(l)
	t.loanOrder = append(t.loanOrder, l.ID)
	return nil
}

func (r *loanRepository) Update(_ context.Context, l *entity.Loan) error {
	defer r.s.lock()()
	t := r.s.tables()
	if _, ok := t.loans[l.ID]; !ok {
		return repository.ErrNotFound
	}
	l.UpdatedAt = r.s.now()
	l.DueDate = entity.DateOf(l.DueDate)
	t.loans[l.ID] = copyLoan(l)
	return nil
}

func (r *loanRepository) Delete(_ context.Context, id string) error {
	defer r.s.lock()()
	t := r.s.tables()
	if _, ok := t.loans[id]; !ok {
		return repository.ErrNotFound
	}
	delete(t.loans, id)
	t.loanOrder = removeID(t.loanOrder, id)
	return nil
}

func (r *loanRepository) MarkOverdue(_ context.Context, today time.Time) ([]*entity.Loan, error) {
	defer r.s.lock()()
	t := r.s.tables()
	day := entity.DateOf(today)
	now := r.s.now()
	var marked []*entity.Loan
	for _, id := range t.loanOrder {
		l := t.loans[id]
		if l.Status == entity.LoanActive && l.DueDate.Before(day) {
			l.Status = entity.LoanDelayed
			l.UpdatedAt = now
			marked = append(marked, copyLoan(l))
		}
	}
	return marked, nil
}
