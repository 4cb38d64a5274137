package repository

import (
	"context"
	"time"

	"github.com/oksasatya/library-loans-api/internal/domain/entity"
)

type LoanRepository interface {
	GetAll(ctx context.Context) ([]*entity.Loan, error)
	GetByID(ctx context.Context, id string) (*entity.Loan, error)
	FindByCriteria(ctx context.Context, c Criteria) ([]*entity.Loan, error)
	Create(ctx context.Context, l *entity.Loan) error
	Update(ctx context.Context, l *entity.Loan) error
	Delete(ctx context.Context, id string) error
	// MarkOverdue flips every active loan due before today to delayed and
	// returns the loans it changed.
	MarkOverdue(ctx context.Context, today time.Time) ([]*entity.Loan, error)
}
