package postgres

import (
	"context"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/jackc/pgx/v5"

	"github.com/oksasatya/library-loans-api/internal/domain/entity"
	"github.com/oksasatya/library-loans-api/internal/domain/repository"
)

var loanColumns = []any{"id", "user_id", "book_id", "due_date", "status", "returned_at", "created_at", "updated_at"}

type LoanRepository struct {
	q querier
}

func scanLoan(row pgx.Row) (*entity.Loan, error) {
	var (
		l      entity.Loan
		status string
	)
	if err := row.Scan(&l.ID, &l.UserID, &l.BookID, &l.DueDate, &status, &l.ReturnedAt,
		&l.CreatedAt, &l.UpdatedAt); err != nil {
		return nil, err
	}
	l.Status = entity.LoanStatus(status)
	l.DueDate = entity.DateOf(l.DueDate)
	return &l, nil
}

func (r *LoanRepository) selectLoans() *goqu.SelectDataset {
	return dialect.From(tableLoans).Prepared(true).Select(loanColumns...).Order(goqu.I("created_at").Asc(), goqu.I("id").Asc())
}

func (r *LoanRepository) list(ctx context.Context, ds *goqu.SelectDataset) ([]*entity.Loan, error) {
	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, err
	}
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	loans, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*entity.Loan, error) {
		return scanLoan(row)
	})
	return loans, mapError(err)
}

func (r *LoanRepository) GetAll(ctx context.Context) ([]*entity.Loan, error) {
	return r.list(ctx, r.selectLoans())
}

func (r *LoanRepository) GetByID(ctx context.Context, id string) (*entity.Loan, error) {
	query, args, err := r.selectLoans().Where(goqu.C("id").Eq(id)).ToSQL()
	if err != nil {
		return nil, err
	}
	l, err := scanLoan(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, mapError(err)
	}
	return l, nil
}

func (r *LoanRepository) FindByCriteria(ctx context.Context, c repository.Criteria) ([]*entity.Loan, error) {
	where, err := whereCriteria(c, repository.LoanColumns)
	if err != nil {
		return nil, err
	}
	return r.list(ctx, r.selectLoans().Where(where...))
}

func (r *LoanRepository) Create(ctx context.Context, l *entity.Loan) error {
	l.DueDate = entity.DateOf(l.DueDate)
	query, args, err := dialect.Insert(tableLoans).Prepared(true).Rows(goqu.Record{
		"user_id":     l.UserID,
		"book_id":     l.BookID,
		"due_date":    l.DueDate,
		"status":      string(l.Status),
		"returned_at": l.ReturnedAt,
	}).Returning("id", "created_at", "updated_at").ToSQL()
	if err != nil {
		return err
	}
	return mapError(r.q.QueryRow(ctx, query, args...).Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt))
}

func (r *LoanRepository) Update(ctx context.Context, l *entity.Loan) error {
	l.DueDate = entity.DateOf(l.DueDate)
	query, args, err := dialect.Update(tableLoans).Prepared(true).Set(goqu.Record{
		"due_date":    l.DueDate,
		"status":      string(l.Status),
		"returned_at": l.ReturnedAt,
		"updated_at":  goqu.L("now()"),
	}).Where(goqu.C("id").Eq(l.ID)).Returning("updated_at").ToSQL()
	if err != nil {
		return err
	}
	return mapError(r.q.QueryRow(ctx, query, args...).Scan(&l.UpdatedAt))
}

func (r *LoanRepository) Delete(ctx context.Context, id string) error {
	query, args, err := dialect.Delete(tableLoans).Prepared(true).Where(goqu.C("id").Eq(id)).ToSQL()
	if err != nil {
		return err
	}
	return execOne(ctx, r.q, query, args)
}

func (r *LoanRepository) MarkOverdue(ctx context.Context, today time.Time) ([]*entity.Loan, error) {
	query, args, err := r.markOverdue(today).ToSQL()
	if err != nil {
		return nil, err
	}
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	loans, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*entity.Loan, error) {
		return scanLoan(row)
	})
	return loans, mapError(err)
}

func (r *LoanRepository) markOverdue(today time.Time) *goqu.UpdateDataset {
	return dialect.Update(tableLoans).Prepared(true).Set(goqu.Record{
		"status":     string(entity.LoanDelayed),
		"updated_at": goqu.L("now()"),
	}).Where(
		goqu.C("status").Eq(string(entity.LoanActive)),
		goqu.C("due_date").Lt(entity.DateOf(today)),
	).Returning(loanColumns...)
}

var _ repository.LoanRepository = (*LoanRepository)(nil)
