package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/library-loans-api/internal/domain/repository"
)

const (
	tableBooks = "books"
	tableUsers = "users"
	tableLoans = "loans"
)

var dialect = goqu.Dialect("postgres")

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Store struct {
	pool *pgxpool.Pool
	q    querier
	inTx bool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, q: pool}
}

func (s *Store) Books() repository.BookRepository { return &BookRepository{q: s.q} }
func (s *Store) Users() repository.UserRepository { return &UserRepository{q: s.q} }
func (s *Store) Loans() repository.LoanRepository { return &LoanRepository{q: s.q} }

func (s *Store) InTx(ctx context.Context, fn func(tx repository.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(&Store{pool: s.pool, q: tx, inTx: true})
	})
}

// mapError translates driver errors into repository sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return &repository.ConflictError{Constraint: pgErr.ConstraintName}
		case "23503": // foreign_key_violation
			return fmt.Errorf("%w: %s", repository.ErrNotFound, pgErr.ConstraintName)
		case "22P02": // invalid_text_representation, e.g. a malformed uuid
			return repository.ErrNotFound
		}
	}
	return err
}

// whereCriteria builds goqu expressions for an AND-combined Criteria.
func whereCriteria(c repository.Criteria, allowed map[string]struct{}) ([]exp.Expression, error) {
	if err := c.Validate(allowed); err != nil {
		return nil, err
	}
	out := make([]exp.Expression, 0, len(c))
	for _, cond := range c {
		col := goqu.C(cond.Field)
		v := repository.NormalizeValue(cond.Value)
		switch cond.Op {
		case repository.OpEq:
			if v == nil {
				out = append(out, col.IsNull())
			} else {
				out = append(out, col.Eq(v))
			}
		case repository.OpNe:
			if v == nil {
				out = append(out, col.IsNotNull())
			} else {
				out = append(out, col.Neq(v))
			}
		case repository.OpLt:
			out = append(out, col.Lt(v))
		case repository.OpLte:
			out = append(out, col.Lte(v))
		case repository.OpGt:
			out = append(out, col.Gt(v))
		case repository.OpGte:
			out = append(out, col.Gte(v))
		case repository.OpLike:
			out = append(out, col.ILike(containsPattern(fmt.Sprint(v))))
		case repository.OpIn:
			list, ok := v.([]any)
			if !ok {
				list = []any{v}
			}
			out = append(out, col.In(list...))
		}
	}
	return out, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern turns a user term into an ILIKE substring pattern with wildcards escaped.
func containsPattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}
