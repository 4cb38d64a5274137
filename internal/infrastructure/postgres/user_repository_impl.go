package postgres

import (
	"context"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jackc/pgx/v5"

	"github.com/oksasatya/library-loans-api/internal/domain/entity"
	"github.com/oksasatya/library-loans-api/internal/domain/repository"
)

var userColumns = []any{"id", "name", "email", "registration_number", "password_hash", "created_at", "updated_at"}

type UserRepository struct {
	q querier
}

func scanUser(row pgx.Row) (*entity.User, error) {
	u := &entity.User{}
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.RegistrationNumber, &u.Password,
		&u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) selectUsers() *goqu.SelectDataset {
	return dialect.From(tableUsers).Prepared(true).Select(userColumns...).Order(goqu.I("created_at").Asc(), goqu.I("id").Asc())
}

func (r *UserRepository) list(ctx context.Context, ds *goqu.SelectDataset) ([]*entity.User, error) {
	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, err
	}
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	users, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*entity.User, error) {
		return scanUser(row)
	})
	return users, mapError(err)
}

func (r *UserRepository) one(ctx context.Context, ds *goqu.SelectDataset) (*entity.User, error) {
	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, err
	}
	u, err := scanUser(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, mapError(err)
	}
	return u, nil
}

func (r *UserRepository) GetAll(ctx context.Context) ([]*entity.User, error) {
	return r.list(ctx, r.selectUsers())
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return r.one(ctx, r.selectUsers().Where(goqu.C("id").Eq(id)))
}

func (r *UserRepository) GetByIDForUpdate(ctx context.Context, id string) (*entity.User, error) {
	return r.one(ctx, r.forUpdate(id))
}

func (r *UserRepository) forUpdate(id string) *goqu.SelectDataset {
	return r.selectUsers().Where(goqu.C("id").Eq(id)).ForUpdate(exp.Wait)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.one(ctx, r.selectUsers().Where(goqu.Func("lower", goqu.C("email")).Eq(goqu.Func("lower", email))))
}

func (r *UserRepository) FindByRegistrationNumber(ctx context.Context, number string) (*entity.User, error) {
	return r.one(ctx, r.selectUsers().Where(goqu.C("registration_number").Eq(number)))
}

func (r *UserRepository) FindByCriteria(ctx context.Context, c repository.Criteria) ([]*entity.User, error) {
	where, err := whereCriteria(c, repository.UserColumns)
	if err != nil {
		return nil, err
	}
	return r.list(ctx, r.selectUsers().Where(where...))
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	query, args, err := dialect.Insert(tableUsers).Prepared(true).Rows(goqu.Record{
		"name":                u.Name,
		"email":               u.Email,
		"registration_number": u.RegistrationNumber,
		"password_hash":       u.Password,
	}).Returning("id", "created_at", "updated_at").ToSQL()
	if err != nil {
		return err
	}
	return mapError(r.q.QueryRow(ctx, query, args...).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt))
}

func (r *UserRepository) Update(ctx context.Context, u *entity.User) error {
	query, args, err := dialect.Update(tableUsers).Prepared(true).Set(goqu.Record{
		"name":                u.Name,
		"email":               u.Email,
		"registration_number": u.RegistrationNumber,
		"password_hash":       u.Password,
		"updated_at":          goqu.L("now()"),
	}).Where(goqu.C("id").Eq(u.ID)).Returning("updated_at").ToSQL()
	if err != nil {
		return err
	}
	return mapError(r.q.QueryRow(ctx, query, args...).Scan(&u.UpdatedAt))
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	query, args, err := dialect.Delete(tableUsers).Prepared(true).Where(goqu.C("id").Eq(id)).ToSQL()
	if err != nil {
		return err
	}
	return execOne(ctx, r.q, query, args)
}

var _ repository.UserRepository = (*UserRepository)(nil)
