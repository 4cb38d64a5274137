package postgres

import (
	"context"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jackc/pgx/v5"

	"github.com/oksasatya/library-loans-api/internal/domain/entity"
	"github.com/oksasatya/library-loans-api/internal/domain/repository"
)

var bookColumns = []any{"id", "title", "author", "registration_number", "genre", "status", "cover_url", "created_at", "updated_at"}

type BookRepository struct {
	q querier
}

func scanBook(row pgx.Row) (*entity.Book, error) {
	var (
		b             entity.Book
		genre, status string
	)
	if err := row.Scan(&b.ID, &b.Title, &b.Author, &b.RegistrationNumber, &genre, &status,
		&b.CoverURL, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	b.Genre = entity.Genre(genre)
	b.Status = entity.BookStatus(status)
	return &b, nil
}

func (r *BookRepository) selectBooks() *goqu.SelectDataset {
	return dialect.From(tableBooks).Prepared(true).Select(bookColumns...).Order(goqu.I("created_at").Asc(), goqu.I("id").Asc())
}

func (r *BookRepository) list(ctx context.Context, ds *goqu.SelectDataset) ([]*entity.Book, error) {
	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, err
	}
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	books, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*entity.Book, error) {
		return scanBook(row)
	})
	return books, mapError(err)
}

func (r *BookRepository) one(ctx context.Context, ds *goqu.SelectDataset) (*entity.Book, error) {
	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, err
	}
	b, err := scanBook(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, mapError(err)
	}
	return b, nil
}

func (r *BookRepository) GetAll(ctx context.Context) ([]*entity.Book, error) {
	return r.list(ctx, r.selectBooks())
}

func (r *BookRepository) GetByID(ctx context.Context, id string) (*entity.Book, error) {
	return r.one(ctx, r.selectBooks().Where(goqu.C("id").Eq(id)))
}

func (r *BookRepository) GetByIDForUpdate(ctx context.Context, id string) (*entity.Book, error) {
	return r.one(ctx, r.forUpdate(id))
}

func (r *BookRepository) forUpdate(id string) *goqu.SelectDataset {
	return r.selectBooks().Where(goqu.C("id").Eq(id)).ForUpdate(exp.Wait)
}

func (r *BookRepository) FindByRegistrationNumber(ctx context.Context, number string) (*entity.Book, error) {
	return r.one(ctx, r.selectBooks().Where(goqu.C("registration_number").Eq(number)))
}

func (r *BookRepository) FindByCriteria(ctx context.Context, c repository.Criteria) ([]*entity.Book, error) {
	where, err := whereCriteria(c, repository.BookColumns)
	if err != nil {
		return nil, err
	}
	return r.list(ctx, r.selectBooks().Where(where...))
}

func (r *BookRepository) Search(ctx context.Context, term string) ([]*entity.Book, error) {
	return r.list(ctx, r.selectBooks().Where(titleOrAuthor(containsPattern(term))))
}

func titleOrAuthor(pattern string) exp.ExpressionList {
	return goqu.Or(
		goqu.C("title").ILike(pattern),
		goqu.C("author").ILike(pattern),
	)
}

func (r *BookRepository) Create(ctx context.Context, b *entity.Book) error {
	if b.Status == "" {
		b.Status = entity.BookAvailable
	}
	query, args, err := dialect.Insert(tableBooks).Prepared(true).Rows(goqu.Record{
		"title":               b.Title,
		"author":              b.Author,
		"registration_number": b.RegistrationNumber,
		"genre":               string(b.Genre),
		"status":              string(b.Status),
		"cover_url":           b.CoverURL,
	}).Returning("id", "created_at", "updated_at").ToSQL()
	if err != nil {
		return err
	}
	return mapError(r.q.QueryRow(ctx, query, args...).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt))
}

func (r *BookRepository) Update(ctx context.Context, b *entity.Book) error {
	query, args, err := dialect.Update(tableBooks).Prepared(true).Set(goqu.Record{
		"title":               b.Title,
		"author":              b.Author,
		"registration_number": b.RegistrationNumber,
		"genre":               string(b.Genre),
		"status":              string(b.Status),
		"cover_url":           b.CoverURL,
		"updated_at":          goqu.L("now()"),
	}).Where(goqu.C("id").Eq(b.ID)).Returning("updated_at").ToSQL()
	if err != nil {
		return err
	}
	return mapError(r.q.QueryRow(ctx, query, args...).Scan(&b.UpdatedAt))
}

func (r *BookRepository) UpdateStatus(ctx context.Context, id string, status entity.BookStatus) error {
	query, args, err := dialect.Update(tableBooks).Prepared(true).Set(goqu.Record{
		"status":     string(status),
		"updated_at": goqu.L("now()"),
	}).Where(goqu.C("id").Eq(id)).ToSQL()
	if err != nil {
		return err
	}
	return execOne(ctx, r.q, query, args)
}

func (r *BookRepository) Delete(ctx context.Context, id string) error {
	query, args, err := dialect.Delete(tableBooks).Prepared(true).Where(goqu.C("id").Eq(id)).ToSQL()
	if err != nil {
		return err
	}
	return execOne(ctx, r.q, query, args)
}

// execOne runs a write that must touch exactly one row.
func execOne(ctx context.Context, q querier, query string, args []any) error {
	tag, err := q.Exec(ctx, query, args...)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

var _ repository.BookRepository = (*BookRepository)(nil)
