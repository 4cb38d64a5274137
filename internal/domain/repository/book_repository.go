package repository

import (
	"context"

	"github.com/oksasatya/library-loans-api/internal/domain/entity"
)

type BookRepository interface {
	GetAll(ctx context.Context) ([]*entity.Book, error)
	GetByID(ctx context.Context, id string) (*entity.Book, error)
	// GetByIDForUpdate reads the book and holds a write lock on it until the
	// surrounding transaction ends. Outside a transaction it behaves like GetByID.
	GetByIDForUpdate(ctx context.Context, id string) (*entity.Book, error)
	FindByRegistrationNumber(ctx context.Context, number string) (*entity.Book, error)
	FindByCriteria(ctx context.Context, c Criteria) ([]*entity.Book, error)
	// Search matches title OR author case-insensitively; each book appears once.
	Search(ctx context.Context, term string) ([]*entity.Book, error)
	Create(ctx context.Context, b *entity.Book) error
	Update(ctx context.Context, b *entity.Book) error
	UpdateStatus(ctx context.Context, id string, status entity.BookStatus) error
	Delete(ctx context.Context, id string) error
}
