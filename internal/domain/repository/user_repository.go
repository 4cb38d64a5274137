package repository

import (
	"context"

	"github.com/oksasatya/library-loans-api/internal/domain/entity"
)

// UserRepository defines the storage operations for borrowers.
type UserRepository interface {
	GetAll(ctx context.Context) ([]*entity.User, error)
	GetByID(ctx context.Context, id string) (*entity.User, error)
	// GetByIDForUpdate reads the user and locks the row until the surrounding
	// transaction ends. Outside a transaction it behaves like GetByID.
	GetByIDForUpdate(ctx context.Context, id string) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	FindByRegistrationNumber(ctx context.Context, number string) (*entity.User, error)
	FindByCriteria(ctx context.Context, c Criteria) ([]*entity.User, error)
	Create(ctx context.Context, u *entity.User) error
	Update(ctx context.Context, u *entity.User) error
	Delete(ctx context.Context, id string) error
}
