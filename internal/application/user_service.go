package application

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/library-loans-api/internal/domain/entity"
	repo "github.com/oksasatya/library-loans-api/internal/domain/repository"
	"github.com/oksasatya/library-loans-api/pkg/helpers"
)

// UserService is the borrower directory.
type UserService struct {
	Store  repo.Store
	Logger *logrus.Logger
}

func NewUserService(store repo.Store, logger *logrus.Logger) *UserService {
	if logger == nil {
		logger = helpers.DiscardLogger()
	}
	return &UserService{Store: store, Logger: logger}
}

type CreateUserInput struct {
	Name               string
	Email              string
	RegistrationNumber string
	Password           string
}

type UpdateUserInput struct {
	Name               *string
	Email              *string
	RegistrationNumber *string
	Password           *string
}

func (s *UserService) GetAllUsers(ctx context.Context) ([]*entity.User, error) {
	return s.Store.Users().GetAll(ctx)
}

func (s *UserService) GetUserByID(ctx context.Context, id string) (*entity.User, error) {
	return s.Store.Users().GetByID(ctx, id)
}

func (s *UserService) IsEmailTaken(ctx context.Context, email, exceptID string) (bool, error) {
	u, err := s.Store.Users().FindByEmail(ctx, email)
	if errors.Is(err, repo.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return u.ID != exceptID, nil
}

func (s *UserService) IsRegistrationNumberTaken(ctx context.Context, number, exceptID string) (bool, error) {
	u, err := s.Store.Users().FindByRegistrationNumber(ctx, number)
	if errors.Is(err, repo.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return u.ID != exceptID, nil
}

func (s *UserService) checkUnique(ctx context.Context, email, number, exceptID string) error {
	if email != "" {
		taken, err := s.IsEmailTaken(ctx, email, exceptID)
		if err != nil {
			return err
		}
		if taken {
			return ErrEmailTaken
		}
	}
	if number != "" {
		taken, err := s.IsRegistrationNumberTaken(ctx, number, exceptID)
		if err != nil {
			return err
		}
		if taken {
			return ErrRegistrationTaken
		}
	}
	return nil
}

func (s *UserService) CreateUser(ctx context.Context, in CreateUserInput) (*entity.User, error) {
	email := strings.TrimSpace(in.Email)
	if err := s.checkUnique(ctx, email, in.RegistrationNumber, ""); err != nil {
		return nil, err
	}
	hash, err := helpers.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	u := &entity.User{
		Name:               in.Name,
		Email:              email,
		RegistrationNumber: in.RegistrationNumber,
		Password:           hash,
	}
	if err := s.Store.Users().Create(ctx, u); err != nil {
		return nil, uniquenessError(err)
	}
	s.Logger.WithField("user_id", u.ID).Info("user created")
	return u, nil
}

func (s *UserService) UpdateUser(ctx context.Context, id string, in UpdateUserInput) (*entity.User, error) {
	u, err := s.Store.Users().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	var email, number string
	if in.Email != nil && !strings.EqualFold(*in.Email, u.Email) {
		email = strings.TrimSpace(*in.Email)
	}
	if in.RegistrationNumber != nil && *in.RegistrationNumber != u.RegistrationNumber {
		number = *in.RegistrationNumber
	}
	if err := s.checkUnique(ctx, email, number, id); err != nil {
		return nil, err
	}
	if in.Name != nil {
		u.Name = *in.Name
	}
	if in.Email != nil {
		u.Email = strings.TrimSpace(*in.Email)
	}
	if in.RegistrationNumber != nil {
		u.RegistrationNumber = *in.RegistrationNumber
	}
	if in.Password != nil && !helpers.PasswordMatches(u.Password, *in.Password) {
		hash, err := helpers.HashPassword(*in.Password)
		if err != nil {
			return nil, err
		}
		u.Password = hash
	}
	if err := s.Store.Users().Update(ctx, u); err != nil {
		return nil, uniquenessError(err)
	}
	return u, nil
}

// uniquenessError turns a store conflict raised by a concurrent write into the
// field-level error for the constraint that was hit.
func uniquenessError(err error) error {
	switch {
	case repo.ConflictOn(err, repo.ConstraintUserRegistrationNumber):
		return ErrRegistrationTaken
	case repo.ConflictOn(err, repo.ConstraintUserEmail):
		return ErrEmailTaken
	}
	return err
}

// DeleteUser removes the user and their loans. Books held on open loans are
// released in the same transaction so no book stays borrowed without a loan.
// The user row is locked first; BorrowBook takes the same lock, so a borrow
// either commits before the open loans are read or finds the user gone.
func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	return s.Store.InTx(ctx, func(tx repo.Store) error {
		if _, err := tx.Users().GetByIDForUpdate(ctx, id); err != nil {
			return err
		}
		open, err := tx.Loans().FindByCriteria(ctx, repo.Criteria{
			repo.Where("user_id", id),
			repo.WhereOp("status", repo.OpIn, []entity.LoanStatus{entity.LoanActive, entity.LoanDelayed}),
		})
		if err != nil {
			return err
		}
		for _, l := range open {
			if err := tx.Books().UpdateStatus(ctx, l.BookID, entity.BookAvailable); err != nil {
				return err
			}
		}
		if err := tx.Users().Delete(ctx, id); err != nil {
			return err
		}
		s.Logger.WithFields(logrus.Fields{"user_id": id, "released_books": len(open)}).Info("user deleted")
		return nil
	})
}
