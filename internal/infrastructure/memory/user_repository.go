package memory

import (
	"context"
	"strings"

	"github.com/oksasatya/library-loans-api/internal/domain/entity"
	"github.com/oksasatya/library-loans-api/internal/domain/repository"
)

type userRepository struct {
	s *Store
}

func (r *userRepository) GetAll(ctx context.Context) ([]*entity.User, error) {
	return r.FindByCriteria(ctx, nil)
}

func (r *userRepository) GetByID(_ context.Context, id string) (*entity.User, error) {
	defer r.s.lock()()
	u, ok := r.s.tables().users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *u
	return &c, nil
}

// GetByIDForUpdate needs no row lock here: transactions already hold the store mutex.
func (r *userRepository) GetByIDForUpdate(ctx context.Context, id string) (*entity.User, error) {
	return r.GetByID(ctx, id)
}

func (r *userRepository) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	return r.findOne(func(u *entity.User) bool { return strings.EqualFold(u.Email, email) })
}

func (r *userRepository) FindByRegistrationNumber(_ context.Context, number string) (*entity.User, error) {
	return r.findOne(func(u *entity.User) bool { return u.RegistrationNumber == number })
}

func (r *userRepository) findOne(pred func(*entity.User) bool) (*entity.User, error) {
	defer r.s.lock()()
	t := r.s.tables()
	for _, id := range t.userOrder {
		if u := t.users[id]; pred(u) {
			c := *u
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepository) FindByCriteria(_ context.Context, c repository.Criteria) ([]*entity.User, error) {
	if err := c.Validate(repository.UserColumns); err != nil {
		return nil, err
	}
	defer r.s.lock()()
	t := r.s.tables()
	out := make([]*entity.User, 0)
	for _, id := range t.userOrder {
		u := t.users[id]
		if matches(userField(u), c) {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *userRepository) Create(_ context.Context, u *entity.User) error {
	defer r.s.lock()()
	t := r.s.tables()
	if err := r.taken(t, "", u); err != nil {
		return err
	}
	if u.ID == "" {
		u.ID = newID()
	}
	now := r.s.now()
	u.CreatedAt, u.UpdatedAt = now, now
	cp := *u
	t.users[u.ID] = &cp
	t.userOrder = append(t.userOrder, u.ID)
	return nil
}

func (r *userRepository) Update(_ context.Context, u *entity.User) error {
	defer r.s.lock()()
	t := r.s.tables()
	if _, ok := t.users[u.ID]; !ok {
		return repository.ErrNotFound
	}
	if err := r.taken(t, u.ID, u); err != nil {
		return err
	}
	u.UpdatedAt = r.s.now()
	cp := *u
	t.users[u.ID] = &cp
	return nil
}

// taken mirrors the unique indexes on users.
func (r *userRepository) taken(t *tables, self string, u *entity.User) error {
	for id, existing := range t.users {
		if id == self {
			continue
		}
		if strings.EqualFold(existing.Email, u.Email) {
			return &repository.ConflictError{Constraint: repository.ConstraintUserEmail}
		}
		if existing.RegistrationNumber == u.RegistrationNumber {
			return &repository.ConflictError{Constraint: repository.ConstraintUserRegistrationNumber}
		}
	}
	return nil
}

func (r *userRepository) Delete(_ context.Context, id string) error {
	defer r.s.lock()()
	t := r.s.tables()
	if _, ok := t.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(t.users, id)
	t.userOrder = removeID(t.userOrder, id)
	for lid, l := range t.loans {
		if l.UserID == id {
			delete(t.loans, lid)
			t.loanOrder = removeID(t.loanOrder, lid)
		}
	}
	return nil
}
