package memory

import (
	"context"
	"strings"

	"github.com/oksasatya/library-loans-api/internal/domain/entity"
	"github.com/oksasatya/library-loans-api/internal/domain/repository"
)

type bookRepository struct {
	s *Store
}

func (r *bookRepository) GetAll(ctx context.Context) ([]*entity.Book, error) {
	return r.FindByCriteria(ctx, nil)
}

func (r *bookRepository) GetByID(_ context.Context, id string) (*entity.Book, error) {
	defer r.s.lock()()
	b, ok := r.s.tables().books[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *b
	return &c, nil
}

// GetByIDForUpdate needs no extra locking: a transaction already owns the store mutex.
func (r *bookRepository) GetByIDForUpdate(ctx context.Context, id string) (*entity.Book, error) {
	return r.GetByID(ctx, id)
}

func (r *bookRepository) FindByRegistrationNumber(ctx context.Context, number string) (*entity.Book, error) {
	books, err := r.FindByCriteria(ctx, repository.Criteria{repository.Where("registration_number", number)})
	if err != nil {
		return nil, err
	}
	if len(books) == 0 {
		return nil, repository.ErrNotFound
	}
	return books[0], nil
}

func (r *bookRepository) FindByCriteria(_ context.Context, c repository.Criteria) ([]*entity.Book, error) {
	if err := c.Validate(repository.BookColumns); err != nil {
		return nil, err
	}
	defer r.s.lock()()
	t := r.s.tables()
	out := make([]*entity.Book, 0)
	for _, id := range t.bookOrder {
		b := t.books[id]
		if matches(bookField(b), c) {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *bookRepository) Search(_ context.Context, term string) ([]*entity.Book, error) {
	defer r.s.lock()()
	t := r.s.tables()
	needle := strings.ToLower(term)
	out := make([]*entity.Book, 0)
	for _, id := range t.bookOrder {
		b := t.books[id]
		if strings.Contains(strings.ToLower(b.Title), needle) || strings.Contains(strings.ToLower(b.Author), needle) {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *bookRepository) Create(_ context.Context, b *entity.Book) error {
	defer r.s.lock()()
	t := r.s.tables()
	for _, existing := range t.books {
		if existing.RegistrationNumber == b.RegistrationNumber {
			return &repository.ConflictError{Constraint: repository.ConstraintBookRegistrationNumber}
		}
	}
	if b.ID == "" {
		b.ID = newID()
	}
	if b.Status == "" {
		b.Status = entity.BookAvailable
	}
	now := r.s.now()
	b.CreatedAt, b.UpdatedAt = now, now
	cp := *b
	t.books[b.ID] = &cp
	t.bookOrder = append(t.bookOrder, b.ID)
	return nil
}

func (r *bookRepository) Update(_ context.Context, b *entity.Book) error {
	defer r.s.lock()()
	t := r.s.tables()
	if _, ok := t.books[b.ID]; !ok {
		return repository.ErrNotFound
	}
	for id, existing := range t.books {
		if id != b.ID && existing.RegistrationNumber == b.RegistrationNumber {
			return &repository.ConflictError{Constraint: repository.ConstraintBookRegistrationNumber}
		}
	}
	b.UpdatedAt = r.s.now()
	cp := *b
	t.books[b.ID] = &cp
	return nil
}

func (r *bookRepository) UpdateStatus(_ context.Context, id string, status entity.BookStatus) error {
	defer r.s.lock()()
	b, ok := r.s.tables().books[id]
	if !ok {
		return repository.ErrNotFound
	}
	b.Status = status
	b.UpdatedAt = r.s.now()
	return nil
}

func (r *bookRepository) Delete(_ context.Context, id string) error {
	defer r.s.lock()()
	t := r.s.tables()
	if _, ok := t.books[id]; !ok {
		return repository.ErrNotFound
	}
	delete(t.books, id)
	t.bookOrder = removeID(t.bookOrder, id)
	// loans reference books with ON DELETE CASCADE in postgres
	for lid, l := range t.loans {
		if l.BookID == id {
			delete(t.loans, lid)
			t.loanOrder = removeID(t.loanOrder, lid)
		}
	}
	return nil
}
