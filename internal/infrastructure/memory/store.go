// Package memory is a process-local Store used for development runs and tests.
// A single mutex guards all tables; InTx holds it for the whole callback and
// restores a snapshot when the callback fails.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oksasatya/library-loans-api/internal/domain/entity"
	"github.com/oksasatya/library-loans-api/internal/domain/repository"
)

type tables struct {
	books     map[string]*entity.Book
	users     map[string]*entity.User
	loans     map[string]*entity.Loan
	bookOrder []string
	userOrder []string
	loanOrder []string
}

func newTables() *tables {
	return &tables{
		books: map[string]*entity.Book{},
		users: map[string]*entity.User{},
		loans: map[string]*entity.Loan{},
	}
}

func (t *tables) clone() *tables {
	c := newTables()
	for k, v := range t.books {
		b := *v
		c.books[k] = &b
	}
	for k, v := range t.users {
		u := *v
		c.users[k] = &u
	}
	for k, v := range t.loans {
		c.loans[k] = copyLoan(v)
	}
	c.bookOrder = append([]string(nil), t.bookOrder...)
	c.userOrder = append([]string(nil), t.userOrder...)
	c.loanOrder = append([]string(nil), t.loanOrder...)
	return c
}

type Store struct {
	mu   *sync.Mutex
	db   **tables
	inTx bool
	now  func() time.Time
}

// NewStore returns an empty store. now defaults to time.Now and stamps created_at/updated_at.
func NewStore(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	t := newTables()
	return &Store{mu: &sync.Mutex{}, db: &t, now: now}
}

func (s *Store) Books() repository.BookRepository { return &bookRepository{s: s} }
func (s *Store) Users() repository.UserRepository { return &userRepository{s: s} }
func (s *Store) Loans() repository.LoanRepository { return &loanRepository{s: s} }

func (s *Store) InTx(ctx context.Context, fn func(tx repository.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := (*s.db).clone()
	tx := &Store{mu: s.mu, db: s.db, inTx: true, now: s.now}
	if err := fn(tx); err != nil {
		*s.db = snapshot
		return err
	}
	return nil
}

// lock acquires the table lock unless the caller already owns it through InTx.
func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) tables() *tables { return *s.db }

func newID() string { return uuid.NewString() }

func removeID(order []string, id string) []string {
	for i, v := range order {
		if v == id {
			return append(order[:i], order[i+1:]...)
		}
	}
	return order
}

func copyLoan(l *entity.Loan) *entity.Loan {
	c := *l
	if l.ReturnedAt != nil {
		r := *l.ReturnedAt
		c.ReturnedAt = &r
	}
	c.User = nil
	c.Book = nil
	return &c
}

var _ repository.Store = (*Store)(nil)
