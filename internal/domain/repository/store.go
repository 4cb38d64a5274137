package repository

import "context"

// Store groups the repositories over one storage backend.
type Store interface {
	Books() BookRepository
	Users() UserRepository
	Loans() LoanRepository
	// InTx runs fn against a Store bound to a single transaction. The transaction
	// commits when fn returns nil and rolls back otherwise.
	InTx(ctx context.Context, fn func(tx Store) error) error
}

// Column sets accepted by FindByCriteria.
var (
	BookColumns = columns("id", "title", "author", "registration_number", "genre", "status", "created_at", "updated_at")
	UserColumns = columns("id", "name", "email", "registration_number", "created_at", "updated_at")
	LoanColumns = columns("id", "user_id", "book_id", "due_date", "status", "returned_at", "created_at", "updated_at")
)

func columns(names ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(names))
	for _, n := range names {
		m[n] = struct{}{}
	}
	return m
}
