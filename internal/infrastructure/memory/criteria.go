package memory

import (
	"strings"
	"time"

	"github.com/oksasatya/library-loans-api/internal/domain/entity"
	"github.com/oksasatya/library-loans-api/internal/domain/repository"
)

type fieldFunc func(name string) any

// dateFields are compared by calendar date, like a DATE column.
var dateFields = map[string]struct{}{"due_date": {}}

func matches(get fieldFunc, c repository.Criteria) bool {
	for _, cond := range c {
		if !matchOne(cond.Field, get(cond.Field), cond.Op, repository.NormalizeValue(cond.Value)) {
			return false
		}
	}
	return true
}

func matchOne(field string, have any, op repository.Op, want any) bool {
	if op == repository.OpIn {
		list, ok := want.([]any)
		if !ok {
			return false
		}
		for _, w := range list {
			if matchOne(field, have, repository.OpEq, w) {
				return true
			}
		}
		return false
	}
	if have == nil || want == nil {
		switch op {
		case repository.OpEq:
			return have == nil && want == nil
		case repository.OpNe:
			return (have == nil) != (want == nil)
		default:
			return false
		}
	}
	if op == repository.OpLike {
		hs, ok1 := have.(string)
		ws, ok2 := want.(string)
		return ok1 && ok2 && strings.Contains(strings.ToLower(hs), strings.ToLower(ws))
	}

	cmp, ok := compare(field, have, want)
	if !ok {
		return op == repository.OpNe
	}
	switch op {
	case repository.OpEq:
		return cmp == 0
	case repository.OpNe:
		return cmp != 0
	case repository.OpLt:
		return cmp < 0
	case repository.OpLte:
		return cmp <= 0
	case repository.OpGt:
		return cmp > 0
	case repository.OpGte:
		return cmp >= 0
	default:
		return false
	}
}

func compare(field string, have, want any) (int, bool) {
	switch h := have.(type) {
	case string:
		w, ok := want.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(h, w), true
	case time.Time:
		w, ok := want.(time.Time)
		if !ok {
			return 0, false
		}
		if _, isDate := dateFields[field]; isDate {
			w = entity.DateOf(w)
		}
		return h.Compare(w), true
	default:
		return 0, false
	}
}

func bookField(b *entity.Book) fieldFunc {
	return func(name string) any {
		switch name {
		case "id":
			return b.ID
		case "title":
			return b.Title
		case "author":
			return b.Author
		case "registration_number":
			return b.RegistrationNumber
		case "genre":
			return string(b.Genre)
		case "status":
			return string(b.Status)
		case "created_at":
			return b.CreatedAt
		case "updated_at":
			return b.UpdatedAt
		}
		return nil
	}
}

func userField(u *entity.User) fieldFunc {
	return func(name string) any {
		switch name {
		case "id":
			return u.ID
		case "name":
			return u.Name
		case "email":
			return u.Email
		case "registration_number":
			return u.RegistrationNumber
		case "created_at":
			return u.CreatedAt
		case "updated_at":
			return u.UpdatedAt
		}
		return nil
	}
}

func loanField(l *entity.Loan) fieldFunc {
	return func(name string) any {
		switch name {
		case "id":
			return l.ID
		case "user_id":
			return l.UserID
		case "book_id":
			return l.BookID
		case "due_date":
			return l.DueDate
		case "status":
			return string(l.Status)
		case "returned_at":
			if l.ReturnedAt == nil {
				return nil
			}
			return *l.ReturnedAt
		case "created_at":
			return l.CreatedAt
		case "updated_at":
			return l.UpdatedAt
		}
		return nil
	}
}
