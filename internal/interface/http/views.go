package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/library-loans-api/internal/domain/entity"
)

func bookSummary(b *entity.Book) gin.H {
	return gin.H{
		"id":     b.ID,
		"title":  b.Title,
		"author": b.Author,
		"status": b.Status,
	}
}

func bookView(b *entity.Book) gin.H {
	if b == nil {
		return nil
	}
	return gin.H{
		"id":                  b.ID,
		"title":               b.Title,
		"author":              b.Author,
		"registration_number": b.RegistrationNumber,
		"genre":               b.Genre,
		"status":              b.Status,
		"cover_url":           b.CoverURL,
		"created_at":          b.CreatedAt,
		"updated_at":          b.UpdatedAt,
	}
}

// userView never includes the password hash.
func userView(u *entity.User) gin.H {
	if u == nil {
		return nil
	}
	return gin.H{
		"id":                  u.ID,
		"name":                u.Name,
		"email":               u.Email,
		"registration_number": u.RegistrationNumber,
		"created_at":          u.CreatedAt,
		"updated_at":          u.UpdatedAt,
	}
}

func loanView(l *entity.Loan) gin.H {
	var returnedAt *time.Time
	if l.ReturnedAt != nil {
		r := *l.ReturnedAt
		returnedAt = &r
	}
	return gin.H{
		"id":          l.ID,
		"user_id":     l.UserID,
		"book_id":     l.BookID,
		"due_date":    entity.FormatDate(l.DueDate),
		"status":      l.Status,
		"returned_at": returnedAt,
		"created_at":  l.CreatedAt,
		"updated_at":  l.UpdatedAt,
		"user":        userView(l.User),
		"book":        bookView(l.Book),
	}
}

func mapViews[T any](items []T, view func(T) gin.H) []gin.H {
	out := make([]gin.H, 0, len(items))
	for _, it := range items {
		out = append(out, view(it))
	}
	return out
}
