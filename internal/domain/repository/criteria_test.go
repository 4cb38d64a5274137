package repository_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/oksasatya/library-loans-api/internal/domain/entity"
	"github.com/oksasatya/library-loans-api/internal/domain/repository"
)

func Test_Criteria_Validate(t *testing.T) {
	ok := repository.Criteria{
		repository.Where("status", entity.LoanActive),
		repository.WhereOp("due_date", repository.OpLt, time.Now()),
	}
	assert.NoError(t, ok.Validate(repository.LoanColumns))

	badField := repository.Criteria{repository.Where("password", "x")}
	assert.ErrorIs(t, badField.Validate(repository.UserColumns), repository.ErrUnknownField)

	badOp := repository.Criteria{repository.WhereOp("status", repository.Op("~"), "x")}
	assert.ErrorIs(t, badOp.Validate(repository.BookColumns), repository.ErrUnknownOp)
}

func Test_NormalizeValue(t *testing.T) {
	now := time.Date(2025, 4, 9, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "active", repository.NormalizeValue(entity.LoanActive))
	assert.Equal(t, "Science Fiction", repository.NormalizeValue(entity.GenreScienceFiction))
	assert.Equal(t, now, repository.NormalizeValue(now))
	assert.Equal(t, now, repository.NormalizeValue(&now))
	assert.Equal(t, []any{"active", "delayed"}, repository.NormalizeValue([]entity.LoanStatus{entity.LoanActive, entity.LoanDelayed}))
	assert.Equal(t, []any{"a", "b"}, repository.NormalizeValue([]string{"a", "b"}))
	assert.Equal(t, 3, repository.NormalizeValue(3))
}
