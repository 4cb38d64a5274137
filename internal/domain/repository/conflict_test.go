package repository_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oksasatya/library-loans-api/internal/domain/repository"
)

func Test_ConflictError_MatchesErrConflict(t *testing.T) {
	err := fmt.Errorf("create user: %w", &repository.ConflictError{Constraint: repository.ConstraintUserEmail})

	assert.ErrorIs(t, err, repository.ErrConflict)
	assert.True(t, repository.ConflictOn(err, repository.ConstraintUserEmail))
	assert.False(t, repository.ConflictOn(err, repository.ConstraintUserRegistrationNumber))
	assert.EqualError(t, err, "create user: "+repository.ErrConflict.Error()+": users_email_lower_key")
}

func Test_ConflictOn_PlainErrors(t *testing.T) {
	assert.False(t, repository.ConflictOn(repository.ErrConflict, repository.ConstraintUserEmail))
	assert.False(t, repository.ConflictOn(errors.New("boom"), repository.ConstraintUserEmail))
	assert.False(t, repository.ConflictOn(nil, repository.ConstraintUserEmail))
}
