package entity_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/library-loans-api/internal/domain/entity"
)

func Test_ParseGenre_RoundTripsEveryValue(t *testing.T) {
	for _, g := range entity.Genres {
		parsed, err := entity.ParseGenre(string(g))

		require.NoError(t, err)
		assert.Equal(t, g, parsed)
		assert.Equal(t, string(g), parsed.String())
	}
}

func Test_ParseGenre_Fails_WhenCaseDiffers(t *testing.T) {
	_, err := entity.ParseGenre("fantasy")

	assert.ErrorIs(t, err, entity.ErrUnknownValue)
}

func Test_ParseGenre_Fails_WhenUnknown(t *testing.T) {
	_, err := entity.ParseGenre("Cookbook")

	assert.ErrorIs(t, err, entity.ErrUnknownValue)
}

func Test_ParseBookStatus(t *testing.T) {
	s, err := entity.ParseBookStatus("borrowed")
	require.NoError(t, err)
	assert.Equal(t, entity.BookBorrowed, s)

	_, err = entity.ParseBookStatus("BORROWED")
	assert.ErrorIs(t, err, entity.ErrUnknownValue)
}

func Test_ParseLoanStatus(t *testing.T) {
	for _, s := range entity.LoanStatuses {
		parsed, err := entity.ParseLoanStatus(string(s))
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}

	_, err := entity.ParseLoanStatus("lost")
	assert.ErrorIs(t, err, entity.ErrUnknownValue)
}

func Test_LoanStatus_CanTransitionTo(t *testing.T) {
	cases := []struct {
		from, to entity.LoanStatus
		ok       bool
	}{
		{entity.LoanActive, entity.LoanActive, true},
		{entity.LoanActive, entity.LoanDelayed, true},
		{entity.LoanDelayed, entity.LoanDelayed, true},
		{entity.LoanActive, entity.LoanReturned, true},
		{entity.LoanDelayed, entity.LoanReturned, true},
		{entity.LoanDelayed, entity.LoanActive, false},
		{entity.LoanReturned, entity.LoanActive, false},
		{entity.LoanReturned, entity.LoanDelayed, false},
		{entity.LoanReturned, entity.LoanReturned, true},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.ok, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func Test_LoanStatus_Open(t *testing.T) {
	assert.True(t, entity.LoanActive.Open())
	assert.True(t, entity.LoanDelayed.Open())
	assert.False(t, entity.LoanReturned.Open())
}

func Test_Book_IsAvailable(t *testing.T) {
	assert.True(t, (&entity.Book{Status: entity.BookAvailable}).IsAvailable())
	assert.False(t, (&entity.Book{Status: entity.BookBorrowed}).IsAvailable())

	var nilBook *entity.Book
	assert.False(t, nilBook.IsAvailable())
}

func Test_DateOf_KeepsLocalCalendarDate(t *testing.T) {
	loc := time.FixedZone("UTC-3", -3*3600)
	late := time.Date(2025, 4, 9, 23, 30, 0, 0, loc) // already 2025-04-10 in UTC

	got := entity.DateOf(late)

	assert.Equal(t, time.Date(2025, 4, 9, 0, 0, 0, 0, time.UTC), got)
}

func Test_AddDays(t *testing.T) {
	start := time.Date(2025, 2, 20, 15, 0, 0, 0, time.UTC)

	assert.Equal(t, "2025-03-06", entity.FormatDate(entity.AddDays(start, 14)))
}

func Test_Loan_OverdueOn(t *testing.T) {
	today := time.Date(2025, 4, 9, 10, 0, 0, 0, time.UTC)
	due, err := entity.ParseDate("2025-04-04")
	require.NoError(t, err)

	active := &entity.Loan{DueDate: due, Status: entity.LoanActive}
	returned := &entity.Loan{DueDate: due, Status: entity.LoanReturned}
	dueToday := &entity.Loan{DueDate: entity.DateOf(today), Status: entity.LoanActive}

	assert.True(t, active.OverdueOn(today))
	assert.False(t, returned.OverdueOn(today))
	assert.False(t, dueToday.OverdueOn(today))
}
