package application_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/library-loans-api/internal/application"
	"github.com/oksasatya/library-loans-api/internal/domain/entity"
	"github.com/oksasatya/library-loans-api/internal/domain/repository"
	"github.com/oksasatya/library-loans-api/internal/infrastructure/memory"
	mailtpl "github.com/oksasatya/library-loans-api/pkg/mailer/templates"
)

type clock struct{ t time.Time }

func (c *clock) Now() time.Time { return c.t }

type recordingNotifier struct {
	mu    sync.Mutex
	types []string
	loans []string
	err   error
}

func (n *recordingNotifier) NotifyLoan(_ context.Context, typ string, l *entity.Loan) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.types = append(n.types, typ)
	n.loans = append(n.loans, l.ID)
	return n.err
}

// notified returns the ids of loans that got a notice of type typ.
func (n *recordingNotifier) notified(typ string) []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var ids []string
	for i, t := range n.types {
		if t == typ {
			ids = append(ids, n.loans[i])
		}
	}
	return ids
}

func (n *recordingNotifier) sent() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.types...)
}

type fixture struct {
	store    *memory.Store
	clock    *clock
	notifier *recordingNotifier
	books    *application.BookService
	users    *application.UserService
	loans    *application.LoanService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	c := &clock{t: time.Date(2025, 4, 9, 10, 30, 0, 0, time.UTC)}
	st := memory.NewStore(c.Now)
	n := &recordingNotifier{}
	books := application.NewBookService(st, nil, "", nil)
	loans := application.NewLoanService(st, books, n, nil)
	loans.Now = c.Now
	return &fixture{
		store:    st,
		clock:    c,
		notifier: n,
		books:    books,
		users:    application.NewUserService(st, nil),
		loans:    loans,
	}
}

func (f *fixture) givenBook(t *testing.T, reg string) *entity.Book {
	t.Helper()
	b, err := f.books.CreateBook(context.Background(), application.CreateBookInput{
		Title:              "The Left Hand of Darkness",
		Author:             "Ursula K. Le Guin",
		RegistrationNumber: reg,
		Genre:              entity.GenreScienceFiction,
	})
	require.NoError(t, err)
	return b
}

func (f *fixture) givenUser(t *testing.T, email, reg string) *entity.User {
	t.Helper()
	u, err := f.users.CreateUser(context.Background(), application.CreateUserInput{
		Name:               "Ada",
		Email:              email,
		RegistrationNumber: reg,
		Password:           "s3cret-pass",
	})
	require.NoError(t, err)
	return u
}

func (f *fixture) bookStatus(t *testing.T, id string) entity.BookStatus {
	t.Helper()
	b, err := f.books.GetBookByID(context.Background(), id)
	require.NoError(t, err)
	return b.Status
}

func date(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func Test_BorrowBook_DefaultsDueDateToTodayPlus14(t *testing.T) {
	f := newFixture(t)
	b := f.givenBook(t, "B-1")
	u := f.givenUser(t, "ada@example.com", "U-1")

	loan, err := f.loans.BorrowBook(context.Background(), u.ID, b.ID, nil)

	require.NoError(t, err)
	assert.Equal(t, entity.LoanActive, loan.Status)
	assert.Equal(t, date(2025, 4, 23), loan.DueDate)
	assert.Equal(t, entity.BookBorrowed, f.bookStatus(t, b.ID))
	require.NotNil(t, loan.User)
	require.NotNil(t, loan.Book)
	assert.Equal(t, u.Email, loan.User.Email)
	assert.Equal(t, entity.BookBorrowed, loan.Book.Status)
	assert.Equal(t, []string{mailtpl.LoanBorrowed}, f.notifier.sent())
}

func Test_BorrowBook_UsesGivenDueDate(t *testing.T) {
	f := newFixture(t)
	b := f.givenBook(t, "B-1")
	u := f.givenUser(t, "ada@example.com", "U-1")
	due := time.Date(2025, 5, 1, 18, 0, 0, 0, time.UTC)

	loan, err := f.loans.BorrowBook(context.Background(), u.ID, b.ID, &due)

	require.NoError(t, err)
	assert.Equal(t, date(2025, 5, 1), loan.DueDate)
}

func Test_BorrowBook_TodayFollowsLocation(t *testing.T) {
	f := newFixture(t)
	b := f.givenBook(t, "B-1")
	u := f.givenUser(t, "ada@example.com", "U-1")
	loc, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)
	f.loans.Location = loc
	f.clock.t = time.Date(2025, 4, 9, 20, 0, 0, 0, time.UTC) // already 2025-04-10 in Tokyo

	loan, err := f.loans.BorrowBook(context.Background(), u.ID, b.ID, nil)

	require.NoError(t, err)
	assert.Equal(t, date(2025, 4, 24), loan.DueDate)
}

func Test_BorrowBook_Fails_WhenBookBorrowed(t *testing.T) {
	f := newFixture(t)
	b := f.givenBook(t, "B-1")
	first := f.givenUser(t, "ada@example.com", "U-1")
	second := f.givenUser(t, "bob@example.com", "U-2")
	_, err := f.loans.BorrowBook(context.Background(), first.ID, b.ID, nil)
	require.NoError(t, err)

	_, err = f.loans.BorrowBook(context.Background(), second.ID, b.ID, nil)

	require.ErrorIs(t, err, application.ErrBookNotAvailable)
	var notAvailable *application.BookNotAvailableError
	require.True(t, errors.As(err, &notAvailable))
	assert.Equal(t, b.ID, notAvailable.Book.ID)
	assert.Equal(t, entity.BookBorrowed, notAvailable.Book.Status)

	loans, err := f.loans.GetAllLoans(context.Background())
	require.NoError(t, err)
	assert.Len(t, loans, 1)
}

func Test_BorrowBook_NotFound(t *testing.T) {
	f := newFixture(t)
	b := f.givenBook(t, "B-1")
	u := f.givenUser(t, "ada@example.com", "U-1")

	_, err := f.loans.BorrowBook(context.Background(), u.ID, "missing", nil)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = f.loans.BorrowBook(context.Background(), "missing", b.ID, nil)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Equal(t, entity.BookAvailable, f.bookStatus(t, b.ID))
}

func Test_BorrowBook_ConcurrentCallers_OnlyOneWins(t *testing.T) {
	f := newFixture(t)
	b := f.givenBook(t, "B-1")
	users := make([]*entity.User, 8)
	for i := range users {
		users[i] = f.givenUser(t, string(rune('a'+i))+"@example.com", "U-"+string(rune('a'+i)))
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok, lost int
	)
	for _, u := range users {
		wg.Add(1)
		go func(userID string) {
			defer wg.Done()
			_, err := f.loans.BorrowBook(context.Background(), userID, b.ID, nil)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
			} else if errors.Is(err, application.ErrBookNotAvailable) {
				lost++
			}
		}(u.ID)
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, len(users)-1, lost)
}

func Test_ReturnBook_ReleasesBook(t *testing.T) {
	f := newFixture(t)
	b := f.givenBook(t, "B-1")
	u := f.givenUser(t, "ada@example.com", "U-1")
	loan, err := f.loans.BorrowBook(context.Background(), u.ID, b.ID, nil)
	require.NoError(t, err)

	got, err := f.loans.ReturnBook(context.Background(), loan.ID)

	require.NoError(t, err)
	assert.Equal(t, entity.LoanReturned, got.Status)
	require.NotNil(t, got.ReturnedAt)
	assert.Equal(t, f.clock.t, *got.ReturnedAt)
	assert.Equal(t, entity.BookAvailable, f.bookStatus(t, b.ID))
	assert.Equal(t, []string{mailtpl.LoanBorrowed, mailtpl.LoanReturned}, f.notifier.sent())
}

func Test_ReturnBook_Twice_IsNoOpAndLeavesNewLoanAlone(t *testing.T) {
	f := newFixture(t)
	b := f.givenBook(t, "B-1")
	ada := f.givenUser(t, "ada@example.com", "U-1")
	bob := f.givenUser(t, "bob@example.com", "U-2")
	first, err := f.loans.BorrowBook(context.Background(), ada.ID, b.ID, nil)
	require.NoError(t, err)
	_, err = f.loans.ReturnBook(context.Background(), first.ID)
	require.NoError(t, err)
	_, err = f.loans.BorrowBook(context.Background(), bob.ID, b.ID, nil)
	require.NoError(t, err)

	again, err := f.loans.ReturnBook(context.Background(), first.ID)

	require.NoError(t, err)
	assert.Equal(t, entity.LoanReturned, again.Status)
	assert.Equal(t, entity.BookBorrowed, f.bookStatus(t, b.ID))
}

func Test_ReturnBook_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.loans.ReturnBook(context.Background(), "missing")

	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func Test_BorrowReturnBorrow_Succeeds(t *testing.T) {
	f := newFixture(t)
	b := f.givenBook(t, "B-1")
	u := f.givenUser(t, "ada@example.com", "U-1")

	first, err := f.loans.BorrowBook(context.Background(), u.ID, b.ID, nil)
	require.NoError(t, err)
	_, err = f.loans.ReturnBook(context.Background(), first.ID)
	require.NoError(t, err)
	second, err := f.loans.BorrowBook(context.Background(), u.ID, b.ID, nil)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, entity.BookBorrowed, f.bookStatus(t, b.ID))
}

func Test_BookBorrowed_IffOpenLoanExists(t *testing.T) {
	f := newFixture(t)
	b := f.givenBook(t, "B-1")
	u := f.givenUser(t, "ada@example.com", "U-1")
	ctx := context.Background()

	check := func() {
		t.Helper()
		open, err := f.store.Loans().FindByCriteria(ctx, repository.Criteria{
			repository.Where("book_id", b.ID),
			repository.WhereOp("status", repository.OpIn, []entity.LoanStatus{entity.LoanActive, entity.LoanDelayed}),
		})
		require.NoError(t, err)
		assert.Equal(t, len(open) > 0, f.bookStatus(t, b.ID) == entity.BookBorrowed)
	}

	check()
	l1, err := f.loans.BorrowBook(ctx, u.ID, b.ID, nil)
	require.NoError(t, err)
	check()
	_, err = f.loans.BorrowBook(ctx, u.ID, b.ID, nil)
	require.Error(t, err)
	check()
	_, err = f.loans.MarkAsDelayed(ctx, l1.ID)
	require.NoError(t, err)
	check()
	_, err = f.loans.ReturnBook(ctx, l1.ID)
	require.NoError(t, err)
	check()
	l2, err := f.loans.BorrowBook(ctx, u.ID, b.ID, nil)
	require.NoError(t, err)
	check()
	require.NoError(t, f.loans.DeleteLoan(ctx, l2.ID))
	check()
}

func Test_MarkAsDelayed(t *testing.T) {
	f := newFixture(t)
	b := f.givenBook(t, "B-1")
	u := f.givenUser(t, "ada@example.com", "U-1")
	loan, err := f.loans.BorrowBook(context.Background(), u.ID, b.ID, nil)
	require.NoError(t, err)

	got, err := f.loans.MarkAsDelayed(context.Background(), loan.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.LoanDelayed, got.Status)
	assert.Equal(t, entity.BookBorrowed, f.bookStatus(t, b.ID))

	_, err = f.loans.ReturnBook(context.Background(), loan.ID)
	require.NoError(t, err)
	_, err = f.loans.MarkAsDelayed(context.Background(), loan.ID)
	assert.ErrorIs(t, err, application.ErrInvalidTransition)
}

func Test_ExtendLoan_AddsDaysKeepsStatus(t *testing.T) {
	f := newFixture(t)
	b := f.givenBook(t, "B-1")
	u := f.givenUser(t, "ada@example.com", "U-1")
	loan, err := f.loans.BorrowBook(context.Background(), u.ID, b.ID, nil)
	require.NoError(t, err)
	_, err = f.loans.MarkAsDelayed(context.Background(), loan.ID)
	require.NoError(t, err)

	got, err := f.loans.ExtendLoan(context.Background(), loan.ID, 7)

	require.NoError(t, err)
	assert.Equal(t, date(2025, 4, 30), got.DueDate)
	assert.Equal(t, entity.LoanDelayed, got.Status)
}

func Test_ExtendLoan_RejectsNonPositiveDays(t *testing.T) {
	f := newFixture(t)

	_, err := f.loans.ExtendLoan(context.Background(), "any", 0)

	assert.ErrorIs(t, err, application.ErrInvalidExtension)
}

func Test_UpdateDelayedLoans_FlagsOverdueOnce(t *testing.T) {
	f := newFixture(t)
	b := f.givenBook(t, "B-1")
	later := f.givenBook(t, "B-2")
	u := f.givenUser(t, "ada@example.com", "U-1")
	due := date(2025, 4, 4)
	overdue, err := f.loans.BorrowBook(context.Background(), u.ID, b.ID, &due)
	require.NoError(t, err)
	onTime, err := f.loans.BorrowBook(context.Background(), u.ID, later.ID, nil)
	require.NoError(t, err)

	n, err := f.loans.UpdateDelayedLoans(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := f.loans.GetLoanByID(context.Background(), overdue.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.LoanDelayed, got.Status)
	got, err = f.loans.GetLoanByID(context.Background(), onTime.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.LoanActive, got.Status)

	n, err = f.loans.UpdateDelayedLoans(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Contains(t, f.notifier.sent(), mailtpl.LoanOverdue)
}

func Test_UpdateDelayedLoans_DueTodayIsNotOverdue(t *testing.T) {
	f := newFixture(t)
	b := f.givenBook(t, "B-1")
	u := f.givenUser(t, "ada@example.com", "U-1")
	due := date(2025, 4, 9)
	_, err := f.loans.BorrowBook(context.Background(), u.ID, b.ID, &due)
	require.NoError(t, err)

	n, err := f.loans.UpdateDelayedLoans(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func Test_UpdateDelayedLoans_NotifiesOnlyLoansItChanged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.givenUser(t, "ada@example.com", "U-1")
	past := date(2025, 4, 1)
	flagged, err := f.loans.BorrowBook(ctx, u.ID, f.givenBook(t, "B-1").ID, &past)
	require.NoError(t, err)
	_, err = f.loans.MarkAsDelayed(ctx, flagged.ID)
	require.NoError(t, err)
	swept, err := f.loans.BorrowBook(ctx, u.ID, f.givenBook(t, "B-2").ID, &past)
	require.NoError(t, err)

	n, err := f.loans.UpdateDelayedLoans(ctx)

	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{flagged.ID, swept.ID}, f.notifier.notified(mailtpl.LoanOverdue))
}

func Test_DelayedLoansAt_UseTheGivenDate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.givenUser(t, "ada@example.com", "U-1")
	due := date(2025, 4, 9)
	l, err := f.loans.BorrowBook(ctx, u.ID, f.givenBook(t, "B-1").ID, &due)
	require.NoError(t, err)

	listed, err := f.loans.GetDelayedLoansAt(ctx, date(2025, 4, 9))
	require.NoError(t, err)
	assert.Empty(t, listed)
	n, err := f.loans.UpdateDelayedLoansAt(ctx, date(2025, 4, 9))
	require.NoError(t, err)
	assert.Zero(t, n)

	tomorrow := time.Date(2025, 4, 10, 0, 0, 1, 0, time.UTC)
	listed, err = f.loans.GetDelayedLoansAt(ctx, tomorrow)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, l.ID, listed[0].ID)
	n, err = f.loans.UpdateDelayedLoansAt(ctx, tomorrow)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func Test_GetDelayedLoans_IncludesFlaggedAndUnflagged(t *testing.T) {
	f := newFixture(t)
	b1 := f.givenBook(t, "B-1")
	b2 := f.givenBook(t, "B-2")
	b3 := f.givenBook(t, "B-3")
	ada := f.givenUser(t, "ada@example.com", "U-1")
	bob := f.givenUser(t, "bob@example.com", "U-2")
	past := date(2025, 4, 1)
	_, err := f.loans.BorrowBook(context.Background(), ada.ID, b1.ID, &past)
	require.NoError(t, err)
	flagged, err := f.loans.BorrowBook(context.Background(), bob.ID, b2.ID, &past)
	require.NoError(t, err)
	_, err = f.loans.MarkAsDelayed(context.Background(), flagged.ID)
	require.NoError(t, err)
	_, err = f.loans.BorrowBook(context.Background(), bob.ID, b3.ID, nil)
	require.NoError(t, err)

	all, err := f.loans.GetDelayedLoans(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 2)

	forBob, err := f.loans.GetDelayedLoansForUser(context.Background(), bob.ID)
	require.NoError(t, err)
	require.Len(t, forBob, 1)
	assert.Equal(t, flagged.ID, forBob[0].ID)
	require.NotNil(t, forBob[0].Book)

	has, err := f.loans.HasDelayedLoans(context.Background(), ada.ID)
	require.NoError(t, err)
	assert.True(t, has)

	active, err := f.loans.GetActiveLoansForUser(context.Background(), bob.ID)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	mine, err := f.loans.GetLoansForUser(context.Background(), bob.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}

func Test_UserLoanQueries_NotFound_WhenUserMissing(t *testing.T) {
	f := newFixture(t)

	_, err := f.loans.GetLoansForUser(context.Background(), "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = f.loans.HasDelayedLoans(context.Background(), "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func Test_UpdateLoan_ToReturnedReleasesBook(t *testing.T) {
	f := newFixture(t)
	b := f.givenBook(t, "B-1")
	u := f.givenUser(t, "ada@example.com", "U-1")
	loan, err := f.loans.BorrowBook(context.Background(), u.ID, b.ID, nil)
	require.NoError(t, err)
	returned := entity.LoanReturned

	got, err := f.loans.UpdateLoan(context.Background(), loan.ID, application.UpdateLoanInput{Status: &returned})

	require.NoError(t, err)
	assert.Equal(t, entity.LoanReturned, got.Status)
	assert.NotNil(t, got.ReturnedAt)
	assert.Equal(t, entity.BookAvailable, f.bookStatus(t, b.ID))
}

func Test_UpdateLoan_RejectsLeavingReturned(t *testing.T) {
	f := newFixture(t)
	b := f.givenBook(t, "B-1")
	u := f.givenUser(t, "ada@example.com", "U-1")
	loan, err := f.loans.BorrowBook(context.Background(), u.ID, b.ID, nil)
	require.NoError(t, err)
	_, err = f.loans.ReturnBook(context.Background(), loan.ID)
	require.NoError(t, err)
	active := entity.LoanActive

	_, err = f.loans.UpdateLoan(context.Background(), loan.ID, application.UpdateLoanInput{Status: &active})

	assert.ErrorIs(t, err, application.ErrInvalidTransition)
	assert.Equal(t, entity.BookAvailable, f.bookStatus(t, b.ID))
}

func Test_UpdateLoan_ChangesDueDate(t *testing.T) {
	f := newFixture(t)
	b := f.givenBook(t, "B-1")
	u := f.givenUser(t, "ada@example.com", "U-1")
	loan, err := f.loans.BorrowBook(context.Background(), u.ID, b.ID, nil)
	require.NoError(t, err)
	due := date(2025, 6, 1)

	got, err := f.loans.UpdateLoan(context.Background(), loan.ID, application.UpdateLoanInput{DueDate: &due})

	require.NoError(t, err)
	assert.Equal(t, due, got.DueDate)
	assert.Equal(t, entity.LoanActive, got.Status)
}

func Test_DeleteLoan_ReleasesBook(t *testing.T) {
	f := newFixture(t)
	b := f.givenBook(t, "B-1")
	u := f.givenUser(t, "ada@example.com", "U-1")
	loan, err := f.loans.BorrowBook(context.Background(), u.ID, b.ID, nil)
	require.NoError(t, err)

	require.NoError(t, f.loans.DeleteLoan(context.Background(), loan.ID))

	assert.Equal(t, entity.BookAvailable, f.bookStatus(t, b.ID))
	_, err = f.loans.GetLoanByID(context.Background(), loan.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func Test_NotifierFailure_DoesNotFailOperation(t *testing.T) {
	f := newFixture(t)
	f.notifier.err = errors.New("broker down")
	b := f.givenBook(t, "B-1")
	u := f.givenUser(t, "ada@example.com", "U-1")

	loan, err := f.loans.BorrowBook(context.Background(), u.ID, b.ID, nil)

	require.NoError(t, err)
	assert.NotEmpty(t, loan.ID)
}
