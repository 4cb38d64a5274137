package application_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/library-loans-api/config"
	"github.com/oksasatya/library-loans-api/internal/application"
	"github.com/oksasatya/library-loans-api/internal/domain/entity"
	"github.com/oksasatya/library-loans-api/pkg/mailer"
	mailtpl "github.com/oksasatya/library-loans-api/pkg/mailer/templates"
)

type jobRecorder struct {
	jobs []mailer.EmailJob
	err  error
}

func (r *jobRecorder) PublishEmailJob(_ context.Context, job mailer.EmailJob) error {
	r.jobs = append(r.jobs, job)
	return r.err
}

func Test_QueueNotifier_PublishesLoanNotice(t *testing.T) {
	pub := &jobRecorder{}
	n := application.NewQueueNotifier(pub, &config.Config{AppName: "Library"})
	n.Now = func() time.Time { return time.Date(2025, 4, 9, 10, 30, 0, 0, time.UTC) }
	loan := &entity.Loan{
		ID:      "loan-1",
		DueDate: date(2025, 4, 23),
		User:    &entity.User{Name: "Ada", Email: "ada@example.com"},
		Book:    &entity.Book{Title: "Dune", Author: "Frank Herbert"},
	}

	require.NoError(t, n.NotifyLoan(context.Background(), mailtpl.LoanBorrowed, loan))

	require.Len(t, pub.jobs, 1)
	job := pub.jobs[0]
	assert.Equal(t, "ada@example.com", job.To)
	assert.Equal(t, mailtpl.LoanNotice, job.Template)
	assert.Equal(t, mailtpl.LoanBorrowed, job.Data["Type"])
	assert.Equal(t, "loan-1", job.Data["LoanID"])
	assert.Equal(t, "Dune", job.Data["BookTitle"])
	assert.Equal(t, "2025-04-23", job.Data["DueDate"])
	assert.Equal(t, "Library", job.Data["AppName"])
}

func Test_QueueNotifier_SkipsLoansWithoutRecipient(t *testing.T) {
	pub := &jobRecorder{}
	n := application.NewQueueNotifier(pub, nil)

	require.NoError(t, n.NotifyLoan(context.Background(), mailtpl.LoanOverdue, &entity.Loan{ID: "loan-1"}))
	require.NoError(t, n.NotifyLoan(context.Background(), mailtpl.LoanOverdue, &entity.Loan{ID: "loan-2", User: &entity.User{Name: "Ada"}}))
	require.NoError(t, n.NotifyLoan(context.Background(), mailtpl.LoanOverdue, nil))

	assert.Empty(t, pub.jobs)
}

func Test_QueueNotifier_ReturnsPublishError(t *testing.T) {
	pub := &jobRecorder{err: errors.New("broker down")}
	n := application.NewQueueNotifier(pub, nil)
	loan := &entity.Loan{ID: "loan-1", User: &entity.User{Email: "ada@example.com"}}

	assert.EqualError(t, n.NotifyLoan(context.Background(), mailtpl.LoanReturned, loan), "broker down")
}
