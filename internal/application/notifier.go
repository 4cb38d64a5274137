package application

import (
	"context"
	"time"

	"github.com/oksasatya/library-loans-api/config"
	"github.com/oksasatya/library-loans-api/internal/domain/entity"
	"github.com/oksasatya/library-loans-api/pkg/mailer"
	mailtpl "github.com/oksasatya/library-loans-api/pkg/mailer/templates"
)

// LoanNotifier is told about loan events after they commit. typ is one of the
// mailtpl.Loan* notice types. Implementations must not block for long.
type LoanNotifier interface {
	NotifyLoan(ctx context.Context, typ string, loan *entity.Loan) error
}

// NopNotifier drops every notification.
type NopNotifier struct{}

func (NopNotifier) NotifyLoan(context.Context, string, *entity.Loan) error { return nil }

// JobPublisher is satisfied by helpers.RabbitPublisher.
type JobPublisher interface {
	PublishEmailJob(ctx context.Context, job mailer.EmailJob) error
}

// QueueNotifier turns loan events into email jobs for cmd/email_worker.
type QueueNotifier struct {
	Pub JobPublisher
	Cfg *config.Config
	Now func() time.Time
}

func NewQueueNotifier(pub JobPublisher, cfg *config.Config) *QueueNotifier {
	return &QueueNotifier{Pub: pub, Cfg: cfg, Now: time.Now}
}

// NotifyLoan publishes a loan_notice job. Loans without an attached user
// or with an empty email are skipped.
func (n *QueueNotifier) NotifyLoan(ctx context.Context, typ string, loan *entity.Loan) error {
	if n == nil || n.Pub == nil || loan == nil || loan.User == nil || loan.User.Email == "" {
		return nil
	}
	now := time.Now
	if n.Now != nil {
		now = n.Now
	}
	opts := []mailtpl.Option{
		mailtpl.WithLoanID(loan.ID),
		mailtpl.WithDueDate(loan.DueDate),
		mailtpl.WithTime(now()),
	}
	if loan.Book != nil {
		opts = append(opts, mailtpl.WithBook(loan.Book.Title, loan.Book.Author))
	}
	job := mailer.EmailJob{
		To:       loan.User.Email,
		Template: mailtpl.LoanNotice,
		Data:     mailtpl.NewLoanNoticeData(n.Cfg, typ, loan.User.Name, loan.User.Email, opts...),
	}
	return n.Pub.PublishEmailJob(ctx, job)
}
