package templates

import (
	"time"

	"github.com/oksasatya/library-loans-api/config"
)

// Option pattern
type Option func(*EmailData)

func WithLoanID(id string) Option { return func(d *EmailData) { d.LoanID = id } }

func WithBook(title, author string) Option {
	return func(d *EmailData) {
		d.BookTitle = title
		d.BookAuthor = author
	}
}

// WithDueDate expects a calendar date (midnight UTC).
func WithDueDate(due time.Time) Option {
	return func(d *EmailData) {
		if due.IsZero() {
			return
		}
		d.DueDate = due.Format("2006-01-02")
		d.DueDateText = due.Format("Monday, 02 January 2006")
	}
}

func WithTime(t time.Time) Option {
	return func(d *EmailData) { d.Time = t.UTC().Format("02 January 2006, 15:04") }
}

// NewBaseEmailData fills the common fields from config, then applies options.
func NewBaseEmailData(cfg *config.Config, typ string, name, email, recipient string, opts ...Option) EmailData {
	d := EmailData{
		Name:           name,
		Email:          email,
		RecipientEmail: recipient,
		Type:           typ,
	}
	if cfg != nil {
		d.CompanyName = cfg.CompanyName
		d.CompanyAddress = cfg.CompanyAddress
		d.AppName = cfg.AppName
		d.LogoURL = cfg.LogoURL
		d.SupportURL = cfg.SupportURL
		d.LoansURL = cfg.LoansURL
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

func NewLoanNoticeData(cfg *config.Config, typ, name, email string, opts ...Option) map[string]any {
	return ToMap(NewBaseEmailData(cfg, typ, name, email, email, opts...))
}
