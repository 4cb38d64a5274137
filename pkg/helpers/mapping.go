package helpers

import (
	"fmt"
	"strings"

	"github.com/oksasatya/library-loans-api/pkg/mailer"
	mailtpl "github.com/oksasatya/library-loans-api/pkg/mailer/templates"
)

// SubjectForLoanNotice picks the subject line from data["Type"].
func SubjectForLoanNotice(data map[string]any) string {
	title := strings.TrimSpace(fmt.Sprintf("%v", data["BookTitle"]))
	if title == "" || title == "<nil>" {
		title = "your book"
	}
	switch strings.ToLower(fmt.Sprintf("%v", data["Type"])) {
	case mailtpl.LoanBorrowed:
		return fmt.Sprintf("You borrowed %s", title)
	case mailtpl.LoanReturned:
		return fmt.Sprintf("Thanks for returning %s", title)
	case mailtpl.LoanExtended:
		return fmt.Sprintf("Your loan of %s was extended", title)
	case mailtpl.LoanOverdue:
		return fmt.Sprintf("%s is overdue", title)
	default:
		return "Loan notification"
	}
}

func EnsureRecipientAndEmail(job *mailer.EmailJob) {
	if job.Data == nil {
		job.Data = map[string]any{}
	}
	if v, ok := job.Data["Email"]; !ok || fmt.Sprintf("%v", v) == "" {
		job.Data["Email"] = job.To
	}
	if v, ok := job.Data["RecipientEmail"]; !ok || fmt.Sprintf("%v", v) == "" {
		job.Data["RecipientEmail"] = job.To
	}
}

// MapLoanEventToTemplate lets producers name the event as the template
// (e.g. "loan_overdue"); it is rewritten to loan_notice with Data["Type"] set.
func MapLoanEventToTemplate(job *mailer.EmailJob) {
	name := strings.ToLower(job.Template)
	if !mailtpl.IsLoanNoticeType(name) {
		return
	}
	if job.Data == nil {
		job.Data = map[string]any{}
	}
	if v, ok := job.Data["Type"]; !ok || fmt.Sprintf("%v", v) == "" {
		job.Data["Type"] = name
	}
	job.Template = mailtpl.LoanNotice
}
