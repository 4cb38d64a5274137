package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/oksasatya/library-loans-api/pkg/helpers"
	"github.com/oksasatya/library-loans-api/pkg/mailer"
	mailtpl "github.com/oksasatya/library-loans-api/pkg/mailer/templates"
)

// buildEmail decodes a queued job and renders it. Jobs naming a template are
// rendered from the embedded templates; others must carry subject and body.
func buildEmail(body []byte) (mailer.Message, error) {
	var job mailer.EmailJob
	if err := json.Unmarshal(body, &job); err != nil {
		return mailer.Message{}, fmt.Errorf("decode job: %w", err)
	}
	if strings.TrimSpace(job.To) == "" {
		return mailer.Message{}, fmt.Errorf("job has no recipient")
	}

	helpers.EnsureRecipientAndEmail(&job)
	helpers.MapLoanEventToTemplate(&job)

	out := mailer.Message{To: job.To, Subject: job.Subject, Text: job.Text, HTML: job.HTML}
	if job.Template == "" {
		if out.Subject == "" || (out.Text == "" && out.HTML == "") {
			return mailer.Message{}, fmt.Errorf("job needs a template or a subject with text/html")
		}
		return out, nil
	}
	if !strings.EqualFold(job.Template, mailtpl.LoanNotice) {
		return mailer.Message{}, fmt.Errorf("unknown template %q", job.Template)
	}

	text, html, err := mailtpl.Render(mailtpl.LoanNotice, job.Data)
	if err != nil {
		return mailer.Message{}, err
	}
	out.Text, out.HTML = text, html
	if out.Subject == "" {
		out.Subject = helpers.SubjectForLoanNotice(job.Data)
	}
	out.Tags = []string{mailtpl.LoanNotice}
	if typ, _ := job.Data["Type"].(string); typ != "" {
		out.Tags = append(out.Tags, typ)
	}
	if id, _ := job.Data["LoanID"].(string); id != "" {
		out.Variables = map[string]string{"loan_id": id}
	}
	return out, nil
}
