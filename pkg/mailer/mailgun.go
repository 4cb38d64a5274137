package mailer

import (
	"context"
	"errors"
	"time"

	mg "github.com/mailgun/mailgun-go/v4"
)

// Message is a rendered email ready for delivery. Tags and Variables end up
// on the Mailgun message so delivery events can be traced back to a loan.
type Message struct {
	To        string
	Subject   string
	Text      string
	HTML      string
	Tags      []string
	Variables map[string]string
}

// Mailgun sends Messages through one Mailgun client.
type Mailgun struct {
	client  *mg.MailgunImpl
	Sender  string
	Timeout time.Duration
}

// NewMailgun builds the sender. apiBase selects the region endpoint and may be empty.
func NewMailgun(domain, apiKey, sender, apiBase string) *Mailgun {
	client := mg.NewMailgun(domain, apiKey)
	if apiBase != "" {
		client.SetAPIBase(apiBase)
	}
	return &Mailgun{client: client, Sender: sender, Timeout: 10 * time.Second}
}

// Send delivers msg and returns the Mailgun message id.
func (m *Mailgun) Send(ctx context.Context, msg Message) (string, error) {
	if msg.To == "" {
		return "", errors.New("mailgun: message has no recipient")
	}
	message := m.client.NewMessage(m.Sender, msg.Subject, msg.Text, msg.To)
	if msg.HTML != "" {
		message.SetHtml(msg.HTML)
	}
	if len(msg.Tags) > 0 {
		if err := message.AddTag(msg.Tags...); err != nil {
			return "", err
		}
	}
	for k, v := range msg.Variables {
		if err := message.AddVariable(k, v); err != nil {
			return "", err
		}
	}

	timeout := m.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	_, id, err := m.client.Send(c, message)
	return id, err
}
