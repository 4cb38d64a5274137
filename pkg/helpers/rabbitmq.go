package helpers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/oksasatya/library-loans-api/pkg/mailer"
)

// amqpChannel is the part of *amqp.Channel used to declare the email topology.
type amqpChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
}

// DeclareEmailQueue declares the durable email queue and, when exchange is
// set, a durable direct exchange routing to it under the queue name. The API
// and the email worker both call it so either can start first.
func DeclareEmailQueue(ch amqpChannel, exchange, queue string) error {
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", queue, err)
	}
	if exchange == "" {
		return nil
	}
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeDirect, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	if err := ch.QueueBind(queue, queue, exchange, false, nil); err != nil {
		return fmt.Errorf("bind %s to %s: %w", queue, exchange, err)
	}
	return nil
}

// RabbitPublisher publishes email jobs for cmd/email_worker.
type RabbitPublisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	Queue    string
	Exchange string
	Now      func() time.Time
}

func NewRabbitPublisher(url, exchange, queue string) (*RabbitPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if err := DeclareEmailQueue(ch, exchange, queue); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	return &RabbitPublisher{conn: conn, ch: ch, Queue: queue, Exchange: exchange, Now: time.Now}, nil
}

func (p *RabbitPublisher) Close() {
	if p == nil {
		return
	}
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}

// PublishEmailJob routes the job to the email queue through the configured
// exchange, or the default exchange when none is set.
func (p *RabbitPublisher) PublishEmailJob(ctx context.Context, job mailer.EmailJob) error {
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	msg, err := EmailJobMessage(job, now())
	if err != nil {
		return err
	}
	return p.ch.PublishWithContext(ctx, p.Exchange, p.Queue, false, false, msg)
}

// EmailJobMessage encodes a job as a persistent AMQP message. The message
// type is the loan notice type when present, so consumers and the management
// UI can tell notices apart without decoding the body.
func EmailJobMessage(job mailer.EmailJob, at time.Time) (amqp.Publishing, error) {
	body, err := json.Marshal(job)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("encode email job: %w", err)
	}
	typ := job.Template
	if t, ok := job.Data["Type"].(string); ok && t != "" {
		typ = t
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Type:         typ,
		Timestamp:    at.UTC(),
		Body:         body,
	}, nil
}
