// Package queue wraps the two RabbitMQ queues the service publishes
// onto: one for outbound account/notification mail, one for
// asynchronously requested schedule runs. cmd/worker consumes both.
package queue

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/taskalign/scheduler-core/internal/domain"
)

const (
	MailQueueName     = "mail_queue"
	ScheduleQueueName = "schedule_runs"
)

// Declare declares both queues so publishers and consumers never race
// on "queue doesn't exist yet".
func Declare(ch *amqp.Channel) error {
	if _, err := ch.QueueDeclare(MailQueueName, true, false, false, false, nil); err != nil {
		return err
	}
	if _, err := ch.QueueDeclare(ScheduleQueueName, true, false, false, false, nil); err != nil {
		return err
	}
	return nil
}

type Publisher struct {
	ch      *amqp.Channel
	timeout time.Duration
}

func NewPublisher(ch *amqp.Channel, timeout time.Duration) *Publisher {
	return &Publisher{ch: ch, timeout: timeout}
}

func (p *Publisher) PublishMail(ctx context.Context, msg domain.MailMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return p.publish(ctx, MailQueueName, body)
}

// PublishScheduleRun enqueues a persisted, queued ScheduleRun by ID for
// a worker to pick up and execute.
func (p *Publisher) PublishScheduleRun(ctx context.Context, runID int64) error {
	return p.publish(ctx, ScheduleQueueName, []byte(strconv.FormatInt(runID, 10)))
}

func (p *Publisher) publish(ctx context.Context, queue string, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	return p.ch.PublishWithContext(
		ctx,
		"",
		queue,
		true,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
}
