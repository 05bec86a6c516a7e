package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// AMQPQueue carries delivery tasks over RabbitMQ so a separate worker process
// can execute them. Tasks are published persistent on a durable queue.
type AMQPQueue struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	prefetch int
	log      *zap.Logger
}

func NewAMQP(url string, prefetch int, log *zap.Logger) (*AMQPQueue, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	return &AMQPQueue{conn: conn, ch: ch, prefetch: prefetch, log: log}, nil
}

func (q *AMQPQueue) declare(queueName string) error {
	_, err := q.ch.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	return err
}

func (q *AMQPQueue) Publish(queueName string, task Task) error {
	if err := q.declare(queueName); err != nil {
		return err
	}
	body, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return q.ch.Publish(
		"",        // exchange
		queueName, // routing key
		false,     // mandatory
		false,     // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

// Subscribe consumes tasks until ctx is cancelled. A task whose handler fails
// is requeued once; a redelivered task that fails again is acked and dropped,
// which keeps a poison message from circulating forever. Redelivery can hand
// a task to two workers across a crash; the delivery log constraint makes
// that harmless.
func (q *AMQPQueue) Subscribe(ctx context.Context, queueName string, handler Handler) error {
	if err := q.declare(queueName); err != nil {
		return err
	}
	if err := q.ch.Qos(q.prefetch, 0, false); err != nil {
		return err
	}
	msgs, err := q.ch.Consume(
		queueName,
		"",
		false, // autoAck = false for reliability
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return fmt.Errorf("consume channel for %s closed", queueName)
			}
			q.handleDelivery(queueName, d, handler)
		}
	}
}

// handleDelivery settles one message: ack on success or on a payload that
// cannot be decoded, nack with requeue on a first failure, ack and drop on a
// redelivered failure.
func (q *AMQPQueue) handleDelivery(queueName string, d amqp.Delivery, handler Handler) {
	var task Task
	if err := json.Unmarshal(d.Body, &task); err != nil {
		q.log.Error("invalid task payload, dropping",
			zap.String("queue", queueName),
			zap.Error(err),
		)
		d.Ack(false)
		return
	}

	if err := handler(task); err != nil {
		if d.Redelivered {
			q.log.Error("task failed after redelivery, dropping",
				zap.Int("campaign_id", task.CampaignID),
				zap.Int("recipient_id", task.RecipientID),
				zap.Error(err),
			)
			d.Ack(false)
			return
		}
		q.log.Warn("task failed, requeueing",
			zap.Int("campaign_id", task.CampaignID),
			zap.Int("recipient_id", task.RecipientID),
			zap.Error(err),
		)
		d.Nack(false, true) // requeue
		return
	}
	d.Ack(false)
}

func (q *AMQPQueue) Close() error {
	if err := q.ch.Close(); err != nil {
		q.conn.Close()
		return err
	}
	return q.conn.Close()
}

var _ Queue = (*AMQPQueue)(nil)
