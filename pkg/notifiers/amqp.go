package notifiers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// amqpNotifier implements the Notifier interface for RabbitMQ queues.
type amqpNotifier struct {
	id      string
	typ     string
	queue   string
	conn    *amqp.Connection
	channel *amqp.Channel
	log     Logger
}

// newAMQPNotifier dials the broker and declares the durable target queue.
func newAMQPNotifier(_ context.Context, cfg NotifierConfig, log Logger) (Notifier, error) {
	if cfg.AMQP == nil {
		return nil, fmt.Errorf("notifier %q missing amqp configuration", cfg.ID)
	}

	conn, err := amqp.Dial(cfg.AMQP.URL)
	if err != nil {
		return nil, fmt.Errorf("dial amqp broker: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}

	if _, err := channel.QueueDeclare(cfg.AMQP.Queue, true, false, false, false, nil); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("declare amqp queue: %w", err)
	}

	return &amqpNotifier{
		id:      cfg.ID,
		typ:     TypeAMQP,
		queue:   cfg.AMQP.Queue,
		conn:    conn,
		channel: channel,
		log:     ensureLogger(log),
	}, nil
}

func (a *amqpNotifier) ID() string   { return a.id }
func (a *amqpNotifier) Type() string { return a.typ }

// Close releases the channel and the broker connection.
func (a *amqpNotifier) Close() error {
	var errs []error
	if a.channel != nil {
		if err := a.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close amqp channel: %w", err))
		}
	}
	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close amqp connection: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Notify publishes the event as a persistent JSON message.
func (a *amqpNotifier) Notify(ctx context.Context, evt Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	err = a.channel.PublishWithContext(ctx, "", a.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         payload,
		Headers:      amqp.Table{"platform": evt.Platform},
	})
	if err != nil {
		a.log.ErrorObj("amqp notifier publish failed", "notifier_amqp_error", map[string]any{
			"notifier_id": a.id,
			"error":       err.Error(),
		})
		return fmt.Errorf("publish to amqp: %w", err)
	}
	return nil
}
