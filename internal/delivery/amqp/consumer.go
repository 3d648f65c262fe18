package amqp

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"time"

	amqplib "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/changshize/fiction-tiktok/internal/domain"
)

// Queue topology. The publisher declares the same names with the same
// arguments; a drift between the two makes declares fail at startup.
const (
	exchangeName = "fiction.direct"
	routingKey   = "generate"
	queueName    = "generation_jobs"

	dlxName = "fiction.dlx"
	dlqName = "generation_jobs_dead"

	// Reconnection parameters
	maxReconnectDelay  = 30 * time.Second
	baseReconnectDelay = 1 * time.Second
)

// Consumer listens to RabbitMQ and dispatches JobMessage (with ACK callbacks)
// to a channel.
type Consumer struct {
	url      string
	prefetch int
	conn     *amqplib.Connection
	channel  *amqplib.Channel
	logger   *zap.Logger
	jobs     chan<- *domain.JobMessage

	mu      sync.Mutex
	closed  bool
	closeCh chan struct{}
}

// NewConsumer creates a new RabbitMQ consumer. The consumer does NOT auto-ACK
// after dispatch. Instead, it wraps each delivery in a JobMessage with
// Ack/Nack callbacks that the worker pool calls after processing completes.
// Prefetch should match the worker pool size so the broker never hands us
// more unacknowledged deliveries than we have workers.
func NewConsumer(url string, prefetch int, jobs chan<- *domain.JobMessage, logger *zap.Logger) (*Consumer, error) {
	if prefetch < 1 {
		prefetch = 1
	}
	c := &Consumer{
		url:      url,
		prefetch: prefetch,
		logger:   logger,
		jobs:     jobs,
		closeCh:  make(chan struct{}),
	}

	if err := c.connect(); err != nil {
		return nil, err
	}

	return c, nil
}

// connect establishes the AMQP connection and channel, and declares the
// full topology so either side can start first.
func (c *Consumer) connect() error {
	conn, err := amqplib.Dial(c.url)
	if err != nil {
		return fmt.Errorf("amqp dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("amqp channel: %w", err)
	}

	// Only deliver as many unacknowledged messages as we have workers.
	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("amqp qos: %w", err)
	}

	if err := ch.ExchangeDeclare(exchangeName, "direct", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("amqp declare exchange: %w", err)
	}

	if err := ch.ExchangeDeclare(dlxName, "direct", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("amqp declare DLX: %w", err)
	}
	if _, err := ch.QueueDeclare(dlqName, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("amqp declare DLQ: %w", err)
	}
	if err := ch.QueueBind(dlqName, "", dlxName, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("amqp bind DLQ: %w", err)
	}

	_, err = ch.QueueDeclare(
		queueName,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		amqplib.Table{
			"x-queue-type":           "quorum",
			"x-dead-letter-exchange": dlxName,
		},
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("amqp declare queue: %w", err)
	}
	if err := ch.QueueBind(queueName, routingKey, exchangeName, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("amqp bind queue: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.channel = ch
	c.mu.Unlock()

	return nil
}

// Start begins consuming messages. It blocks until the context is cancelled.
// On connection loss it automatically reconnects with exponential backoff.
func (c *Consumer) Start(ctx context.Context) error {
	for {
		err := c.consume(ctx)
		if err == nil {
			// Context was cancelled — clean shutdown.
			return nil
		}

		// Check if we were explicitly closed.
		select {
		case <-c.closeCh:
			return nil
		case <-ctx.Done():
			return nil
		default:
		}

		c.logger.Warn("AMQP consumer lost connection, reconnecting...", zap.Error(err))

		// Exponential backoff reconnection loop.
		for attempt := 0; ; attempt++ {
			select {
			case <-c.closeCh:
				return nil
			case <-ctx.Done():
				return nil
			default:
			}

			delay := time.Duration(math.Min(
				float64(baseReconnectDelay)*math.Pow(2, float64(attempt)),
				float64(maxReconnectDelay),
			))
			c.logger.Info("Reconnect attempt",
				zap.Int("attempt", attempt+1),
				zap.Duration("delay", delay),
			)
			time.Sleep(delay)

			if err := c.connect(); err != nil {
				c.logger.Error("Reconnect failed", zap.Error(err))
				continue
			}

			c.logger.Info("Reconnected to RabbitMQ")
			break
		}
	}
}

// consume runs one consume session until the delivery channel closes or ctx
// is cancelled.
func (c *Consumer) consume(ctx context.Context) error {
	c.mu.Lock()
	ch := c.channel
	c.mu.Unlock()

	if ch == nil {
		return fmt.Errorf("channel is nil")
	}

	deliveries, err := ch.Consume(
		queueName,
		"",    // auto-generated consumer tag
		false, // auto-ack disabled (manual ack)
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("amqp consume: %w", err)
	}

	c.logger.Info("AMQP consumer started",
		zap.String("queue", queueName),
		zap.Int("prefetch", c.prefetch),
	)

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("AMQP consumer stopping (context cancelled)")
			return nil
		case delivery, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}

			var dispatch domain.JobDispatch
			if err := json.Unmarshal(delivery.Body, &dispatch); err != nil {
				c.logger.Error("Failed to unmarshal dispatch",
					zap.Error(err),
					zap.String("body", string(delivery.Body)),
				)
				delivery.Nack(false, false) // reject → DLQ
				continue
			}

			c.logger.Debug("Received dispatch from queue",
				zap.String("job_id", dispatch.JobID.String()),
				zap.String("capability", string(dispatch.Capability)),
				zap.Int("epoch", dispatch.Epoch),
			)

			// Create a local copy of the delivery tag so the closures are safe.
			tag := delivery.DeliveryTag
			localCh := ch

			msg := &domain.JobMessage{
				Dispatch: &dispatch,
				Ack: func() error {
					return localCh.Ack(tag, false)
				},
				Nack: func(requeue bool) error {
					return localCh.Nack(tag, false, requeue)
				},
			}

			// Dispatch to worker pool. This blocks if the channel is full,
			// which is desirable: back-pressure via prefetch.
			select {
			case c.jobs <- msg:
			case <-ctx.Done():
				// Shutting down — nack so the message is requeued.
				delivery.Nack(false, true)
				return nil
			}
		}
	}
}

// Close gracefully shuts down the consumer.
func (c *Consumer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	close(c.closeCh)

	var firstErr error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			firstErr = err
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
