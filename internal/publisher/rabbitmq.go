package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/changshize/fiction-tiktok/internal/domain"
	"github.com/changshize/fiction-tiktok/internal/metrics"
)

// Queue topology. The consumer declares the same names with the same
// arguments; a drift between the two makes declares fail at startup.
const (
	exchangeName = "fiction.direct"
	exchangeType = "direct"
	routingKey   = "generate"
	queueName    = "generation_jobs"

	dlxName = "fiction.dlx"
	dlqName = "generation_jobs_dead"

	// Reconnection settings
	reconnectDelay    = 2 * time.Second
	maxReconnectDelay = 30 * time.Second

	// Publish timeout
	publishTimeout = 5 * time.Second
)

// Publisher defines the interface for publishing job dispatches to the broker.
type Publisher interface {
	Publish(ctx context.Context, dispatch *domain.JobDispatch) error
	Close() error
}

type rabbitPublisher struct {
	url     string
	conn    *amqp.Connection
	channel *amqp.Channel
	logger  *zap.Logger
	mu      sync.RWMutex
	closed  bool
}

// NewRabbitMQPublisher creates a new RabbitMQ publisher with exchange and
// queue setup.
func NewRabbitMQPublisher(url string, logger *zap.Logger) (Publisher, error) {
	p := &rabbitPublisher{
		url:    url,
		logger: logger,
	}

	if err := p.connect(); err != nil {
		return nil, err
	}

	// Watch for connection closures and reconnect
	go p.watchConnection()

	return p, nil
}

func (p *rabbitPublisher) connect() error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("rabbitmq: dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("rabbitmq: channel: %w", err)
	}

	// Enable publisher confirms
	if err := ch.Confirm(false); err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("rabbitmq: enable confirms: %w", err)
	}

	// Declare the direct exchange
	if err := ch.ExchangeDeclare(exchangeName, exchangeType, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("rabbitmq: declare exchange: %w", err)
	}

	// Declare dead letter exchange and queue
	if err := ch.ExchangeDeclare(dlxName, "direct", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("rabbitmq: declare DLX: %w", err)
	}
	if _, err := ch.QueueDeclare(dlqName, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("rabbitmq: declare DLQ: %w", err)
	}
	if err := ch.QueueBind(dlqName, "", dlxName, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("rabbitmq: bind DLQ: %w", err)
	}

	// Declare the main generation queue with DLX routing
	args := amqp.Table{
		"x-queue-type":           "quorum",
		"x-dead-letter-exchange": dlxName,
	}
	if _, err := ch.QueueDeclare(queueName, true, false, false, false, args); err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("rabbitmq: declare queue: %w", err)
	}
	if err := ch.QueueBind(queueName, routingKey, exchangeName, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("rabbitmq: bind queue: %w", err)
	}

	p.mu.Lock()
	p.conn = conn
	p.channel = ch
	p.mu.Unlock()

	p.logger.Info("RabbitMQ publisher initialized",
		zap.String("exchange", exchangeName),
		zap.String("queue", queueName),
	)

	return nil
}

// watchConnection monitors the connection and reconnects on failure.
func (p *rabbitPublisher) watchConnection() {
	for {
		p.mu.RLock()
		if p.closed {
			p.mu.RUnlock()
			return
		}
		conn := p.conn
		p.mu.RUnlock()

		if conn == nil {
			time.Sleep(reconnectDelay)
			continue
		}

		// Block until the connection closes
		reason, ok := <-conn.NotifyClose(make(chan *amqp.Error))
		if !ok {
			// Channel closed normally
			return
		}

		p.logger.Warn("RabbitMQ connection lost, reconnecting...",
			zap.String("reason", reason.Error()),
		)

		delay := reconnectDelay
		for {
			p.mu.RLock()
			if p.closed {
				p.mu.RUnlock()
				return
			}
			p.mu.RUnlock()

			time.Sleep(delay)

			if err := p.connect(); err != nil {
				p.logger.Warn("RabbitMQ reconnect failed", zap.Error(err), zap.Duration("retry_in", delay))
				delay = delay * 2
				if delay > maxReconnectDelay {
					delay = maxReconnectDelay
				}
				continue
			}

			p.logger.Info("RabbitMQ reconnected successfully")
			break
		}
	}
}

func (p *rabbitPublisher) Publish(ctx context.Context, dispatch *domain.JobDispatch) error {
	body, err := json.Marshal(dispatch)
	if err != nil {
		return fmt.Errorf("rabbitmq: marshal dispatch: %w", err)
	}

	p.mu.RLock()
	ch := p.channel
	p.mu.RUnlock()

	if ch == nil {
		return fmt.Errorf("rabbitmq: channel not available (reconnecting)")
	}

	// Get confirmation channel
	confirm := ch.NotifyPublish(make(chan amqp.Confirmation, 1))

	publishCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = ch.PublishWithContext(publishCtx,
		exchangeName,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    dispatch.JobID.String(),
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("rabbitmq: publish: %w", err)
	}

	// Wait for broker confirmation
	select {
	case ack := <-confirm:
		if !ack.Ack {
			return fmt.Errorf("rabbitmq: broker nacked message (job_id=%s)", dispatch.JobID)
		}
	case <-publishCtx.Done():
		return fmt.Errorf("rabbitmq: publish confirmation timeout (job_id=%s)", dispatch.JobID)
	}

	metrics.JobsPublished.Inc()
	p.logger.Debug("Published dispatch to RabbitMQ",
		zap.String("job_id", dispatch.JobID.String()),
		zap.Int("epoch", dispatch.Epoch),
	)
	return nil
}

func (p *rabbitPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true

	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
