// Package queue publishes request events to RabbitMQ for downstream
// consumers such as mailers and accounting integrations.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"formsportal/internal/service"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Notify runs on the request path, so a dead broker must fail fast.
const (
	DefaultDialTimeout = 2 * time.Second
	DefaultRedialDelay = 10 * time.Second
)

// Publisher sends events to a durable queue over one long-lived connection,
// redialing when the broker dropped it. After a failed dial, Notify fails
// immediately until the redial delay has passed.
type Publisher struct {
	url   string
	queue string
	log   *zap.Logger

	dialTimeout time.Duration
	redialDelay time.Duration
	now         func() time.Time

	mu       sync.Mutex
	conn     *amqp.Connection
	ch       *amqp.Channel
	nextDial time.Time
	dialErr  error
}

func NewPublisher(url, queue string, log *zap.Logger) *Publisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Publisher{
		url:         url,
		queue:       queue,
		log:         log,
		dialTimeout: DefaultDialTimeout,
		redialDelay: DefaultRedialDelay,
		now:         time.Now,
	}
}

// Notify implements service.Notifier.
func (p *Publisher) Notify(ctx context.Context, ev service.Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("rabbitmq: marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel()
	if err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.ID.String(),
		Type:         ev.Type,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", p.queue, false, false, pub); err != nil {
		p.reset()
		return fmt.Errorf("rabbitmq: publish: %w", err)
	}
	return nil
}

// channel returns the open channel, dialing and declaring the queue first if
// needed. Callers hold p.mu.
func (p *Publisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() && p.conn != nil && !p.conn.IsClosed() {
		return p.ch, nil
	}
	p.reset()

	if p.dialErr != nil && p.now().Before(p.nextDial) {
		return nil, fmt.Errorf("rabbitmq: dial: waiting to retry: %w", p.dialErr)
	}

	conn, err := amqp.DialConfig(p.url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(p.dialTimeout),
	})
	if err != nil {
		p.dialErr = err
		p.nextDial = p.now().Add(p.redialDelay)
		p.log.Warn("rabbitmq dial failed", zap.Duration("retry_in", p.redialDelay), zap.Error(err))
		return nil, fmt.Errorf("rabbitmq: dial: %w", err)
	}
	p.dialErr = nil
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq: open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq: declare queue %s: %w", p.queue, err)
	}

	p.log.Info("rabbitmq publisher connected", zap.String("queue", p.queue))
	p.conn, p.ch = conn, ch
	return ch, nil
}

func (p *Publisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

// Close releases the broker connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset()
	return nil
}
