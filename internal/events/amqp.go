package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/mmynk/fintrack/internal/models"
)

const publishTimeout = 5 * time.Second

// ErrPublisherClosed is returned by publishes after Close.
var ErrPublisherClosed = errors.New("publisher closed")

// channel is the subset of *amqp091.Channel the publisher uses.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

// link is one live connection and channel to the broker.
type link struct {
	channel channel
	// closed fires or is closed when the connection goes away.
	// Nil means it is never watched.
	closed <-chan *amqp091.Error
	close  func() error
}

func (l *link) broken() bool {
	if l.closed == nil {
		return false
	}
	select {
	case <-l.closed:
		return true
	default:
		return false
	}
}

type dialFunc func() (*link, error)

// AMQPPublisher publishes events to a durable topic exchange. When the
// broker connection drops, the next publish dials again.
type AMQPPublisher struct {
	dial     dialFunc
	exchange string
	logger   *slog.Logger
	now      func() time.Time

	mu       sync.Mutex
	link     *link
	shutdown bool
}

// NewAMQPPublisher dials url and declares exchange.
func NewAMQPPublisher(url, exchange string, logger *slog.Logger) (*AMQPPublisher, error) {
	return newAMQPPublisher(func() (*link, error) { return dialExchange(url, exchange) }, exchange, logger)
}

func dialExchange(url, exchange string) (*link, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	return &link{
		channel: ch,
		closed:  conn.NotifyClose(make(chan *amqp091.Error, 1)),
		close: func() error {
			ch.Close()
			return conn.Close()
		},
	}, nil
}

func newAMQPPublisher(dial dialFunc, exchange string, logger *slog.Logger) (*AMQPPublisher, error) {
	l, err := dial()
	if err != nil {
		return nil, err
	}
	return &AMQPPublisher{
		dial:     dial,
		exchange: exchange,
		logger:   logger,
		now:      time.Now,
		link:     l,
	}, nil
}

// current returns a live link, dialing again if the last one dropped.
// Callers hold p.mu.
func (p *AMQPPublisher) current() (*link, error) {
	if p.shutdown {
		return nil, ErrPublisherClosed
	}
	if p.link != nil && !p.link.broken() {
		return p.link, nil
	}
	if p.link != nil {
		p.link.close()
		p.link = nil
		p.logger.Warn("AMQP connection lost, reconnecting", "exchange", p.exchange)
	}
	l, err := p.dial()
	if err != nil {
		return nil, fmt.Errorf("reconnect AMQP: %w", err)
	}
	p.link = l
	p.logger.Info("AMQP connection restored", "exchange", p.exchange)
	return l, nil
}

// PublishTransactionCreated publishes a persistent transaction.created message.
func (p *AMQPPublisher) PublishTransactionCreated(ctx context.Context, tx *models.Transaction) error {
	now := p.now()
	body, err := NewTransactionCreated(tx, now).ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	msg := amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		MessageId:    tx.ID,
		Timestamp:    now,
		Body:         body,
	}

	p.mu.Lock()
	err = p.publish(ctx, msg)
	if errors.Is(err, amqp091.ErrClosed) {
		// The drop raced the close notification; retry once on a fresh link.
		if p.link != nil {
			p.link.close()
			p.link = nil
		}
		err = p.publish(ctx, msg)
	}
	p.mu.Unlock()
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	p.logger.DebugContext(ctx, "Published transaction event",
		"transaction_id", tx.ID,
		"exchange", p.exchange,
		"routing_key", RoutingKeyTransactionCreated,
	)
	return nil
}

// publish sends msg on the current link. Callers hold p.mu.
func (p *AMQPPublisher) publish(ctx context.Context, msg amqp091.Publishing) error {
	l, err := p.current()
	if err != nil {
		return err
	}
	return l.channel.PublishWithContext(
		ctx,
		p.exchange,
		RoutingKeyTransactionCreated,
		false, // mandatory
		false, // immediate
		msg,
	)
}

// Close closes the connection. Later publishes fail with ErrPublisherClosed.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.shutdown = true
	if p.link == nil {
		return nil
	}
	err := p.link.close()
	p.link = nil
	return err
}
