// Package queue publishes booking events to RabbitMQ.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"masterclass.link/configs/configslog"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// BookingConfirmedQueue is declared durable on every publish.
const BookingConfirmedQueue = "masterclass.booking.confirmed"

// BookingConfirmedEvent is sent once per new attendance link.
type BookingConfirmedEvent struct {
	MasterclassID   uint       `json:"masterclass_id"`
	AttendeeID      uint       `json:"attendee_id"`
	AttendeeEmail   string     `json:"attendee_email,omitempty"`
	MasterclassName string     `json:"masterclass_name,omitempty"`
	StartsAt        *time.Time `json:"starts_at,omitempty"`
	BookedAt        time.Time  `json:"booked_at"`
}

const dialTimeout = 3 * time.Second

// Publisher holds one connection and channel for the process. Both are
// opened on first use and reopened after the broker drops them.
type Publisher struct {
	url string

	mu     sync.Mutex
	conn   *amqp.Connection
	ch     *amqp.Channel
	closed bool
}

var ErrPublisherClosed = errors.New("booking publisher is closed")

func NewPublisher(url string) (*Publisher, error) {
	if url == "" {
		return nil, errors.New("rabbitmq url is empty")
	}
	return &Publisher{url: url}, nil
}

// channel returns the open channel, dialing when needed. Callers hold mu.
func (p *Publisher) channel() (*amqp.Channel, error) {
	if p.closed {
		return nil, ErrPublisherClosed
	}
	if p.ch != nil && !p.ch.IsClosed() && p.conn != nil && !p.conn.IsClosed() {
		return p.ch, nil
	}
	p.reset()

	conn, err := amqp.DialConfig(p.url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(dialTimeout),
	})
	if err != nil {
		configslog.Log.Warn("rabbitmq: dial failed", zap.Error(err))
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		configslog.Log.Warn("rabbitmq: channel open failed", zap.Error(err))
		_ = conn.Close()
		return nil, err
	}
	if _, err := ch.QueueDeclare(BookingConfirmedQueue, true, false, false, false, nil); err != nil {
		configslog.Log.Warn("rabbitmq: queue declare failed", zap.Error(err))
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	p.conn, p.ch = conn, ch
	return ch, nil
}

func (p *Publisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.conn, p.ch = nil, nil
}

func (p *Publisher) PublishBookingConfirmed(ctx context.Context, event BookingConfirmedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	ch, err := p.channel()
	if err != nil {
		return err
	}
	err = ch.PublishWithContext(ctx, "", BookingConfirmedQueue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		p.reset()
	}
	return err
}

// Close closes the connection. Later publishes return ErrPublisherClosed.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	var err error
	if p.conn != nil && !p.conn.IsClosed() {
		err = p.conn.Close()
	}
	p.conn, p.ch = nil, nil
	return err
}
