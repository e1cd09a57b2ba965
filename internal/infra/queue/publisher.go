// Package queue publishes lead events to RabbitMQ so downstream workers
// (partner introductions, CRM sync) can react to new leads.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/hoclconnect/leads/internal/domain"
)

const (
	ExchangeName = "ex.leads"
	QueueName    = "q.lead-intros"
	RoutingKey   = "lead.created"
)

// channel is the part of *amqp.Channel the publisher needs.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher implements port.LeadNotifier over AMQP.
type Publisher struct {
	conn *amqp.Connection

	mu sync.Mutex // amqp channels are not safe for concurrent publishes
	ch channel
}

// Dial connects to url, declares the topology and returns a Publisher.
func Dial(url string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := setupTopology(ch); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare topology: %w", err)
	}

	return &Publisher{conn: conn, ch: ch}, nil
}

// NewPublisher wraps an already configured channel.
func NewPublisher(ch channel) *Publisher {
	return &Publisher{ch: ch}
}

func setupTopology(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(ExchangeName, "direct", true, false, false, false, nil); err != nil {
		return err
	}
	if _, err := ch.QueueDeclare(QueueName, true, false, false, false, nil); err != nil {
		return err
	}
	return ch.QueueBind(QueueName, RoutingKey, ExchangeName, false, nil)
}

// Name implements port.LeadNotifier.
func (p *Publisher) Name() string { return "amqp" }

// NotifyLeadCreated publishes a persistent lead.created event.
func (p *Publisher) NotifyLeadCreated(ctx context.Context, lead *domain.Lead) error {
	body, err := json.Marshal(domain.NewLeadCreatedEvent(lead))
	if err != nil {
		return fmt.Errorf("encode lead event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	return p.ch.PublishWithContext(ctx,
		ExchangeName,
		RoutingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    lead.ID,
			Timestamp:    time.Now().UTC(),
			Type:         RoutingKey,
			Body:         body,
		},
	)
}

// Close closes the channel and connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	err := p.ch.Close()
	if p.conn != nil {
		if cerr := p.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
