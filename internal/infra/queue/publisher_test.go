package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoclconnect/leads/internal/domain"
)

type fakeChannel struct {
	exchange, key string
	msg           amqp.Publishing
	err           error
	closed        bool
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	f.exchange, f.key, f.msg = exchange, key, msg
	return f.err
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func TestPublisher_PublishesLeadCreated(t *testing.T) {
	ch := &fakeChannel{}
	p := NewPublisher(ch)
	company := "Acme"
	lead := &domain.Lead{
		ID:        "lead-1",
		CreatedAt: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC),
		LeadInput: domain.LeadInput{Intent: domain.IntentSupplier, Industry: "janitorial", Company: &company, Score: 6},
	}

	require.NoError(t, p.NotifyLeadCreated(context.Background(), lead))

	assert.Equal(t, ExchangeName, ch.exchange)
	assert.Equal(t, RoutingKey, ch.key)
	assert.Equal(t, amqp.Persistent, ch.msg.DeliveryMode)
	assert.Equal(t, "application/json", ch.msg.ContentType)
	assert.Equal(t, "lead-1", ch.msg.MessageId)

	var ev domain.LeadCreatedEvent
	require.NoError(t, json.Unmarshal(ch.msg.Body, &ev))
	assert.Equal(t, "lead.created", ev.EventType)
	assert.Equal(t, "lead-1", ev.LeadID)
	assert.Equal(t, 6, ev.Score)
}

func TestPublisher_PropagatesError(t *testing.T) {
	p := NewPublisher(&fakeChannel{err: errors.New("channel closed")})

	err := p.NotifyLeadCreated(context.Background(), &domain.Lead{ID: "x"})
	assert.Error(t, err)
}

func TestPublisher_Close(t *testing.T) {
	ch := &fakeChannel{}
	require.NoError(t, NewPublisher(ch).Close())
	assert.True(t, ch.closed)
}
