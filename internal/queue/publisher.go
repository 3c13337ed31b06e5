package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/D-Araya/Portafolio-bootcamp-arquitectura-cloud/internal/config"
)

const dialTimeout = 3 * time.Second

// Publisher sends ReservationEvents to a durable topic exchange.  The
// connection is opened on first use and reopened after it drops.
// Publisher is safe for concurrent use.
type Publisher struct {
	cfg config.BrokerConfig
	log *slog.Logger

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewPublisher(cfg config.BrokerConfig, log *slog.Logger) *Publisher {
	if log == nil {
		log = slog.Default()
	}
	return &Publisher{cfg: cfg, log: log}
}

func dial(url string) (*amqp.Connection, error) {
	return amqp.DialConfig(url, amqp.Config{Dial: amqp.DefaultDial(dialTimeout)})
}

// declareExchange is idempotent; publisher and consumer both call it.
func declareExchange(ch *amqp.Channel, name string) error {
	return ch.ExchangeDeclare(name, amqp.ExchangeTopic, true, false, false, false, nil)
}

func (p *Publisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	if p.conn == nil || p.conn.IsClosed() {
		conn, err := dial(p.cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("dial broker: %w", err)
		}
		p.conn = conn
	}
	ch, err := p.conn.Channel()
	if err != nil {
		_ = p.conn.Close()
		p.conn = nil
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := declareExchange(ch, p.cfg.Exchange); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", p.cfg.Exchange, err)
	}
	p.ch = ch
	return ch, nil
}

// Publish sends ev as a persistent JSON message routed by its type.
func (p *Publisher) Publish(ctx context.Context, ev ReservationEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	ch, err := p.channel()
	if err != nil {
		return err
	}
	err = ch.PublishWithContext(ctx, p.cfg.Exchange, string(ev.Type), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.EventID,
		Timestamp:    ev.OccurredAt,
		Type:         string(ev.Type),
		Body:         body,
	})
	if err != nil {
		_ = ch.Close()
		p.ch = nil
		return fmt.Errorf("publish %s: %w", ev.Type, err)
	}
	p.log.Debug("event published", "type", ev.Type, "event_id", ev.EventID, "reservation_id", ev.ReservationID)
	return nil
}

// Close releases the broker connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		err := p.conn.Close()
		p.conn = nil
		return err
	}
	return nil
}

// EventPublisher is what the API and the completion job need from the
// broker.
type EventPublisher interface {
	Publish(ctx context.Context, ev ReservationEvent) error
}

var _ EventPublisher = (*Publisher)(nil)

// Discard drops every event.  It stands in when no broker is configured.
type Discard struct{}

func (Discard) Publish(context.Context, ReservationEvent) error { return nil }
