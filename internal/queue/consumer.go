package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/D-Araya/Portafolio-bootcamp-arquitectura-cloud/internal/config"
)

// Consumer binds a durable queue to every reservation event and appends
// one audit line per event to cfg.LogPath.
type Consumer struct {
	cfg config.BrokerConfig
	log *slog.Logger
}

func NewConsumer(cfg config.BrokerConfig, log *slog.Logger) *Consumer {
	if log == nil {
		log = slog.Default()
	}
	return &Consumer{cfg: cfg, log: log}
}

// Run consumes until ctx is cancelled, reconnecting with exponential
// backoff (capped at 30s) whenever the broker is unreachable or the
// delivery stream ends.  It returns ctx.Err().
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := dial(c.cfg.URL)
		if err != nil {
			c.log.Warn("event consumer: dial failed", "err", err, "retry_in", backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Warn("event consumer: consume loop ended, reconnecting", "err", err)
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.log.Warn("event consumer: set QoS failed", "err", err)
	}
	if err := declareExchange(ch, c.cfg.Exchange); err != nil {
		return fmt.Errorf("exchange declare: %w", err)
	}
	if _, err := ch.QueueDeclare(c.cfg.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	if err := ch.QueueBind(c.cfg.Queue, BindingKey, c.cfg.Exchange, false, nil); err != nil {
		return fmt.Errorf("queue bind: %w", err)
	}
	msgs, err := ch.ConsumeWithContext(ctx, c.cfg.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}
	c.log.Info("event consumer: listening", "queue", c.cfg.Queue, "exchange", c.cfg.Exchange)

	for d := range msgs {
		if err := c.Handle(d.Body); err != nil {
			c.log.Error("event consumer: handle message failed", "err", err, "message_id", d.MessageId)
			_ = d.Nack(false, false) // reject without requeue to avoid tight loops
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

// Handle decodes one message body and appends its audit line.
func (c *Consumer) Handle(body []byte) error {
	var ev ReservationEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.Type == "" || ev.ReservationID == 0 {
		return fmt.Errorf("event %q is missing type or reservation id", ev.EventID)
	}
	if dir := filepath.Dir(c.cfg.LogPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	f, err := os.OpenFile(c.cfg.LogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(FormatAuditLine(ev)); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// FormatAuditLine renders ev as a single human-readable line.
func FormatAuditLine(ev ReservationEvent) string {
	return fmt.Sprintf("[%s] %s | event_id=%s | reservation_id=%d | user_id=%d | space_id=%d | window=%s/%s | status=%s | total=%d cents\n",
		ev.OccurredAt.Format(time.RFC3339), ev.Type, ev.EventID, ev.ReservationID, ev.UserID, ev.SpaceID,
		ev.StartTime.Format(time.RFC3339), ev.EndTime.Format(time.RFC3339), ev.Status, ev.TotalPriceCents)
}
