package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// HandlerFunc processes one decoded event. Returning an error rejects the delivery without requeue.
type HandlerFunc func(ctx context.Context, ev ReservationEvent) error

// Consumer reads reservation events and keeps reconnecting until its context ends.
type Consumer struct {
	url     string
	queue   string
	log     *zap.Logger
	handler HandlerFunc

	minBackoff time.Duration
	maxBackoff time.Duration
}

func NewConsumer(url string, handler HandlerFunc, log *zap.Logger) *Consumer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Consumer{
		url:        url,
		queue:      QueueName,
		log:        log,
		handler:    handler,
		minBackoff: time.Second,
		maxBackoff: 30 * time.Second,
	}
}

func nextBackoff(cur, max time.Duration) time.Duration {
	next := cur * 2
	if next > max {
		return max
	}
	return next
}

// Run blocks until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := c.minBackoff
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.log.Warn("broker dial failed", zap.Error(err), zap.Duration("retry_in", backoff))
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			backoff = nextBackoff(backoff, c.maxBackoff)
			continue
		}
		backoff = c.minBackoff

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Warn("consume loop ended, reconnecting", zap.Error(err))
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
		c.log.Warn("set QoS failed", zap.Error(err))
	}
	if _, err := declareQueue(ch, c.queue); err != nil {
		return err
	}

	msgs, err := ch.ConsumeWithContext(ctx, c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	c.log.Info("consuming", zap.String("queue", c.queue))
	for d := range msgs {
		if err := c.handle(ctx, d.Body); err != nil {
			c.log.Error("handle message failed", zap.Error(err))
			_ = d.Nack(false, false) // no requeue, avoids tight loops on poison messages
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

func (c *Consumer) handle(ctx context.Context, body []byte) error {
	var ev ReservationEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.Type == "" || ev.ReservationID == "" {
		return errors.New("event without type or reservation id")
	}
	return c.handler(ctx, ev)
}

// LogHandler writes each event to log as a structured line.
func LogHandler(log *zap.Logger) HandlerFunc {
	return func(_ context.Context, ev ReservationEvent) error {
		log.Info("reservation event",
			zap.String("type", ev.Type),
			zap.String("reservation_id", ev.ReservationID),
			zap.String("service_id", ev.ServiceID),
			zap.String("service_name", ev.ServiceName),
			zap.String("user_id", ev.UserID),
			zap.Time("start_time", ev.StartTime),
			zap.Time("end_time", ev.EndTime),
			zap.String("status", ev.Status),
			zap.String("previous_status", ev.PreviousStatus),
			zap.Time("occurred_at", ev.OccurredAt),
		)
		return nil
	}
}
