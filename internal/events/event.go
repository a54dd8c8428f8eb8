// Package events carries reservation domain events over RabbitMQ.
package events

import (
	"context"
	"time"
)

// QueueName is the durable queue reservation events are published to.
const QueueName = "reservation.events"

const (
	TypeReservationCreated       = "reservation.created"
	TypeReservationStatusChanged = "reservation.status_changed"
	TypeReservationRescheduled   = "reservation.rescheduled"
)

// ReservationEvent is self-contained so consumers never need to query the database.
type ReservationEvent struct {
	Type           string    `json:"type"`
	ReservationID  string    `json:"reservation_id"`
	ServiceID      string    `json:"service_id"`
	ServiceName    string    `json:"service_name"`
	UserID         string    `json:"user_id"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	Status         string    `json:"status"`
	PreviousStatus string    `json:"previous_status,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, ev ReservationEvent) error
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, ReservationEvent) error { return nil }
