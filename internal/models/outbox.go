package models

import (
	"time"

	"github.com/uptrace/bun"
)

// OutboxEvent is persisted in the same transaction as the write that caused
// it. The dispatcher publishes unsent rows to Kafka and marks them sent, so a
// crash between the write and the publish loses nothing.
type OutboxEvent struct {
	bun.BaseModel `bun:"table:outbox_events"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	Topic     string    `bun:"topic,notnull" json:"topic"`
	Key       string    `bun:"key,notnull" json:"key"`
	Payload   []byte    `bun:"payload,notnull" json:"payload"`
	Attempts  int       `bun:"attempts,notnull,default:0" json:"attempts"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	SentAt    time.Time `bun:"sent_at,nullzero" json:"sent_at,omitempty"`
}

// BookingEvent is the payload published on booking lifecycle topics and
// consumed by the email dispatcher.
type BookingEvent struct {
	Type           string        `json:"type"`
	BookingID      string        `json:"booking_id"`
	Reference      string        `json:"reference"`
	ClientName     string        `json:"client_name"`
	ClientEmail    string        `json:"client_email"`
	ServiceName    string        `json:"service_name"`
	EventDate      string        `json:"event_date"`
	StartTime      string        `json:"start_time"`
	EndTime        string        `json:"end_time"`
	TotalHours     float64       `json:"total_hours"`
	EstimatedPence int64         `json:"estimated_pence"`
	DepositPence   int64         `json:"deposit_pence"`
	BalancePence   int64         `json:"balance_pence"`
	Status         BookingStatus `json:"status"`
	Timestamp      time.Time     `json:"timestamp"`
}
