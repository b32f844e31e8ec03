package models

import (
	"time"

	"github.com/uptrace/bun"
)

type QuoteStatus string

const (
	QuoteNew       QuoteStatus = "new"
	QuoteContacted QuoteStatus = "contacted"
	QuoteQuoted    QuoteStatus = "quoted"
	QuoteBooked    QuoteStatus = "booked"
	QuoteDeclined  QuoteStatus = "declined"
)

func (s QuoteStatus) Valid() bool {
	switch s {
	case QuoteNew, QuoteContacted, QuoteQuoted, QuoteBooked, QuoteDeclined:
		return true
	}
	return false
}

// QuoteRequest is a public enquiry. Only admins mutate it after submission.
type QuoteRequest struct {
	bun.BaseModel `bun:"table:quote_requests"`

	ID          string      `bun:"id,pk" json:"id"`
	Name        string      `bun:"name,notnull" json:"name"`
	Email       string      `bun:"email,notnull" json:"email"`
	Phone       string      `bun:"phone,nullzero" json:"phone,omitempty"`
	EventType   string      `bun:"event_type,nullzero" json:"event_type,omitempty"`
	ServiceID   string      `bun:"service_id,nullzero" json:"service_id,omitempty"`
	EventDate   string      `bun:"event_date,nullzero" json:"event_date,omitempty"`
	Guests      int         `bun:"guests,nullzero" json:"guests,omitempty"`
	Location    string      `bun:"location,nullzero" json:"location,omitempty"`
	BudgetRange string      `bun:"budget_range,nullzero" json:"budget_range,omitempty"`
	Message     string      `bun:"message,nullzero" json:"message,omitempty"`
	Status      QuoteStatus `bun:"status,notnull" json:"status"`
	AdminNotes  string      `bun:"admin_notes,nullzero" json:"admin_notes,omitempty"`
	CreatedAt   time.Time   `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}
