package models

import (
	"time"

	"github.com/uptrace/bun"
)

type BookingStatus string

const (
	StatusPendingDeposit BookingStatus = "pending_deposit"
	StatusDepositPaid    BookingStatus = "deposit_paid"
	StatusFullyPaid      BookingStatus = "fully_paid"
	StatusCompleted      BookingStatus = "completed"
	StatusCancelled      BookingStatus = "cancelled"
)

// Valid reports whether s is one of the closed set of booking states.
func (s BookingStatus) Valid() bool {
	switch s {
	case StatusPendingDeposit, StatusDepositPaid, StatusFullyPaid, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal states admit no further transitions.
func (s BookingStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

type Booking struct {
	bun.BaseModel `bun:"table:bookings"`

	ID        string `bun:"id,pk" json:"id"`
	Reference string `bun:"reference,unique,notnull" json:"reference"`

	ClientName  string `bun:"client_name,notnull" json:"client_name"`
	ClientEmail string `bun:"client_email,notnull" json:"client_email"`
	ClientPhone string `bun:"client_phone,nullzero" json:"client_phone,omitempty"`
	EventType   string `bun:"event_type,nullzero" json:"event_type,omitempty"`

	ServiceID   string `bun:"service_id,notnull" json:"service_id"`
	ServiceName string `bun:"service_name,notnull" json:"service_name"`

	// EventDate is stored as "2006-01-02"; times as "15:04". Availability is
	// exact-date so no timezone arithmetic is wanted here.
	EventDate string `bun:"event_date,notnull" json:"event_date"`
	StartTime string `bun:"start_time,notnull" json:"start_time"`
	EndTime   string `bun:"end_time,notnull" json:"end_time"`

	TotalHours float64 `bun:"total_hours,notnull" json:"total_hours"`
	Location   string  `bun:"location,nullzero" json:"location,omitempty"`
	Notes      string  `bun:"notes,nullzero" json:"notes,omitempty"`

	// Rate and derived money values are snapshotted in pence at booking time.
	HourlyRatePence     int64 `bun:"hourly_rate_pence,notnull" json:"hourly_rate_pence"`
	EstimatedTotalPence int64 `bun:"estimated_total_pence,notnull" json:"estimated_total_pence"`
	DepositPence        int64 `bun:"deposit_pence,notnull" json:"deposit_pence"`
	BalancePence        int64 `bun:"balance_pence,notnull" json:"balance_pence"`

	Status BookingStatus `bun:"status,notnull" json:"status"`

	// ClientID links the booking to an authenticated portal identity, when known.
	ClientID string `bun:"client_id,nullzero" json:"client_id,omitempty"`

	DepositSessionID string `bun:"deposit_session_id,nullzero" json:"deposit_session_id,omitempty"`
	BalanceSessionID string `bun:"balance_session_id,nullzero" json:"balance_session_id,omitempty"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,nullzero" json:"updated_at,omitempty"`
}

// BookingRequest is the public booking-form submission payload. ClientID is
// never read from the payload; the handler fills it from the verified bearer
// identity when one is present.
type BookingRequest struct {
	ClientID    string `json:"-"`
	ClientName  string `json:"client_name"`
	ClientEmail string `json:"client_email"`
	ClientPhone string `json:"client_phone,omitempty"`
	EventType   string `json:"event_type,omitempty"`
	ServiceID   string `json:"service_id"`
	EventDate   string `json:"event_date"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Location    string `json:"location,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

// BookingResponse is returned after a successful submission. PaymentURL is
// empty when checkout-session creation failed; Note then tells the client
// follow-up will happen manually.
type BookingResponse struct {
	BookingID           string        `json:"booking_id"`
	Reference           string        `json:"reference"`
	Status              BookingStatus `json:"status"`
	TotalHours          float64       `json:"total_hours"`
	EstimatedTotalPence int64         `json:"estimated_total_pence"`
	DepositPence        int64         `json:"deposit_pence"`
	BalancePence        int64         `json:"balance_pence"`
	PaymentURL          string        `json:"payment_url,omitempty"`
	Note                string        `json:"note,omitempty"`
}
