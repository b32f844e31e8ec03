package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Service is a bookable studio offering. The hourly rate is snapshotted onto
// bookings, so deleting a service leaves existing bookings intact.
type Service struct {
	bun.BaseModel `bun:"table:services"`

	ID              string    `bun:"id,pk" json:"id"`
	Name            string    `bun:"name,notnull" json:"name"`
	Slug            string    `bun:"slug,unique,notnull" json:"slug"`
	HourlyRatePence int64     `bun:"hourly_rate_pence,notnull" json:"hourly_rate_pence"`
	Description     string    `bun:"description,nullzero" json:"description,omitempty"`
	Icon            string    `bun:"icon,nullzero" json:"icon,omitempty"`
	CreatedAt       time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}

type Staff struct {
	bun.BaseModel `bun:"table:staff"`

	ID        string `bun:"id,pk" json:"id"`
	Name      string `bun:"name,notnull" json:"name"`
	RoleTitle string `bun:"role_title,nullzero" json:"role_title,omitempty"`
	Bio       string `bun:"bio,nullzero" json:"bio,omitempty"`
	PhotoURL  string `bun:"photo_url,nullzero" json:"photo_url,omitempty"`
	SortOrder int    `bun:"sort_order,nullzero" json:"sort_order,omitempty"`
}

type PortfolioItem struct {
	bun.BaseModel `bun:"table:portfolio"`

	ID        string `bun:"id,pk" json:"id"`
	Title     string `bun:"title,notnull" json:"title"`
	Category  string `bun:"category,nullzero" json:"category,omitempty"`
	ImageURL  string `bun:"image_url,notnull" json:"image_url"`
	SortOrder int    `bun:"sort_order,nullzero" json:"sort_order,omitempty"`
	Published bool   `bun:"published,notnull,default:true" json:"published"`
}

type BlockedDate struct {
	bun.BaseModel `bun:"table:blocked_dates"`

	Date   string `bun:"date,pk" json:"date"`
	Reason string `bun:"reason,nullzero" json:"reason,omitempty"`
}
