package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"studio-service/internal/models"

	"github.com/lib/pq"
	"github.com/uptrace/bun"
)

// ErrConflict is returned when the partial unique index on
// (event_date, service_id) for non-cancelled bookings rejects an insert.
var ErrConflict = errors.New("booking conflict for date and service")

type DB struct {
	Bun *bun.DB
}

// ---------------- BOOKINGS ----------------

// CreateBookingWithEvent inserts the booking and its outbox event in one
// transaction, so the side-effect record cannot be lost between the two writes.
func (d *DB) CreateBookingWithEvent(ctx context.Context, booking models.Booking, event models.OutboxEvent) error {
	err := d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(&booking).Exec(ctx); err != nil {
			return err
		}
		_, err := tx.NewInsert().Model(&event).Exec(ctx)
		return err
	})
	if err != nil && isUniqueViolation(err) {
		return ErrConflict
	}
	return err
}

// InsertOutboxEvent records a standalone lifecycle event outside a booking
// insert (status changes, payment confirmations).
func (d *DB) InsertOutboxEvent(ctx context.Context, event models.OutboxEvent) error {
	_, err := d.Bun.NewInsert().Model(&event).Exec(ctx)
	return err
}

func (d *DB) GetBookingByID(ctx context.Context, id string) (*models.Booking, error) {
	var booking models.Booking
	err := d.Bun.NewSelect().
		Model(&booking).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (d *DB) GetBookingByReference(ctx context.Context, reference string) (*models.Booking, error) {
	var booking models.Booking
	err := d.Bun.NewSelect().
		Model(&booking).
		Where("reference = ?", reference).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// UpdateBooking writes the mutable columns back. Money snapshots and the
// reference are immutable after creation.
func (d *DB) UpdateBooking(ctx context.Context, booking models.Booking) error {
	_, err := d.Bun.NewUpdate().
		Model(&booking).
		Column("client_name", "client_email", "client_phone", "event_type",
			"event_date", "start_time", "end_time", "location", "notes",
			"status", "client_id", "deposit_session_id", "balance_session_id",
			"updated_at").
		Where("id = ?", booking.ID).
		Exec(ctx)
	if err != nil && isUniqueViolation(err) {
		return ErrConflict
	}
	return err
}

func (d *DB) UpdateBookingStatus(ctx context.Context, id string, status models.BookingStatus) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.Booking)(nil)).
		Set("status = ?", status).
		Set("updated_at = current_timestamp").
		Where("id = ?", id).
		Exec(ctx)
	return err
}

func (d *DB) SetSessionID(ctx context.Context, bookingID, sessionID string, balance bool) error {
	column := "deposit_session_id"
	if balance {
		column = "balance_session_id"
	}
	_, err := d.Bun.NewUpdate().
		Model((*models.Booking)(nil)).
		Set(column+" = ?", sessionID).
		Where("id = ?", bookingID).
		Exec(ctx)
	return err
}

func (d *DB) ListBookings(ctx context.Context) ([]models.Booking, error) {
	var bookings []models.Booking
	err := d.Bun.NewSelect().
		Model(&bookings).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

func (d *DB) ListBookingsByClient(ctx context.Context, clientID string) ([]models.Booking, error) {
	var bookings []models.Booking
	err := d.Bun.NewSelect().
		Model(&bookings).
		Where("client_id = ?", clientID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

// HasActiveBooking reports whether a non-cancelled booking already exists for
// the date/service pair. The partial unique index remains the authoritative
// check; this read just produces a friendlier early rejection.
func (d *DB) HasActiveBooking(ctx context.Context, eventDate, serviceID string) (bool, error) {
	count, err := d.Bun.NewSelect().
		Model((*models.Booking)(nil)).
		Where("event_date = ?", eventDate).
		Where("service_id = ?", serviceID).
		Where("status != ?", models.StatusCancelled).
		Count(ctx)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ---------------- LOOKUPS ----------------

func (d *DB) GetServiceByID(ctx context.Context, id string) (*models.Service, error) {
	var service models.Service
	err := d.Bun.NewSelect().
		Model(&service).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &service, nil
}

func (d *DB) GetServicesByIDs(ctx context.Context, ids []string) ([]models.Service, error) {
	var services []models.Service
	err := d.Bun.NewSelect().
		Model(&services).
		Where("id IN (?)", bun.In(ids)).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return services, nil
}

func (d *DB) IsDateBlocked(ctx context.Context, date string) (bool, error) {
	count, err := d.Bun.NewSelect().
		Model((*models.BlockedDate)(nil)).
		Where("date = ?", date).
		Count(ctx)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// isUniqueViolation matches Postgres 23505 in production and the sqlite
// driver's message in tests.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "constraint failed")
}
