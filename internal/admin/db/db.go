package db

import (
	"context"

	"studio-service/internal/models"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

// --- services ---

func (d *DB) CreateService(ctx context.Context, service models.Service) error {
	_, err := d.Bun.NewInsert().Model(&service).Exec(ctx)
	return err
}

func (d *DB) GetService(ctx context.Context, id string) (*models.Service, error) {
	var service models.Service
	err := d.Bun.NewSelect().Model(&service).Where("id = ?", id).Limit(1).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &service, nil
}

func (d *DB) ListServices(ctx context.Context) ([]models.Service, error) {
	var services []models.Service
	err := d.Bun.NewSelect().Model(&services).Order("name ASC").Scan(ctx)
	if err != nil {
		return nil, err
	}
	return services, nil
}

func (d *DB) UpdateService(ctx context.Context, service models.Service) error {
	_, err := d.Bun.NewUpdate().Model(&service).WherePK().Exec(ctx)
	return err
}

func (d *DB) DeleteService(ctx context.Context, id string) error {
	_, err := d.Bun.NewDelete().Model((*models.Service)(nil)).Where("id = ?", id).Exec(ctx)
	return err
}

// --- staff ---

func (d *DB) CreateStaff(ctx context.Context, member models.Staff) error {
	_, err := d.Bun.NewInsert().Model(&member).Exec(ctx)
	return err
}

func (d *DB) ListStaff(ctx context.Context) ([]models.Staff, error) {
	var staff []models.Staff
	err := d.Bun.NewSelect().Model(&staff).Order("sort_order ASC", "name ASC").Scan(ctx)
	if err != nil {
		return nil, err
	}
	return staff, nil
}

func (d *DB) UpdateStaff(ctx context.Context, member models.Staff) error {
	_, err := d.Bun.NewUpdate().Model(&member).WherePK().Exec(ctx)
	return err
}

func (d *DB) DeleteStaff(ctx context.Context, id string) error {
	_, err := d.Bun.NewDelete().Model((*models.Staff)(nil)).Where("id = ?", id).Exec(ctx)
	return err
}

// --- portfolio ---

func (d *DB) CreatePortfolioItem(ctx context.Context, item models.PortfolioItem) error {
	_, err := d.Bun.NewInsert().Model(&item).Exec(ctx)
	return err
}

func (d *DB) ListPortfolio(ctx context.Context, publishedOnly bool) ([]models.PortfolioItem, error) {
	var items []models.PortfolioItem
	q := d.Bun.NewSelect().Model(&items).Order("sort_order ASC")
	if publishedOnly {
		q = q.Where("published = TRUE")
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return items, nil
}

func (d *DB) UpdatePortfolioItem(ctx context.Context, item models.PortfolioItem) error {
	_, err := d.Bun.NewUpdate().Model(&item).WherePK().Exec(ctx)
	return err
}

func (d *DB) DeletePortfolioItem(ctx context.Context, id string) error {
	_, err := d.Bun.NewDelete().Model((*models.PortfolioItem)(nil)).Where("id = ?", id).Exec(ctx)
	return err
}

// --- quote requests ---

func (d *DB) CreateQuoteRequest(ctx context.Context, quote models.QuoteRequest) error {
	_, err := d.Bun.NewInsert().Model(&quote).Exec(ctx)
	return err
}

func (d *DB) GetQuoteRequest(ctx context.Context, id string) (*models.QuoteRequest, error) {
	var quote models.QuoteRequest
	err := d.Bun.NewSelect().Model(&quote).Where("id = ?", id).Limit(1).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &quote, nil
}

func (d *DB) ListQuoteRequests(ctx context.Context) ([]models.QuoteRequest, error) {
	var quotes []models.QuoteRequest
	err := d.Bun.NewSelect().Model(&quotes).Order("created_at DESC").Scan(ctx)
	if err != nil {
		return nil, err
	}
	return quotes, nil
}

func (d *DB) UpdateQuoteRequest(ctx context.Context, quote models.QuoteRequest) error {
	_, err := d.Bun.NewUpdate().Model(&quote).WherePK().Exec(ctx)
	return err
}

func (d *DB) DeleteQuoteRequest(ctx context.Context, id string) error {
	_, err := d.Bun.NewDelete().Model((*models.QuoteRequest)(nil)).Where("id = ?", id).Exec(ctx)
	return err
}

// --- blocked dates ---

func (d *DB) CreateBlockedDate(ctx context.Context, blocked models.BlockedDate) error {
	_, err := d.Bun.NewInsert().Model(&blocked).Exec(ctx)
	return err
}

func (d *DB) ListBlockedDates(ctx context.Context) ([]models.BlockedDate, error) {
	var dates []models.BlockedDate
	err := d.Bun.NewSelect().Model(&dates).Order("date ASC").Scan(ctx)
	if err != nil {
		return nil, err
	}
	return dates, nil
}

func (d *DB) DeleteBlockedDate(ctx context.Context, date string) error {
	_, err := d.Bun.NewDelete().Model((*models.BlockedDate)(nil)).Where("date = ?", date).Exec(ctx)
	return err
}

// --- users and roles ---

func (d *DB) UpsertProfile(ctx context.Context, profile models.Profile) error {
	_, err := d.Bun.NewInsert().
		Model(&profile).
		On("CONFLICT (id) DO UPDATE").
		Set("email = EXCLUDED.email").
		Set("full_name = EXCLUDED.full_name").
		Exec(ctx)
	return err
}

func (d *DB) ListProfiles(ctx context.Context) ([]models.Profile, error) {
	var profiles []models.Profile
	err := d.Bun.NewSelect().Model(&profiles).Order("joined_at DESC").Scan(ctx)
	if err != nil {
		return nil, err
	}
	return profiles, nil
}

func (d *DB) GetRole(ctx context.Context, userID string) (models.Role, error) {
	var row models.UserRole
	err := d.Bun.NewSelect().Model(&row).Where("user_id = ?", userID).Limit(1).Scan(ctx)
	if err != nil {
		return "", err
	}
	return row.Role, nil
}

// SetRole replaces the user's single role row.
func (d *DB) SetRole(ctx context.Context, userID string, role models.Role) error {
	row := models.UserRole{UserID: userID, Role: role}
	_, err := d.Bun.NewInsert().
		Model(&row).
		On("CONFLICT (user_id) DO UPDATE").
		Set("role = EXCLUDED.role").
		Exec(ctx)
	return err
}

func (d *DB) DeleteUser(ctx context.Context, userID string) error {
	if _, err := d.Bun.NewDelete().Model((*models.UserRole)(nil)).Where("user_id = ?", userID).Exec(ctx); err != nil {
		return err
	}
	_, err := d.Bun.NewDelete().Model((*models.Profile)(nil)).Where("id = ?", userID).Exec(ctx)
	return err
}

// --- dashboard ---

func (d *DB) CountBookingsByStatus(ctx context.Context) (map[models.BookingStatus]int, error) {
	var rows []struct {
		Status models.BookingStatus `bun:"status"`
		Count  int                  `bun:"count"`
	}
	err := d.Bun.NewSelect().
		Model((*models.Booking)(nil)).
		ColumnExpr("status, COUNT(*) AS count").
		Group("status").
		Scan(ctx, &rows)
	if err != nil {
		return nil, err
	}

	counts := make(map[models.BookingStatus]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// SumRevenuePence totals estimated revenue across non-cancelled bookings.
func (d *DB) SumRevenuePence(ctx context.Context) (int64, error) {
	var total int64
	err := d.Bun.NewSelect().
		Model((*models.Booking)(nil)).
		ColumnExpr("COALESCE(SUM(estimated_total_pence), 0)").
		Where("status <> ?", models.StatusCancelled).
		Scan(ctx, &total)
	return total, err
}

func (d *DB) CountNewQuotes(ctx context.Context) (int, error) {
	return d.Bun.NewSelect().
		Model((*models.QuoteRequest)(nil)).
		Where("status = ?", models.QuoteNew).
		Count(ctx)
}

func (d *DB) CountLockedProjects(ctx context.Context) (int, error) {
	return d.Bun.NewSelect().
		Model((*models.Project)(nil)).
		Where("content_locked = TRUE").
		Count(ctx)
}
