// studio-migrate resets and seeds a development database. It drops and
// recreates every table from the bun models, applies the indexes the models
// cannot express, and inserts sample rows. Production schemas go through the
// versioned SQL migrations instead.
package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"studio-service/internal/config"
	"studio-service/internal/models"
)

func main() {
	seed := flag.Bool("seed", true, "insert sample data after creating tables")
	drop := flag.Bool("drop", false, "drop existing tables first")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()
	ctx := context.Background()

	connector := pgdriver.NewConnector(pgdriver.WithDSN(cfg.Database.DSN))
	sqldb := sql.OpenDB(connector)
	defer sqldb.Close()

	if err := sqldb.PingContext(ctx); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	db := bun.NewDB(sqldb, pgdialect.New())

	if *drop {
		log.Println("Dropping tables...")
		dropTables(ctx, db)
	}

	log.Println("Creating tables...")
	createTables(ctx, db)

	log.Println("Creating indexes...")
	createIndexes(ctx, db)

	if *seed {
		log.Println("Seeding sample data...")
		seedData(ctx, db)
	}

	log.Println("Done.")
}

func dropTables(ctx context.Context, db *bun.DB) {
	tables := []interface{}{
		(*models.OutboxEvent)(nil),
		(*models.PortfolioItem)(nil),
		(*models.Staff)(nil),
		(*models.BlockedDate)(nil),
		(*models.QuoteRequest)(nil),
		(*models.Project)(nil),
		(*models.Booking)(nil),
		(*models.UserRole)(nil),
		(*models.Profile)(nil),
		(*models.Service)(nil),
	}
	for _, m := range tables {
		_, _ = db.NewDropTable().Model(m).IfExists().Cascade().Exec(ctx)
	}
}

func createTables(ctx context.Context, db *bun.DB) {
	tables := []interface{}{
		(*models.Service)(nil),
		(*models.Profile)(nil),
		(*models.UserRole)(nil),
		(*models.Booking)(nil),
		(*models.Project)(nil),
		(*models.QuoteRequest)(nil),
		(*models.BlockedDate)(nil),
		(*models.Staff)(nil),
		(*models.PortfolioItem)(nil),
		(*models.OutboxEvent)(nil),
	}
	for _, m := range tables {
		if _, err := db.NewCreateTable().Model(m).IfNotExists().Exec(ctx); err != nil {
			log.Fatalf("Failed to create table for %T: %v", m, err)
		}
	}
}

func createIndexes(ctx context.Context, db *bun.DB) {
	// One live booking per service per date. Cancelled rows release the slot.
	stmts := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS bookings_active_date_service
			ON bookings (event_date, service_id) WHERE status <> 'cancelled'`,
		`CREATE INDEX IF NOT EXISTS outbox_events_unsent
			ON outbox_events (id) WHERE sent_at IS NULL`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			log.Fatalf("Failed to create index: %v", err)
		}
	}
}

func seedData(ctx context.Context, db *bun.DB) {
	services := []models.Service{
		{ID: "svc-photography", Name: "Event Photography", Slug: "event-photography", HourlyRatePence: 15000, Description: "Full-day or hourly event photography coverage.", CreatedAt: time.Now()},
		{ID: "svc-videography", Name: "Event Videography", Slug: "event-videography", HourlyRatePence: 20000, Description: "Cinematic video coverage with edited highlights.", CreatedAt: time.Now()},
		{ID: "svc-studio", Name: "Studio Session", Slug: "studio-session", HourlyRatePence: 12000, Description: "In-studio portrait and product sessions.", CreatedAt: time.Now()},
		{ID: "svc-livestream", Name: "Live Streaming", Slug: "live-streaming", HourlyRatePence: 18000, Description: "Multi-camera live stream production.", CreatedAt: time.Now()},
	}
	if _, err := db.NewInsert().Model(&services).On("CONFLICT (id) DO NOTHING").Exec(ctx); err != nil {
		log.Fatalf("Failed to seed services: %v", err)
	}

	staff := []models.Staff{
		{ID: "staff-jt", Name: "Jordan Thomas", RoleTitle: "Lead Photographer", SortOrder: 1},
		{ID: "staff-sam", Name: "Sam Okafor", RoleTitle: "Videographer", SortOrder: 2},
	}
	_, _ = db.NewInsert().Model(&staff).On("CONFLICT (id) DO NOTHING").Exec(ctx)

	blocked := []models.BlockedDate{
		{Date: "2025-12-25", Reason: "Christmas Day"},
		{Date: "2026-01-01", Reason: "New Year's Day"},
	}
	_, _ = db.NewInsert().Model(&blocked).On("CONFLICT (date) DO NOTHING").Exec(ctx)
}
