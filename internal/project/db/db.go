package db

import (
	"context"

	"studio-service/internal/models"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

func (d *DB) CreateProject(ctx context.Context, project models.Project) error {
	_, err := d.Bun.NewInsert().Model(&project).Exec(ctx)
	return err
}

func (d *DB) GetProjectByID(ctx context.Context, id string) (*models.Project, error) {
	var project models.Project
	err := d.Bun.NewSelect().
		Model(&project).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (d *DB) GetProjectByBooking(ctx context.Context, bookingID string) (*models.Project, error) {
	var project models.Project
	err := d.Bun.NewSelect().
		Model(&project).
		Where("booking_id = ?", bookingID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (d *DB) ListProjects(ctx context.Context) ([]models.Project, error) {
	var projects []models.Project
	err := d.Bun.NewSelect().
		Model(&projects).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return projects, nil
}

func (d *DB) ListProjectsByClient(ctx context.Context, clientID string) ([]models.Project, error) {
	var projects []models.Project
	err := d.Bun.NewSelect().
		Model(&projects).
		Where("client_id = ?", clientID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return projects, nil
}

func (d *DB) SetLock(ctx context.Context, id string, locked bool) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.Project)(nil)).
		Set("content_locked = ?", locked).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

// AddFileCount bumps the running per-kind counter after successful uploads so
// the admin panel does not need a full re-list.
func (d *DB) AddFileCount(ctx context.Context, id string, kind models.FileKind, delta int) error {
	column := "preview_count"
	if kind == models.KindFull {
		column = "full_count"
	}
	_, err := d.Bun.NewUpdate().
		Model((*models.Project)(nil)).
		Set(column+" = "+column+" + ?", delta).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

func (d *DB) DeleteProject(ctx context.Context, id string) error {
	_, err := d.Bun.NewDelete().
		Model((*models.Project)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	return err
}
