package outbox

import (
	"context"
	"fmt"
	"time"

	"studio-service/internal/logger"
	"studio-service/internal/models"

	"github.com/uptrace/bun"
)

const (
	pollInterval = 2 * time.Second
	batchSize    = 50
	maxAttempts  = 10
)

// Store reads and marks outbox rows.
type Store struct {
	Bun *bun.DB
}

func (s *Store) ListUnsent(ctx context.Context, limit int) ([]models.OutboxEvent, error) {
	var events []models.OutboxEvent
	err := s.Bun.NewSelect().
		Model(&events).
		Where("sent_at IS NULL").
		Where("attempts < ?", maxAttempts).
		Order("id ASC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (s *Store) MarkSent(ctx context.Context, id int64) error {
	_, err := s.Bun.NewUpdate().
		Model((*models.OutboxEvent)(nil)).
		Set("sent_at = ?", time.Now()).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

func (s *Store) MarkFailed(ctx context.Context, id int64) error {
	_, err := s.Bun.NewUpdate().
		Model((*models.OutboxEvent)(nil)).
		Set("attempts = attempts + 1").
		Where("id = ?", id).
		Exec(ctx)
	return err
}

type Publisher interface {
	Publish(ctx context.Context, topic, key string, value []byte) error
}

// Dispatcher drains unsent outbox rows to Kafka in insertion order. Rows are
// marked sent only after the broker accepts them, so delivery is
// at-least-once and consumers must tolerate duplicates.
type Dispatcher struct {
	Store     *Store
	Publisher Publisher
	Logger    *logger.Logger
}

func NewDispatcher(store *Store, publisher Publisher, log *logger.Logger) *Dispatcher {
	return &Dispatcher{Store: store, Publisher: publisher, Logger: log}
}

// Run polls until the context is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := d.DrainOnce(ctx); err != nil {
				d.Logger.Error("OUTBOX", fmt.Sprintf("drain failed: %v", err))
			}
		}
	}
}

// DrainOnce publishes one batch of unsent rows.
func (d *Dispatcher) DrainOnce(ctx context.Context) error {
	events, err := d.Store.ListUnsent(ctx, batchSize)
	if err != nil {
		return fmt.Errorf("failed to list unsent events: %w", err)
	}

	for _, event := range events {
		if err := d.Publisher.Publish(ctx, event.Topic, event.Key, event.Payload); err != nil {
			d.Logger.Warn("OUTBOX", fmt.Sprintf("publish of event %d to %s failed (attempt %d): %v", event.ID, event.Topic, event.Attempts+1, err))
			if markErr := d.Store.MarkFailed(ctx, event.ID); markErr != nil {
				return markErr
			}
			continue
		}
		if err := d.Store.MarkSent(ctx, event.ID); err != nil {
			return fmt.Errorf("failed to mark event %d sent: %w", event.ID, err)
		}
	}

	if len(events) > 0 {
		d.Logger.Info("OUTBOX", fmt.Sprintf("dispatched %d events", len(events)))
	}
	return nil
}
