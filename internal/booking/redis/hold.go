package redis

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// Hold takes a short-lived claim on a (date, service) pair while a submission
// is in flight. It narrows the window between the availability read and the
// insert; the database's partial unique index stays authoritative.
type Hold struct {
	Client *redis.Client
}

func NewHold(client *redis.Client) *Hold {
	return &Hold{Client: client}
}

func (h *Hold) holdDuration() time.Duration {
	defaultDuration := 30 * time.Second

	ttlStr := os.Getenv("BOOKING_HOLD_TTL_SECONDS")
	if ttlStr == "" {
		return defaultDuration
	}
	ttlSec, err := strconv.Atoi(ttlStr)
	if err != nil {
		return defaultDuration
	}
	return time.Duration(ttlSec) * time.Second
}

func key(eventDate, serviceID string) string {
	return fmt.Sprintf("booking_hold:%s:%s", eventDate, serviceID)
}

// Acquire returns false when another submission already holds the pair.
func (h *Hold) Acquire(ctx context.Context, eventDate, serviceID, bookingID string) (bool, error) {
	return h.Client.SetNX(ctx, key(eventDate, serviceID), bookingID, h.holdDuration()).Result()
}

// Release drops the hold if it is still owned by the given booking.
func (h *Hold) Release(ctx context.Context, eventDate, serviceID, bookingID string) error {
	k := key(eventDate, serviceID)
	val, err := h.Client.Get(ctx, k).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return err
	}
	if val == bookingID {
		_, err = h.Client.Del(ctx, k).Result()
		return err
	}
	return nil
}
