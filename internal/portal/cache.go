package portal

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"studio-service/internal/models"
	"studio-service/internal/storage"

	"github.com/go-redis/redis/v8"
)

const listingTTL = 5 * time.Minute

// ListingCache keeps per-project object listings in Redis so repeated portal
// visits do not re-list the bucket. Signed URLs are never cached — they are
// minted fresh on every view.
type ListingCache struct {
	Client *redis.Client
}

func NewListingCache(client *redis.Client) *ListingCache {
	return &ListingCache{Client: client}
}

func listingKey(projectID string, kind models.FileKind) string {
	return fmt.Sprintf("portal_listing:%s:%s", projectID, kind)
}

func (c *ListingCache) Get(ctx context.Context, projectID string, kind models.FileKind) ([]storage.ObjectInfo, bool) {
	val, err := c.Client.Get(ctx, listingKey(projectID, kind)).Result()
	if err != nil {
		return nil, false
	}
	var objects []storage.ObjectInfo
	if err := json.Unmarshal([]byte(val), &objects); err != nil {
		return nil, false
	}
	return objects, true
}

func (c *ListingCache) Set(ctx context.Context, projectID string, kind models.FileKind, objects []storage.ObjectInfo) {
	data, err := json.Marshal(objects)
	if err != nil {
		return
	}
	c.Client.Set(ctx, listingKey(projectID, kind), data, listingTTL)
}

// Invalidate drops both namespaces for a project. Called on lock toggle,
// upload and delete so the gate never serves a stale file set.
func (c *ListingCache) Invalidate(ctx context.Context, projectID string) {
	c.Client.Del(ctx,
		listingKey(projectID, models.KindPreview),
		listingKey(projectID, models.KindFull),
	)
}
