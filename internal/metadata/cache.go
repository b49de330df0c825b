package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/whirlwatch/whirlwatch/internal/models"
)

const cacheTTL = 6 * time.Hour

// CachedEnricher wraps a provider with a redis read-through cache. Cache
// failures degrade to a direct provider call.
type CachedEnricher struct {
	inner Enricher
	rdb   *redis.Client
}

func NewCachedEnricher(inner Enricher, rdb *redis.Client) *CachedEnricher {
	return &CachedEnricher{inner: inner, rdb: rdb}
}

func cacheKey(externalID string, kind models.MediaKind) string {
	return fmt.Sprintf("metadata:%s:%s", kind, externalID)
}

func (c *CachedEnricher) Enrich(ctx context.Context, externalID string, kind models.MediaKind) (*ItemDetails, error) {
	key := cacheKey(externalID, kind)

	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var d ItemDetails
		if json.Unmarshal(raw, &d) == nil {
			return &d, nil
		}
	} else if err != redis.Nil {
		log.Printf("[metadata] cache read %s: %v", key, err)
	}

	d, err := c.inner.Enrich(ctx, externalID, kind)
	if err != nil || d == nil {
		return d, err
	}

	if data, jerr := json.Marshal(d); jerr == nil {
		if serr := c.rdb.Set(ctx, key, data, cacheTTL).Err(); serr != nil {
			log.Printf("[metadata] cache write %s: %v", key, serr)
		}
	}
	return d, nil
}
