package catalog

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/ristretto"

	"github.com/hyperterse/querycheck/core/domain/fieldtypes"
	"github.com/hyperterse/querycheck/core/domain/interfaces"
	"github.com/hyperterse/querycheck/core/domain/search"
	"github.com/hyperterse/querycheck/core/observability"
)

const (
	// Field sets are small; cost is counted in fields.
	defaultCacheMaxCost     = 1 << 20
	defaultCacheNumCounters = 100_000
	defaultCacheBufferItems = 64
)

// CachingResolver keeps resolved field sets for a while so repeated
// validations of the same streams do not hit the backend
type CachingResolver struct {
	next  interfaces.CatalogBackend
	store *ristretto.Cache
	ttl   time.Duration
}

// NewCachingResolver wraps next with a cache whose entries expire after ttl
func NewCachingResolver(next interfaces.CatalogBackend, ttl time.Duration) (*CachingResolver, error) {
	store, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: defaultCacheNumCounters,
		MaxCost:     defaultCacheMaxCost,
		BufferItems: defaultCacheBufferItems,
	})
	if err != nil {
		return nil, err
	}
	return &CachingResolver{next: next, store: store, ttl: ttl}, nil
}

func (c *CachingResolver) Name() string {
	return c.next.Name()
}

func (c *CachingResolver) FieldTypesByStreamIDs(ctx context.Context, streamIDs []string, tr search.TimeRange) (fieldtypes.FieldTypes, error) {
	key := cacheKey(streamIDs, tr)
	if value, ok := c.store.Get(key); ok {
		if fields, ok := value.(fieldtypes.FieldTypes); ok {
			observability.RecordCatalogCache(ctx, true)
			return fields, nil
		}
	}
	observability.RecordCatalogCache(ctx, false)

	fields, err := c.next.FieldTypesByStreamIDs(ctx, streamIDs, tr)
	if err != nil {
		return fieldtypes.FieldTypes{}, err
	}

	cost := int64(fields.Len())
	if cost == 0 {
		cost = 1
	}
	if c.store.SetWithTTL(key, fields, cost, c.ttl) {
		// Sets are asynchronous; make the entry visible to the next lookup.
		c.store.Wait()
	}
	return fields, nil
}

// Invalidate drops every cached entry
func (c *CachingResolver) Invalidate() {
	c.store.Clear()
}

func (c *CachingResolver) Close() error {
	c.store.Close()
	return c.next.Close()
}

func cacheKey(streamIDs []string, tr search.TimeRange) string {
	sorted := append([]string(nil), streamIDs...)
	sort.Strings(sorted)
	hash := sha256.Sum256([]byte(strings.Join(sorted, ",") + "|" + tr.Key()))
	return hex.EncodeToString(hash[:])
}
