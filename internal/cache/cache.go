package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/RonaldHZzzz/project-predict-traffic/internal/domain"
)

const (
	segmentsTTL = 10 * time.Minute
	busStopsTTL = time.Hour
)

// Cache holds slow-changing backend data (segments, bus stops) in Redis so
// the 30-second poll does not re-fetch static geometry every cycle. When the
// server is unreachable at startup the cache runs disabled: gets miss, puts
// are no-ops.
type Cache struct {
	client  *redis.Client
	prefix  string
	enabled bool
}

// New creates the cache and probes the connection. A failed ping only
// disables the cache, it never fails startup.
func New(addr, password, prefix string, db int) *Cache {
	c := &Cache{prefix: prefix}
	if addr == "" {
		return c
	}

	c.client = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := c.client.Ping(ctx).Err(); err != nil {
		log.Printf("cache: redis unreachable (%v), running without cache", err)
		return c
	}

	c.enabled = true
	return c
}

// Enabled reports whether the cache is talking to Redis
func (c *Cache) Enabled() bool {
	return c.enabled
}

func (c *Cache) key(parts ...string) string {
	key := c.prefix
	for _, p := range parts {
		key += ":" + p
	}
	return key
}

// Segments returns the cached segment list, if present
func (c *Cache) Segments(ctx context.Context) ([]domain.Segment, bool) {
	if !c.enabled {
		return nil, false
	}

	raw, err := c.client.Get(ctx, c.key("segments")).Result()
	if err != nil {
		if err != redis.Nil {
			log.Printf("cache: segment lookup failed: %v", err)
		}
		return nil, false
	}

	var segments []domain.Segment
	if err := json.Unmarshal([]byte(raw), &segments); err != nil {
		log.Printf("cache: corrupt segment entry dropped: %v", err)
		c.client.Del(ctx, c.key("segments"))
		return nil, false
	}
	return segments, true
}

// PutSegments stores the segment list
func (c *Cache) PutSegments(ctx context.Context, segments []domain.Segment) {
	if !c.enabled {
		return
	}

	raw, err := json.Marshal(segments)
	if err != nil {
		log.Printf("cache: failed to marshal segments: %v", err)
		return
	}
	if err := c.client.Set(ctx, c.key("segments"), raw, segmentsTTL).Err(); err != nil {
		log.Printf("cache: failed to store segments: %v", err)
	}
}

// BusStops returns the cached stops for one segment, if present
func (c *Cache) BusStops(ctx context.Context, segmentID int) ([]domain.BusStop, bool) {
	if !c.enabled {
		return nil, false
	}

	key := c.key("busstops", fmt.Sprintf("%d", segmentID))
	raw, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			log.Printf("cache: bus stop lookup failed: %v", err)
		}
		return nil, false
	}

	var stops []domain.BusStop
	if err := json.Unmarshal([]byte(raw), &stops); err != nil {
		log.Printf("cache: corrupt bus stop entry dropped: %v", err)
		c.client.Del(ctx, key)
		return nil, false
	}
	return stops, true
}

// PutBusStops stores the stops for one segment
func (c *Cache) PutBusStops(ctx context.Context, segmentID int, stops []domain.BusStop) {
	if !c.enabled {
		return
	}

	raw, err := json.Marshal(stops)
	if err != nil {
		log.Printf("cache: failed to marshal bus stops: %v", err)
		return
	}
	key := c.key("busstops", fmt.Sprintf("%d", segmentID))
	if err := c.client.Set(ctx, key, raw, busStopsTTL).Err(); err != nil {
		log.Printf("cache: failed to store bus stops: %v", err)
	}
}

// Close releases the underlying client
func (c *Cache) Close() {
	if c.client != nil {
		_ = c.client.Close()
	}
}
