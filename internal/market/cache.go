package market

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/redis/go-redis/v9"
)

// Snapshot is a cached point-in-time view of one ticker.
type Snapshot struct {
	Ticker        string    `cbor:"1,keyasint"`
	Price         float64   `cbor:"2,keyasint"`
	ChangePercent float64   `cbor:"3,keyasint"`
	Volume        int64     `cbor:"4,keyasint"`
	AsOf          time.Time `cbor:"5,keyasint"`
}

// ErrCacheMiss is returned when a ticker has no cached snapshot.
var ErrCacheMiss = errors.New("market snapshot not cached")

// DefaultSnapshotTTL bounds how stale a served snapshot can be.
const DefaultSnapshotTTL = 30 * time.Minute

// snapshotKey builds the redis key for a ticker's snapshot.
func snapshotKey(ticker string) string {
	return "market:snapshot:" + ticker
}

// SnapshotCache caches ticker snapshots in Redis using CBOR encoding,
// which keeps entries compact at high ticker counts.
type SnapshotCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSnapshotCache creates a snapshot cache. A zero ttl uses
// DefaultSnapshotTTL.
func NewSnapshotCache(client *redis.Client, ttl time.Duration) *SnapshotCache {
	if ttl == 0 {
		ttl = DefaultSnapshotTTL
	}
	return &SnapshotCache{client: client, ttl: ttl}
}

// Get retrieves a cached snapshot. Returns ErrCacheMiss when absent.
func (c *SnapshotCache) Get(ctx context.Context, ticker string) (Snapshot, error) {
	data, err := c.client.Get(ctx, snapshotKey(ticker)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Snapshot{}, ErrCacheMiss
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to read snapshot cache: %w", err)
	}
	return DecodeSnapshot(data)
}

// Set caches a snapshot under the configured TTL.
func (c *SnapshotCache) Set(ctx context.Context, snap Snapshot) error {
	data, err := EncodeSnapshot(snap)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, snapshotKey(snap.Ticker), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write snapshot cache: %w", err)
	}
	return nil
}

// EncodeSnapshot serializes a snapshot to CBOR.
func EncodeSnapshot(snap Snapshot) ([]byte, error) {
	data, err := cbor.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshot deserializes a CBOR snapshot.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	var snap Snapshot
	if err := cbor.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return snap, nil
}
