package conflict

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/schedcu/rosterengine/internal/regime"
	"github.com/schedcu/rosterengine/internal/shift"
)

// Cache opportunistically stores built oracles in Redis, keyed by a catalog
// fingerprint. It is never authoritative: a miss, a decode failure, or an
// unreachable Redis all just mean the oracle is recomputed. Nothing else in
// the engine persists state.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewCache creates a Cache against the Redis instance at addr.
func NewCache(addr string, ttl time.Duration) *Cache {
	return &Cache{
		rdb: redis.NewClient(&redis.Options{Addr: addr}),
		ttl: ttl,
	}
}

// Fingerprint hashes everything the oracle's contents depend on: the regime
// parameters and the full expanded shift set.
func Fingerprint(shifts []shift.Shift, params regime.Params) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%v|%d|%v|%v\n", params.Name, params.MinRestHours, params.MaxConsecutiveDays, params.MaxWorkingDaySpan, params.MaxDailyHours)
	for _, s := range shifts {
		fmt.Fprintf(h, "%d|%s|%s|%d|%d|%d|%d\n",
			s.ID, s.Date.Format("2006-01-02"), s.ServiceGroup, s.Vehicle, s.ShiftOrdinal, s.StartMinutes, s.EndMinutes)
	}
	return fmt.Sprintf("conflict:%x", h.Sum(nil))
}

// Load fetches a cached oracle for the given fingerprint and shift count.
// Returns false on miss, size mismatch, or any Redis error.
func (c *Cache) Load(ctx context.Context, key string, n int) (*Oracle, bool) {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	o, err := decodeOracle(raw, n)
	if err != nil {
		return nil, false
	}
	return o, true
}

// Store writes a built oracle under the given fingerprint. Errors are
// swallowed; the cache is best-effort.
func (c *Cache) Store(ctx context.Context, key string, o *Oracle) {
	c.rdb.Set(ctx, key, encodeOracle(o), c.ttl)
}

// Close releases the underlying Redis connection.
func (c *Cache) Close() error {
	return c.rdb.Close()
}

// encodeOracle flattens the two bitset adjacency structures into one byte
// slice: a shift-count header, then every overlap row, then every rest row.
func encodeOracle(o *Oracle) []byte {
	words := 0
	if o.n > 0 {
		words = len(o.overlap[0])
	}
	buf := make([]byte, 8, 8+o.n*words*16)
	binary.LittleEndian.PutUint64(buf, uint64(o.n))
	for _, rows := range [][]bitset{o.overlap, o.rest} {
		for _, row := range rows {
			for _, w := range row {
				var cell [8]byte
				binary.LittleEndian.PutUint64(cell[:], w)
				buf = append(buf, cell[:]...)
			}
		}
	}
	return buf
}

func decodeOracle(raw []byte, n int) (*Oracle, error) {
	if len(raw) < 8 {
		return nil, fmt.Errorf("short oracle payload")
	}
	stored := int(binary.LittleEndian.Uint64(raw))
	if stored != n {
		return nil, fmt.Errorf("oracle shift count mismatch: cached %d, want %d", stored, n)
	}
	words := (n + 63) / 64
	want := 8 + 2*n*words*8
	if len(raw) != want {
		return nil, fmt.Errorf("oracle payload size mismatch: %d bytes, want %d", len(raw), want)
	}

	o := &Oracle{
		n:       n,
		overlap: make([]bitset, n),
		rest:    make([]bitset, n),
	}
	off := 8
	for _, rows := range []*[]bitset{&o.overlap, &o.rest} {
		for i := 0; i < n; i++ {
			row := make(bitset, words)
			for w := 0; w < words; w++ {
				row[w] = binary.LittleEndian.Uint64(raw[off:])
				off += 8
			}
			(*rows)[i] = row
		}
	}
	return o, nil
}
