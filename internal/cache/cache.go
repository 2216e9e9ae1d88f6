// Package cache stores threshold results keyed by method, options and
// scores, in memory or in Redis.
package cache

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mat"

	"github.com/tensorplex-labs/threshold/internal/threshold"
)

const keyPrefix = "thresh:result:"

// ErrClosed is returned by a store used after Close.
var ErrClosed = errors.New("cache: store closed")

// Store is a byte-oriented key value store with expiry. Get reports a miss
// with found == false and a nil error.
type Store interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Close()
}

// Key identifies a request. Options without a stable encoding fall back to
// hashing the method and scores only, which is still exact for every
// procedure that ignores options.
func Key(method threshold.Method, opts threshold.Options, scores []float64) string {
	d := header(method, opts)
	writeFloats(d, scores)
	return keyPrefix + strconv.FormatUint(d.Sum64(), 16)
}

// MatrixKey identifies a request carrying an (n, d) score matrix.
func MatrixKey(method threshold.Method, opts threshold.Options, scores mat.Matrix) string {
	d := header(method, opts)
	rows, cols := scores.Dims()
	_, _ = d.WriteString("matrix:" + strconv.Itoa(rows) + "x" + strconv.Itoa(cols))
	row := make([]float64, cols)
	for i := range rows {
		mat.Row(row, i, scores)
		writeFloats(d, row)
	}
	return keyPrefix + strconv.FormatUint(d.Sum64(), 16)
}

func header(method threshold.Method, opts threshold.Options) *xxhash.Digest {
	d := xxhash.New()
	_, _ = d.WriteString(string(method))
	_, _ = d.Write([]byte{0})
	if raw, err := sonic.Marshal(opts); err == nil {
		_, _ = d.Write(raw)
	}
	_, _ = d.Write([]byte{0})
	return d
}

func writeFloats(d *xxhash.Digest, values []float64) {
	var buf [8]byte
	for _, v := range values {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		_, _ = d.Write(buf[:])
	}
}

// Cache wraps a Store with result encoding and hit accounting.
type Cache struct {
	store   Store
	ttl     time.Duration
	observe func(hit bool)
}

// New returns a cache over store. observe may be nil.
func New(store Store, ttl time.Duration, observe func(hit bool)) *Cache {
	if observe == nil {
		observe = func(bool) {}
	}
	return &Cache{store: store, ttl: ttl, observe: observe}
}

// Lookup returns the cached result for key. Store and decode failures are
// logged and reported as misses.
func (c *Cache) Lookup(ctx context.Context, key string) (*threshold.Result, bool) {
	raw, found, err := c.store.Get(ctx, key)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache lookup failed")
		c.observe(false)
		return nil, false
	}
	if !found {
		c.observe(false)
		return nil, false
	}

	var res threshold.Result
	if err := sonic.Unmarshal(raw, &res); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("discarding undecodable cache entry")
		c.observe(false)
		return nil, false
	}
	c.observe(true)
	return &res, true
}

// Store saves res under key.
func (c *Cache) Store(ctx context.Context, key string, res threshold.Result) error {
	raw, err := sonic.Marshal(res)
	if err != nil {
		return err
	}
	return c.store.Set(ctx, key, raw, c.ttl)
}

// Close releases the underlying store.
func (c *Cache) Close() {
	c.store.Close()
}
